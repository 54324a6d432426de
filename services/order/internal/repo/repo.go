package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgdb "github.com/Skotchmaster/marketplace_admin/pkg/db"
	"github.com/Skotchmaster/marketplace_admin/pkg/outbox"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/models"
)

var (
	ErrStaleVersion     = errors.New("row version changed")
	ErrStockUnavailable = errors.New("stock unavailable")
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(
		&models.Vendor{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusChange{},
		&models.Payout{},
		&outbox.Record{},
	)
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Transaction runs fn with a repo bound to one database transaction.
func (r *GormRepo) Transaction(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

// forUpdate adds SELECT ... FOR UPDATE where the dialect supports row locks.
// SQLite serializes writers on its own.
func (r *GormRepo) forUpdate(q *gorm.DB) *gorm.DB {
	if pkgdb.IsSQLite(r.DB) {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}

// casUpdate writes fields on the row identified by model's primary key only if
// the stored version still equals version.
func (r *GormRepo) casUpdate(ctx context.Context, model any, version int, fields map[string]any) error {
	res := r.DB.WithContext(ctx).Model(model).Where("version = ?", version).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	return nil
}

func (r *GormRepo) Enqueue(ctx context.Context, topic string, ev outbox.Event) error {
	return outbox.Enqueue(ctx, r.DB, topic, ev)
}
