package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VendorStatus string

const (
	VendorStatusPending   VendorStatus = "pending"
	VendorStatusActive    VendorStatus = "active"
	VendorStatusSuspended VendorStatus = "suspended"
	VendorStatusRejected  VendorStatus = "rejected"
)

var VendorStatuses = []VendorStatus{VendorStatusPending, VendorStatusActive, VendorStatusSuspended, VendorStatusRejected}

func (s VendorStatus) IsValid() bool {
	switch s {
	case VendorStatusPending, VendorStatusActive, VendorStatusSuspended, VendorStatusRejected:
		return true
	}
	return false
}

// Vendor mirrors an admin user with role=vendor; ID is the same identity the
// access token carries in its subject.
type Vendor struct {
	ID        string       `gorm:"primaryKey;type:varchar(64)"       json:"vendorId"`
	Name      string       `gorm:"type:varchar(255);not null"        json:"name"`
	Email     string       `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Status    VendorStatus `gorm:"type:varchar(16);index;not null"   json:"status"`
	Version   int          `gorm:"not null;default:1"                json:"-"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func (v *Vendor) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

func (v *Vendor) BeforeSave(tx *gorm.DB) error {
	if !v.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

func (v *Vendor) IsActive() bool { return v.Status == VendorStatusActive }
