package service

import (
	"github.com/Skotchmaster/marketplace_admin/pkg/actor"
	"github.com/Skotchmaster/marketplace_admin/pkg/lifecycle"
	"github.com/Skotchmaster/marketplace_admin/services/order/internal/models"
)

const (
	EffectReleaseStock   lifecycle.Effect = "release_stock"
	EffectAcceptTracking lifecycle.Effect = "accept_tracking"
	EffectFinalizePayout lifecycle.Effect = "finalize_payout"
)

var (
	vendorOrAdmin = []actor.Role{actor.RoleVendor, actor.RoleAdmin}
	adminOnly     = []actor.Role{actor.RoleAdmin}
)

type orderEdge = lifecycle.Edge[models.OrderStatus]

var OrderLifecycle = lifecycle.New("order", models.OrderStatuses,
	orderEdge{From: models.OrderStatusPending, To: models.OrderStatusProcessing, Roles: vendorOrAdmin},
	orderEdge{From: models.OrderStatusPending, To: models.OrderStatusCancelled, Roles: vendorOrAdmin, Effect: EffectReleaseStock},
	orderEdge{From: models.OrderStatusProcessing, To: models.OrderStatusShipped, Roles: vendorOrAdmin, Effect: EffectAcceptTracking},
	orderEdge{From: models.OrderStatusShipped, To: models.OrderStatusDelivered, Roles: vendorOrAdmin, Effect: EffectFinalizePayout},
	orderEdge{From: models.OrderStatusProcessing, To: models.OrderStatusCancelled, Roles: adminOnly, Effect: EffectReleaseStock},
	orderEdge{From: models.OrderStatusShipped, To: models.OrderStatusCancelled, Roles: adminOnly, Effect: EffectReleaseStock},
)

type vendorEdge = lifecycle.Edge[models.VendorStatus]

var VendorLifecycle = lifecycle.New("vendor", models.VendorStatuses,
	vendorEdge{From: models.VendorStatusPending, To: models.VendorStatusActive, Roles: adminOnly},
	vendorEdge{From: models.VendorStatusActive, To: models.VendorStatusSuspended, Roles: adminOnly},
	vendorEdge{From: models.VendorStatusPending, To: models.VendorStatusRejected, Roles: adminOnly},
)

type productEdge = lifecycle.Edge[models.ProductStatus]

var ProductLifecycle = lifecycle.New("product", models.ProductStatuses,
	productEdge{From: models.ProductStatusPending, To: models.ProductStatusActive, Roles: adminOnly},
	productEdge{From: models.ProductStatusActive, To: models.ProductStatusDeleted, Roles: vendorOrAdmin},
)
