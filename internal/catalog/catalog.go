// Package catalog answers menu and charge questions for the order engine.
// Implementations wrap transport failures in apperr.Dependency so callers can
// fail fast without writing anything.
package catalog

import (
	"context"
	"errors"

	"frontdesk-order-services/internal/apperr"
	"frontdesk-order-services/internal/billing"
	"frontdesk-order-services/internal/domain"

	"github.com/shopspring/decimal"
)

// DefaultStation receives items whose menu entry names no station.
const DefaultStation = "kitchen"

type ItemRequest struct {
	MenuItemID   int64
	VariantID    *int64
	AddonIDs     []int64
	Quantity     int
	Instructions string
}

type ResolvedItem struct {
	MenuItemID int64
	VariantID  *int64
	Name       string
	UnitPrice  decimal.Decimal
	AddonTotal decimal.Decimal
	TaxGroupID *int64
}

type MenuLookup interface {
	// ResolveItems prices each request, in order.
	ResolveItems(ctx context.Context, outletID int64, reqs []ItemRequest) ([]ResolvedItem, error)
	// Stations maps menu item ids to their preparation station.
	Stations(ctx context.Context, outletID int64, menuItemIDs []int64) (map[int64]string, error)
}

type ChargeLookup interface {
	Charges(ctx context.Context, outletID int64, orderType domain.OrderType) (billing.Config, error)
}

func dependencyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Dependency("catalog "+op+" timed out", err)
	}
	return apperr.Dependency("catalog "+op+" failed", err)
}

func unknownItem(id int64) error {
	return apperr.Validation("", "menu item is not available", map[string]any{"menuItemId": id})
}
