package catalog

import (
	"context"
	"sync"

	"frontdesk-order-services/internal/apperr"
	"frontdesk-order-services/internal/billing"
	"frontdesk-order-services/internal/domain"

	"github.com/shopspring/decimal"
)

type Variant struct {
	Name  string
	Price decimal.Decimal
}

type MenuItem struct {
	ID          int64
	OutletID    int64
	Name        string
	Price       decimal.Decimal
	TaxGroupID  *int64
	Station     string
	Variants    map[int64]Variant
	Addons      map[int64]decimal.Decimal
	Unavailable bool
}

type chargeKey struct {
	outletID  int64
	orderType domain.OrderType
}

// Static is an in-process catalog, used with the memory store and in tests.
type Static struct {
	mu      sync.RWMutex
	items   map[int64]MenuItem
	charges map[chargeKey]billing.Config
	failure error
}

func NewStatic() *Static {
	return &Static{
		items:   map[int64]MenuItem{},
		charges: map[chargeKey]billing.Config{},
	}
}

func (s *Static) AddItem(item MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

func (s *Static) SetCharges(outletID int64, orderType domain.OrderType, cfg billing.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charges[chargeKey{outletID: outletID, orderType: orderType}] = cfg
}

// SetFailure makes every lookup fail with err until cleared with nil.
func (s *Static) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

func (s *Static) ResolveItems(ctx context.Context, outletID int64, reqs []ItemRequest) ([]ResolvedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(ctx, "item lookup"); err != nil {
		return nil, err
	}

	out := make([]ResolvedItem, 0, len(reqs))
	for _, req := range reqs {
		item, ok := s.items[req.MenuItemID]
		if !ok || item.Unavailable || (item.OutletID != 0 && item.OutletID != outletID) {
			return nil, unknownItem(req.MenuItemID)
		}
		resolved := ResolvedItem{
			MenuItemID: item.ID,
			Name:       item.Name,
			UnitPrice:  item.Price,
			AddonTotal: decimal.Zero,
			TaxGroupID: item.TaxGroupID,
		}
		if req.VariantID != nil {
			variant, ok := item.Variants[*req.VariantID]
			if !ok {
				return nil, apperr.Validation("", "variant does not belong to menu item", map[string]any{
					"menuItemId": item.ID,
					"variantId":  *req.VariantID,
				})
			}
			id := *req.VariantID
			resolved.VariantID = &id
			resolved.Name = item.Name + " (" + variant.Name + ")"
			resolved.UnitPrice = variant.Price
		}
		for _, addonID := range req.AddonIDs {
			price, ok := item.Addons[addonID]
			if !ok {
				return nil, apperr.Validation("", "addon does not belong to menu item", map[string]any{
					"menuItemId": item.ID,
					"addonId":    addonID,
				})
			}
			resolved.AddonTotal = resolved.AddonTotal.Add(price)
		}
		out = append(out, resolved)
	}
	return out, nil
}

func (s *Static) Stations(ctx context.Context, _ int64, menuItemIDs []int64) (map[int64]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(ctx, "station lookup"); err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(menuItemIDs))
	for _, id := range menuItemIDs {
		station := s.items[id].Station
		if station == "" {
			station = DefaultStation
		}
		out[id] = station
	}
	return out, nil
}

func (s *Static) Charges(ctx context.Context, outletID int64, orderType domain.OrderType) (billing.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(ctx, "charge lookup"); err != nil {
		return billing.Config{}, err
	}
	return s.charges[chargeKey{outletID: outletID, orderType: orderType}], nil
}

func (s *Static) check(ctx context.Context, op string) error {
	if s.failure != nil {
		return dependencyError(op, s.failure)
	}
	return dependencyError(op, ctx.Err())
}
