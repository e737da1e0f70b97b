package catalog

import (
	"context"
	"errors"

	"frontdesk-order-services/internal/apperr"
	"frontdesk-order-services/internal/billing"
	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Postgres struct {
	db Querier
}

func NewPostgres(db Querier) *Postgres {
	return &Postgres{db: db}
}

type menuRow struct {
	id         int64
	name       string
	price      decimal.Decimal
	taxGroupID *int64
	station    string
}

func (p *Postgres) loadMenuItems(ctx context.Context, outletID int64, ids []int64) (map[int64]menuRow, error) {
	rows, err := p.db.Query(ctx, `
		select id, name, price, tax_group_id, station
		from menu_items
		where outlet_id = $1 and id = any($2) and is_active = true and deleted_at is null
	`, outletID, ids)
	if err != nil {
		return nil, dependencyError("item lookup", err)
	}
	defer rows.Close()

	out := make(map[int64]menuRow, len(ids))
	for rows.Next() {
		var (
			row      menuRow
			price    pgtype.Numeric
			taxGroup pgtype.Int8
			station  pgtype.Text
		)
		if err := rows.Scan(&row.id, &row.name, &price, &taxGroup, &station); err != nil {
			return nil, dependencyError("item lookup", err)
		}
		row.price = utils.NumericToDecimal(price)
		if taxGroup.Valid {
			id := taxGroup.Int64
			row.taxGroupID = &id
		}
		if station.Valid {
			row.station = station.String
		}
		out[row.id] = row
	}
	if err := rows.Err(); err != nil {
		return nil, dependencyError("item lookup", err)
	}
	return out, nil
}

func (p *Postgres) ResolveItems(ctx context.Context, outletID int64, reqs []ItemRequest) ([]ResolvedItem, error) {
	ids := make([]int64, 0, len(reqs))
	for _, req := range reqs {
		ids = append(ids, req.MenuItemID)
	}
	menu, err := p.loadMenuItems(ctx, outletID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ResolvedItem, 0, len(reqs))
	for _, req := range reqs {
		row, ok := menu[req.MenuItemID]
		if !ok {
			return nil, unknownItem(req.MenuItemID)
		}
		resolved := ResolvedItem{
			MenuItemID: row.id,
			Name:       row.name,
			UnitPrice:  row.price,
			AddonTotal: decimal.Zero,
			TaxGroupID: row.taxGroupID,
		}

		if req.VariantID != nil {
			var (
				name  string
				price pgtype.Numeric
			)
			err := p.db.QueryRow(ctx, `
				select name, price from menu_item_variants
				where id = $1 and menu_item_id = $2 and is_active = true
			`, *req.VariantID, row.id).Scan(&name, &price)
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperr.Validation("", "variant does not belong to menu item", map[string]any{
					"menuItemId": row.id,
					"variantId":  *req.VariantID,
				})
			}
			if err != nil {
				return nil, dependencyError("variant lookup", err)
			}
			id := *req.VariantID
			resolved.VariantID = &id
			resolved.Name = row.name + " (" + name + ")"
			resolved.UnitPrice = utils.NumericToDecimal(price)
		}

		if len(req.AddonIDs) > 0 {
			total, found, err := p.addonTotal(ctx, row.id, req.AddonIDs)
			if err != nil {
				return nil, err
			}
			if found != len(req.AddonIDs) {
				return nil, apperr.Validation("", "addon does not belong to menu item", map[string]any{
					"menuItemId": row.id,
					"addonIds":   req.AddonIDs,
				})
			}
			resolved.AddonTotal = total
		}
		out = append(out, resolved)
	}
	return out, nil
}

func (p *Postgres) addonTotal(ctx context.Context, menuItemID int64, addonIDs []int64) (decimal.Decimal, int, error) {
	rows, err := p.db.Query(ctx, `
		select a.price
		from menu_addons a
		join menu_item_addons mia on mia.addon_id = a.id
		where mia.menu_item_id = $1 and a.id = any($2) and a.is_active = true
	`, menuItemID, addonIDs)
	if err != nil {
		return decimal.Zero, 0, dependencyError("addon lookup", err)
	}
	defer rows.Close()

	total := decimal.Zero
	found := 0
	for rows.Next() {
		var price pgtype.Numeric
		if err := rows.Scan(&price); err != nil {
			return decimal.Zero, 0, dependencyError("addon lookup", err)
		}
		total = total.Add(utils.NumericToDecimal(price))
		found++
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, 0, dependencyError("addon lookup", err)
	}
	return total, found, nil
}

func (p *Postgres) Stations(ctx context.Context, outletID int64, menuItemIDs []int64) (map[int64]string, error) {
	rows, err := p.db.Query(ctx, `
		select id, station from menu_items where outlet_id = $1 and id = any($2)
	`, outletID, menuItemIDs)
	if err != nil {
		return nil, dependencyError("station lookup", err)
	}
	defer rows.Close()

	out := make(map[int64]string, len(menuItemIDs))
	for rows.Next() {
		var (
			id      int64
			station pgtype.Text
		)
		if err := rows.Scan(&id, &station); err != nil {
			return nil, dependencyError("station lookup", err)
		}
		if station.Valid && station.String != "" {
			out[id] = station.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, dependencyError("station lookup", err)
	}
	for _, id := range menuItemIDs {
		if _, ok := out[id]; !ok {
			out[id] = DefaultStation
		}
	}
	return out, nil
}

func (p *Postgres) Charges(ctx context.Context, outletID int64, orderType domain.OrderType) (billing.Config, error) {
	cfg := billing.Config{TaxGroups: map[int64]billing.TaxGroup{}}

	rows, err := p.db.Query(ctx, `
		select g.id, g.name, c.name, c.rate
		from tax_groups g
		join tax_group_components c on c.tax_group_id = g.id
		where g.outlet_id = $1 and g.is_active = true
		order by g.id, c.id
	`, outletID)
	if err != nil {
		return billing.Config{}, dependencyError("charge lookup", err)
	}
	for rows.Next() {
		var (
			groupID   int64
			groupName string
			component string
			rate      pgtype.Numeric
		)
		if err := rows.Scan(&groupID, &groupName, &component, &rate); err != nil {
			rows.Close()
			return billing.Config{}, dependencyError("charge lookup", err)
		}
		group := cfg.TaxGroups[groupID]
		group.ID = groupID
		group.Name = groupName
		group.Components = append(group.Components, billing.TaxComponent{Name: component, Rate: utils.NumericToDecimal(rate)})
		cfg.TaxGroups[groupID] = group
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return billing.Config{}, dependencyError("charge lookup", err)
	}

	var (
		kind      pgtype.Text
		value     pgtype.Numeric
		packaging pgtype.Numeric
		delivery  pgtype.Numeric
	)
	err = p.db.QueryRow(ctx, `
		select service_charge_kind, service_charge_value, packaging_charge, delivery_charge
		from outlet_charges
		where outlet_id = $1 and order_type = $2
	`, outletID, string(orderType)).Scan(&kind, &value, &packaging, &delivery)
	if errors.Is(err, pgx.ErrNoRows) {
		return cfg, nil
	}
	if err != nil {
		return billing.Config{}, dependencyError("charge lookup", err)
	}

	cfg.ServiceCharge = billing.Charge{Kind: billing.ChargeFlat, Value: utils.NumericToDecimal(value)}
	if kind.Valid && kind.String == string(billing.ChargePercentage) {
		cfg.ServiceCharge.Kind = billing.ChargePercentage
	}
	cfg.PackagingCharge = utils.NumericToDecimal(packaging)
	cfg.DeliveryCharge = utils.NumericToDecimal(delivery)
	return cfg, nil
}
