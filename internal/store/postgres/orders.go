package postgres

import (
	"context"
	"fmt"

	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `
	id, outlet_id, table_id, session_id, order_number, order_type, status, guest_count,
	subtotal, price_adjustment, discount_amount, tax_amount, service_charge,
	packaging_charge, delivery_charge, round_off, total_amount, paid_amount,
	due_amount, change_amount, cancel_reason, cancelled_by, cancelled_at,
	billed_at, paid_at, created_by, created_at, updated_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o                                               domain.Order
		tableID, sessionID, cancelledBy                 pgtype.Int8
		orderType, status                               string
		subtotal, adjustment, discount, tax, service    pgtype.Numeric
		packaging, delivery, roundOff, total, paid, due pgtype.Numeric
		change                                          pgtype.Numeric
		cancelReason                                    pgtype.Text
		cancelledAt, billedAt, paidAt                   pgtype.Timestamptz
	)
	err := row.Scan(
		&o.ID, &o.OutletID, &tableID, &sessionID, &o.Number, &orderType, &status, &o.GuestCount,
		&subtotal, &adjustment, &discount, &tax, &service,
		&packaging, &delivery, &roundOff, &total, &paid,
		&due, &change, &cancelReason, &cancelledBy, &cancelledAt,
		&billedAt, &paidAt, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	o.TableID = int8Ptr(tableID)
	o.SessionID = int8Ptr(sessionID)
	o.Type = domain.OrderType(orderType)
	o.Status = domain.OrderStatus(status)
	o.Subtotal = dec(subtotal)
	o.PriceAdjustment = dec(adjustment)
	o.DiscountAmount = dec(discount)
	o.TaxAmount = dec(tax)
	o.ServiceCharge = dec(service)
	o.PackagingCharge = dec(packaging)
	o.DeliveryCharge = dec(delivery)
	o.RoundOff = dec(roundOff)
	o.TotalAmount = dec(total)
	o.PaidAmount = dec(paid)
	o.DueAmount = dec(due)
	o.ChangeAmount = dec(change)
	o.CancelReason = textOf(cancelReason)
	o.CancelledBy = int8Ptr(cancelledBy)
	o.CancelledAt = timePtr(cancelledAt)
	o.BilledAt = timePtr(billedAt)
	o.PaidAt = timePtr(paidAt)
	return o, nil
}

func (t *tx) InsertOrder(ctx context.Context, order *domain.Order) error {
	err := t.tx.QueryRow(ctx, `
		insert into orders (
			outlet_id, table_id, session_id, order_number, order_type, status, guest_count,
			created_by, created_at, updated_at
		) values ($1, $2, $3, '', $4, $5, $6, $7, $8, $9)
		returning id
	`, order.OutletID, order.TableID, order.SessionID, string(order.Type), string(order.Status),
		order.GuestCount, order.CreatedBy, order.CreatedAt, order.UpdatedAt).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	order.Number = store.OrderNumber(order.ID, order.CreatedAt)
	if _, err := t.tx.Exec(ctx, `update orders set order_number = $1 where id = $2`, order.Number, order.ID); err != nil {
		return fmt.Errorf("number order %d: %w", order.ID, err)
	}
	return nil
}

func (t *tx) GetOrder(ctx context.Context, id int64, lock bool) (domain.Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx, `select `+orderColumns+` from orders where id = $1`+forUpdate(lock), id))
	if err != nil {
		return domain.Order{}, notFound(err, "order", id)
	}
	return o, nil
}

func (t *tx) UpdateOrder(ctx context.Context, o domain.Order) error {
	tag, err := t.tx.Exec(ctx, `
		update orders set
			status = $1, guest_count = $2,
			subtotal = $3, price_adjustment = $4, discount_amount = $5, tax_amount = $6,
			service_charge = $7, packaging_charge = $8, delivery_charge = $9, round_off = $10,
			total_amount = $11, paid_amount = $12, due_amount = $13, change_amount = $14,
			cancel_reason = $15, cancelled_by = $16, cancelled_at = $17,
			billed_at = $18, paid_at = $19, updated_at = $20
		where id = $21
	`,
		string(o.Status), o.GuestCount,
		num(o.Subtotal), num(o.PriceAdjustment), num(o.DiscountAmount), num(o.TaxAmount),
		num(o.ServiceCharge), num(o.PackagingCharge), num(o.DeliveryCharge), num(o.RoundOff),
		num(o.TotalAmount), num(o.PaidAmount), num(o.DueAmount), num(o.ChangeAmount),
		nullText(o.CancelReason), o.CancelledBy, o.CancelledAt,
		o.BilledAt, o.PaidAt, o.UpdatedAt,
		o.ID,
	)
	if err != nil {
		return fmt.Errorf("update order %d: %w", o.ID, err)
	}
	return checkAffected(tag, "order", o.ID)
}

func (t *tx) queryOrders(ctx context.Context, sql string, args ...any) ([]domain.Order, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (t *tx) OpenOrdersForSession(ctx context.Context, sessionID int64) ([]domain.Order, error) {
	return t.queryOrders(ctx, `
		select `+orderColumns+`
		from orders
		where session_id = $1 and status not in ('paid', 'cancelled')
		order by id
	`, sessionID)
}

func (t *tx) OpenOrdersForTable(ctx context.Context, tableID int64) ([]domain.Order, error) {
	return t.queryOrders(ctx, `
		select `+orderColumns+`
		from orders
		where table_id = $1 and status not in ('paid', 'cancelled')
		order by id
	`, tableID)
}

const itemColumns = `
	id, order_id, menu_item_id, variant_id, name, quantity, unit_price, addon_total,
	line_total, tax_group_id, station, instructions, status, kot_id, cancel_reason,
	cancelled_by, cancelled_at, created_at, updated_at`

func scanItem(row pgx.Row) (domain.OrderItem, error) {
	var (
		it                                        domain.OrderItem
		variantID, taxGroupID, kotID, cancelledBy pgtype.Int8
		unitPrice, addonTotal, lineTotal          pgtype.Numeric
		station, instructions, cancelReason       pgtype.Text
		status                                    string
		cancelledAt                               pgtype.Timestamptz
	)
	err := row.Scan(
		&it.ID, &it.OrderID, &it.MenuItemID, &variantID, &it.Name, &it.Quantity, &unitPrice, &addonTotal,
		&lineTotal, &taxGroupID, &station, &instructions, &status, &kotID, &cancelReason,
		&cancelledBy, &cancelledAt, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return domain.OrderItem{}, err
	}
	it.VariantID = int8Ptr(variantID)
	it.UnitPrice = dec(unitPrice)
	it.AddonTotal = dec(addonTotal)
	it.LineTotal = dec(lineTotal)
	it.TaxGroupID = int8Ptr(taxGroupID)
	it.Station = textOf(station)
	it.Instructions = textOf(instructions)
	it.Status = domain.OrderItemStatus(status)
	it.KOTID = int8Ptr(kotID)
	it.CancelReason = textOf(cancelReason)
	it.CancelledBy = int8Ptr(cancelledBy)
	it.CancelledAt = timePtr(cancelledAt)
	return it, nil
}

func (t *tx) ListOrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := t.tx.Query(ctx, `select `+itemColumns+` from order_items where order_id = $1 order by id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list items of order %d: %w", orderID, err)
	}
	defer rows.Close()

	out := make([]domain.OrderItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (t *tx) GetOrderItem(ctx context.Context, id int64) (domain.OrderItem, error) {
	it, err := scanItem(t.tx.QueryRow(ctx, `select `+itemColumns+` from order_items where id = $1`, id))
	if err != nil {
		return domain.OrderItem{}, notFound(err, "order item", id)
	}
	return it, nil
}

func (t *tx) InsertOrderItem(ctx context.Context, it *domain.OrderItem) error {
	err := t.tx.QueryRow(ctx, `
		insert into order_items (
			order_id, menu_item_id, variant_id, name, quantity, unit_price, addon_total,
			line_total, tax_group_id, station, instructions, status, created_at, updated_at
		) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		returning id
	`, it.OrderID, it.MenuItemID, it.VariantID, it.Name, it.Quantity, num(it.UnitPrice), num(it.AddonTotal),
		num(it.LineTotal), it.TaxGroupID, nullText(it.Station), nullText(it.Instructions), string(it.Status),
		it.CreatedAt, it.UpdatedAt).Scan(&it.ID)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (t *tx) UpdateOrderItem(ctx context.Context, it domain.OrderItem) error {
	tag, err := t.tx.Exec(ctx, `
		update order_items set
			status = $1, station = $2, kot_id = $3, cancel_reason = $4,
			cancelled_by = $5, cancelled_at = $6, updated_at = $7
		where id = $8
	`, string(it.Status), nullText(it.Station), it.KOTID, nullText(it.CancelReason),
		it.CancelledBy, it.CancelledAt, it.UpdatedAt, it.ID)
	if err != nil {
		return fmt.Errorf("update order item %d: %w", it.ID, err)
	}
	return checkAffected(tag, "order item", it.ID)
}
