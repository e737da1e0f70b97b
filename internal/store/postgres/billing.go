package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const discountColumns = `id, order_id, discount_type, value, amount, reason, applied_by, created_at`

func (t *tx) ListDiscounts(ctx context.Context, orderID int64) ([]domain.Discount, error) {
	rows, err := t.tx.Query(ctx, `select `+discountColumns+` from order_discounts where order_id = $1 order by id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list discounts of order %d: %w", orderID, err)
	}
	defer rows.Close()

	out := make([]domain.Discount, 0)
	for rows.Next() {
		var (
			d             domain.Discount
			discountType  string
			value, amount pgtype.Numeric
			reason        pgtype.Text
		)
		if err := rows.Scan(&d.ID, &d.OrderID, &discountType, &value, &amount, &reason, &d.AppliedBy, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan discount: %w", err)
		}
		d.Type = domain.DiscountType(discountType)
		d.Value = dec(value)
		d.Amount = dec(amount)
		d.Reason = textOf(reason)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (t *tx) InsertDiscount(ctx context.Context, d *domain.Discount) error {
	err := t.tx.QueryRow(ctx, `
		insert into order_discounts (order_id, discount_type, value, amount, reason, applied_by, created_at)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning id
	`, d.OrderID, string(d.Type), num(d.Value), num(d.Amount), nullText(d.Reason), d.AppliedBy, d.CreatedAt).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("insert discount: %w", err)
	}
	return nil
}

func (t *tx) UpdateDiscount(ctx context.Context, d domain.Discount) error {
	tag, err := t.tx.Exec(ctx, `update order_discounts set amount = $1 where id = $2`, num(d.Amount), d.ID)
	if err != nil {
		return fmt.Errorf("update discount %d: %w", d.ID, err)
	}
	return checkAffected(tag, "discount", d.ID)
}

const invoiceColumns = `
	id, order_id, invoice_number, items_total, price_adjustment, subtotal, discount_amount,
	tax_lines, tax_amount, service_charge, packaging_charge, delivery_charge, round_off,
	grand_total, is_cancelled, cancelled_at, created_by, created_at`

func scanInvoice(row pgx.Row) (domain.Invoice, error) {
	var (
		inv                                      domain.Invoice
		itemsTotal, adjustment, subtotal, discnt pgtype.Numeric
		tax, service, packaging, delivery        pgtype.Numeric
		roundOff, grand                          pgtype.Numeric
		taxLines                                 []byte
		cancelledAt                              pgtype.Timestamptz
	)
	err := row.Scan(
		&inv.ID, &inv.OrderID, &inv.Number, &itemsTotal, &adjustment, &subtotal, &discnt,
		&taxLines, &tax, &service, &packaging, &delivery, &roundOff,
		&grand, &inv.IsCancelled, &cancelledAt, &inv.CreatedBy, &inv.CreatedAt,
	)
	if err != nil {
		return domain.Invoice{}, err
	}
	if len(taxLines) > 0 {
		if err := json.Unmarshal(taxLines, &inv.TaxLines); err != nil {
			return domain.Invoice{}, fmt.Errorf("decode tax lines of invoice %d: %w", inv.ID, err)
		}
	}
	inv.ItemsTotal = dec(itemsTotal)
	inv.PriceAdjustment = dec(adjustment)
	inv.Subtotal = dec(subtotal)
	inv.DiscountAmount = dec(discnt)
	inv.TaxAmount = dec(tax)
	inv.ServiceCharge = dec(service)
	inv.PackagingCharge = dec(packaging)
	inv.DeliveryCharge = dec(delivery)
	inv.RoundOff = dec(roundOff)
	inv.GrandTotal = dec(grand)
	inv.CancelledAt = timePtr(cancelledAt)
	return inv, nil
}

func (t *tx) queryInvoices(ctx context.Context, sql string, args ...any) ([]domain.Invoice, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (t *tx) ActiveInvoice(ctx context.Context, orderID int64) (*domain.Invoice, error) {
	inv, err := scanInvoice(t.tx.QueryRow(ctx, `
		select `+invoiceColumns+`
		from invoices
		where order_id = $1 and is_cancelled = false
		order by id desc
		limit 1
	`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load active invoice of order %d: %w", orderID, err)
	}
	return &inv, nil
}

func (t *tx) GetInvoice(ctx context.Context, id int64) (domain.Invoice, error) {
	inv, err := scanInvoice(t.tx.QueryRow(ctx, `select `+invoiceColumns+` from invoices where id = $1`, id))
	if err != nil {
		return domain.Invoice{}, notFound(err, "invoice", id)
	}
	return inv, nil
}

func (t *tx) ListInvoices(ctx context.Context, orderID int64) ([]domain.Invoice, error) {
	return t.queryInvoices(ctx, `select `+invoiceColumns+` from invoices where order_id = $1 order by id`, orderID)
}

func (t *tx) InsertInvoice(ctx context.Context, inv *domain.Invoice) error {
	taxLines, err := json.Marshal(inv.TaxLines)
	if err != nil {
		return fmt.Errorf("encode tax lines: %w", err)
	}
	err = t.tx.QueryRow(ctx, `
		insert into invoices (
			order_id, invoice_number, items_total, price_adjustment, subtotal, discount_amount,
			tax_lines, tax_amount, service_charge, packaging_charge, delivery_charge, round_off,
			grand_total, created_by, created_at
		) values ($1, '', $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		returning id
	`, inv.OrderID, num(inv.ItemsTotal), num(inv.PriceAdjustment), num(inv.Subtotal), num(inv.DiscountAmount),
		taxLines, num(inv.TaxAmount), num(inv.ServiceCharge), num(inv.PackagingCharge), num(inv.DeliveryCharge), num(inv.RoundOff),
		num(inv.GrandTotal), inv.CreatedBy, inv.CreatedAt).Scan(&inv.ID)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	inv.Number = store.InvoiceNumber(inv.ID, inv.CreatedAt)
	if _, err := t.tx.Exec(ctx, `update invoices set invoice_number = $1 where id = $2`, inv.Number, inv.ID); err != nil {
		return fmt.Errorf("number invoice %d: %w", inv.ID, err)
	}
	return nil
}

func (t *tx) CancelInvoice(ctx context.Context, id int64, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		update invoices set is_cancelled = true, cancelled_at = $1
		where id = $2 and is_cancelled = false
	`, at, id)
	if err != nil {
		return fmt.Errorf("cancel invoice %d: %w", id, err)
	}
	return checkAffected(tag, "invoice", id)
}

func (t *tx) InsertPayment(ctx context.Context, p *domain.Payment) error {
	var metadata []byte
	if len(p.Metadata) > 0 {
		encoded, err := json.Marshal(p.Metadata)
		if err != nil {
			return fmt.Errorf("encode payment metadata: %w", err)
		}
		metadata = encoded
	}
	err := t.tx.QueryRow(ctx, `
		insert into payments (order_id, invoice_id, payment_mode, amount, metadata, recorded_by, created_at)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning id
	`, p.OrderID, p.InvoiceID, string(p.Mode), num(p.Amount), metadata, p.RecordedBy, p.CreatedAt).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (t *tx) ListPayments(ctx context.Context, orderID int64) ([]domain.Payment, error) {
	rows, err := t.tx.Query(ctx, `
		select id, order_id, invoice_id, payment_mode, amount, metadata, recorded_by, created_at
		from payments
		where order_id = $1
		order by id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments of order %d: %w", orderID, err)
	}
	defer rows.Close()

	out := make([]domain.Payment, 0)
	for rows.Next() {
		var (
			p        domain.Payment
			mode     string
			amount   pgtype.Numeric
			metadata []byte
		)
		if err := rows.Scan(&p.ID, &p.OrderID, &p.InvoiceID, &mode, &amount, &metadata, &p.RecordedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Mode = domain.PaymentMode(mode)
		p.Amount = dec(amount)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
				return nil, fmt.Errorf("decode payment metadata: %w", err)
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
