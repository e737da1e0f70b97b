// Package receipt renders invoices as printable PDF documents.
package receipt

import (
	"bytes"
	"fmt"
	"time"

	"frontdesk-order-services/internal/domain"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
)

type Invoice struct {
	OutletName string
	Currency   string
	Order      domain.Order
	Invoice    domain.Invoice
	Items      []domain.OrderItem
	TableLabel string
	Location   *time.Location
}

func (d Invoice) money(v decimal.Decimal) string {
	if d.Currency == "" {
		return v.StringFixed(2)
	}
	return fmt.Sprintf("%s %s", d.Currency, v.StringFixed(2))
}

func (d Invoice) stamp(t time.Time) string {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02 Jan 2006 15:04")
}

// Render lays out the bill on an A4 page. Cancelled items are left off.
func Render(d Invoice) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetTitle(d.Invoice.Number, false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	name := d.OutletName
	if name == "" {
		name = fmt.Sprintf("Outlet %d", d.Order.OutletID)
	}
	pdf.CellFormat(0, 8, name, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Invoice %s", d.Invoice.Number), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Order %s (%s)", d.Order.Number, d.Order.Type), "", 1, "C", false, 0, "")
	if d.TableLabel != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Table %s, %d guests", d.TableLabel, d.Order.GuestCount), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 5, fmt.Sprintf("Billed: %s", d.stamp(d.Invoice.CreatedAt)), "", 1, "C", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(110, 6, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(20, 6, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Amount", "B", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, item := range domain.ActiveItems(d.Items) {
		pdf.CellFormat(110, 5, item.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 5, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 5, d.money(item.LineTotal), "", 1, "R", false, 0, "")
		if item.Instructions != "" {
			pdf.SetFont("Arial", "I", 8)
			pdf.MultiCell(110, 4, item.Instructions, "", "L", false)
			pdf.SetFont("Arial", "", 9)
		}
	}

	pdf.Ln(2)
	line := func(label string, v decimal.Decimal) {
		pdf.CellFormat(130, 5, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 5, d.money(v), "", 1, "R", false, 0, "")
	}
	inv := d.Invoice
	line("Items total", inv.ItemsTotal)
	if !inv.PriceAdjustment.IsZero() {
		line("Adjustment", inv.PriceAdjustment)
	}
	line("Subtotal", inv.Subtotal)
	if inv.DiscountAmount.IsPositive() {
		line("Discount", inv.DiscountAmount.Neg())
	}
	for _, tax := range inv.TaxLines {
		line(fmt.Sprintf("%s %s%% on %s", tax.Component, tax.Rate.String(), tax.TaxableAmount.StringFixed(2)), tax.Amount)
	}
	if inv.ServiceCharge.IsPositive() {
		line("Service charge", inv.ServiceCharge)
	}
	if inv.PackagingCharge.IsPositive() {
		line("Packaging", inv.PackagingCharge)
	}
	if inv.DeliveryCharge.IsPositive() {
		line("Delivery", inv.DeliveryCharge)
	}
	if !inv.RoundOff.IsZero() {
		line("Round off", inv.RoundOff)
	}
	pdf.SetFont("Arial", "B", 11)
	line("Grand total", inv.GrandTotal)

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Filename is the archive name of an invoice PDF.
func Filename(inv domain.Invoice) string {
	return inv.Number + ".pdf"
}
