package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/engine"
	"frontdesk-order-services/internal/receipt"
	"frontdesk-order-services/internal/utils"
	"frontdesk-order-services/internal/view"
	"frontdesk-order-services/pkg/response"

	"github.com/shopspring/decimal"
)

func (h *Handler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}
	var body discountRequest
	if err := decodeBody(r, &body); err != nil {
		invalidBody(w)
		return
	}

	detail, err := h.Engine.ApplyDiscount(r.Context(), actor, orderID, body.input())
	if err != nil {
		h.writeError(w, r, "apply discount", err)
		return
	}
	response.Success(w, orderDetailView(detail))
}

type billRequest struct {
	Discount        *discountRequest `json:"discount"`
	PriceAdjustment *decimal.Decimal `json:"priceAdjustment"`
}

type billResponse struct {
	Order     view.Order      `json:"order"`
	Invoice   view.Invoice    `json:"invoice"`
	Items     []view.Item     `json:"items"`
	Discounts []view.Discount `json:"discounts"`
}

func (h *Handler) GenerateBill(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}
	var body billRequest
	if err := decodeBody(r, &body); err != nil {
		invalidBody(w)
		return
	}

	opts := engine.BillOptions{PriceAdjustment: body.PriceAdjustment}
	if body.Discount != nil {
		d := body.Discount.input()
		opts.Discount = &d
	}
	bill, err := h.Engine.GenerateBill(r.Context(), actor, orderID, opts)
	if err != nil {
		h.writeError(w, r, "generate bill", err)
		return
	}

	out := billResponse{
		Order:     view.OrderOf(bill.Order),
		Invoice:   view.InvoiceOf(bill.Invoice),
		Items:     view.ItemsOf(domain.ActiveItems(bill.Items)),
		Discounts: make([]view.Discount, 0, len(bill.Discounts)),
	}
	for _, d := range bill.Discounts {
		out.Discounts = append(out.Discounts, view.DiscountOf(d))
	}
	response.Created(w, out)
}

// InvoicePDF renders the order's active invoice.
func (h *Handler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}
	detail, err := h.Engine.GetOrder(r.Context(), actor, orderID)
	if err != nil {
		h.writeError(w, r, "invoice pdf", err)
		return
	}

	active := activeInvoice(detail)
	if active == nil {
		response.Error(w, http.StatusNotFound, "INVOICE_NOT_FOUND", "Order has no active invoice")
		return
	}

	doc := receipt.Invoice{
		OutletName: h.Config.OutletName,
		Currency:   h.Config.Currency,
		Order:      detail.Order,
		Invoice:    *active,
		Items:      detail.Items,
		Location:   utils.LoadLocation(h.Config.Timezone),
	}
	if detail.Order.TableID != nil {
		if table, err := h.Engine.GetTable(r.Context(), actor, *detail.Order.TableID); err == nil {
			doc.TableLabel = table.Table.Label
		}
	}

	pdf, err := receipt.Render(doc)
	if err != nil {
		h.writeError(w, r, "invoice pdf", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", receipt.Filename(*active)))
	w.Header().Set("Content-Length", strconv.Itoa(pdf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf.Bytes())
}

func activeInvoice(detail engine.OrderDetail) *domain.Invoice {
	var active *domain.Invoice
	for i := range detail.Invoices {
		if !detail.Invoices[i].IsCancelled {
			active = &detail.Invoices[i]
		}
	}
	return active
}

const invoiceLinkTTL = 15 * time.Minute

// InvoiceLink returns a download link for the archived PDF of the order's
// active invoice.
func (h *Handler) InvoiceLink(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}
	if h.Invoices == nil {
		response.Error(w, http.StatusNotFound, "ARCHIVE_DISABLED", "Invoice archiving is not configured")
		return
	}
	detail, err := h.Engine.GetOrder(r.Context(), actor, orderID)
	if err != nil {
		h.writeError(w, r, "invoice link", err)
		return
	}
	active := activeInvoice(detail)
	if active == nil {
		response.Error(w, http.StatusNotFound, "INVOICE_NOT_FOUND", "Order has no active invoice")
		return
	}

	url, err := h.Invoices.DownloadURL(r.Context(), detail.Order.OutletID, *active, invoiceLinkTTL)
	if err != nil {
		h.writeError(w, r, "invoice link", err)
		return
	}
	response.Success(w, map[string]any{
		"invoiceId":     active.ID,
		"invoiceNumber": active.Number,
		"url":           url,
		"expiresAt":     time.Now().Add(invoiceLinkTTL).UTC(),
	})
}

type paymentRequest struct {
	InvoiceID int64              `json:"invoiceId"`
	Mode      domain.PaymentMode `json:"mode"`
	Amount    decimal.Decimal    `json:"amount"`
	Metadata  map[string]any     `json:"metadata"`
}

type paymentResponse struct {
	Payment       view.Payment         `json:"payment"`
	Order         view.Order           `json:"order"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}
	var body paymentRequest
	if err := decodeBody(r, &body); err != nil {
		invalidBody(w)
		return
	}

	result, err := h.Engine.RecordPayment(r.Context(), actor, orderID, engine.PaymentInput{
		InvoiceID: body.InvoiceID,
		Mode:      body.Mode,
		Amount:    body.Amount,
		Metadata:  body.Metadata,
	})
	if err != nil {
		h.writeError(w, r, "record payment", err)
		return
	}
	response.Created(w, paymentResponse{
		Payment:       view.PaymentOf(result.Payment),
		Order:         view.OrderOf(result.Order),
		PaymentStatus: result.Status,
	})
}
