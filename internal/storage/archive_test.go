package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/effects"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type putRecorder struct {
	key         string
	body        []byte
	contentType string
	metadata    map[string]string
	err         error
	publicBase  string
	presigned   string
	expires     time.Duration
}

func (p *putRecorder) PutObject(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error {
	p.key = key
	p.body = body
	p.contentType = contentType
	p.metadata = metadata
	return p.err
}

func (p *putRecorder) URL(key string) string {
	if p.publicBase == "" {
		return ""
	}
	return p.publicBase + "/" + key
}

func (p *putRecorder) PresignGetObject(ctx context.Context, key string, expires time.Duration) (string, error) {
	p.presigned = key
	p.expires = expires
	return "https://signed.example/" + key + "?sig=x", nil
}

func sampleArchive() effects.InvoiceArchive {
	return effects.InvoiceArchive{
		OutletID: 3,
		Order:    domain.Order{ID: 11, OutletID: 3, Number: "ORD-20260301-11", Type: domain.OrderDineIn},
		Invoice: domain.Invoice{
			Number:     "INV-20260301-4",
			ItemsTotal: decimal.NewFromInt(400),
			Subtotal:   decimal.NewFromInt(400),
			GrandTotal: decimal.NewFromInt(420),
			CreatedAt:  time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC),
		},
		Items: []domain.OrderItem{{Name: "Veg Thali", Quantity: 1, LineTotal: decimal.NewFromInt(400), Status: domain.ItemServed}},
		Table: &domain.Table{Label: "T4"},
	}
}

func TestArchiveInvoiceUploadsPDF(t *testing.T) {
	rec := &putRecorder{}
	loc := time.FixedZone("IST", 5*3600+1800)
	a := NewInvoiceArchiver(rec, ArchiveOptions{Prefix: "/bills/", Currency: "INR", Location: loc}, zap.NewNop())

	if err := a.ArchiveInvoice(context.Background(), sampleArchive()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.key != "bills/3/2026-03-02/INV-20260301-4.pdf" {
		t.Fatalf("unexpected key %s", rec.key)
	}
	if rec.contentType != "application/pdf" || !bytes.HasPrefix(rec.body, []byte("%PDF-")) {
		t.Fatalf("expected a pdf upload, got %s", rec.contentType)
	}
	if rec.metadata["grand-total"] != "420.00" {
		t.Fatalf("unexpected metadata %v", rec.metadata)
	}
}

func TestArchiveInvoicePropagatesUploadError(t *testing.T) {
	rec := &putRecorder{err: errors.New("bucket unavailable")}
	a := NewInvoiceArchiver(rec, ArchiveOptions{}, zap.NewNop())
	if err := a.ArchiveInvoice(context.Background(), sampleArchive()); err == nil {
		t.Fatal("expected upload error")
	}
	if rec.key != "invoices/3/2026-03-01/INV-20260301-4.pdf" {
		t.Fatalf("expected default prefix, got %s", rec.key)
	}
}

func TestDownloadURL(t *testing.T) {
	invoice := sampleArchive().Invoice

	private := &putRecorder{}
	a := NewInvoiceArchiver(private, ArchiveOptions{}, zap.NewNop())
	url, err := a.DownloadURL(context.Background(), 3, invoice, 10*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if private.presigned != "invoices/3/2026-03-01/INV-20260301-4.pdf" || private.expires != 10*time.Minute {
		t.Fatalf("expected presign of archive key, got %q for %s", private.presigned, private.expires)
	}
	if url != "https://signed.example/invoices/3/2026-03-01/INV-20260301-4.pdf?sig=x" {
		t.Fatalf("unexpected url %s", url)
	}

	public := &putRecorder{publicBase: "https://cdn.example"}
	a = NewInvoiceArchiver(public, ArchiveOptions{}, zap.NewNop())
	url, err = a.DownloadURL(context.Background(), 3, invoice, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://cdn.example/invoices/3/2026-03-01/INV-20260301-4.pdf" || public.presigned != "" {
		t.Fatalf("expected public url without presigning, got %s", url)
	}
}
