package storage

import (
	"context"
	"path"
	"strconv"
	"strings"
	"time"

	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/effects"
	"frontdesk-order-services/internal/receipt"
	"frontdesk-order-services/internal/utils"

	"go.uber.org/zap"
)

// Bucket is the slice of ObjectStore the archiver needs.
type Bucket interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error
	URL(key string) string
	PresignGetObject(ctx context.Context, key string, expires time.Duration) (string, error)
}

type ArchiveOptions struct {
	Prefix     string
	OutletName string
	Currency   string
	Location   *time.Location
}

// InvoiceArchiver renders billed invoices to PDF and uploads them.
type InvoiceArchiver struct {
	store  Bucket
	opts   ArchiveOptions
	logger *zap.Logger
}

func NewInvoiceArchiver(store Bucket, opts ArchiveOptions, logger *zap.Logger) *InvoiceArchiver {
	if strings.TrimSpace(opts.Prefix) == "" {
		opts.Prefix = "invoices"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &InvoiceArchiver{store: store, opts: opts, logger: logger}
}

// InvoiceKey is <prefix>/<outlet>/<business date>/<invoice number>.pdf.
func (a *InvoiceArchiver) InvoiceKey(archive effects.InvoiceArchive) string {
	return path.Join(
		strings.Trim(a.opts.Prefix, "/"),
		strconv.FormatInt(archive.OutletID, 10),
		utils.BusinessDate(archive.Invoice.CreatedAt, a.opts.Location),
		receipt.Filename(archive.Invoice),
	)
}

func (a *InvoiceArchiver) ArchiveInvoice(ctx context.Context, archive effects.InvoiceArchive) error {
	doc := receipt.Invoice{
		OutletName: a.opts.OutletName,
		Currency:   a.opts.Currency,
		Order:      archive.Order,
		Invoice:    archive.Invoice,
		Items:      archive.Items,
		Location:   a.opts.Location,
	}
	if archive.Table != nil {
		doc.TableLabel = archive.Table.Label
	}

	pdf, err := receipt.Render(doc)
	if err != nil {
		return err
	}

	key := a.InvoiceKey(archive)
	err = a.store.PutObject(ctx, key, pdf.Bytes(), "application/pdf", map[string]string{
		"order-number":   archive.Order.Number,
		"invoice-number": archive.Invoice.Number,
		"grand-total":    archive.Invoice.GrandTotal.StringFixed(2),
	})
	if err != nil {
		return err
	}
	a.logger.Info("invoice archived", zap.String("key", key), zap.Int64("orderId", archive.Order.ID))
	return nil
}

// DownloadURL links to the archived PDF of invoice: the public URL when the
// bucket has one, otherwise a presigned link valid for expires. The object
// may still be uploading right after billing.
func (a *InvoiceArchiver) DownloadURL(ctx context.Context, outletID int64, invoice domain.Invoice, expires time.Duration) (string, error) {
	key := a.InvoiceKey(effects.InvoiceArchive{OutletID: outletID, Invoice: invoice})
	if public := a.store.URL(key); public != "" {
		return public, nil
	}
	return a.store.PresignGetObject(ctx, key, expires)
}
