package handlers

import (
	"context"
	"time"

	"frontdesk-order-services/internal/config"
	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/engine"

	"go.uber.org/zap"
)

// InvoiceLinker hands out download links for archived invoice PDFs.
type InvoiceLinker interface {
	DownloadURL(ctx context.Context, outletID int64, invoice domain.Invoice, expires time.Duration) (string, error)
}

type Handler struct {
	Engine *engine.Engine
	Logger *zap.Logger
	Config config.Config
	// Invoices is nil when invoice archiving is off.
	Invoices InvoiceLinker
}
