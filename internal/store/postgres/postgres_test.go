package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"frontdesk-order-services/internal/apperr"
	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/store"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func TestNullableHelpers(t *testing.T) {
	if int8Ptr(pgtype.Int8{}) != nil {
		t.Fatal("expected nil for NULL int8")
	}
	if got := int8Ptr(pgtype.Int8{Int64: 9, Valid: true}); got == nil || *got != 9 {
		t.Fatalf("expected 9, got %v", got)
	}
	if nullText("").Valid {
		t.Fatal("empty string should be NULL")
	}
	if forUpdate(false) != "" || forUpdate(true) != " for update" {
		t.Fatal("unexpected lock clause")
	}
	n := num(decimal.RequireFromString("1035.50"))
	if !dec(n).Equal(decimal.RequireFromString("1035.5")) {
		t.Fatalf("numeric round trip failed: %s", dec(n))
	}
}

// openTestStore connects to TEST_DATABASE_URL; tests that need it are
// skipped when it is unset.
func openTestStore(t *testing.T) (*Store, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	s := New(pool)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s, pool
}

func TestOrderRoundTrip(t *testing.T) {
	s, pool := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	var tableID int64
	if err := pool.QueryRow(ctx, `
		insert into restaurant_tables (outlet_id, floor_id, label, capacity) values (1, 1, 'IT-1', 2) returning id
	`).Scan(&tableID); err != nil {
		t.Fatalf("seed table: %v", err)
	}

	var (
		orderID  int64
		ticketID int64
	)
	err := s.WithTx(ctx, func(tx store.Tx) error {
		order := domain.Order{OutletID: 1, TableID: &tableID, Type: domain.OrderDineIn, Status: domain.OrderPending, CreatedBy: 7, CreatedAt: now, UpdatedAt: now}
		if err := tx.InsertOrder(ctx, &order); err != nil {
			return err
		}
		orderID = order.ID
		item := domain.OrderItem{OrderID: order.ID, MenuItemID: 1, Name: "Veg Thali", Quantity: 2,
			UnitPrice: decimal.NewFromInt(400), LineTotal: decimal.NewFromInt(800), Status: domain.ItemPending, CreatedAt: now, UpdatedAt: now}
		if err := tx.InsertOrderItem(ctx, &item); err != nil {
			return err
		}
		ticket := domain.KOTTicket{OrderID: order.ID, OutletID: 1, Station: "kitchen", Status: domain.KOTPending, CreatedBy: 7, CreatedAt: now, UpdatedAt: now}
		if err := tx.InsertTicket(ctx, &ticket); err != nil {
			return err
		}
		ticketID = ticket.ID
		item.KOTID = &ticket.ID
		item.Status = domain.ItemSent
		return tx.UpdateOrderItem(ctx, item)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = s.WithTx(ctx, func(tx store.Tx) error {
		order, err := tx.GetOrder(ctx, orderID, true)
		if err != nil {
			return err
		}
		if order.Number != store.OrderNumber(orderID, now) {
			t.Fatalf("unexpected order number %q", order.Number)
		}
		ticket, err := tx.GetTicket(ctx, ticketID, true)
		if err != nil {
			return err
		}
		if len(ticket.ItemIDs) != 1 {
			t.Fatalf("expected one bound item, got %v", ticket.ItemIDs)
		}
		_, err = tx.GetOrder(ctx, orderID+100000, false)
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
