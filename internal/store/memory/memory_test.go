package memory

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"frontdesk-order-services/internal/apperr"
	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/store"
)

func TestRollbackDiscardsWrites(t *testing.T) {
	s := New()
	table := s.SeedTable(domain.Table{OutletID: 1, FloorID: 1, Label: "T1", Capacity: 4})
	boom := errors.New("boom")

	err := s.WithTx(context.Background(), func(tx store.Tx) error {
		if err := tx.UpdateTableStatus(context.Background(), table.ID, domain.TableOccupied, time.Now()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	_ = s.WithTx(context.Background(), func(tx store.Tx) error {
		got, err := tx.GetTable(context.Background(), table.ID, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != domain.TableAvailable {
			t.Fatalf("expected rolled back status available, got %s", got.Status)
		}
		return nil
	})
}

func TestTicketItemIDsAndNumbers(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		order := &domain.Order{OutletID: 1, Type: domain.OrderTakeaway, Status: domain.OrderPending, CreatedAt: now}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		if order.Number != store.OrderNumber(order.ID, now) {
			t.Fatalf("unexpected order number %q", order.Number)
		}

		ticket := &domain.KOTTicket{OrderID: order.ID, OutletID: 1, Station: "bar", Status: domain.KOTPending}
		if err := tx.InsertTicket(ctx, ticket); err != nil {
			return err
		}
		for i := 0; i < 2; i++ {
			item := &domain.OrderItem{OrderID: order.ID, Quantity: 1, Status: domain.ItemSent, KOTID: &ticket.ID}
			if err := tx.InsertOrderItem(ctx, item); err != nil {
				return err
			}
		}

		got, err := tx.GetTicket(ctx, ticket.ID, true)
		if err != nil {
			return err
		}
		if len(got.ItemIDs) != 2 {
			t.Fatalf("expected 2 item ids, got %v", got.ItemIDs)
		}
		if got.Number != "KOT-"+strconv.FormatInt(ticket.ID, 10) {
			t.Fatalf("unexpected ticket number %q", got.Number)
		}

		active, err := tx.ListTickets(ctx, store.TicketFilter{OutletID: 1, Station: "bar", ActiveOnly: true})
		if err != nil {
			return err
		}
		if len(active) != 1 {
			t.Fatalf("expected 1 active bar ticket, got %d", len(active))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestActiveInvoiceIgnoresCancelled(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx store.Tx) error {
		first := &domain.Invoice{OrderID: 7, CreatedAt: time.Now()}
		if err := tx.InsertInvoice(ctx, first); err != nil {
			return err
		}
		if err := tx.CancelInvoice(ctx, first.ID, time.Now()); err != nil {
			return err
		}
		second := &domain.Invoice{OrderID: 7, CreatedAt: time.Now()}
		if err := tx.InsertInvoice(ctx, second); err != nil {
			return err
		}

		active, err := tx.ActiveInvoice(ctx, 7)
		if err != nil {
			return err
		}
		if active == nil || active.ID != second.ID {
			t.Fatalf("expected second invoice active, got %+v", active)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMissingRowsAreNotFound(t *testing.T) {
	s := New()
	_ = s.WithTx(context.Background(), func(tx store.Tx) error {
		if _, err := tx.GetOrder(context.Background(), 99, false); !apperr.Is(err, apperr.KindNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
		if session, err := tx.OpenSession(context.Background(), 99); err != nil || session != nil {
			t.Fatalf("expected no session, got %+v %v", session, err)
		}
		return nil
	})
}
