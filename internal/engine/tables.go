package engine

import (
	"context"

	"frontdesk-order-services/internal/apperr"
	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/effects"
	"frontdesk-order-services/internal/store"
	"frontdesk-order-services/internal/view"
)

type TableDetail struct {
	Table   domain.Table
	Session *domain.TableSession
}

// StartSession seats guests at a free table.
func (e *Engine) StartSession(ctx context.Context, actor domain.Actor, tableID int64, guestCount int) (TableDetail, error) {
	if guestCount <= 0 {
		return TableDetail{}, apperr.Validation("", "guest count must be positive", map[string]any{"guestCount": guestCount})
	}

	var out TableDetail
	err := e.run(ctx, "start_session", func(tx store.Tx, b *effects.Batch) error {
		now := e.now()
		table, err := e.getTable(ctx, tx, actor, tableID, true)
		if err != nil {
			return err
		}
		open, err := tx.OpenSession(ctx, tableID)
		if err != nil {
			return err
		}
		if open != nil {
			return apperr.Conflict(apperr.CodeSessionOpen, "table already has an open session", map[string]any{
				"tableId":   table.ID,
				"sessionId": open.ID,
				"status":    table.Status,
			})
		}
		if table.Status != domain.TableAvailable && table.Status != domain.TableReserved {
			return apperr.Conflict(apperr.CodeTableUnavailable, "table is not available for seating", map[string]any{
				"tableId": table.ID,
				"status":  table.Status,
			})
		}

		session := &domain.TableSession{
			TableID:    table.ID,
			FloorID:    table.FloorID,
			GuestCount: guestCount,
			OpenedBy:   actor.UserID,
			OpenedAt:   now,
		}
		if err := tx.InsertSession(ctx, session); err != nil {
			return err
		}

		table, current, err := e.syncTable(ctx, tx, table.ID, b, now, false)
		if err != nil {
			return err
		}
		out = TableDetail{Table: table, Session: current}
		return nil
	})
	return out, err
}

// EndSession closes the table's open session. Ending a table without one
// returns the table unchanged.
func (e *Engine) EndSession(ctx context.Context, actor domain.Actor, tableID int64) (TableDetail, error) {
	var out TableDetail
	err := e.run(ctx, "end_session", func(tx store.Tx, b *effects.Batch) error {
		now := e.now()
		table, err := e.getTable(ctx, tx, actor, tableID, true)
		if err != nil {
			return err
		}
		session, err := tx.OpenSession(ctx, tableID)
		if err != nil {
			return err
		}
		if session == nil {
			out = TableDetail{Table: table}
			return nil
		}

		orders, err := tx.OpenOrdersForSession(ctx, session.ID)
		if err != nil {
			return err
		}
		if len(orders) > 0 {
			ids := make([]int64, 0, len(orders))
			for _, o := range orders {
				ids = append(ids, o.ID)
			}
			return apperr.Conflict(apperr.CodeSessionBusy, "session still has an open order; cancel or settle it first", map[string]any{
				"tableId":   table.ID,
				"sessionId": session.ID,
				"orderIds":  ids,
			})
		}

		if err := tx.CloseSession(ctx, session.ID, actor.UserID, now); err != nil {
			return err
		}
		table, _, err = e.syncTable(ctx, tx, table.ID, b, now, false)
		if err != nil {
			return err
		}
		out = TableDetail{Table: table}
		return nil
	})
	return out, err
}

// SetStatus is the staff override; any status may be set at any time.
func (e *Engine) SetStatus(ctx context.Context, actor domain.Actor, tableID int64, status domain.TableStatus) (TableDetail, error) {
	if !status.Valid() {
		return TableDetail{}, apperr.Validation("", "unknown table status", map[string]any{"status": status})
	}

	var out TableDetail
	err := e.run(ctx, "set_table_status", func(tx store.Tx, b *effects.Batch) error {
		now := e.now()
		table, err := e.getTable(ctx, tx, actor, tableID, true)
		if err != nil {
			return err
		}
		if table.Status != status {
			if err := tx.UpdateTableStatus(ctx, table.ID, status, now); err != nil {
				return err
			}
			table.Status = status
			table.UpdatedAt = now
		}
		session, err := tx.OpenSession(ctx, table.ID)
		if err != nil {
			return err
		}
		b.Emit(effects.EventTableUpdated, view.TableOf(table, session), effects.FloorRoom(table.OutletID, table.FloorID))
		out = TableDetail{Table: table, Session: session}
		return nil
	})
	return out, err
}

func (e *Engine) GetTable(ctx context.Context, actor domain.Actor, tableID int64) (TableDetail, error) {
	var out TableDetail
	err := e.read(ctx, func(tx store.Tx) error {
		table, err := e.getTable(ctx, tx, actor, tableID, false)
		if err != nil {
			return err
		}
		session, err := tx.OpenSession(ctx, table.ID)
		if err != nil {
			return err
		}
		out = TableDetail{Table: table, Session: session}
		return nil
	})
	return out, err
}

func (e *Engine) ListTables(ctx context.Context, actor domain.Actor, filter store.TableFilter) ([]TableDetail, error) {
	if actor.OutletID != 0 {
		filter.OutletID = actor.OutletID
	}
	var out []TableDetail
	err := e.read(ctx, func(tx store.Tx) error {
		tables, err := tx.ListTables(ctx, filter)
		if err != nil {
			return err
		}
		out = make([]TableDetail, 0, len(tables))
		for _, t := range tables {
			session, err := tx.OpenSession(ctx, t.ID)
			if err != nil {
				return err
			}
			out = append(out, TableDetail{Table: t, Session: session})
		}
		return nil
	})
	return out, err
}
