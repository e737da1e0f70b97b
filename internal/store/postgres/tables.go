package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const tableColumns = `id, outlet_id, floor_id, label, capacity, status, updated_at`

func scanTable(row pgx.Row) (domain.Table, error) {
	var (
		t      domain.Table
		status string
	)
	if err := row.Scan(&t.ID, &t.OutletID, &t.FloorID, &t.Label, &t.Capacity, &status, &t.UpdatedAt); err != nil {
		return domain.Table{}, err
	}
	t.Status = domain.TableStatus(status)
	return t, nil
}

func (t *tx) GetTable(ctx context.Context, id int64, lock bool) (domain.Table, error) {
	row := t.tx.QueryRow(ctx, `select `+tableColumns+` from restaurant_tables where id = $1 and deleted_at is null`+forUpdate(lock), id)
	table, err := scanTable(row)
	if err != nil {
		return domain.Table{}, notFound(err, "table", id)
	}
	return table, nil
}

func (t *tx) ListTables(ctx context.Context, filter store.TableFilter) ([]domain.Table, error) {
	rows, err := t.tx.Query(ctx, `
		select `+tableColumns+`
		from restaurant_tables
		where deleted_at is null
		  and ($1::bigint = 0 or outlet_id = $1)
		  and ($2::bigint = 0 or floor_id = $2)
		order by floor_id, label
	`, filter.OutletID, filter.FloorID)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Table, 0)
	for rows.Next() {
		table, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		out = append(out, table)
	}
	return out, rows.Err()
}

func (t *tx) UpdateTableStatus(ctx context.Context, id int64, status domain.TableStatus, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `update restaurant_tables set status = $1, updated_at = $2 where id = $3`, string(status), at, id)
	if err != nil {
		return fmt.Errorf("update table %d: %w", id, err)
	}
	return checkAffected(tag, "table", id)
}

const sessionColumns = `id, table_id, floor_id, guest_count, opened_by, opened_at, closed_by, closed_at`

func scanSession(row pgx.Row) (domain.TableSession, error) {
	var (
		s        domain.TableSession
		closedBy pgtype.Int8
		closedAt pgtype.Timestamptz
	)
	if err := row.Scan(&s.ID, &s.TableID, &s.FloorID, &s.GuestCount, &s.OpenedBy, &s.OpenedAt, &closedBy, &closedAt); err != nil {
		return domain.TableSession{}, err
	}
	s.ClosedBy = int8Ptr(closedBy)
	s.ClosedAt = timePtr(closedAt)
	return s, nil
}

func (t *tx) OpenSession(ctx context.Context, tableID int64) (*domain.TableSession, error) {
	row := t.tx.QueryRow(ctx, `
		select `+sessionColumns+`
		from table_sessions
		where table_id = $1 and closed_at is null
		order by id desc
		limit 1
	`, tableID)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load open session for table %d: %w", tableID, err)
	}
	return &s, nil
}

func (t *tx) GetSession(ctx context.Context, id int64) (domain.TableSession, error) {
	s, err := scanSession(t.tx.QueryRow(ctx, `select `+sessionColumns+` from table_sessions where id = $1`, id))
	if err != nil {
		return domain.TableSession{}, notFound(err, "session", id)
	}
	return s, nil
}

func (t *tx) InsertSession(ctx context.Context, session *domain.TableSession) error {
	err := t.tx.QueryRow(ctx, `
		insert into table_sessions (table_id, floor_id, guest_count, opened_by, opened_at)
		values ($1, $2, $3, $4, $5)
		returning id
	`, session.TableID, session.FloorID, session.GuestCount, session.OpenedBy, session.OpenedAt).Scan(&session.ID)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (t *tx) CloseSession(ctx context.Context, id int64, by int64, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		update table_sessions set closed_by = $1, closed_at = $2
		where id = $3 and closed_at is null
	`, by, at, id)
	if err != nil {
		return fmt.Errorf("close session %d: %w", id, err)
	}
	return checkAffected(tag, "session", id)
}
