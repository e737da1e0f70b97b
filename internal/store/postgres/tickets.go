package postgres

import (
	"context"
	"fmt"

	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// item_ids is derived from order_items.kot_id so a ticket always reports
// exactly the items bound to it.
const ticketColumns = `
	k.id, k.order_id, k.outlet_id, k.kot_number, k.station, k.status, k.created_by,
	k.created_at, k.accepted_at, k.preparing_at, k.ready_at, k.served_at, k.served_by,
	k.cancelled_at, k.cancel_reason, k.updated_at,
	coalesce((select array_agg(oi.id order by oi.id) from order_items oi where oi.kot_id = k.id), '{}')`

func scanTicket(row pgx.Row) (domain.KOTTicket, error) {
	var (
		k                                domain.KOTTicket
		status                           string
		acceptedAt, preparingAt, readyAt pgtype.Timestamptz
		servedAt, cancelledAt            pgtype.Timestamptz
		servedBy                         pgtype.Int8
		cancelReason                     pgtype.Text
	)
	err := row.Scan(
		&k.ID, &k.OrderID, &k.OutletID, &k.Number, &k.Station, &status, &k.CreatedBy,
		&k.CreatedAt, &acceptedAt, &preparingAt, &readyAt, &servedAt, &servedBy,
		&cancelledAt, &cancelReason, &k.UpdatedAt,
		&k.ItemIDs,
	)
	if err != nil {
		return domain.KOTTicket{}, err
	}
	k.Status = domain.KOTStatus(status)
	k.AcceptedAt = timePtr(acceptedAt)
	k.PreparingAt = timePtr(preparingAt)
	k.ReadyAt = timePtr(readyAt)
	k.ServedAt = timePtr(servedAt)
	k.ServedBy = int8Ptr(servedBy)
	k.CancelledAt = timePtr(cancelledAt)
	k.CancelReason = textOf(cancelReason)
	return k, nil
}

func (t *tx) InsertTicket(ctx context.Context, k *domain.KOTTicket) error {
	err := t.tx.QueryRow(ctx, `
		insert into kot_tickets (order_id, outlet_id, kot_number, station, status, created_by, created_at, updated_at)
		values ($1, $2, '', $3, $4, $5, $6, $7)
		returning id
	`, k.OrderID, k.OutletID, k.Station, string(k.Status), k.CreatedBy, k.CreatedAt, k.UpdatedAt).Scan(&k.ID)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	k.Number = store.TicketNumber(k.ID)
	if _, err := t.tx.Exec(ctx, `update kot_tickets set kot_number = $1 where id = $2`, k.Number, k.ID); err != nil {
		return fmt.Errorf("number ticket %d: %w", k.ID, err)
	}
	return nil
}

func (t *tx) GetTicket(ctx context.Context, id int64, lock bool) (domain.KOTTicket, error) {
	lockClause := ""
	if lock {
		lockClause = " for update of k"
	}
	k, err := scanTicket(t.tx.QueryRow(ctx, `select `+ticketColumns+` from kot_tickets k where k.id = $1`+lockClause, id))
	if err != nil {
		return domain.KOTTicket{}, notFound(err, "ticket", id)
	}
	return k, nil
}

func (t *tx) UpdateTicket(ctx context.Context, k domain.KOTTicket) error {
	tag, err := t.tx.Exec(ctx, `
		update kot_tickets set
			status = $1, accepted_at = $2, preparing_at = $3, ready_at = $4,
			served_at = $5, served_by = $6, cancelled_at = $7, cancel_reason = $8, updated_at = $9
		where id = $10
	`, string(k.Status), k.AcceptedAt, k.PreparingAt, k.ReadyAt,
		k.ServedAt, k.ServedBy, k.CancelledAt, nullText(k.CancelReason), k.UpdatedAt, k.ID)
	if err != nil {
		return fmt.Errorf("update ticket %d: %w", k.ID, err)
	}
	return checkAffected(tag, "ticket", k.ID)
}

func (t *tx) ListOrderTickets(ctx context.Context, orderID int64) ([]domain.KOTTicket, error) {
	return t.ListTickets(ctx, store.TicketFilter{OrderID: orderID})
}

func (t *tx) ListTickets(ctx context.Context, filter store.TicketFilter) ([]domain.KOTTicket, error) {
	statuses := make([]string, 0, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses = append(statuses, string(s))
	}
	rows, err := t.tx.Query(ctx, `
		select `+ticketColumns+`
		from kot_tickets k
		where ($1::bigint = 0 or k.outlet_id = $1)
		  and ($2::bigint = 0 or k.order_id = $2)
		  and ($3 = '' or k.station = $3)
		  and (cardinality($4::text[]) = 0 or k.status = any($4))
		  and (not $5 or k.status not in ('served', 'cancelled'))
		order by k.created_at, k.id
	`, filter.OutletID, filter.OrderID, filter.Station, statuses, filter.ActiveOnly)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	out := make([]domain.KOTTicket, 0)
	for rows.Next() {
		k, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
