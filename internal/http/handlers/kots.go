package handlers

import (
	"context"
	"net/http"
	"strings"

	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/engine"
	"frontdesk-order-services/internal/store"
	"frontdesk-order-services/pkg/response"
)

func (h *Handler) SendKOT(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}
	tickets, err := h.Engine.SendKOT(r.Context(), actor, orderID)
	if err != nil {
		h.writeError(w, r, "send kot", err)
		return
	}
	response.Created(w, ticketViews(tickets))
}

func (h *Handler) ListKOTs(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := store.TicketFilter{
		Station:    strings.TrimSpace(q.Get("station")),
		ActiveOnly: q.Get("active") == "true",
	}
	for _, raw := range strings.Split(q.Get("status"), ",") {
		if s := strings.TrimSpace(raw); s != "" {
			filter.Statuses = append(filter.Statuses, domain.KOTStatus(strings.ToLower(s)))
		}
	}
	var err error
	if filter.OrderID, err = readQueryInt64(r, "orderId"); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid orderId")
		return
	}
	if filter.OutletID, err = readQueryInt64(r, "outletId"); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid outletId")
		return
	}

	tickets, err := h.Engine.ListTickets(r.Context(), actor, filter)
	if err != nil {
		h.writeError(w, r, "list kots", err)
		return
	}
	response.Success(w, ticketViews(tickets))
}

func (h *Handler) GetKOT(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	ticketID, ok := pathID(w, r, "kotID")
	if !ok {
		return
	}
	ticket, err := h.Engine.GetTicket(r.Context(), actor, ticketID)
	if err != nil {
		h.writeError(w, r, "get kot", err)
		return
	}
	response.Success(w, ticket.View())
}

type ticketAction func(ctx context.Context, actor domain.Actor, ticketID int64) (engine.TicketDetail, error)

func (h *Handler) advance(w http.ResponseWriter, r *http.Request, op string, action ticketAction) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	ticketID, ok := pathID(w, r, "kotID")
	if !ok {
		return
	}
	ticket, err := action(r.Context(), actor, ticketID)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	response.Success(w, ticket.View())
}

func (h *Handler) AcceptKOT(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, "accept kot", h.Engine.Accept)
}

func (h *Handler) StartPreparingKOT(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, "start preparing kot", h.Engine.StartPreparing)
}

func (h *Handler) MarkKOTReady(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, "mark kot ready", h.Engine.MarkReady)
}

func (h *Handler) MarkKOTServed(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, "mark kot served", h.Engine.MarkServed)
}

func (h *Handler) CancelKOT(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	ticketID, ok := pathID(w, r, "kotID")
	if !ok {
		return
	}
	var body reasonRequest
	if err := decodeBody(r, &body); err != nil {
		invalidBody(w)
		return
	}
	actor.VoidAuthorized = h.voidAuthorized(r)

	ticket, err := h.Engine.CancelTicket(r.Context(), actor, ticketID, body.Reason)
	if err != nil {
		h.writeError(w, r, "cancel kot", err)
		return
	}
	response.Success(w, ticket.View())
}

func (h *Handler) MarkItemReady(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}
	ticket, err := h.Engine.MarkItemReady(r.Context(), actor, itemID)
	if err != nil {
		h.writeError(w, r, "mark item ready", err)
		return
	}
	response.Success(w, ticket.View())
}
