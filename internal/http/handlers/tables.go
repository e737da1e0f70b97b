package handlers

import (
	"net/http"

	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/store"
	"frontdesk-order-services/internal/view"
	"frontdesk-order-services/pkg/response"
)

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	floorID, err := readQueryInt64(r, "floorId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid floorId")
		return
	}
	outletID, err := readQueryInt64(r, "outletId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid outletId")
		return
	}

	tables, err := h.Engine.ListTables(r.Context(), actor, store.TableFilter{OutletID: outletID, FloorID: floorID})
	if err != nil {
		h.writeError(w, r, "list tables", err)
		return
	}
	out := make([]view.Table, 0, len(tables))
	for _, t := range tables {
		out = append(out, tableView(t))
	}
	response.Success(w, out)
}

func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	tableID, ok := pathID(w, r, "tableID")
	if !ok {
		return
	}
	table, err := h.Engine.GetTable(r.Context(), actor, tableID)
	if err != nil {
		h.writeError(w, r, "get table", err)
		return
	}
	response.Success(w, tableView(table))
}

type startSessionRequest struct {
	GuestCount int `json:"guestCount"`
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	tableID, ok := pathID(w, r, "tableID")
	if !ok {
		return
	}
	var body startSessionRequest
	if err := decodeBody(r, &body); err != nil {
		invalidBody(w)
		return
	}

	table, err := h.Engine.StartSession(r.Context(), actor, tableID, body.GuestCount)
	if err != nil {
		h.writeError(w, r, "start session", err)
		return
	}
	response.Created(w, tableView(table))
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	tableID, ok := pathID(w, r, "tableID")
	if !ok {
		return
	}
	table, err := h.Engine.EndSession(r.Context(), actor, tableID)
	if err != nil {
		h.writeError(w, r, "end session", err)
		return
	}
	response.Success(w, tableView(table))
}

type tableStatusRequest struct {
	Status domain.TableStatus `json:"status"`
}

func (h *Handler) SetTableStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	tableID, ok := pathID(w, r, "tableID")
	if !ok {
		return
	}
	var body tableStatusRequest
	if err := decodeBody(r, &body); err != nil {
		invalidBody(w)
		return
	}

	table, err := h.Engine.SetStatus(r.Context(), actor, tableID, body.Status)
	if err != nil {
		h.writeError(w, r, "set table status", err)
		return
	}
	response.Success(w, tableView(table))
}
