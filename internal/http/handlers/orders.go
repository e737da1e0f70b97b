package handlers

import (
	"net/http"

	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/engine"
	"frontdesk-order-services/pkg/response"
)

type createOrderRequest struct {
	OutletID   int64            `json:"outletId"`
	TableID    *int64           `json:"tableId"`
	SessionID  *int64           `json:"sessionId"`
	OrderType  domain.OrderType `json:"orderType"`
	GuestCount int              `json:"guestCount"`
	Items      []itemRequest    `json:"items"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var body createOrderRequest
	if err := decodeBody(r, &body); err != nil {
		invalidBody(w)
		return
	}
	if body.OrderType == "" {
		body.OrderType = domain.OrderDineIn
	}

	detail, err := h.Engine.CreateOrder(r.Context(), actor, engine.CreateOrderInput{
		OutletID:   body.OutletID,
		TableID:    body.TableID,
		SessionID:  body.SessionID,
		Type:       body.OrderType,
		GuestCount: body.GuestCount,
		Items:      itemInputs(body.Items),
	})
	if err != nil {
		h.writeError(w, r, "create order", err)
		return
	}
	response.Created(w, orderDetailView(detail))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}
	detail, err := h.Engine.GetOrder(r.Context(), actor, orderID)
	if err != nil {
		h.writeError(w, r, "get order", err)
		return
	}
	response.Success(w, orderDetailView(detail))
}

type addItemsRequest struct {
	Items []itemRequest `json:"items"`
}

func (h *Handler) AddItems(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}
	var body addItemsRequest
	if err := decodeBody(r, &body); err != nil {
		invalidBody(w)
		return
	}

	detail, err := h.Engine.AddItems(r.Context(), actor, orderID, itemInputs(body.Items))
	if err != nil {
		h.writeError(w, r, "add items", err)
		return
	}
	response.Success(w, orderDetailView(detail))
}

func (h *Handler) CancelItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}
	var body reasonRequest
	if err := decodeBody(r, &body); err != nil {
		invalidBody(w)
		return
	}

	actor.VoidAuthorized = h.voidAuthorized(r)

	detail, err := h.Engine.CancelItem(r.Context(), actor, itemID, body.Reason)
	if err != nil {
		h.writeError(w, r, "cancel item", err)
		return
	}
	response.Success(w, orderDetailView(detail))
}

// CancelOrder voids the order. Once tickets have reached the kitchen, staff
// without void rights must present the void PIN; the engine checks it under
// the order lock.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}
	var body reasonRequest
	if err := decodeBody(r, &body); err != nil {
		invalidBody(w)
		return
	}

	actor.VoidAuthorized = h.voidAuthorized(r)

	detail, err := h.Engine.CancelOrder(r.Context(), actor, orderID, body.Reason)
	if err != nil {
		h.writeError(w, r, "cancel order", err)
		return
	}
	response.Success(w, orderDetailView(detail))
}
