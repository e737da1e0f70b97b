package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/middleware"
	"frontdesk-order-services/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var errMissingParam = errors.New("missing param")

func readPathInt64(r *http.Request, key string) (int64, error) {
	value := chi.URLParam(r, key)
	if value == "" {
		return 0, errMissingParam
	}
	return strconv.ParseInt(value, 10, 64)
}

func readQueryInt64(r *http.Request, key string) (int64, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return 0, nil
	}
	return strconv.ParseInt(value, 10, 64)
}

// decodeBody decodes a JSON body into dst. An empty body leaves dst as is.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
		return domain.Actor{}, false
	}
	return authCtx.Actor(), true
}

// pathID reads a numeric path parameter, writing a 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	id, err := readPathInt64(r, key)
	if err != nil || id <= 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid "+key)
		return 0, false
	}
	return id, true
}

func invalidBody(w http.ResponseWriter) {
	response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if response.AppError(w, err) {
		return
	}
	h.Logger.Error(op+" failed",
		zap.Error(err),
		zap.String("requestId", middleware.GetRequestID(r.Context())),
	)
	response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
}
