package handlers

import (
	"net/http"
	"strings"

	"frontdesk-order-services/internal/auth"
	"frontdesk-order-services/internal/middleware"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const voidPINHeader = "X-Void-Pin"

// voidAuthorized reports whether the caller may void kitchen work. Managers
// always can; other staff need the outlet PIN when one is configured.
func (h *Handler) voidAuthorized(r *http.Request) bool {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		return false
	}
	if auth.Allows(authCtx.Role, auth.PermVoid) {
		return true
	}
	hash := strings.TrimSpace(h.Config.VoidPINHash)
	if hash == "" {
		return true
	}
	pin := strings.TrimSpace(r.Header.Get(voidPINHeader))
	if pin == "" {
		return false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		h.Logger.Warn("void pin rejected", zap.Int64("userId", authCtx.UserID), zap.String("path", r.URL.Path))
		return false
	}
	return true
}
