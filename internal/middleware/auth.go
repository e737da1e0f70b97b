package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"

	"frontdesk-order-services/internal/auth"
	"frontdesk-order-services/internal/domain"
)

type contextKey string

const authContextKey contextKey = "authContext"

type AuthContext struct {
	UserID   int64
	Role     auth.StaffRole
	Name     string
	OutletID int64
}

// Actor converts the request identity into the engine's actor.
func (a *AuthContext) Actor() domain.Actor {
	return domain.Actor{UserID: a.UserID, Role: strings.ToLower(string(a.Role)), OutletID: a.OutletID}
}

func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	value := ctx.Value(authContextKey)
	if value == nil {
		return nil, false
	}
	ac, ok := value.(*AuthContext)
	return ac, ok
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	writeAuthErrorDebug(w, status, message, "")
}

func writeAuthErrorDebug(w http.ResponseWriter, status int, message string, debug string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	code := "UNAUTHORIZED"
	if status == http.StatusForbidden {
		code = "FORBIDDEN"
	}
	payload := map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	}

	if os.Getenv("APP_ENV") == "development" && strings.TrimSpace(debug) != "" {
		payload["debug"] = debug
	}

	_ = json.NewEncoder(w).Encode(payload)
}

// ClaimsToAuthContext validates the identity fields carried by a verified token.
func ClaimsToAuthContext(claims *auth.Claims) (*AuthContext, error) {
	userID, err := strconv.ParseInt(strings.TrimSpace(claims.UserID), 10, 64)
	if err != nil {
		return nil, err
	}
	outletID, err := claims.Outlet()
	if err != nil {
		return nil, err
	}
	authCtx := &AuthContext{UserID: userID, Role: claims.Role, OutletID: outletID}
	if claims.Name != nil {
		authCtx.Name = *claims.Name
	}
	return authCtx, nil
}

// StaffAuth verifies the bearer token and stores the staff identity on the
// request context.
func StaffAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			claims, err := auth.VerifyAccessToken(token, jwtSecret)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, "Authorization token required", err.Error())
				return
			}

			if len(auth.Permissions(claims.Role)) == 0 {
				writeAuthError(w, http.StatusForbidden, "Staff access required")
				return
			}

			authCtx, err := ClaimsToAuthContext(claims)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, "Invalid token", err.Error())
				return
			}

			ctx := WithAuthContext(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require rejects staff whose role lacks perm. It must run after StaffAuth.
func Require(perm auth.StaffPermission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, ok := GetAuthContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}
			if !auth.Allows(authCtx.Role, perm) {
				writeAuthError(w, http.StatusForbidden, "You do not have permission to access this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
