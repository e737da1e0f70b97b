package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type StaffRole string

const (
	RoleAdmin   StaffRole = "ADMIN"
	RoleManager StaffRole = "MANAGER"
	RoleCaptain StaffRole = "CAPTAIN"
	RoleCashier StaffRole = "CASHIER"
	RoleKitchen StaffRole = "KITCHEN"
)

type Claims struct {
	UserID   string    `json:"userId"`
	Role     StaffRole `json:"role"`
	OutletID *string   `json:"outletId,omitempty"`
	Name     *string   `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Outlet returns the outlet the token is bound to; zero means every outlet
// (admin tokens only).
func (c *Claims) Outlet() (int64, error) {
	if c.OutletID == nil || strings.TrimSpace(*c.OutletID) == "" {
		if c.Role == RoleAdmin {
			return 0, nil
		}
		return 0, errors.New("outlet required")
	}
	return strconv.ParseInt(strings.TrimSpace(*c.OutletID), 10, 64)
}

func ParseBearerToken(authHeader string) string {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func VerifyAccessToken(tokenString string, secret string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token required")
	}
	if secret == "" {
		return nil, errors.New("jwt secret not configured")
	}

	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, errors.New("token expired")
	}
	return claims, nil
}

// IssueAccessToken signs claims with HS256, expiring after ttl.
func IssueAccessToken(claims Claims, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
