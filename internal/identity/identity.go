package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	AccessCookie = "accessToken"
	GuestCookie  = "guestToken"

	guestTokenTTL = 60 * 24 * time.Hour
)

// ResolveUserID decodes the access cookie and returns the user id. Any
// failure (missing cookie, bad signature, expired token, odd claims) is
// treated as "no identity", never as an error: the caller falls through
// to guest handling.
func ResolveUserID(c echo.Context, jwtSecret []byte) (uint, bool) {
	cookie, err := c.Cookie(AccessCookie)
	if err != nil || cookie.Value == "" {
		return 0, false
	}

	token, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	subRaw, ok := claims["sub"].(float64)
	if !ok || subRaw <= 0 {
		return 0, false
	}

	return uint(subRaw), true
}

// EnsureGuestToken returns the existing guest token unchanged, or mints
// a fresh one and attaches it to the response. The cookie is HttpOnly,
// Lax and lives 60 days; Secure is set unless the request comes from a
// loopback host (local development over plain http).
func EnsureGuestToken(c echo.Context) string {
	if cookie, err := c.Cookie(GuestCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token := newGuestToken()
	c.SetCookie(&http.Cookie{
		Name:     GuestCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(guestTokenTTL),
		HttpOnly: true,
		Secure:   !isLoopback(c.Request().Host),
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

func newGuestToken() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("guest_%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}

func isLoopback(host string) bool {
	h := host
	if splitHost, _, err := net.SplitHostPort(host); err == nil {
		h = splitHost
	}
	if strings.EqualFold(h, "localhost") {
		return true
	}
	if ip := net.ParseIP(h); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
