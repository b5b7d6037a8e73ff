package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName はセッションIDを運ぶCookieの名前。
const SessionCookieName = "session_id"

// CookieCodec はセッションIDをSESSION_SECRETで署名したHS256 JWTとしてCookieに格納する。
// 署名が不正なCookieは未認証として扱われる。
type CookieCodec struct {
	secret []byte
	maxAge time.Duration
	secure bool
	now    func() time.Time
}

// NewCookieCodec はCookieCodecを生成する。
func NewCookieCodec(secret string, maxAge time.Duration, secure bool) *CookieCodec {
	return &CookieCodec{
		secret: []byte(secret),
		maxAge: maxAge,
		secure: secure,
		now:    time.Now,
	}
}

// Encode はセッションIDを署名済みトークンに変換する。
func (c *CookieCodec) Encode(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session ID is required")
	}

	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}
	return signed, nil
}

// Decode は署名を検証してセッションIDを取り出す。
func (c *CookieCodec) Decode(value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(value, claims,
		func(*jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("invalid session cookie: %w", err)
	}
	if claims.ID == "" {
		return "", errors.New("invalid session cookie: missing session ID")
	}
	return claims.ID, nil
}

// Cookie はセッションIDを格納したHTTP Only Cookieを生成する。
func (c *CookieCodec) Cookie(sessionID string) (*http.Cookie, error) {
	value, err := c.Encode(sessionID)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.maxAge / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// SessionIDFromRequest はリクエストのCookieからセッションIDを取り出す。
// Cookieがない、または署名が不正な場合は空文字を返す。
func (c *CookieCodec) SessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	sessionID, err := c.Decode(cookie.Value)
	if err != nil {
		return ""
	}
	return sessionID
}
