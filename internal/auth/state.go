package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// ErrStateMismatch はコールバックのstateがCookieに保存した値と一致しないことを示す。
var ErrStateMismatch = errors.New("oauth state mismatch")

// GenerateState は同意画面との往復で検証するランダムなstate値を生成する。
func GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// VerifyState は保存済みのstateとコールバックで受け取ったstateを比較する。
func VerifyState(stored, received string) error {
	if stored == "" || received == "" {
		return ErrStateMismatch
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(received)) != 1 {
		return ErrStateMismatch
	}
	return nil
}
