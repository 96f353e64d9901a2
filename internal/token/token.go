// Package token выпускает секретные токены доступа к соглашениям.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Len — длина токена в hex-символах (32 случайных байта).
const Len = 64

// New возвращает криптографически случайный токен.
// Содержимое соглашения на токен не влияет.
func New() (string, error) {
	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("token: rand read: %w", err)
	}
	return hex.EncodeToString(raw[:]), nil
}
