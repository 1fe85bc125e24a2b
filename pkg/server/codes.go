package server

import (
	"crypto/rand"
	"fmt"
)

// Room codes are short, human-relayable, and uppercase so players can read
// them aloud.
const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// newRoomCode generates a random room code. Uniqueness is the registry's
// job; this only supplies entropy.
func newRoomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("room code entropy: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
