package auth

import (
	"crypto/rand"
	"fmt"
	"time"
)

const anonymousAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewAnonymousID returns an identifier of the form
// anonymous_<unix millis>_<9 lowercase base36 characters>.
func NewAnonymousID(now time.Time) (string, error) {
	suffix := make([]byte, 9)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generating anonymous id: %w", err)
	}
	for i, b := range suffix {
		suffix[i] = anonymousAlphabet[int(b)%len(anonymousAlphabet)]
	}
	return fmt.Sprintf("anonymous_%d_%s", now.UnixMilli(), suffix), nil
}
