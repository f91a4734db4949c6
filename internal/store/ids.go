package store

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns prefix-<uuid>. IDs are opaque: callers outside a session should
// reference nodes by address instead.
func NewID(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return uuid.NewString()
	}
	return prefix + "-" + uuid.NewString()
}
