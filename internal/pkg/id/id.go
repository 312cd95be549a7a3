package id

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// New generates a ULID stamped with the current time.
func New() string {
	return NewAt(time.Now())
}

// NewAt generates a ULID stamped with t. Callers with an injected clock use
// this so ids sort consistently with the times they record.
func NewAt(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
