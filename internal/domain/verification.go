package domain

import "time"

// Code bounds. Codes are uniformly sampled from [CodeMin, CodeMax].
const (
	CodeMin = 100000
	CodeMax = 999999
)

// PendingCode is an issued one-time code awaiting verification.
// At most one exists per Identity; reissue replaces it rather than mutating it.
type PendingCode struct {
	Identity   string    `json:"identity"`
	IssuanceID string    `json:"issuance_id"`
	Code       int       `json:"-"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the code is no longer usable at now.
func (p *PendingCode) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Delivery is the payload handed to a delivery channel.
type Delivery struct {
	Code       int
	TTLMinutes int
}
