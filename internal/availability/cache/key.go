package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/kofflo/chamannas/internal/availability"
)

// keyParams is the canonical encoding hashed into a fingerprint. Field
// order is fixed by the struct; dates are day-granular DateFormat
// strings, so equal queries always serialize identically.
type keyParams struct {
	HutID     string `json:"hut_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Occupants int    `json:"occupants"`
}

// Fingerprint derives the stable cache key for a query. It normalizes
// date ordering first and returns an error matching
// availability.ErrInvalidQuery for malformed queries. The result is a
// 64-character hex SHA256 digest, identical across process restarts.
func Fingerprint(q availability.Query) (string, error) {
	n, err := q.Normalize()
	if err != nil {
		return "", err
	}

	params := keyParams{
		HutID:     n.HutID,
		StartDate: n.StartDate.Format(availability.DateFormat),
		EndDate:   n.EndDate.Format(availability.DateFormat),
		Occupants: n.Occupants,
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encoding fingerprint params: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
