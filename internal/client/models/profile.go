package models

import "time"

// Provenance records where a Profile came from.
type Provenance string

const (
	// ProvenancePersisted marks a profile read from or written to the store.
	ProvenancePersisted Provenance = "persisted"
	// ProvenanceSynthetic marks a locally fabricated profile. It is kept
	// only for the lifetime of the session and never written back.
	ProvenanceSynthetic Provenance = "synthetic"
)

// FallbackReason explains why a synthetic profile was produced.
type FallbackReason string

const (
	FallbackNone         FallbackReason = ""
	FallbackAccessDenied FallbackReason = "access_denied"
	FallbackInsertFailed FallbackReason = "insert_failed"
)

// Profile is the application-level record describing a user.
//
// Persisted and synthetic profiles share the same field set; Provenance and
// Fallback are bookkeeping only.
type Profile struct {
	ID        string
	Username  string
	FullName  string
	AvatarURL string
	CreatedAt time.Time

	Provenance Provenance
	Fallback   FallbackReason
}

// Synthetic reports whether p was fabricated locally.
func (p *Profile) Synthetic() bool {
	return p != nil && p.Provenance == ProvenanceSynthetic
}
