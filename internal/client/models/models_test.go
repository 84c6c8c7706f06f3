package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_Expired(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var nilSession *Session
	assert.True(t, nilSession.Expired(now))
	assert.False(t, (&Session{}).Expired(now), "zero expiry never expires")
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now.Add(-time.Second)}).Expired(now))
}

func TestProfile_Synthetic(t *testing.T) {
	var p *Profile
	assert.False(t, p.Synthetic())
	assert.False(t, (&Profile{Provenance: ProvenancePersisted}).Synthetic())
	assert.True(t, (&Profile{Provenance: ProvenanceSynthetic}).Synthetic())
}

func TestState_SignedIn(t *testing.T) {
	assert.False(t, State{}.SignedIn())
	assert.True(t, State{CurrentUser: &User{ID: "u"}}.SignedIn())
}
