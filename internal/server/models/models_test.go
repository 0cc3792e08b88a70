package models

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationClass(t *testing.T) {
	tests := []struct {
		in      string
		want    DurationClass
		wantErr bool
	}{
		{in: "trial", want: DurationTrial},
		{in: "Standard", want: DurationStandard},
		{in: " PERMANENT ", want: DurationPermanent},
		{in: "forever", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseDurationClass(tt.in)
		if tt.wantErr {
			assert.True(t, errors.Is(err, common.ErrInvalidDuration), "input %q", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestDurationClassFromDays(t *testing.T) {
	for days, want := range map[int]DurationClass{0: DurationPermanent, 13: DurationTrial, 30: DurationStandard} {
		got, err := DurationClassFromDays(days)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, days, got.Days())
	}

	_, err := DurationClassFromDays(7)
	assert.True(t, errors.Is(err, common.ErrInvalidDuration))
}

func TestDurationClass_Lifetime(t *testing.T) {
	l, ok := DurationTrial.Lifetime()
	assert.True(t, ok)
	assert.Equal(t, 13*24*time.Hour, l)

	l, ok = DurationStandard.Lifetime()
	assert.True(t, ok)
	assert.Equal(t, 30*24*time.Hour, l)

	_, ok = DurationPermanent.Lifetime()
	assert.False(t, ok)

	_, ok = DurationClass("bogus").Lifetime()
	assert.False(t, ok)
}

func TestExpiry_TrialWindow(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := DurationTrial.ExpiryFrom(created)

	assert.True(t, e.IsValid(created))
	assert.True(t, e.IsValid(created.Add(12*24*time.Hour)))
	assert.False(t, e.IsValid(created.Add(13*24*time.Hour)), "expiry instant itself is invalid")
	assert.False(t, e.IsValid(created.Add(14*24*time.Hour)))
}

func TestExpiry_PermanentNeverExpires(t *testing.T) {
	e := DurationPermanent.ExpiryFrom(time.Now())
	assert.Equal(t, NeverExpires, e)
	assert.True(t, e.IsNever())
	assert.True(t, e.IsValid(time.Now().Add(100*365*24*time.Hour)))

	_, err := e.Time()
	assert.Error(t, err)
}

func TestExpiry_UnknownClassExpiresImmediately(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := DurationClass("bogus").ExpiryFrom(created)

	assert.False(t, e.IsNever())
	assert.False(t, e.IsValid(created))
	assert.False(t, e.IsValid(created.Add(10*365*24*time.Hour)))
}

func TestExpiry_MalformedFailsClosed(t *testing.T) {
	now := time.Now()
	for _, e := range []Expiry{"", "tomorrow", "2026-13-45", "NEVER", "null"} {
		assert.False(t, e.IsValid(now), "marker %q must be invalid", e)
	}
}

func TestExpiry_RoundTripUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	at := time.Date(2026, 5, 2, 10, 30, 0, 123, loc)

	e := ExpiresAt(at)
	got, err := e.Time()
	require.NoError(t, err)
	assert.True(t, got.Equal(at))
	assert.Equal(t, time.UTC, got.Location())
}

func TestAccount_IsValid(t *testing.T) {
	now := time.Now()
	a := &Account{Expiry: ExpiresAt(now.Add(time.Hour))}
	assert.True(t, a.IsValid(now))
	assert.False(t, a.IsValid(now.Add(2*time.Hour)))
}
