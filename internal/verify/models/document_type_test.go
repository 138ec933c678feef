package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDocumentType(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want DocumentType
		ok   bool
	}{
		{"exact", "PASSPORT", DocPassport, true},
		{"lowercase", "passport", DocPassport, true},
		{"mixed case with spaces", "  Drivers_License ", DocDriversLicense, true},
		{"unknown", "VISA_UNKNOWN", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDocumentType(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterDocumentTypes(t *testing.T) {
	t.Run("drops unknowns and keeps input order", func(t *testing.T) {
		got := FilterDocumentTypes([]string{"PASSPORT", "VISA_UNKNOWN", "national_id"})
		assert.Equal(t, []DocumentType{DocPassport, DocNationalID}, got)
	})

	t.Run("drops duplicates", func(t *testing.T) {
		got := FilterDocumentTypes([]string{"PASSPORT", "passport", "PASSPORT"})
		assert.Equal(t, []DocumentType{DocPassport}, got)
	})

	t.Run("all unknown yields nil", func(t *testing.T) {
		assert.Nil(t, FilterDocumentTypes([]string{"VISA_UNKNOWN", "LOYALTY_CARD"}))
	})
}

func TestRetriesExhausted(t *testing.T) {
	assert.True(t, Session{Status: StatusFailed, RetryCount: 3, MaxRetries: 3}.RetriesExhausted())
	assert.False(t, Session{Status: StatusFailed, RetryCount: 1, MaxRetries: 3}.RetriesExhausted())
	assert.False(t, Session{Status: StatusPending, RetryCount: 3, MaxRetries: 3}.RetriesExhausted())
}
