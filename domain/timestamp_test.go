package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-01T09:15:00.123456", time.Date(2025, 3, 1, 9, 15, 0, 123456000, time.UTC)},
		{"2025-03-01T09:15:00", time.Date(2025, 3, 1, 9, 15, 0, 0, time.UTC)},
		{"2025-03-01 09:15:00", time.Date(2025, 3, 1, 9, 15, 0, 0, time.UTC)},
		{"2025-03-01T09:15:00Z", time.Date(2025, 3, 1, 9, 15, 0, 0, time.UTC)},
		{"2025-03-01T11:15:00+02:00", time.Date(2025, 3, 1, 9, 15, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got.Time), "got %s", got.Time)
		})
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestTimestampJSON(t *testing.T) {
	var entry struct {
		CreatedAt Timestamp  `json:"created_at"`
		ReadAt    *Timestamp `json:"read_at"`
		Missing   Timestamp  `json:"missing,omitzero"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"created_at":"2025-03-01T09:15:00.5","read_at":null,"missing":null}`), &entry))
	assert.Equal(t, 500000000, entry.CreatedAt.Nanosecond())
	assert.Nil(t, entry.ReadAt)
	assert.True(t, entry.Missing.IsZero())

	out, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.JSONEq(t, `{"created_at":"2025-03-01T09:15:00.5Z","read_at":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"created_at":42}`), &entry))
}
