package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServerTime(t *testing.T) {
	tests := []struct {
		name        string
		at          time.Time
		readable    string
		serviceDate string
	}{
		{
			name:        "utc noon",
			at:          time.Date(2025, 5, 3, 12, 0, 0, 0, time.UTC),
			readable:    "2025-05-03T20:00:00+08:00",
			serviceDate: "20250503",
		},
		{
			name:        "utc evening rolls the local date",
			at:          time.Date(2025, 5, 3, 18, 30, 0, 0, time.UTC),
			readable:    "2025-05-04T02:30:00+08:00",
			serviceDate: "20250504",
		},
		{
			name:        "already local",
			at:          time.Date(2025, 5, 3, 9, 15, 0, 0, HongKong),
			readable:    "2025-05-03T09:15:00+08:00",
			serviceDate: "20250503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewServerTime(tt.at)
			assert.Equal(t, tt.at.UnixMilli(), got.Time)
			assert.Equal(t, tt.readable, got.ReadableTime)
			assert.Equal(t, tt.serviceDate, got.ServiceDate)
		})
	}
}

func TestServerTimeInEnvelope(t *testing.T) {
	at := time.Date(2025, 5, 3, 12, 0, 0, 0, time.UTC)

	raw, err := json.Marshal(NewEntryResponse(NewServerTime(at)))
	require.NoError(t, err)

	var decoded struct {
		Code int `json:"code"`
		Data struct {
			Entry ServerTime `json:"entry"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 200, decoded.Code)
	assert.Equal(t, NewServerTime(at), decoded.Data.Entry)
}
