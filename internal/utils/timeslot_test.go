package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotStart(t *testing.T) {
	tests := []struct {
		name string
		date string
		slot string
		want time.Time
	}{
		{
			name: "morning slot",
			date: "2025-08-30",
			slot: "9:00 AM - 10:15 AM",
			want: time.Date(2025, 8, 30, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "noon slot crosses meridiem",
			date: "2025-08-30",
			slot: "12:00 PM - 1:15 PM",
			want: time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "afternoon slot",
			date: "2025-12-01",
			slot: "1:30 PM - 2:45 PM",
			want: time.Date(2025, 12, 1, 13, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SlotStart(tt.date, tt.slot)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("malformed label", func(t *testing.T) {
		_, err := SlotStart("2025-08-30", "morning session")
		assert.Error(t, err)
	})

	t.Run("malformed date", func(t *testing.T) {
		_, err := SlotStart("30/08/2025", "9:00 AM - 10:15 AM")
		assert.Error(t, err)
	})
}

func TestCancellableAt(t *testing.T) {
	date, slot := "2025-08-30", "9:00 AM - 10:15 AM"

	before := time.Date(2025, 8, 30, 8, 59, 59, 0, time.UTC)
	ok, err := CancellableAt(date, slot, before)
	require.NoError(t, err)
	assert.True(t, ok)

	atStart := time.Date(2025, 8, 30, 9, 0, 0, 0, time.UTC)
	ok, err = CancellableAt(date, slot, atStart)
	require.NoError(t, err)
	assert.False(t, ok, "cancellation closes exactly at slot start")

	dayAfter := time.Date(2025, 8, 31, 9, 0, 0, 0, time.UTC)
	ok, err = CancellableAt(date, slot, dayAfter)
	require.NoError(t, err)
	assert.False(t, ok)
}
