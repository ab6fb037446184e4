package sessions

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/nadir/internal/models"
)

var base = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func at(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

func TestPlayedBetween(t *testing.T) {
	session := models.Session{Start: at(10), End: at(12)}

	tests := []struct {
		name   string
		lo, hi time.Time
		want   bool
	}{
		{"window contains start", at(9), at(11), true},
		{"window contains end", at(11), at(13), true},
		{"window equals session", at(10), at(12), true},
		{"bounds are inclusive", at(12), at(14), true},
		{"window before", at(0), at(9), false},
		{"window after", at(13), at(20), false},
		{"session contains window", at(10).Add(time.Minute), at(11), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, List{session}.PlayedBetween(tt.lo, tt.hi))
		})
	}
}

func TestPlayedBetween_OpenSession(t *testing.T) {
	open := List{{Start: at(10)}}

	assert.True(t, open.PlayedBetween(at(9), at(11)))
	// the zero end must not match a window reaching back to the zero time
	assert.False(t, open.PlayedBetween(time.Time{}, at(5)))
}

func TestOnServer_DoesNotModifyReceiver(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	list := List{
		{ServerUUID: a, Start: at(1), End: at(2)},
		{ServerUUID: b, Start: at(3), End: at(4)},
		{ServerUUID: a, Start: at(5), End: at(6)},
	}

	onA := list.OnServer(a)
	require.Len(t, onA, 2)
	onA[0].ServerUUID = b

	assert.Equal(t, a, list[0].ServerUUID)
	assert.Len(t, list, 3)
	assert.Empty(t, list.OnServer(uuid.New()))
}

func TestPlaytime(t *testing.T) {
	list := List{
		{Start: at(0), End: at(2)},
		{Start: at(5), End: at(6)},
		{Start: at(10)},
	}

	assert.Equal(t, 3*time.Hour, list.Playtime())
	assert.Equal(t, 4*time.Hour, list.PlaytimeUntil(at(11)))
	assert.Equal(t, 90*time.Minute, list.Average())

	longest, ok := list.Longest()
	require.True(t, ok)
	assert.Equal(t, at(0), longest.Start)
}

func TestLengthUntil(t *testing.T) {
	s := models.Session{Start: at(2), End: at(6)}

	assert.Equal(t, time.Duration(0), LengthUntil(s, at(1)))
	assert.Equal(t, 2*time.Hour, LengthUntil(s, at(4)))
	assert.Equal(t, 4*time.Hour, LengthUntil(s, at(8)))
}

func TestPerDay(t *testing.T) {
	list := List{
		{Start: at(1), End: at(2)},
		{Start: at(23), End: at(25)},
		{Start: at(26), End: at(27)},
	}

	days := list.PerDay(time.UTC)
	require.Len(t, days, 2)
	assert.Len(t, days[0].Values, 2)
	assert.Len(t, days[1].Values, 1)
}
