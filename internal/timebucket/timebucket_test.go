package timebucket

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(t time.Time) time.Time { return t }

func TestByDay_LocalCalendarDay(t *testing.T) {
	helsinki := time.FixedZone("UTC+3", 3*60*60)

	// 22:30 UTC on the 10th and 12:00 UTC on the 11th are both the 11th in UTC+3
	first := time.Date(2024, 3, 10, 22, 30, 0, 0, time.UTC)
	second := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)

	buckets := ByDay([]time.Time{first, second}, identity, helsinki)
	require.Len(t, buckets, 1)
	assert.Len(t, buckets[0].Values, 2)
	assert.True(t, buckets[0].Start.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, helsinki)))

	// in UTC the same instants are two different days
	assert.Len(t, ByDay([]time.Time{first, second}, identity, time.UTC), 2)
}

func TestByDay_SortedAndEmpty(t *testing.T) {
	assert.Empty(t, ByDay(nil, identity, time.UTC))

	day := func(d int) time.Time { return time.Date(2024, 1, d, 10, 0, 0, 0, time.UTC) }
	buckets := ByDay([]time.Time{day(5), day(1), day(3), day(1)}, identity, nil)
	require.Len(t, buckets, 3)
	assert.True(t, buckets[0].Start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, buckets[1].Start.Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)))
	assert.True(t, buckets[2].Start.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))
	assert.Len(t, buckets[0].Values, 2)
}

func TestByDay_DaylightSavingChange(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)

	// clocks move from 03:00 EET to 04:00 EEST on 2024-03-31
	before := time.Date(2024, 3, 31, 1, 0, 0, 0, helsinki)
	after := time.Date(2024, 3, 31, 10, 0, 0, 0, helsinki)
	next := time.Date(2024, 4, 1, 0, 30, 0, 0, helsinki)

	buckets := ByDay([]time.Time{before, after, next}, identity, helsinki)
	require.Len(t, buckets, 2)
	assert.Len(t, buckets[0].Values, 2)
	assert.True(t, buckets[0].Start.Equal(time.Date(2024, 3, 31, 0, 0, 0, 0, helsinki)))
	assert.True(t, buckets[1].Start.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, helsinki)))

	// the autumn change makes a 25 hour day
	long := []time.Time{
		time.Date(2024, 10, 27, 0, 10, 0, 0, helsinki),
		time.Date(2024, 10, 27, 23, 50, 0, 0, helsinki),
	}
	require.Len(t, ByDay(long, identity, helsinki), 1)
}

func TestByWeek_DaylightSavingChange(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)

	// Monday 2024-03-25 EET and Sunday 2024-03-31 EEST share a week
	monday := time.Date(2024, 3, 25, 0, 30, 0, 0, helsinki)
	sunday := time.Date(2024, 3, 31, 23, 30, 0, 0, helsinki)

	buckets := ByWeek([]time.Time{monday, sunday}, identity, helsinki)
	require.Len(t, buckets, 1)
	assert.True(t, buckets[0].Start.Equal(time.Date(2024, 3, 25, 0, 0, 0, 0, helsinki)))
	assert.True(t, StartOfWeek(sunday, helsinki).Equal(buckets[0].Start))
}

func TestStartOfDay(t *testing.T) {
	at := time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)
	assert.True(t, StartOfDay(at, nil).Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))

	plus3 := time.FixedZone("UTC+3", 3*60*60)
	assert.True(t, StartOfDay(at, plus3).Equal(time.Date(2024, 6, 2, 0, 0, 0, 0, plus3)))
	assert.True(t, Start(at, time.Hour, nil).Equal(time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)))
}

func TestByWeek_StartsOnMonday(t *testing.T) {
	// 2024-01-10 is a Wednesday, 2024-01-14 a Sunday
	wed := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	sun := time.Date(2024, 1, 14, 23, 0, 0, 0, time.UTC)

	buckets := ByWeek([]time.Time{wed, sun}, identity, time.UTC)
	require.Len(t, buckets, 1)
	assert.Equal(t, time.Monday, buckets[0].Start.Weekday())
	assert.True(t, buckets[0].Start.Equal(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)))
}

func TestCountsAndAverage(t *testing.T) {
	var dates []time.Time
	for d := 1; d <= 4; d++ {
		for i := 0; i < 3; i++ {
			dates = append(dates, time.Date(2024, 2, d, i, 0, 0, 0, time.UTC))
		}
	}

	counts := Counts(ByDay(dates, identity, time.UTC))
	require.Len(t, counts, 4)

	total := 0
	for _, c := range counts {
		assert.Equal(t, 3, c.N)
		total += c.N
	}
	assert.Equal(t, len(dates), total)
	assert.Equal(t, 3.0, AverageCount(counts))
	assert.Equal(t, 0.0, AverageCount(nil))
}
