package tps

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/nadir/internal/models"
)

func ms(v int64) time.Time { return time.UnixMilli(v) }

func sample(server uuid.UUID, date int64, online int) models.PerformanceSample {
	return models.PerformanceSample{ServerUUID: server, Date: ms(date), PlayersOnline: online}
}

func TestEmptyWindow_ReturnsNoData(t *testing.T) {
	fields := []Field{FieldTPS, FieldPlayersOnline, FieldCPU, FieldRAM, FieldEntities, FieldChunks, FieldFreeDisk}

	var empty Series
	for _, f := range fields {
		t.Run(f.String(), func(t *testing.T) {
			assert.Equal(t, NoData, OrNoData(empty.Average(f)))
			assert.Equal(t, NoData, OrNoData(empty.Max(f)))
			assert.Equal(t, NoData, OrNoData(empty.Min(f)))
		})
	}
}

func TestZeroAverageIsNotNoData(t *testing.T) {
	s := Series{{Date: ms(10), TPS: 0}, {Date: ms(20), TPS: 0}}

	avg, ok := s.Average(FieldTPS)
	assert.True(t, ok)
	assert.Equal(t, 0.0, avg)
	assert.Equal(t, 0.0, OrNoData(avg, ok))
}

func TestBetween_StrictBounds(t *testing.T) {
	s := Series{
		{Date: ms(100), TPS: 10},
		{Date: ms(150), TPS: 20},
		{Date: ms(200), TPS: 30},
	}

	window := s.Between(ms(100), ms(200))
	require.Len(t, window, 1)
	assert.Equal(t, 20.0, window[0].TPS)

	// adjacent windows never share the boundary sample
	assert.Empty(t, s.Between(ms(50), ms(100)))
	assert.Empty(t, s.Between(ms(200), ms(300)))
}

func TestAggregates(t *testing.T) {
	s := Series{
		{Date: ms(1), TPS: 20, CPUUsage: 0.5, FreeDiskSpace: 300},
		{Date: ms(2), TPS: 18, CPUUsage: 0.7, FreeDiskSpace: 100},
		{Date: ms(3), TPS: 16, CPUUsage: 0.9, FreeDiskSpace: 200},
	}

	avg, ok := s.Average(FieldTPS)
	require.True(t, ok)
	assert.InDelta(t, 18.0, avg, 1e-9)

	cpu, _ := s.Average(FieldCPU)
	assert.InDelta(t, 0.7, cpu, 1e-9)

	maxDisk, _ := s.Max(FieldFreeDisk)
	minDisk, _ := s.Min(FieldFreeDisk)
	assert.Equal(t, 300.0, maxDisk)
	assert.Equal(t, 100.0, minDisk)
}

func TestPeak_TieBreaksOnLatest(t *testing.T) {
	server := uuid.New()
	s := Series{sample(server, 100, 5), sample(server, 300, 9), sample(server, 200, 9)}

	peak, ok := s.Peak(Epoch)
	require.True(t, ok)
	assert.Equal(t, ms(300), peak.Date)
	assert.Equal(t, 9, peak.PlayersOnline)

	// since is inclusive
	peak, ok = s.Peak(ms(300))
	require.True(t, ok)
	assert.Equal(t, ms(300), peak.Date)

	_, ok = s.Peak(ms(301))
	assert.False(t, ok)
}

func TestLatestAndOnlineOn(t *testing.T) {
	server := uuid.New()
	s := Series{sample(server, 300, 3), sample(server, 100, 1), sample(server, 200, 2)}

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, ms(300), latest.Date)

	n, ok := s.OnlineOn(ms(250))
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = s.OnlineOn(ms(50))
	assert.False(t, ok)

	_, ok = Series{}.Latest()
	assert.False(t, ok)
}

func TestLowTPSSpikesAndDowntime(t *testing.T) {
	minute := int64(time.Minute / time.Millisecond)
	s := Series{
		{Date: ms(0), TPS: 20},
		{Date: ms(1 * minute), TPS: 10},
		{Date: ms(2 * minute), TPS: 9},
		{Date: ms(3 * minute), TPS: 20},
		{Date: ms(4 * minute), TPS: 5},
		{Date: ms(20 * minute), TPS: 20},
	}

	assert.Equal(t, 2, s.LowTPSSpikes(11))
	assert.Equal(t, 16*time.Minute, s.Downtime(3*time.Minute))
	assert.Equal(t, time.Duration(0), s.Downtime(0))
}

func TestAggregator(t *testing.T) {
	a, b, c, gone := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	servers := []models.Server{
		{UUID: a, Installed: true},
		{UUID: b, Installed: true},
		{UUID: c, Installed: true},
		{UUID: gone, Installed: false},
	}
	samples := []models.PerformanceSample{
		sample(a, 100, 5), sample(a, 200, 9), sample(a, 300, 9),
		sample(b, 150, 2), sample(b, 500, 4),
		sample(c, 900, 1),
		sample(gone, 150, 7),
	}

	agg := New(samples, servers)

	peak, ok := agg.AllTimePeak(a)
	require.True(t, ok)
	assert.Equal(t, ms(300), peak.Date)

	latest, ok := agg.LatestSample(b)
	require.True(t, ok)
	assert.Equal(t, ms(500), latest.Date)

	_, ok = agg.LatestSample(uuid.New())
	assert.False(t, ok)

	avg, ok := agg.Average(a, ms(100), ms(300), FieldPlayersOnline)
	require.True(t, ok)
	assert.Equal(t, 9.0, avg)

	cross := agg.CrossServerSamples(ms(0), ms(1000), a)
	assert.Len(t, cross, 2)
	assert.Len(t, cross[b], 2)
	assert.Len(t, cross[c], 1)
	assert.NotContains(t, cross, gone)

	cross = agg.CrossServerSamples(ms(0), ms(900), a)
	assert.NotContains(t, cross, c)

	assert.Len(t, agg.PlayersOnline(a, ms(0), ms(1000)), 3)
	assert.Len(t, agg.Servers(), 4)
}

func TestSummarize(t *testing.T) {
	server := uuid.New()
	agg := New([]models.PerformanceSample{
		{ServerUUID: server, Date: ms(100), TPS: 20, PlayersOnline: 3, FreeDiskSpace: 50},
		{ServerUUID: server, Date: ms(200), TPS: 10, PlayersOnline: 8, FreeDiskSpace: 40},
	}, []models.Server{{UUID: server, Installed: true}})

	summary := agg.Summarize(server, ms(0), ms(1000), SummaryOptions{LowTPSThreshold: 15})
	assert.Equal(t, 2, summary.Samples)
	assert.Equal(t, 15.0, summary.AverageTPS)
	assert.Equal(t, 40.0, summary.MinFreeDisk)
	assert.Equal(t, 1, summary.LowTPSSpikes)
	require.NotNil(t, summary.Peak)
	assert.Equal(t, 8, summary.Peak.PlayersOnline)

	empty := agg.Summarize(server, ms(500), ms(1000), SummaryOptions{})
	assert.Equal(t, 0, empty.Samples)
	assert.Equal(t, NoData, empty.AverageTPS)
	assert.Equal(t, NoData, empty.MaxFreeDisk)
	assert.Nil(t, empty.Peak)
	require.NotNil(t, empty.Latest)
}
