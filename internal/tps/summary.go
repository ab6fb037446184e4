package tps

import (
	"time"

	"github.com/google/uuid"
	"github.com/woozymasta/nadir/internal/models"
)

// Summary is the performance overview of one server for a window.
// Aggregates without samples hold NoData.
type Summary struct {
	After         time.Time                 `json:"after"`
	Before        time.Time                 `json:"before"`
	Latest        *models.PerformanceSample `json:"latest,omitempty"`
	Peak          *models.PerformanceSample `json:"peak,omitempty"`
	AllTimePeak   *models.PerformanceSample `json:"all_time_peak,omitempty"`
	AverageTPS    float64                   `json:"average_tps"`
	AverageCPU    float64                   `json:"average_cpu"`
	AverageRAM    float64                   `json:"average_ram"`
	AverageEntity float64                   `json:"average_entities"`
	AverageChunks float64                   `json:"average_chunks"`
	AverageDisk   float64                   `json:"average_free_disk"`
	MinFreeDisk   float64                   `json:"min_free_disk"`
	MaxFreeDisk   float64                   `json:"max_free_disk"`
	Downtime      time.Duration             `json:"downtime"`
	Samples       int                       `json:"samples"`
	LowTPSSpikes  int                       `json:"low_tps_spikes"`
	ServerUUID    uuid.UUID                 `json:"server_uuid"`
}

// SummaryOptions tunes the supplementary statistics of a Summary.
type SummaryOptions struct {
	LowTPSThreshold float64
	MaxSampleGap    time.Duration
}

// Summarize builds the overview of the server over (after, before).
// The peak covers samples at or after after.
func (a *Aggregator) Summarize(serverUUID uuid.UUID, after, before time.Time, opts SummaryOptions) Summary {
	window := a.Window(serverUUID, after, before)

	s := Summary{
		ServerUUID:    serverUUID,
		After:         after,
		Before:        before,
		Samples:       len(window),
		AverageTPS:    OrNoData(window.Average(FieldTPS)),
		AverageCPU:    OrNoData(window.Average(FieldCPU)),
		AverageRAM:    OrNoData(window.Average(FieldRAM)),
		AverageEntity: OrNoData(window.Average(FieldEntities)),
		AverageChunks: OrNoData(window.Average(FieldChunks)),
		AverageDisk:   OrNoData(window.Average(FieldFreeDisk)),
		MinFreeDisk:   OrNoData(window.Min(FieldFreeDisk)),
		MaxFreeDisk:   OrNoData(window.Max(FieldFreeDisk)),
		LowTPSSpikes:  window.LowTPSSpikes(opts.LowTPSThreshold),
		Downtime:      window.Downtime(opts.MaxSampleGap),
	}

	if latest, ok := a.LatestSample(serverUUID); ok {
		s.Latest = &latest
	}
	if peak, ok := a.PeakPlayersOnline(serverUUID, after); ok {
		s.Peak = &peak
	}
	if peak, ok := a.AllTimePeak(serverUUID); ok {
		s.AllTimePeak = &peak
	}

	return s
}
