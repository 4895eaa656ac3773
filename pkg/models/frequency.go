package models

import (
	"math"
	"path/filepath"

	"github.com/RMahshie/s2plab/pkg/analysis"
)

// TracePoint represents a single S-parameter sample
type TracePoint struct {
	Index       int      `json:"index" doc:"Sample index within the network"`
	FrequencyHz float64  `json:"frequency_hz" doc:"Frequency in Hz"`
	MagnitudeDB *float64 `json:"magnitude_db" doc:"Magnitude in dB; null when the value is exactly zero"`
	PhaseDeg    float64  `json:"phase_deg" doc:"Phase in degrees, (-180, 180]"`
	Real        float64  `json:"real" doc:"Real part"`
	Imag        float64  `json:"imag" doc:"Imaginary part"`
}

// NewTracePoint converts an analysis point for JSON output
func NewTracePoint(p analysis.TracePoint) TracePoint {
	return TracePoint{
		Index:       p.Index,
		FrequencyHz: p.FrequencyHz,
		MagnitudeDB: Finite(p.MagnitudeDB),
		PhaseDeg:    p.PhaseDeg,
		Real:        real(p.Value),
		Imag:        imag(p.Value),
	}
}

// Finite returns nil for NaN and infinities, which JSON cannot carry
func Finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NewSummaryEntries converts summary records in order
func NewSummaryEntries(records []analysis.Record) []SummaryEntry {
	out := make([]SummaryEntry, 0, len(records))
	for _, r := range records {
		entry := SummaryEntry{
			Index: r.Index,
			Label: analysis.Label(r.Index),
		}
		if r.Name != "" {
			entry.Name = filepath.Base(r.Name)
		}
		if r.Err != nil {
			entry.Error = r.Err.Error()
		} else {
			p := NewTracePoint(r.Point)
			entry.Point = &p
			entry.Quality = r.Quality.String()
		}
		out = append(out, entry)
	}
	return out
}
