package analysis

import (
	"fmt"
	"strings"
)

// Fixed |S11| thresholds in dB.
const (
	GoodThresholdDB     = -10.0
	ModerateThresholdDB = -6.0
)

// MatchQuality grades impedance matching from |S11|.
type MatchQuality int

const (
	Good MatchQuality = iota
	Moderate
	Poor
)

func (q MatchQuality) String() string {
	switch q {
	case Good:
		return "good"
	case Moderate:
		return "moderate"
	default:
		return "poor"
	}
}

// MarshalText renders the lower-case name.
func (q MatchQuality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (q *MatchQuality) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "good":
		*q = Good
	case "moderate":
		*q = Moderate
	case "poor":
		*q = Poor
	default:
		return fmt.Errorf("unknown match quality %q", b)
	}
	return nil
}

// Classifier holds the two thresholds. A magnitude strictly below GoodBelow
// is Good, strictly below ModerateBelow is Moderate, anything else is Poor.
type Classifier struct {
	GoodBelow     float64
	ModerateBelow float64
}

// DefaultClassifier uses GoodThresholdDB and ModerateThresholdDB.
var DefaultClassifier = Classifier{
	GoodBelow:     GoodThresholdDB,
	ModerateBelow: ModerateThresholdDB,
}

// Classify grades magnitudeDB. NaN is Poor.
func (c Classifier) Classify(magnitudeDB float64) MatchQuality {
	switch {
	case magnitudeDB < c.GoodBelow:
		return Good
	case magnitudeDB < c.ModerateBelow:
		return Moderate
	default:
		return Poor
	}
}

// ClassifyMatching grades magnitudeDB with the default thresholds.
func ClassifyMatching(magnitudeDB float64) MatchQuality {
	return DefaultClassifier.Classify(magnitudeDB)
}
