package analysis

import (
	"fmt"
	"io"
	"strings"

	"github.com/RMahshie/s2plab/pkg/touchstone"
)

// Record is one line of a batch summary. When Err is set, Point and Quality
// are zero values.
type Record struct {
	Index   int
	Name    string
	Point   TracePoint
	Quality MatchQuality
	Err     error
}

// Label is the display name for the network at index.
func Label(index int) string {
	return fmt.Sprintf("Antenna %d", index+1)
}

// Summarize evaluates S11 near targetHz for every network, in order. A
// network that cannot be evaluated, including a nil entry, is recorded with
// its error and the rest of the batch continues.
func Summarize(networks []*touchstone.Network, targetHz float64) []Record {
	return DefaultClassifier.Summarize(networks, targetHz)
}

// Summarize is the package-level Summarize with c's thresholds.
func (c Classifier) Summarize(networks []*touchstone.Network, targetHz float64) []Record {
	records := make([]Record, 0, len(networks))
	for i, n := range networks {
		if n == nil {
			records = append(records, Record{Index: i, Err: ErrNilNetwork})
			continue
		}
		rec := Record{Index: i, Name: n.Name()}
		p, err := Nearest(n, targetHz)
		if err != nil {
			rec.Err = err
		} else {
			rec.Point = p
			rec.Quality = c.Classify(p.MagnitudeDB)
		}
		records = append(records, rec)
	}
	return records
}

var verdicts = map[MatchQuality]string{
	Good:     "Good impedance matching",
	Moderate: "Moderate impedance matching",
	Poor:     "Poor impedance matching",
}

// WriteReport prints the plain-text analysis report for records.
func WriteReport(w io.Writer, targetHz float64, records []Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\nAnalyzing frequency response around %.1f GHz:\n", targetHz/1e9)
	b.WriteString(strings.Repeat("-", 50))
	b.WriteByte('\n')

	for _, r := range records {
		fmt.Fprintf(&b, "\n%s:\n", Label(r.Index))
		if r.Err != nil {
			fmt.Fprintf(&b, "Error: %v\n", r.Err)
			continue
		}
		fmt.Fprintf(&b, "Frequency: %.3f GHz\n", r.Point.FrequencyHz/1e9)
		fmt.Fprintf(&b, "S11 Magnitude: %.2f dB\n", r.Point.MagnitudeDB)
		fmt.Fprintf(&b, "S11 Phase: %.2f degrees\n", r.Point.PhaseDeg)
		b.WriteString(verdicts[r.Quality])
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}
