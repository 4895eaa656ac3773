package analysis

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"math/cmplx"

	"github.com/RMahshie/s2plab/pkg/touchstone"
)

var (
	// ErrInvalidPort is matched by every *PortError.
	ErrInvalidPort = errors.New("invalid port index")
	// ErrEmptyNetwork is returned when a query needs at least one sample.
	ErrEmptyNetwork = errors.New("network has no frequency samples")
	// ErrNilNetwork marks a missing entry in a collection.
	ErrNilNetwork = errors.New("network is nil")
)

// PortError reports a port pair outside 1..2.
type PortError struct {
	Out, In int
}

func (e *PortError) Error() string {
	return fmt.Sprintf("%v: S%d%d (ports are 1..%d)", ErrInvalidPort, e.Out, e.In, touchstone.Ports)
}

func (e *PortError) Unwrap() error { return ErrInvalidPort }

// TracePoint is one sample of a single S-parameter.
type TracePoint struct {
	Index       int
	FrequencyHz float64
	MagnitudeDB float64
	PhaseDeg    float64
	Value       complex128
}

// Point derives a TracePoint from a complex value.
func Point(index int, freqHz float64, v complex128) TracePoint {
	return TracePoint{
		Index:       index,
		FrequencyHz: freqHz,
		MagnitudeDB: MagnitudeDB(v),
		PhaseDeg:    PhaseDeg(v),
		Value:       v,
	}
}

// MagnitudeDB is 20*log10(|v|). An exact zero gives -Inf.
func MagnitudeDB(v complex128) float64 {
	return 20 * math.Log10(cmplx.Abs(v))
}

// PhaseDeg is the angle of v in degrees, in (-180, 180].
func PhaseDeg(v complex128) float64 {
	rad := cmplx.Phase(v)
	if rad == -math.Pi {
		rad = math.Pi
	}
	return rad * 180 / math.Pi
}

func checkPorts(out, in int) error {
	if out < 1 || out > touchstone.Ports || in < 1 || in > touchstone.Ports {
		return &PortError{Out: out, In: in}
	}
	return nil
}

// Trace yields S(out)(in) for every sample in frequency order. The sequence
// reads the immutable network on each iteration, so it can be ranged over
// any number of times.
func Trace(n *touchstone.Network, out, in int) (iter.Seq[TracePoint], error) {
	if err := checkPorts(out, in); err != nil {
		return nil, err
	}

	return func(yield func(TracePoint) bool) {
		for i := 0; i < n.Len(); i++ {
			if !yield(Point(i, n.Frequency(i), n.Param(i, out, in))) {
				return
			}
		}
	}, nil
}

// NearestIndex returns the sample index closest to targetHz. Ties go to the
// lower index.
func NearestIndex(n *touchstone.Network, targetHz float64) (int, error) {
	if n.Len() == 0 {
		return 0, fmt.Errorf("%s: %w", n.Name(), ErrEmptyNetwork)
	}

	best := 0
	bestDist := math.Abs(n.Frequency(0) - targetHz)
	for i := 1; i < n.Len(); i++ {
		if d := math.Abs(n.Frequency(i) - targetHz); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}

// Nearest returns S11 at the sample closest to targetHz.
func Nearest(n *touchstone.Network, targetHz float64) (TracePoint, error) {
	return NearestParam(n, 1, 1, targetHz)
}

// NearestParam returns S(out)(in) at the sample closest to targetHz.
func NearestParam(n *touchstone.Network, out, in int, targetHz float64) (TracePoint, error) {
	if err := checkPorts(out, in); err != nil {
		return TracePoint{}, err
	}
	i, err := NearestIndex(n, targetHz)
	if err != nil {
		return TracePoint{}, err
	}
	return Point(i, n.Frequency(i), n.Param(i, out, in)), nil
}
