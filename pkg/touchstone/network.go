package touchstone

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Ports is the only port count this package handles.
const Ports = 2

// DefaultReferenceImpedance is used when the option line omits R.
const DefaultReferenceImpedance = 50.0

// Matrix is a 2x2 scattering matrix; element [i][j] is S(i+1)(j+1).
type Matrix [Ports][Ports]complex128

// Network is an immutable two-port measurement: frequencies in Hz with one
// S-matrix per frequency.
type Network struct {
	name     string
	comments []string
	freqs    []float64
	s        []Matrix
	z0       float64
}

// New builds a Network from already-normalised data. Frequencies must be in
// Hz and strictly increasing, every value must be finite, and z0 must be
// positive. The slices are copied.
func New(name string, freqs []float64, s []Matrix, z0 float64) (*Network, error) {
	if len(freqs) != len(s) {
		return nil, fmt.Errorf("network %s: %d frequencies but %d matrices", name, len(freqs), len(s))
	}
	if !(z0 > 0) || math.IsInf(z0, 0) {
		return nil, fmt.Errorf("network %s: reference impedance %g must be positive", name, z0)
	}
	for i, f := range freqs {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("network %s: frequency %d is not finite", name, i)
		}
		if i > 0 && f <= freqs[i-1] {
			return nil, fmt.Errorf("network %s: %w at sample %d", name, ErrNonMonotonicFrequency, i)
		}
		if !s[i].finite() {
			return nil, fmt.Errorf("network %s: sample %d holds a non-finite value", name, i)
		}
	}

	return &Network{
		name:  name,
		freqs: append([]float64(nil), freqs...),
		s:     append([]Matrix(nil), s...),
		z0:    z0,
	}, nil
}

// Name returns the file identifier the network was parsed from.
func (n *Network) Name() string { return n.name }

// Comments returns the comment lines found before the first data line.
func (n *Network) Comments() []string { return append([]string(nil), n.comments...) }

// Len is the number of frequency samples.
func (n *Network) Len() int { return len(n.freqs) }

// Ports always reports 2.
func (n *Network) Ports() int { return Ports }

// ReferenceImpedance is the per-port reference impedance in ohms.
func (n *Network) ReferenceImpedance() float64 { return n.z0 }

// Frequency returns the i-th frequency in Hz.
func (n *Network) Frequency(i int) float64 { return n.freqs[i] }

// Frequencies returns a copy of the frequency grid in Hz.
func (n *Network) Frequencies() []float64 { return append([]float64(nil), n.freqs...) }

// S returns the scattering matrix at sample i.
func (n *Network) S(i int) Matrix { return n.s[i] }

// Param returns S(out)(in) at sample i. Ports are 1-based; the caller is
// responsible for range checks.
func (n *Network) Param(i, out, in int) complex128 { return n.s[i][out-1][in-1] }

func (m Matrix) finite() bool {
	for _, row := range m {
		for _, v := range row {
			if cmplx.IsNaN(v) || cmplx.IsInf(v) {
				return false
			}
		}
	}
	return true
}
