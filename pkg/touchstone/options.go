package touchstone

import (
	"math"
	"math/cmplx"
	"strconv"
	"strings"
)

// Unit is a frequency unit from the option line.
type Unit int

const (
	Hz Unit = iota
	KHz
	MHz
	GHz
)

// DefaultUnit applies when the option line does not name a unit.
const DefaultUnit = GHz

// Scale is the factor that converts a value in u to Hz.
func (u Unit) Scale() float64 {
	switch u {
	case KHz:
		return 1e3
	case MHz:
		return 1e6
	case GHz:
		return 1e9
	default:
		return 1
	}
}

func (u Unit) String() string {
	switch u {
	case KHz:
		return "kHz"
	case MHz:
		return "MHz"
	case GHz:
		return "GHz"
	default:
		return "Hz"
	}
}

// Format is the encoding of each data pair.
type Format int

const (
	// RI is real and imaginary parts.
	RI Format = iota
	// MA is linear magnitude and angle in degrees.
	MA
	// DB is 20*log10 magnitude and angle in degrees.
	DB
)

// DefaultFormat applies when the option line does not name a format.
const DefaultFormat = MA

func (f Format) String() string {
	switch f {
	case MA:
		return "MA"
	case DB:
		return "DB"
	default:
		return "RI"
	}
}

// Complex decodes one data pair.
func (f Format) Complex(a, b float64) complex128 {
	switch f {
	case MA:
		return cmplx.Rect(a, b*math.Pi/180)
	case DB:
		return cmplx.Rect(math.Pow(10, a/20), b*math.Pi/180)
	default:
		return complex(a, b)
	}
}

// MinDB is the floor Pair writes for DB magnitudes, so an exact zero is
// written as a finite number Parse accepts.
const MinDB = -400.0

// Pair encodes v as a data pair; the inverse of Complex, except that DB
// magnitudes below MinDB are written as MinDB.
func (f Format) Pair(v complex128) (float64, float64) {
	switch f {
	case MA:
		return cmplx.Abs(v), cmplx.Phase(v) * 180 / math.Pi
	case DB:
		return math.Max(20*math.Log10(cmplx.Abs(v)), MinDB), cmplx.Phase(v) * 180 / math.Pi
	default:
		return real(v), imag(v)
	}
}

// Options is the decoded option line.
type Options struct {
	Unit               Unit
	Format             Format
	ReferenceImpedance float64
}

// DefaultOptions are the Touchstone defaults: GHz, S, MA, R 50.
func DefaultOptions() Options {
	return Options{
		Unit:               DefaultUnit,
		Format:             DefaultFormat,
		ReferenceImpedance: DefaultReferenceImpedance,
	}
}

// parseOptions decodes the fields following '#'.
func parseOptions(file string, lineNo int, line string) (Options, error) {
	opts := DefaultOptions()
	fields := strings.Fields(strings.TrimPrefix(line, "#"))

	for i := 0; i < len(fields); i++ {
		tok := strings.ToUpper(fields[i])
		switch tok {
		case "HZ":
			opts.Unit = Hz
		case "KHZ":
			opts.Unit = KHz
		case "MHZ":
			opts.Unit = MHz
		case "GHZ":
			opts.Unit = GHz
		case "S":
		case "Y", "Z", "H", "G":
			return opts, formatErr(file, lineNo, ErrUnsupportedParameterType, "%s-parameters", tok)
		case "MA":
			opts.Format = MA
		case "DB":
			opts.Format = DB
		case "RI":
			opts.Format = RI
		case "R":
			if i+1 >= len(fields) {
				return opts, formatErr(file, lineNo, ErrInvalidHeader, "R without a value")
			}
			i++
			z0, err := strconv.ParseFloat(fields[i], 64)
			if err != nil || !(z0 > 0) || math.IsInf(z0, 0) {
				return opts, formatErr(file, lineNo, ErrInvalidHeader, "reference impedance %q", fields[i])
			}
			opts.ReferenceImpedance = z0
		default:
			return opts, formatErr(file, lineNo, ErrInvalidHeader, "unknown token %q", fields[i])
		}
	}

	return opts, nil
}
