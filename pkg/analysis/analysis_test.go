package analysis

import (
	"bytes"
	"math"
	"slices"
	"testing"

	"github.com/RMahshie/s2plab/pkg/touchstone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func network(t *testing.T, name string, freqs []float64, s11 ...complex128) *touchstone.Network {
	t.Helper()

	s := make([]touchstone.Matrix, len(freqs))
	for i := range s {
		if i < len(s11) {
			s[i][0][0] = s11[i]
		}
		s[i][1][0] = complex(0.5, 0.5)
	}
	n, err := touchstone.New(name, freqs, s, 50)
	require.NoError(t, err)
	return n
}

func TestTrace_EndToEnd(t *testing.T) {
	raw := "# GHz S RI R 50\n! single point\n2.4 0.1 0.0 0.9 0.0 0.9 0.0 0.1 0.0\n"
	n, err := touchstone.Parse("antenna1.s2p", raw)
	require.NoError(t, err)

	seq, err := Trace(n, 1, 1)
	require.NoError(t, err)

	points := slices.Collect(seq)
	require.Len(t, points, 1)
	assert.InDelta(t, 2.4e9, points[0].FrequencyHz, 1e-3)
	assert.InDelta(t, -20.0, points[0].MagnitudeDB, 1e-9)
	assert.Equal(t, 0.0, points[0].PhaseDeg)
	assert.Equal(t, Good, ClassifyMatching(-20.0))
}

func TestTrace_Restartable(t *testing.T) {
	n := network(t, "a", []float64{1, 2, 3}, 0.1, 0.2, 0.3)

	seq, err := Trace(n, 2, 1)
	require.NoError(t, err)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
	require.Len(t, first, 3)
	for i, p := range first {
		assert.Equal(t, i, p.Index)
		assert.InDelta(t, 45.0, p.PhaseDeg, 1e-12)
	}

	// Early break stops the walk.
	count := 0
	for range seq {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestTrace_InvalidPorts(t *testing.T) {
	n := network(t, "a", []float64{1})

	for _, ports := range [][2]int{{0, 1}, {1, 3}, {-1, -1}, {3, 3}} {
		seq, err := Trace(n, ports[0], ports[1])
		assert.Nil(t, seq)
		assert.ErrorIs(t, err, ErrInvalidPort)

		var pe *PortError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, ports[0], pe.Out)
		assert.Equal(t, ports[1], pe.In)
	}
}

func TestPhaseDeg_Range(t *testing.T) {
	assert.InDelta(t, 180.0, PhaseDeg(complex(-1, 0)), 1e-12)
	assert.Equal(t, PhaseDeg(complex(-1, 0)), PhaseDeg(complex(-1, math.Copysign(0, -1))))
	assert.InDelta(t, -90.0, PhaseDeg(complex(0, -1)), 1e-12)
	assert.Equal(t, 0.0, PhaseDeg(0))
}

func TestMagnitudeDB_Zero(t *testing.T) {
	assert.True(t, math.IsInf(MagnitudeDB(0), -1))
	assert.Equal(t, Good, ClassifyMatching(MagnitudeDB(0)))
}

func TestNearest(t *testing.T) {
	n := network(t, "a", []float64{1.0, 2.0, 3.0}, 0.1, 0.2, 0.3)

	tests := []struct {
		name   string
		target float64
		want   int
	}{
		{"tie goes to lower index", 1.5, 0},
		{"second tie", 2.5, 1},
		{"exact", 3.0, 2},
		{"below range", -10, 0},
		{"above range", 1e12, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Nearest(n, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Index)
			assert.Equal(t, n.Frequency(tt.want), p.FrequencyHz)
			assert.Equal(t, n.Param(tt.want, 1, 1), p.Value)
		})
	}
}

func TestNearest_Idempotent(t *testing.T) {
	n := network(t, "a", []float64{1e9, 2e9, 2.5e9}, 0.1, complex(0.2, -0.1), 0.3)

	a, err := Nearest(n, 2.4e9)
	require.NoError(t, err)
	b, err := Nearest(n, 2.4e9)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNearest_Empty(t *testing.T) {
	n := network(t, "empty.s2p", nil)

	_, err := Nearest(n, 2.4e9)
	assert.ErrorIs(t, err, ErrEmptyNetwork)
	assert.Contains(t, err.Error(), "empty.s2p")
}

func TestNearestParam(t *testing.T) {
	n := network(t, "a", []float64{1, 2}, 0.1, 0.2)

	p, err := NearestParam(n, 2, 1, 1.9)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Index)
	assert.Equal(t, complex(0.5, 0.5), p.Value)

	_, err = NearestParam(n, 1, 5, 1.9)
	assert.ErrorIs(t, err, ErrInvalidPort)
}

func TestClassifyMatching(t *testing.T) {
	tests := []struct {
		db   float64
		want MatchQuality
	}{
		{-20, Good},
		{-10.0001, Good},
		{-10.0, Moderate},
		{-6.0001, Moderate},
		{-6.0, Poor},
		{0, Poor},
		{math.NaN(), Poor},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyMatching(tt.db), "%v dB", tt.db)
	}
}

func TestClassifier_Custom(t *testing.T) {
	c := Classifier{GoodBelow: -15, ModerateBelow: -10}
	assert.Equal(t, Moderate, c.Classify(-12))
	assert.Equal(t, Poor, c.Classify(-8))
}

func TestMatchQuality_Text(t *testing.T) {
	for _, q := range []MatchQuality{Good, Moderate, Poor} {
		b, err := q.MarshalText()
		require.NoError(t, err)

		var got MatchQuality
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, q, got)
	}

	var q MatchQuality
	assert.Error(t, q.UnmarshalText([]byte("excellent")))
}

func TestSummarize_SkipsAndRecords(t *testing.T) {
	networks := []*touchstone.Network{
		network(t, "antenna1.s2p", []float64{2.3e9, 2.4e9}, 0.5, 0.1),
		network(t, "antenna2.s2p", nil),
		network(t, "antenna3.s2p", []float64{2.4e9}, 0.8),
	}

	records := Summarize(networks, 2.4e9)
	require.Len(t, records, 3)

	assert.Equal(t, 0, records[0].Index)
	assert.Equal(t, "antenna1.s2p", records[0].Name)
	assert.NoError(t, records[0].Err)
	assert.Equal(t, 1, records[0].Point.Index)
	assert.InDelta(t, -20.0, records[0].Point.MagnitudeDB, 1e-9)
	assert.Equal(t, Good, records[0].Quality)

	assert.Equal(t, 1, records[1].Index)
	assert.ErrorIs(t, records[1].Err, ErrEmptyNetwork)

	assert.Equal(t, 2, records[2].Index)
	assert.Equal(t, Poor, records[2].Quality)
}

func TestSummarize_NilEntry(t *testing.T) {
	networks := []*touchstone.Network{
		nil,
		network(t, "antenna2.s2p", []float64{2.4e9}, 0.1),
	}

	records := Summarize(networks, 2.4e9)
	require.Len(t, records, 2)
	assert.ErrorIs(t, records[0].Err, ErrNilNetwork)
	assert.Empty(t, records[0].Name)
	assert.NoError(t, records[1].Err)
	assert.Equal(t, Good, records[1].Quality)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, 2.4e9, records))
	assert.Contains(t, buf.String(), "Antenna 1:\nError: network is nil\n")
}

func TestWriteReport(t *testing.T) {
	networks := []*touchstone.Network{
		network(t, "antenna1.s2p", []float64{2.4e9}, 0.1),
		network(t, "antenna2.s2p", nil),
		network(t, "antenna3.s2p", []float64{2.4e9}, 0.8),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, 2.4e9, Summarize(networks, 2.4e9)))

	out := buf.String()
	assert.Contains(t, out, "Analyzing frequency response around 2.4 GHz:")
	assert.Contains(t, out, "Antenna 1:\nFrequency: 2.400 GHz\nS11 Magnitude: -20.00 dB\nS11 Phase: 0.00 degrees\nGood impedance matching\n")
	assert.Contains(t, out, "Antenna 2:\nError: ")
	assert.Contains(t, out, "Antenna 3:")
	assert.Contains(t, out, "Poor impedance matching")
}
