package touchstone

import (
	"bufio"
	"math"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// tokensPerLine is the frequency plus four pairs: S11, S21, S12, S22.
const tokensPerLine = 1 + 2*Ports*Ports

var extPorts = regexp.MustCompile(`(?i)\.s(\d+)p$`)

// Parse decodes the text of one .s2p file. name identifies the file in
// errors and is stored on the returned Network. On failure the error is a
// *FormatError and no Network is returned.
func Parse(name, raw string) (*Network, error) {
	if m := extPorts.FindStringSubmatch(path.Base(name)); m != nil {
		if n, _ := strconv.Atoi(m[1]); n != Ports {
			return nil, formatErr(name, 0, ErrPortCountMismatch, "extension declares %d ports", n)
		}
	}

	p := &parser{name: name}
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := p.line(lineNo, scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, formatErr(name, lineNo+1, ErrMalformedDataLine, "%v", err)
	}

	if !p.haveOptions {
		return nil, formatErr(name, 0, ErrMissingHeader, "no line starting with '#'")
	}

	return &Network{
		name:     name,
		comments: p.comments,
		freqs:    p.freqs,
		s:        p.s,
		z0:       p.opts.ReferenceImpedance,
	}, nil
}

type parser struct {
	name        string
	opts        Options
	haveOptions bool
	order1221   bool
	comments    []string
	freqs       []float64
	s           []Matrix
}

func (p *parser) line(lineNo int, text string) error {
	if idx := strings.IndexByte(text, '!'); idx >= 0 {
		if c := strings.TrimSpace(text[idx+1:]); len(p.freqs) == 0 && strings.TrimSpace(text[:idx]) == "" {
			p.comments = append(p.comments, c)
		}
		text = text[:idx]
	}
	text = strings.TrimSpace(text)

	switch {
	case text == "":
		return nil
	case strings.HasPrefix(text, "#"):
		if p.haveOptions {
			return nil
		}
		opts, err := parseOptions(p.name, lineNo, text)
		if err != nil {
			return err
		}
		p.opts = opts
		p.haveOptions = true
		return nil
	case strings.HasPrefix(text, "["):
		return p.keyword(lineNo, text)
	}

	if !p.haveOptions {
		return formatErr(p.name, lineNo, ErrMissingHeader, "data before option line")
	}
	return p.data(lineNo, text)
}

// keyword handles Touchstone 2.0 bracketed keywords.
func (p *parser) keyword(lineNo int, text string) error {
	end := strings.IndexByte(text, ']')
	if end < 0 {
		return formatErr(p.name, lineNo, ErrInvalidHeader, "unterminated keyword %q", text)
	}
	key := strings.ToLower(strings.TrimSpace(text[1:end]))
	value := strings.TrimSpace(text[end+1:])

	switch key {
	case "number of ports":
		n, err := strconv.Atoi(value)
		if err != nil {
			return formatErr(p.name, lineNo, ErrInvalidHeader, "number of ports %q", value)
		}
		if n != Ports {
			return formatErr(p.name, lineNo, ErrPortCountMismatch, "file declares %d ports", n)
		}
	case "two-port data order":
		switch value {
		case "21_12":
			p.order1221 = false
		case "12_21":
			p.order1221 = true
		default:
			return formatErr(p.name, lineNo, ErrInvalidHeader, "two-port data order %q", value)
		}
	}
	return nil
}

func (p *parser) data(lineNo int, text string) error {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) != tokensPerLine {
		return formatErr(p.name, lineNo, ErrMalformedDataLine, "expected %d values, got %d", tokensPerLine, len(fields))
	}

	var vals [tokensPerLine]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return formatErr(p.name, lineNo, ErrMalformedDataLine, "bad number %q", f)
		}
		vals[i] = v
	}

	freq := vals[0] * p.opts.Unit.Scale()
	if math.IsInf(freq, 0) {
		return formatErr(p.name, lineNo, ErrMalformedDataLine, "frequency %q overflows", fields[0])
	}
	if n := len(p.freqs); n > 0 && freq <= p.freqs[n-1] {
		return formatErr(p.name, lineNo, ErrNonMonotonicFrequency, "%g Hz follows %g Hz", freq, p.freqs[n-1])
	}

	pair := func(k int) complex128 { return p.opts.Format.Complex(vals[1+2*k], vals[2+2*k]) }
	var m Matrix
	m[0][0] = pair(0)
	m[1][0] = pair(1)
	m[0][1] = pair(2)
	m[1][1] = pair(3)
	if p.order1221 {
		m[0][1], m[1][0] = m[1][0], m[0][1]
	}
	if !m.finite() {
		return formatErr(p.name, lineNo, ErrMalformedDataLine, "value out of range")
	}

	p.freqs = append(p.freqs, freq)
	p.s = append(p.s, m)
	return nil
}
