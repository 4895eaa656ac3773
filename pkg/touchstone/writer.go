package touchstone

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteOptions control serialisation. The zero value writes Hz with RI pairs.
type WriteOptions struct {
	Unit   Unit
	Format Format
}

// Write serialises n as Touchstone 1.1 text. Values are written with full
// float64 precision so that Parse(Write(n)) reproduces n.
func Write(w io.Writer, n *Network, opts WriteOptions) error {
	bw := bufio.NewWriter(w)
	for _, c := range n.comments {
		fmt.Fprintf(bw, "! %s\n", c)
	}
	fmt.Fprintf(bw, "# %s S %s R %s\n", opts.Unit, opts.Format, formatFloat(n.z0))

	scale := opts.Unit.Scale()
	for i, f := range n.freqs {
		bw.WriteString(formatFloat(f / scale))
		m := n.s[i]
		for _, v := range [...]complex128{m[0][0], m[1][0], m[0][1], m[1][1]} {
			a, b := opts.Format.Pair(v)
			bw.WriteByte(' ')
			bw.WriteString(formatFloat(a))
			bw.WriteByte(' ')
			bw.WriteString(formatFloat(b))
		}
		bw.WriteByte('\n')
	}

	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
