package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/RMahshie/s2plab/pkg/touchstone"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/RMahshie/s2plab/internal/loader"

// Entry is a successfully parsed file.
type Entry struct {
	Path    string
	Network *touchstone.Network
}

// Failure is a file that could not be read or parsed.
type Failure struct {
	Path string
	Err  error
}

// Result holds both outcomes of a load, each in file index order.
type Result struct {
	Loaded []Entry
	Failed []Failure
}

// Networks returns the loaded networks in order.
func (r *Result) Networks() []*touchstone.Network {
	out := make([]*touchstone.Network, len(r.Loaded))
	for i, e := range r.Loaded {
		out[i] = e.Network
	}
	return out
}

// Recorder receives per-file outcomes. observability.LoaderMetrics
// implements it.
type Recorder interface {
	ObserveFile(kind string, d time.Duration)
	SetNetworks(n int)
}

// Options tunes Load.
type Options struct {
	// Workers bounds concurrent reads and parses. Zero or less means 4.
	Workers  int
	Recorder Recorder
}

// Load lists src, orders the files by their embedded index, then reads and
// parses them concurrently. A file that fails is recorded in Result.Failed
// and does not stop the others. Only a listing failure or a cancelled
// context returns an error.
func Load(ctx context.Context, src Source, opts Options) (*Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "loader.Load")
	defer span.End()

	names, err := src.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, err
	}
	SortByIndex(names)
	span.SetAttributes(attribute.Int("files", len(names)))

	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	type outcome struct {
		network *touchstone.Network
		err     error
	}
	outcomes := make([]outcome, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			n, err := loadOne(gctx, src, name)
			outcomes[i] = outcome{network: n, err: err}
			if opts.Recorder != nil {
				opts.Recorder.ObserveFile(FailureKind(err), time.Since(start))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{}
	for i, name := range names {
		o := outcomes[i]
		if o.err != nil {
			log.Warn().Err(o.err).Str("file", filepath.Base(name)).Msg("Error loading file")
			res.Failed = append(res.Failed, Failure{Path: name, Err: o.err})
			continue
		}
		log.Info().Str("file", filepath.Base(name)).Int("points", o.network.Len()).Msg("Loaded file")
		res.Loaded = append(res.Loaded, Entry{Path: name, Network: o.network})
	}

	if opts.Recorder != nil {
		opts.Recorder.SetNetworks(len(res.Loaded))
	}
	span.SetAttributes(
		attribute.Int("loaded", len(res.Loaded)),
		attribute.Int("failed", len(res.Failed)),
	)
	return res, nil
}

func loadOne(ctx context.Context, src Source, name string) (*touchstone.Network, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "loader.File",
		trace.WithAttributes(attribute.String("file", filepath.Base(name))))
	defer span.End()

	text, err := src.ReadText(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, err
	}

	n, err := touchstone.Parse(name, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("points", n.Len()))
	return n, nil
}

// FailureKind classifies a per-file error for metrics: "ok", "io", "format"
// or "other".
func FailureKind(err error) string {
	var fe *touchstone.FormatError
	var re *ReadError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &re):
		return "io"
	case errors.As(err, &fe):
		return "format"
	default:
		return "other"
	}
}

// LoadFile reads and parses a single file without listing.
func LoadFile(ctx context.Context, src Source, name string) (*touchstone.Network, error) {
	n, err := loadOne(ctx, src, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(name), err)
	}
	return n, nil
}
