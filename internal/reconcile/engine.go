// Package reconcile merges the records of several sources and an optional
// prior ledger into one version ordered ledger.
//
// Sources are fetched concurrently, admission is a sequential pass in source
// order so the first source to mention a version always wins.
package reconcile

import (
	"context"
	"fmt"
	"versionhistory/internal/assert"
	"versionhistory/internal/components/telemetry"
	"versionhistory/internal/ledger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("versionhistory.reconcile")

const (
	report_fetch_source        = "fetch.source"
	report_merge_source        = "merge.source"
	report_merge_empty_version = "merge.empty-version"
	report_merge_rows          = "merge.rows"
	report_merge_new           = "merge.new"
)

type Engine struct {
	tel telemetry.API
}

func NewEngine(tel telemetry.API) Engine {
	assert.NotNil(tel, "telemetry")
	return Engine{tel: telemetry.NewScopedAPI("reconcile", tel)}
}

// Fetch runs every source with at most concurrency fetches in flight and
// returns one batch per source in source order. A failing source never
// cancels the others.
func (e Engine) Fetch(ctx context.Context, sources []Source, concurrency int) []Batch {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	batches := make([]Batch, len(sources))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for i, source := range sources {
		group.Go(func() error {
			batches[i] = e.fetchSource(groupCtx, source)
			return nil
		})
	}
	group.Wait()

	return batches
}

func (e Engine) fetchSource(ctx context.Context, source Source) Batch {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("source", source.Name()))

	e.tel.ReportDebug("fetching source", source.Name())

	records, err := source.Fetch(ctx)
	span.SetAttributes(attribute.Int("records", len(records)))
	if err != nil {
		err = fmt.Errorf("fetch %s: %w", source.Name(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "source failed")
		e.tel.ReportWarning(report_fetch_source, source.Name(), err)
	}

	return Batch{
		Source:  source.Name(),
		Records: records,
		Err:     err,
	}
}

// Run validates opts, fetches every source and merges the batches.
// Invalid options fail before any source is fetched.
func (e Engine) Run(ctx context.Context, sources []Source, opts Options) (Result, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	opts = opts.withDefaults()
	err := opts.Validate()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid options")
		return Result{}, err
	}
	span.SetAttributes(
		attribute.String("mode", string(opts.Mode)),
		attribute.Int("sources", len(sources)),
	)

	batches := e.Fetch(ctx, sources, opts.Concurrency)

	result, err := e.Merge(batches, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "merge failed")
		return result, err
	}
	span.SetAttributes(
		attribute.Int("rows", result.Ledger.Len()),
		attribute.Int("new", len(result.New)),
	)
	return result, nil
}

// StaticSource is a Source that returns fixed records, it is used for
// tests and to replay a ledger file as a source.
type StaticSource struct {
	SourceName string
	Records    []ledger.Record
	Err        error
}

func (s StaticSource) Name() string {
	return s.SourceName
}

func (s StaticSource) Fetch(ctx context.Context) ([]ledger.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Records, s.Err
}
