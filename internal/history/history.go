// Package history keeps a sqlite log of scrape runs: what each source
// contributed, which versions were new and whether the run failed.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"versionhistory/internal/history/db"
	"versionhistory/internal/reconcile"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("versionhistory.history")

// DefaultLimit is the number of runs Recent returns when no limit is given.
const DefaultLimit = 10

type SourceRun struct {
	Source   string
	Fetched  int
	Admitted int
	// Error is empty when the source succeeded.
	Error string
}

type Run struct {
	ID         int64
	Product    string
	Mode       reconcile.Mode
	StartedAt  time.Time
	FinishedAt time.Time
	OutputFile string
	Rows       int
	Failed     bool
	Sources    []SourceRun
	New        []string
}

// NewRun describes a finished run from the engine's result, err is the error
// the run ended with, if any.
func NewRun(product string, mode reconcile.Mode, outputFile string, started, finished time.Time, result reconcile.Result, err error) Run {
	sourceErrs := map[string]string{}
	failures := append([]error{}, result.Failures...)
	if err != nil {
		failures = append(failures, err)
	}
	for _, failure := range failures {
		var sourceErr *reconcile.SourceError
		if errors.As(failure, &sourceErr) {
			sourceErrs[sourceErr.Source] = sourceErr.Err.Error()
		}
	}

	sources := make([]SourceRun, len(result.Counts))
	for i, count := range result.Counts {
		sources[i] = SourceRun{
			Source:   count.Source,
			Fetched:  count.Fetched,
			Admitted: count.Admitted,
			Error:    sourceErrs[count.Source],
		}
	}

	return Run{
		Product:    product,
		Mode:       mode,
		StartedAt:  started,
		FinishedAt: finished,
		OutputFile: outputFile,
		Rows:       result.Ledger.Len(),
		Failed:     err != nil,
		Sources:    sources,
		New:        result.New,
	}
}

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (Store, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, err
	}
	// every connection to ":memory:" is a different database
	database.SetMaxOpenConns(1)

	_, err = database.ExecContext(ctx, db.Schema)
	if err != nil {
		database.Close()
		return Store{}, fmt.Errorf("apply schema: %w", err)
	}
	return NewStore(database), nil
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

func (s Store) Close() error {
	return s.db.Close()
}

// Record saves a run and returns its id.
func (s Store) Record(ctx context.Context, run Run) (int64, error) {
	ctx, span := tracer.Start(ctx, "Record")
	defer span.End()

	span.SetAttributes(attribute.String("product", run.Product))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	id, err := txqry.CreateRun(ctx, db.CreateRunParams{
		Product:    run.Product,
		Mode:       string(run.Mode),
		StartedAt:  run.StartedAt.UnixMilli(),
		FinishedAt: run.FinishedAt.UnixMilli(),
		OutputFile: run.OutputFile,
		RowCount:   int64(run.Rows),
		Failed:     run.Failed,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	for i, source := range run.Sources {
		err = txqry.CreateRunSource(ctx, db.CreateRunSourceParams{
			RunID:    id,
			Position: int64(i),
			Source:   source.Source,
			Fetched:  int64(source.Fetched),
			Admitted: int64(source.Admitted),
			Error:    source.Error,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, err
		}
	}
	for i, version := range run.New {
		err = txqry.CreateRunNewVersion(ctx, db.CreateRunNewVersionParams{
			RunID:    id,
			Position: int64(i),
			Version:  version,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, err
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	return id, nil
}

// Recent returns the latest runs of a product, newest first.
func (s Store) Recent(ctx context.Context, product string, limit int) ([]Run, error) {
	ctx, span := tracer.Start(ctx, "Recent")
	defer span.End()

	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.qry.GetRecentRuns(ctx, db.GetRecentRunsParams{
		Product: product,
		Limit:   int64(limit),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]Run, len(rows))
	for i, row := range rows {
		sources, err := s.qry.GetRunSources(ctx, row.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		versions, err := s.qry.GetRunNewVersions(ctx, row.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		run := Run{
			ID:         row.ID,
			Product:    row.Product,
			Mode:       reconcile.Mode(row.Mode),
			StartedAt:  time.UnixMilli(row.StartedAt),
			FinishedAt: time.UnixMilli(row.FinishedAt),
			OutputFile: row.OutputFile,
			Rows:       int(row.RowCount),
			Failed:     row.Failed,
			New:        versions,
		}
		for _, source := range sources {
			run.Sources = append(run.Sources, SourceRun{
				Source:   source.Source,
				Fetched:  int(source.Fetched),
				Admitted: int(source.Admitted),
				Error:    source.Error,
			})
		}
		out[i] = run
	}

	return out, nil
}
