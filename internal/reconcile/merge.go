package reconcile

import (
	"errors"
	"versionhistory/internal/ledger"
)

// Batch is everything one source produced, Err is set when the source failed
// part way.
type Batch struct {
	Source  string
	Records []ledger.Record
	Err     error
}

// Err joins every source failure of the result.
func (r Result) Err() error {
	return errors.Join(r.Failures...)
}

// Merge admits the batches in order. A version is admitted only the first
// time it is seen, excluded and empty versions are rejected.
//
// With FailAbort the first failed batch stops the merge, the records it
// produced before failing are kept and the partial result is returned with
// the *SourceError. The prior ledger is not merged into a partial result.
func (e Engine) Merge(batches []Batch, opts Options) (Result, error) {
	opts = opts.withDefaults()
	err := opts.Validate()
	if err != nil {
		return Result{}, err
	}

	// in previous mode only versions missing from the prior ledger count
	known := map[string]struct{}{}
	if opts.Mode == ModePrevious {
		for _, version := range opts.Prior.Versions() {
			known[version] = struct{}{}
		}
	}

	admitted := make(map[string]ledger.Record)
	result := Result{}
	var abort error

	for _, batch := range batches {
		count := SourceCount{Source: batch.Source, Fetched: len(batch.Records)}
		for _, record := range batch.Records {
			if record.Version == "" {
				e.tel.ReportWarning(report_merge_empty_version, batch.Source)
				continue
			}
			if opts.Exclude != nil && opts.Exclude(record.Version) {
				e.tel.ReportDebug("excluded version", batch.Source, record.Version)
				continue
			}
			if _, exists := admitted[record.Version]; exists {
				continue
			}
			admitted[record.Version] = record
			if _, ok := known[record.Version]; !ok {
				count.Admitted++
			}
		}

		e.tel.ReportDebug("merged source", batch.Source, count.Admitted, count.Fetched)

		if batch.Err != nil {
			count.Failed = true
			sourceErr := &SourceError{
				Source:   batch.Source,
				Admitted: count.Admitted,
				Err:      batch.Err,
			}
			result.Failures = append(result.Failures, sourceErr)
			e.tel.ReportBroken(report_merge_source, sourceErr)

			if opts.FailurePolicy == FailAbort {
				result.Counts = append(result.Counts, count)
				abort = sourceErr
				break
			}
		}
		result.Counts = append(result.Counts, count)
	}

	var rows []ledger.Record
	prior := map[string]struct{}{}
	if opts.Mode == ModePrevious && abort == nil {
		for _, record := range opts.Prior.Rows() {
			prior[record.Version] = struct{}{}
			fresh, scraped := admitted[record.Version]
			if scraped && opts.PriorPrecedence == PriorLast {
				rows = append(rows, fresh)
				continue
			}
			rows = append(rows, record)
		}
	}
	for version, record := range admitted {
		if _, ok := prior[version]; ok {
			continue
		}
		rows = append(rows, record)
	}

	l, err := ledger.New(opts.Schema, rows)
	if err != nil {
		return Result{}, err
	}
	result.Ledger = l

	for _, version := range l.Versions() {
		if _, ok := prior[version]; !ok {
			result.New = append(result.New, version)
		}
	}

	e.tel.ReportCount(report_merge_rows, int64(l.Len()))
	e.tel.ReportCount(report_merge_new, int64(len(result.New)))

	return result, abort
}
