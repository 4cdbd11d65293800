package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"versionhistory/internal/ledger"
)

// Source produces the records of one data origin. The records returned
// alongside a non-nil error were produced before the failure and are still
// admitted.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]ledger.Record, error)
}

type Mode string

const (
	// ModePrevious merges the scraped records into a prior ledger.
	ModePrevious Mode = "previous"
	// ModeStandalone ignores any prior state.
	ModeStandalone Mode = "standalone"
)

// PriorPrecedence selects which copy of a version is kept when the prior
// ledger and the fresh scrape disagree.
type PriorPrecedence string

const (
	PriorFirst PriorPrecedence = "first"
	PriorLast  PriorPrecedence = "last"
)

// FailurePolicy selects what happens when a source fails.
type FailurePolicy string

const (
	// FailAbort stops at the first failing source in merge order.
	FailAbort FailurePolicy = "abort"
	// FailContinue records the failure and merges the remaining sources.
	FailContinue FailurePolicy = "continue"
)

const DefaultConcurrency = 4

var (
	ErrInvalidOption = errors.New("invalid option")
	ErrPriorRequired = errors.New("previous mode requires a prior ledger")
)

func parseEnum[T ~string](kind, value string, allowed ...T) (T, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if string(a) == normalized {
			return a, nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return "", fmt.Errorf("%w: %s %q (expected one of %s)", ErrInvalidOption, kind, value, strings.Join(names, ", "))
}

// ParseMode is case insensitive.
func ParseMode(value string) (Mode, error) {
	return parseEnum("mode", value, ModePrevious, ModeStandalone)
}

func ParsePriorPrecedence(value string) (PriorPrecedence, error) {
	return parseEnum("prior precedence", value, PriorFirst, PriorLast)
}

func ParseFailurePolicy(value string) (FailurePolicy, error) {
	return parseEnum("failure policy", value, FailAbort, FailContinue)
}

// Options configures a single run.
type Options struct {
	Schema ledger.Schema
	Mode   Mode
	// Prior must be set in ModePrevious.
	Prior           *ledger.Ledger
	PriorPrecedence PriorPrecedence
	FailurePolicy   FailurePolicy
	// Exclude rejects versions before admission, nil admits everything.
	Exclude func(version string) bool
	// Concurrency bounds the number of sources fetched at once.
	Concurrency int
}

// withDefaults fills the zero values.
func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeStandalone
	}
	if o.PriorPrecedence == "" {
		o.PriorPrecedence = PriorFirst
	}
	if o.FailurePolicy == "" {
		o.FailurePolicy = FailAbort
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

func (o Options) Validate() error {
	o = o.withDefaults()
	if _, err := ParseMode(string(o.Mode)); err != nil {
		return err
	}
	if _, err := ParsePriorPrecedence(string(o.PriorPrecedence)); err != nil {
		return err
	}
	if _, err := ParseFailurePolicy(string(o.FailurePolicy)); err != nil {
		return err
	}
	if o.Mode == ModePrevious {
		if o.Prior == nil {
			return ErrPriorRequired
		}
		if !o.Prior.Schema().Equal(o.Schema) {
			return &ledger.SchemaMismatchError{
				Expected: o.Schema.Headers(),
				Actual:   o.Prior.Schema().Headers(),
			}
		}
	}
	return nil
}

// SourceError is a failure of one source, Admitted is the number of its
// records that were admitted before the failure.
type SourceError struct {
	Source   string
	Admitted int
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s failed after %d admitted records: %s", e.Source, e.Admitted, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

type SourceCount struct {
	Source string
	// Fetched is the number of records the source produced.
	Fetched int
	// Admitted is the number of records kept after deduplication. In
	// ModePrevious versions already in the prior ledger are not counted.
	Admitted int
	Failed   bool
}

type Result struct {
	Ledger ledger.Ledger
	// Counts follows the source order.
	Counts []SourceCount
	// New lists the admitted versions missing from the prior ledger, in
	// ledger order. Without a prior ledger every version is new.
	New      []string
	Failures []error
}

// Count returns the admitted count of a source.
func (r Result) Count(source string) int {
	for _, c := range r.Counts {
		if c.Source == source {
			return c.Admitted
		}
	}
	return 0
}
