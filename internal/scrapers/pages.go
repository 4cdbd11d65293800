package scrapers

import (
	"context"
	"fmt"
	"regexp"
	"versionhistory/internal/assert"
	"versionhistory/internal/components/telemetry"
	"versionhistory/internal/ledger"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_pages_fetch = "pages.fetch"
	report_pages_parse = "pages.parse"
	report_pages_count = "pages.records"
)

// ParseError is a single row that could not be turned into a record. The row
// is skipped, the rest of the page is still used.
type ParseError struct {
	Field string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse %s %q", e.Field, e.Raw)
	}
	return fmt.Sprintf("parse %s %q: %s", e.Field, e.Raw, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DateError wraps a date parsing failure of raw.
func DateError(raw string, err error) *ParseError {
	return &ParseError{Field: "date", Raw: raw, Err: err}
}

// VersionError is a version string that does not have the expected shape.
func VersionError(raw string) *ParseError {
	return &ParseError{Field: "version", Raw: raw}
}

// ParseFunc extracts the records of one page. Rows that could not be parsed
// are returned as errors and never abort the page.
type ParseFunc func(doc *goquery.Document) ([]ledger.Record, []error)

// Page is one url and the parser for it.
type Page struct {
	URL   string
	Parse ParseFunc
}

// Pages is a source made of one or more html pages.
type Pages struct {
	name   string
	client *Client
	pages  []Page
	tel    telemetry.API
}

// NewPages is a source reading urls in order with the same parser.
func NewPages(name string, client *Client, parse ParseFunc, urls ...string) Pages {
	pages := make([]Page, len(urls))
	for i, url := range urls {
		pages[i] = Page{URL: url, Parse: parse}
	}
	return NewPageSet(name, client, pages...)
}

// NewPageSet is a source reading pages that each have their own parser.
func NewPageSet(name string, client *Client, pages ...Page) Pages {
	assert.NotEmptyStr(name, "name")
	return Pages{
		name:   name,
		client: client,
		pages:  pages,
		tel:    client.Telemetry(name),
	}
}

func (p Pages) Name() string {
	return p.name
}

func (p Pages) URLs() []string {
	out := make([]string, len(p.pages))
	for i, page := range p.pages {
		out[i] = page.URL
	}
	return out
}

// Fetch reads the pages in order, a failing page ends the fetch and the
// records of the previous pages are returned with the error.
func (p Pages) Fetch(ctx context.Context) ([]ledger.Record, error) {
	var out []ledger.Record
	for _, page := range p.pages {
		doc, err := p.client.Document(ctx, page.URL)
		if err != nil {
			p.tel.ReportBroken(report_pages_fetch, err, page.URL)
			return out, err
		}

		records, errs := page.Parse(doc)
		for _, err := range errs {
			p.tel.ReportWarning(report_pages_parse, err, page.URL)
		}
		p.tel.ReportDebug("parsed page", page.URL, len(records), len(errs))
		out = append(out, records...)
	}
	p.tel.ReportCount(report_pages_count, int64(len(out)))
	return out, nil
}

// NamedGroups returns the named capture groups of the first match of re in s,
// nil when there is no match.
func NamedGroups(re *regexp.Regexp, s string) map[string]string {
	match := re.FindStringSubmatch(s)
	if match == nil {
		return nil
	}
	out := make(map[string]string, len(match))
	for i, name := range re.SubexpNames() {
		if name != "" {
			out[name] = match[i]
		}
	}
	return out
}

// Record builds a record with a date and optional extra attribute pairs.
func Record(version, date string, pairs ...string) ledger.Record {
	attrs := map[string]string{ledger.FieldDate: date}
	for i := 0; i+1 < len(pairs); i += 2 {
		attrs[pairs[i]] = pairs[i+1]
	}
	return ledger.Record{Version: version, Attributes: attrs}
}
