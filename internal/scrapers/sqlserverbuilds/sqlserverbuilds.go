// Package sqlserverbuilds reads the SQL Server build list maintained on
// sqlserverbuilds.blogspot.com through the csv export of its spreadsheet.
package sqlserverbuilds

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"versionhistory/internal/components/telemetry"
	"versionhistory/internal/dateparse"
	"versionhistory/internal/ledger"
	"versionhistory/internal/scrapers"
)

const URL = "https://docs.google.com/spreadsheets/d/16Ymdz80xlCzb6CwRFVokwo0onkofVYFoSkc7mYe6pgw/export?gid=0&format=csv"

const (
	columnBuild       = "Build"
	columnDescription = "Description"
	columnReleaseDate = "ReleaseDate"
)

const report_source_parse = "source.parse"

var ErrMissingColumn = errors.New("missing column")

// Parse reads the export. A build without a release date is kept with an
// empty date, the spreadsheet lists some builds before they are dated.
func Parse(r io.Reader) ([]ledger.Record, []error, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	columns := map[string]int{}
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range []string{columnBuild, columnDescription, columnReleaseDate} {
		if _, ok := columns[name]; !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	field := func(row []string, name string) string {
		i := columns[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []ledger.Record
	var errs []error
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return records, errs, err
		}

		build := field(row, columnBuild)
		if build == "" {
			continue
		}

		date := field(row, columnReleaseDate)
		if date != "" {
			date, err = dateparse.Parse(date)
			if err != nil {
				errs = append(errs, scrapers.DateError(field(row, columnReleaseDate), err))
				continue
			}
		}
		records = append(records, scrapers.Record(build, date, ledger.FieldDescription, field(row, columnDescription)))
	}

	return records, errs, nil
}

type Source struct {
	client *scrapers.Client
	url    string
	tel    telemetry.API
}

func New(client *scrapers.Client, url string) Source {
	return Source{client: client, url: url, tel: client.Telemetry("sqlserverbuilds")}
}

func (s Source) Name() string {
	return "sqlserverbuilds"
}

func (s Source) Fetch(ctx context.Context) ([]ledger.Record, error) {
	body, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}

	records, errs, err := Parse(bytes.NewReader(body))
	for _, parseErr := range errs {
		s.tel.ReportWarning(report_source_parse, parseErr)
	}
	if err != nil {
		s.tel.ReportBroken(report_source_parse, err)
	}
	return records, err
}
