// Package exchange reads Microsoft Exchange Server build numbers from the
// Microsoft documentation and from buildnumbers.wordpress.com.
//
// Exchange builds are written in two forms, a short one (15.2.986.5) and a
// zero padded one (15.02.0986.005). The ledger is keyed by the padded form
// and keeps the short one in the version_short column.
package exchange

import (
	"fmt"
	"strings"
	"versionhistory/internal/components/htmlutil"
	"versionhistory/internal/dateparse"
	"versionhistory/internal/ledger"
	"versionhistory/internal/scrapers"

	"github.com/PuerkitoBio/goquery"
)

const (
	MicrosoftURL    = "https://docs.microsoft.com/en-US/exchange/new-features/build-numbers-and-release-dates"
	BuildNumbersURL = "https://buildnumbers.wordpress.com/exchange/"
)

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func unpad(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// Normalize returns the padded and short forms of a four part build number.
func Normalize(build string) (full string, short string, err error) {
	parts := strings.Split(build, ".")
	if len(parts) != 4 {
		return "", "", scrapers.VersionError(build)
	}
	for _, p := range parts {
		if p == "" || strings.Trim(p, "0123456789") != "" {
			return "", "", scrapers.VersionError(build)
		}
	}
	major, minor, revision, patch := parts[0], parts[1], parts[2], parts[3]

	switch len(minor) {
	case 1:
		full = fmt.Sprintf("%s.%s.%s.%s", major, pad(minor, 2), pad(revision, 4), pad(patch, 3))
		return full, build, nil
	case 2:
		short = fmt.Sprintf("%s.%s.%s.%s", major, unpad(minor), unpad(revision), unpad(patch))
		return build, short, nil
	}
	return "", "", scrapers.VersionError(build)
}

var microsoftDateLayouts = []string{
	dateparse.LongMonth,
	dateparse.MonthYear,
	"January, 2006",
}

// ParseMicrosoft reads the product tables, the long build number column is
// empty for older releases and the short one is used instead.
func ParseMicrosoft(doc *goquery.Document) ([]ledger.Record, []error) {
	var records []ledger.Record
	var errs []error

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		description := htmlutil.Cell(row, 0)
		date := htmlutil.Cell(row, 1)
		short := htmlutil.Cell(row, 2)
		full := htmlutil.Cell(row, 3)
		if description == "" || date == "" || short == "" {
			return
		}
		if full == "" {
			full = short
		}

		parsed, err := dateparse.Parse(date, microsoftDateLayouts...)
		if err != nil {
			errs = append(errs, scrapers.DateError(date, err))
			return
		}
		records = append(records, scrapers.Record(
			full, parsed,
			ledger.FieldVersionShort, short,
			ledger.FieldDescription, description,
		))
	})

	return records, errs
}

// ParseBuildNumbers reads the "build, description, date" table. Rows whose
// first cell is not a build number are headers or notes.
func ParseBuildNumbers(doc *goquery.Document) ([]ledger.Record, []error) {
	var records []ledger.Record
	var errs []error

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		build := htmlutil.Cell(row, 0)
		description := htmlutil.Cell(row, 1)
		date := htmlutil.Cell(row, 2)
		if build == "" || description == "" || date == "" {
			return
		}

		full, short, err := Normalize(build)
		if err != nil {
			return
		}
		parsed, err := dateparse.Parse(date, dateparse.YearMonthDay)
		if err != nil {
			errs = append(errs, scrapers.DateError(date, err))
			return
		}
		records = append(records, scrapers.Record(
			full, parsed,
			ledger.FieldVersionShort, short,
			ledger.FieldDescription, description,
		))
	})

	return records, errs
}

func NewMicrosoft(client *scrapers.Client, url string) scrapers.Pages {
	return scrapers.NewPages("microsoft", client, ParseMicrosoft, url)
}

func NewBuildNumbers(client *scrapers.Client, url string) scrapers.Pages {
	return scrapers.NewPages("buildnumbers", client, ParseBuildNumbers, url)
}
