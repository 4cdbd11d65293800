// Package chocolatey reads the version history table of community.chocolatey.org
// packages.
package chocolatey

import (
	"fmt"
	"regexp"
	"strings"
	"versionhistory/internal/components/htmlutil"
	"versionhistory/internal/dateparse"
	"versionhistory/internal/ledger"
	"versionhistory/internal/scrapers"

	"github.com/PuerkitoBio/goquery"
)

const BaseURL = "https://community.chocolatey.org/packages/"

// Rewrite turns the named groups of a version match into the version that is
// stored and any extra attributes.
type Rewrite func(groups map[string]string) (string, map[string]string)

// Package describes where the version and the date are in a package's table.
// Columns are 0 based.
type Package struct {
	ID            string
	VersionColumn int
	DateColumn    int
	// Pattern must contain a `version` group unless Rewrite is set.
	Pattern *regexp.Regexp
	Rewrite Rewrite
}

var (
	AnyVersion   = regexp.MustCompile(`(?P<version>\d{1,2}\..*)`)
	DottedShort  = regexp.MustCompile(`(?P<version>\d{1,3}\.[0-9.]*)`)
	DottedTwo    = regexp.MustCompile(`(?P<version>\d{2}\.[0-9.]*)`)
	DottedSingle = regexp.MustCompile(`(?P<version>\d{1}\.[0-9.]*)`)
)

// NewPackage is a package with the usual table layout, the version in the
// second column and the date in the fourth.
func NewPackage(id string, pattern *regexp.Regexp) Package {
	return Package{ID: id, VersionColumn: 1, DateColumn: 3, Pattern: pattern}
}

// JavaRewrite maps chocolatey's "8.0.201" to the "1.8.0_201" form used by
// the java ledger and records the major version.
func JavaRewrite(groups map[string]string) (string, map[string]string) {
	major := strings.TrimSpace(groups["major"])
	version := fmt.Sprintf("1.%s.%s_%s", major, strings.TrimSpace(groups["zero"]), strings.TrimSpace(groups["minor"]))
	return version, map[string]string{ledger.FieldVersionMajor: major}
}

var JavaPattern = regexp.MustCompile(`(?P<major>\d{1,2}?)\.(?P<zero>.)\.(?P<minor>.*)`)

func (p Package) URL(base string) string {
	return base + p.ID
}

// Parse reads every row of the version history table. Rows without a
// matching version or without a date are not releases and are ignored, a
// date that cannot be parsed is an error.
func (p Package) Parse(doc *goquery.Document) ([]ledger.Record, []error) {
	var records []ledger.Record
	var errs []error

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		release := htmlutil.Clean(cells.Eq(p.VersionColumn).Find("a, span").First().Text())
		date := htmlutil.Cell(row, p.DateColumn)

		groups := scrapers.NamedGroups(p.Pattern, release)
		if groups == nil || date == "" {
			return
		}

		parsed, err := dateparse.Parse(date, dateparse.Chocolatey)
		if err != nil {
			errs = append(errs, scrapers.DateError(date, err))
			return
		}

		version := groups["version"]
		var attrs map[string]string
		if p.Rewrite != nil {
			version, attrs = p.Rewrite(groups)
		}
		if attrs == nil {
			attrs = map[string]string{}
		}
		attrs[ledger.FieldDate] = parsed
		records = append(records, ledger.Record{Version: version, Attributes: attrs})
	})

	return records, errs
}

// New is a source reading the given packages in order from base, use
// BaseURL outside of tests.
func New(client *scrapers.Client, base string, packages ...Package) scrapers.Pages {
	pages := make([]scrapers.Page, len(packages))
	for i, p := range packages {
		pages[i] = scrapers.Page{URL: p.URL(base), Parse: p.Parse}
	}
	return scrapers.NewPageSet("chocolatey", client, pages...)
}
