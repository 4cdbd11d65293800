// Package clamav reads the download tables of clamav.net.
package clamav

import (
	"regexp"
	"versionhistory/internal/components/htmlutil"
	"versionhistory/internal/dateparse"
	"versionhistory/internal/ledger"
	"versionhistory/internal/scrapers"

	"github.com/PuerkitoBio/goquery"
)

var URLs = []string{
	"https://www.clamav.net/downloads",
	"https://www.clamav.net/previous_stable_releases",
}

var tarball = regexp.MustCompile(`(?i)clamav-(?P<version>\d{1,2}\..*)\.tar\.gz$`)

// Parse reads the rows listing a source tarball, signatures and installers
// are ignored.
func Parse(doc *goquery.Document) ([]ledger.Record, []error) {
	var records []ledger.Record
	var errs []error

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		groups := scrapers.NamedGroups(tarball, htmlutil.Cell(row, 0))
		date := htmlutil.Cell(row, 1)
		if groups == nil || date == "" {
			return
		}

		parsed, err := dateparse.Parse(date, dateparse.TimestampUTC)
		if err != nil {
			errs = append(errs, scrapers.DateError(date, err))
			return
		}
		records = append(records, scrapers.Record(groups["version"], parsed))
	})

	return records, errs
}

// New reads the current downloads then the previous releases page, the
// client's browser user agent and cloudflare transport are required by the
// site.
func New(client *scrapers.Client, urls ...string) scrapers.Pages {
	return scrapers.NewPages("clamav", client, Parse, urls...)
}
