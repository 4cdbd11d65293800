// Package bucardo reads the list of every postgres release kept on
// bucardo.org.
package bucardo

import (
	"regexp"
	"versionhistory/internal/components/htmlutil"
	"versionhistory/internal/dateparse"
	"versionhistory/internal/ledger"
	"versionhistory/internal/scrapers"

	"github.com/PuerkitoBio/goquery"
)

const URL = "https://bucardo.org/postgres_all_versions.html"

var versionAndDate = regexp.MustCompile(`(?i)^(?P<version>\d{1,2}\..*) \((?P<date>\d{4}-\d{2}-\d{2})\)$`)

// Parse reads every "16.2 (2024-02-08)" line of the table cells.
func Parse(doc *goquery.Document) ([]ledger.Record, []error) {
	var records []ledger.Record
	var errs []error

	doc.Find("td").Each(func(_ int, cell *goquery.Selection) {
		for _, line := range htmlutil.Lines(cell) {
			groups := scrapers.NamedGroups(versionAndDate, line)
			if groups == nil {
				continue
			}
			parsed, err := dateparse.Parse(groups["date"])
			if err != nil {
				errs = append(errs, scrapers.DateError(groups["date"], err))
				continue
			}
			records = append(records, scrapers.Record(groups["version"], parsed))
		}
	})

	return records, errs
}

func New(client *scrapers.Client, url string) scrapers.Pages {
	return scrapers.NewPages("bucardo", client, Parse, url)
}
