// Package virten reads the VMware release and build number tables of
// virten.net.
package virten

import (
	"regexp"
	"versionhistory/internal/components/htmlutil"
	"versionhistory/internal/dateparse"
	"versionhistory/internal/ledger"
	"versionhistory/internal/scrapers"

	"github.com/PuerkitoBio/goquery"
)

const WorkstationURL = "https://www.virten.net/vmware/workstation-release-and-build-number-history/"

var release = regexp.MustCompile(`(?P<version>(\d{1,2}\.?){2,3})`)

// Parse reads the release name from the first column and the date from the
// third, the build number column is not used.
func Parse(doc *goquery.Document) ([]ledger.Record, []error) {
	var records []ledger.Record
	var errs []error

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() < 3 {
			return
		}
		groups := scrapers.NamedGroups(release, htmlutil.Clean(htmlutil.OwnText(cells.Get(0))))
		date := htmlutil.Clean(htmlutil.OwnText(cells.Get(2)))
		if groups == nil || date == "" {
			return
		}

		parsed, err := dateparse.Parse(date)
		if err != nil {
			errs = append(errs, scrapers.DateError(date, err))
			return
		}
		records = append(records, scrapers.Record(groups["version"], parsed))
	})

	return records, errs
}

func New(client *scrapers.Client, url string) scrapers.Pages {
	return scrapers.NewPages("virten", client, Parse, url)
}
