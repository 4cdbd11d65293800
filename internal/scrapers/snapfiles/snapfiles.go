// Package snapfiles reads snapfiles.com application history pages.
package snapfiles

import (
	"versionhistory/internal/components/htmlutil"
	"versionhistory/internal/dateparse"
	"versionhistory/internal/ledger"
	"versionhistory/internal/scrapers"

	"github.com/PuerkitoBio/goquery"
)

const FlashURL = "https://www.snapfiles.com/apphistory/flashplayer_history.html"

// Parse reads the `<h3>version <span>date</span></h3>` headings of the
// history container.
func Parse(doc *goquery.Document) ([]ledger.Record, []error) {
	var records []ledger.Record
	var errs []error

	doc.Find("#apphistory-container > h3").Each(func(_ int, heading *goquery.Selection) {
		release := htmlutil.Clean(htmlutil.OwnText(heading.Get(0)))
		span := heading.ChildrenFiltered("span").First()
		if release == "" || span.Length() == 0 {
			return
		}
		date := htmlutil.Clean(htmlutil.OwnText(span.Get(0)))
		if date == "" {
			return
		}

		parsed, err := dateparse.Parse(date, dateparse.ShortMonth)
		if err != nil {
			errs = append(errs, scrapers.DateError(date, err))
			return
		}
		records = append(records, scrapers.Record(release, parsed))
	})

	return records, errs
}

func New(client *scrapers.Client, url string) scrapers.Pages {
	return scrapers.NewPages("snapfiles", client, Parse, url)
}
