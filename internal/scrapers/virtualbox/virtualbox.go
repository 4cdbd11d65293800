// Package virtualbox reads the virtualbox.org changelogs, one page per minor
// release line.
package virtualbox

import (
	"regexp"
	"versionhistory/internal/components/htmlutil"
	"versionhistory/internal/dateparse"
	"versionhistory/internal/ledger"
	"versionhistory/internal/scrapers"

	"github.com/PuerkitoBio/goquery"
)

const changelogURL = "https://www.virtualbox.org/wiki/Changelog"

// URLs lists the current changelog then every archived one.
func URLs() []string {
	urls := []string{changelogURL}
	for _, line := range []string{"7.0", "6.1", "6.0", "5.2", "5.1", "5.0", "4.3", "4.2", "4.1", "4.0"} {
		urls = append(urls, changelogURL+"-"+line)
	}
	return urls
}

var versionAndDate = regexp.MustCompile(`(?i)VirtualBox (?P<version>(\d{1,2}\.?){3}) \(released\s(?P<date>.*?)\)`)

// Parse reads paragraphs like "VirtualBox 6.1.26 (released July 28 2021)".
func Parse(doc *goquery.Document) ([]ledger.Record, []error) {
	var records []ledger.Record
	var errs []error

	doc.Find("p").Each(func(_ int, paragraph *goquery.Selection) {
		groups := scrapers.NamedGroups(versionAndDate, htmlutil.Clean(paragraph.Text()))
		if groups == nil {
			return
		}
		parsed, err := dateparse.Parse(groups["date"], dateparse.MonthDayYear, dateparse.LongMonth)
		if err != nil {
			errs = append(errs, scrapers.DateError(groups["date"], err))
			return
		}
		records = append(records, scrapers.Record(groups["version"], parsed))
	})

	return records, errs
}

func New(client *scrapers.Client, urls ...string) scrapers.Pages {
	return scrapers.NewPages("virtualbox", client, Parse, urls...)
}
