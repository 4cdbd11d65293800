// Package adobe reads the flash player archive and the acrobat reader release
// notes published on helpx.adobe.com.
package adobe

import (
	"regexp"
	"versionhistory/internal/components/htmlutil"
	"versionhistory/internal/dateparse"
	"versionhistory/internal/ledger"
	"versionhistory/internal/scrapers"

	"github.com/PuerkitoBio/goquery"
)

const (
	FlashURL  = "https://helpx.adobe.com/flash-player/kb/archived-flash-player-versions.html"
	ReaderURL = "https://helpx.adobe.com/acrobat/release-note/release-notes-acrobat-reader.html"
)

const name = "adobe"

var (
	flashSingle = regexp.MustCompile(`(?i)flash player (?P<version>[.0-9]*)`)
	flashPair   = regexp.MustCompile(`(?i)flash player (?P<first>[.0-9]*)\s+and (?P<second>[.0-9]*)`)
	flashDate   = regexp.MustCompile(`(?i).*released (?P<date>.*)\)`)
)

// ParseFlash reads list items like "Flash Player 24.0.0.186 (released
// 1/10/2017)", an item can name two versions released together.
func ParseFlash(doc *goquery.Document) ([]ledger.Record, []error) {
	var records []ledger.Record
	var errs []error

	doc.Find("li").Each(func(_ int, item *goquery.Selection) {
		anchor := item.ChildrenFiltered("a").First()
		release := ""
		if anchor.Length() > 0 {
			release = htmlutil.Clean(htmlutil.OwnText(anchor.Get(0)))
		}
		date := scrapers.NamedGroups(flashDate, htmlutil.Clean(htmlutil.OwnText(item.Get(0))))

		pair := scrapers.NamedGroups(flashPair, release)
		single := scrapers.NamedGroups(flashSingle, release)
		if date == nil || (pair == nil && single == nil) {
			return
		}

		parsed, err := dateparse.Parse(date["date"], dateparse.Slash)
		if err != nil {
			errs = append(errs, scrapers.DateError(date["date"], err))
			return
		}

		if pair != nil {
			records = append(records,
				scrapers.Record(pair["first"], parsed),
				scrapers.Record(pair["second"], parsed),
			)
			return
		}
		records = append(records, scrapers.Record(single["version"], parsed))
	})

	return records, errs
}

var readerVersion = regexp.MustCompile(`(?P<version>\d{2}\.[0-9.]*)`)

var readerDateLayouts = []string{
	dateparse.ShortMonth,
	"Jan 2,2006",
	dateparse.LongMonth,
	"January 2,2006",
	dateparse.ShortMonthDot,
	"Jan. 2,2006",
}

// ParseReader reads the release notes table, date first then version.
func ParseReader(doc *goquery.Document) ([]ledger.Record, []error) {
	var records []ledger.Record
	var errs []error

	doc.Find("tbody > tr").Each(func(_ int, row *goquery.Selection) {
		groups := scrapers.NamedGroups(readerVersion, htmlutil.Cell(row, 1))
		date := htmlutil.Cell(row, 0)
		if groups == nil || date == "" {
			return
		}

		parsed, err := dateparse.Parse(date, readerDateLayouts...)
		if err != nil {
			errs = append(errs, scrapers.DateError(date, err))
			return
		}
		records = append(records, scrapers.Record(groups["version"], parsed))
	})

	return records, errs
}

func NewFlash(client *scrapers.Client, url string) scrapers.Pages {
	return scrapers.NewPages(name, client, ParseFlash, url)
}

func NewReader(client *scrapers.Client, url string) scrapers.Pages {
	return scrapers.NewPages(name, client, ParseReader, url)
}
