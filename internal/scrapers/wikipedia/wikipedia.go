// Package wikipedia reads release tables of wikipedia version history
// articles.
package wikipedia

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

const (
	ChromeURL = "https://en.wikipedia.org/wiki/Google_Chrome_version_history"
	JavaURL   = "https://en.wikipedia.org/wiki/Java_version_history"
	VLCURL    = "https://fr.wikipedia.org/wiki/VLC_media_player"
)

const name = "wikipedia"

var shortVersion = regexp.MustCompile(`(?P<version>\d{1,2}\.[0-9.]*)`)

func ownText(row *goquery.Selection, n int) string {
	cell := row.ChildrenFiltered("td").Eq(n)
	if cell.Length() == 0 {
		return ""
	}
	return htmlutil.Clean(htmlutil.OwnText(cell.Get(0)))
}

// ParseChrome reads the release table, only the first date of a row is kept,
// the others are per platform details.
func ParseChrome(doc *goquery.Document) ([]ledger.Record, []error) {
	var records []ledger.Record
	var errs []error

	doc.Find("tbody > tr").Each(func(_ int, row *goquery.Selection) {
		release := htmlutil.Cell(row, 0)
		date, _, _ := strings.Cut(ownText(row, 1), " ")

		groups := scrapers.NamedGroups(shortVersion, release)
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

var (
	javaUpdate = regexp.MustCompile(`(?i)java se (?P<major>\d*) update (?P<minor>.*)`)
	javaDotted = regexp.MustCompile(`(?i)java se (?P<major>\d*?)\.(?P<minor>.*)`)
)

var javaDateLayouts = []string{
	dateparse.LongMonth,
	dateparse.ShortMonth,
	dateparse.DayMonthYear,
}

// ParseJava reads "Java SE 8 Update 201" and "Java SE 11.0.2" rows, written
// as 1.8.0_201 and 1.11.0_2. Early access builds ("+" in the update) are
// skipped.
func ParseJava(doc *goquery.Document) ([]ledger.Record, []error) {
	var records []ledger.Record
	var errs []error

	doc.Find("tbody > tr").Each(func(_ int, row *goquery.Selection) {
		release := ownText(row, 0)
		date := ownText(row, 1)

		var version, major string
		if groups := scrapers.NamedGroups(javaUpdate, release); groups != nil {
			minor := strings.TrimSpace(groups["minor"])
			if strings.Contains(minor, "+") {
				return
			}
			major = strings.TrimSpace(groups["major"])
			version = fmt.Sprintf("1.%s.0_%s", major, minor)
		} else if groups := scrapers.NamedGroups(javaDotted, release); groups != nil {
			minor := strings.TrimSpace(groups["minor"])
			if strings.Contains(minor, "+") {
				return
			}
			major = strings.TrimSpace(groups["major"])
			version = fmt.Sprintf("1.%s.%s", major, strings.ReplaceAll(minor, ".", "_"))
		} else {
			return
		}

		parsed, err := dateparse.Parse(date, javaDateLayouts...)
		if err != nil {
			errs = append(errs, scrapers.DateError(date, err))
			return
		}
		records = append(records, scrapers.Record(version, parsed, ledger.FieldVersionMajor, major))
	})

	return records, errs
}

// ParseVLC reads the first table of the french article, the date is in the
// second or third column depending on the row.
func ParseVLC(doc *goquery.Document) ([]ledger.Record, []error) {
	var records []ledger.Record
	var errs []error

	table := doc.Find("#mw-content-text > div > table").First()
	table.Find("tbody > tr").Each(func(_ int, row *goquery.Selection) {
		groups := scrapers.NamedGroups(shortVersion, htmlutil.Cell(row, 0))
		if groups == nil {
			return
		}

		var candidates []string
		for _, column := range []int{1, 2} {
			raw := htmlutil.Cell(row, column)
			if raw == "" {
				continue
			}
			candidates = append(candidates, raw)
			parsed, err := dateparse.French(raw)
			if err == nil {
				records = append(records, scrapers.Record(groups["version"], parsed))
				return
			}
		}
		errs = append(errs, scrapers.DateError(strings.Join(candidates, " | "), dateparse.ErrUnparseable))
	})

	return records, errs
}

func NewChrome(client *scrapers.Client, url string) scrapers.Pages {
	return scrapers.NewPages(name, client, ParseChrome, url)
}

func NewJava(client *scrapers.Client, url string) scrapers.Pages {
	return scrapers.NewPages(name, client, ParseJava, url)
}

func NewVLC(client *scrapers.Client, url string) scrapers.Pages {
	return scrapers.NewPages(name, client, ParseVLC, url)
}
