// Package drupal reads drupal core releases: the release history page for
// the old lines and the drupal.org release listing for every supported major
// version, crawled concurrently.
package drupal

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"versionhistory/internal/assert"
	"versionhistory/internal/components/htmlutil"
	"versionhistory/internal/components/telemetry"
	"versionhistory/internal/dateparse"
	"versionhistory/internal/ledger"
	"versionhistory/internal/scrapers"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

const (
	OldReleasesURL = "https://www.drupal.org/docs/8/understanding-drupal-version-numbers/drupal-release-history"
	ReleasesURL    = "https://www.drupal.org/project/drupal/releases"
)

// Parallelism bounds the number of pages crawled at once.
const Parallelism = 10

var Majors = []int{7, 8, 9, 10}

const (
	report_crawler_page  = "crawler.page"
	report_crawler_parse = "crawler.parse"
)

var ErrNoRelease = errors.New("no release listed")

// IsDev matches the "x-dev" snapshot versions listed next to releases.
func IsDev(version string) bool {
	return strings.HasSuffix(version, "-dev")
}

var oldRelease = regexp.MustCompile(`(?i)Drupal (?P<version>\d{1,2}\..*), (?P<date>.*)$`)

// ParseOldReleases reads "Drupal 4.7.0, 2006-05-01" paragraphs.
func ParseOldReleases(doc *goquery.Document) ([]ledger.Record, []error) {
	var records []ledger.Record
	var errs []error

	doc.Find("p").Each(func(_ int, paragraph *goquery.Selection) {
		groups := scrapers.NamedGroups(oldRelease, htmlutil.Clean(htmlutil.OwnText(paragraph.Get(0))))
		if groups == nil {
			return
		}
		parsed, err := dateparse.Parse(groups["date"])
		if err != nil {
			errs = append(errs, scrapers.DateError(groups["date"], err))
			return
		}
		records = append(records, scrapers.Record(groups["version"], parsed))
	})

	return records, errs
}

func NewOldReleases(client *scrapers.Client, url string) scrapers.Pages {
	return scrapers.NewPages("drupal_old", client, ParseOldReleases, url)
}

// ReleasePageLink returns the link to the newest release of a listing page.
func ReleasePageLink(page *goquery.Selection) (string, bool) {
	return page.Find("div.node-project-release").First().Find("h2 a").First().Attr("href")
}

var release = regexp.MustCompile(`(?P<version>\d{1,2}\..*)$`)

// ParseReleases reads the "other releases" list of a release page.
func ParseReleases(page *goquery.Selection) ([]ledger.Record, []error) {
	var records []ledger.Record
	var errs []error

	page.Find("div.item-list > ul > li").Each(func(_ int, item *goquery.Selection) {
		spans := item.ChildrenFiltered("span")
		name := htmlutil.Clean(spans.Eq(0).ChildrenFiltered("span").ChildrenFiltered("a").Text())
		date := htmlutil.Clean(spans.Eq(1).ChildrenFiltered("span").Text())

		groups := scrapers.NamedGroups(release, name)
		if groups == nil || date == "" {
			return
		}
		parsed, err := dateparse.Parse(date, dateparse.DayMonthYear)
		if err != nil {
			errs = append(errs, scrapers.DateError(date, err))
			return
		}
		records = append(records, scrapers.Record(groups["version"], parsed))
	})

	return records, errs
}

type crawlResult struct {
	records []ledger.Record
	err     error
}

// Crawler fetches the release listings of every major version in one
// concurrent crawl, the first Fetch of any of its sources runs it.
type Crawler struct {
	client   *scrapers.Client
	listings string
	majors   []int
	tel      telemetry.API

	once    sync.Once
	mutex   sync.Mutex
	results map[int]*crawlResult
}

func NewCrawler(client *scrapers.Client, listings string, majors ...int) *Crawler {
	assert.NotEmptyStr(listings, "listings")
	return &Crawler{
		client:   client,
		listings: listings,
		majors:   majors,
		tel:      client.Telemetry("drupal"),
		results:  map[int]*crawlResult{},
	}
}

func (c *Crawler) result(major int) *crawlResult {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	res, ok := c.results[major]
	if !ok {
		res = &crawlResult{}
		c.results[major] = res
	}
	return res
}

func (c *Crawler) fail(major int, err error) {
	res := c.result(major)
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if res.err == nil {
		res.err = err
	}
}

func (c *Crawler) add(major int, records []ledger.Record) {
	res := c.result(major)
	c.mutex.Lock()
	defer c.mutex.Unlock()
	res.records = append(res.records, records...)
}

const (
	kindListing = "listing"
	kindRelease = "release"
)

func (c *Crawler) crawl(ctx context.Context) {
	collector := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(c.client.UserAgent()),
	)
	collector.WithTransport(c.client.Transport())
	collector.SetRequestTimeout(c.client.Timeout())

	err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: Parallelism,
	})
	if err != nil {
		for _, major := range c.majors {
			c.fail(major, err)
		}
		return
	}

	majorOf := func(r *colly.Request) int {
		major, _ := strconv.Atoi(r.Ctx.Get("major"))
		return major
	}

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			c.fail(majorOf(r), ctx.Err())
			r.Abort()
			return
		}
		c.tel.ReportDebug("crawling", r.URL.String())
	})

	collector.OnError(func(r *colly.Response, err error) {
		err = fmt.Errorf("GET %s: %w", r.Request.URL, err)
		c.tel.ReportBroken(report_crawler_page, err)
		c.fail(majorOf(r.Request), err)
	})

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		major := majorOf(e.Request)

		switch e.Request.Ctx.Get("kind") {
		case kindListing:
			href, ok := ReleasePageLink(e.DOM)
			if !ok {
				c.fail(major, fmt.Errorf("%w for drupal %d at %s", ErrNoRelease, major, e.Request.URL))
				return
			}
			next := colly.NewContext()
			next.Put("major", strconv.Itoa(major))
			next.Put("kind", kindRelease)
			err := collector.Request("GET", e.Request.AbsoluteURL(href), nil, next, nil)
			if err != nil {
				c.fail(major, err)
			}
		case kindRelease:
			records, errs := ParseReleases(e.DOM)
			for _, err := range errs {
				c.tel.ReportWarning(report_crawler_parse, err, e.Request.URL.String())
			}
			c.add(major, records)
		}
	})

	for _, major := range c.majors {
		c.result(major)
		reqCtx := colly.NewContext()
		reqCtx.Put("major", strconv.Itoa(major))
		reqCtx.Put("kind", kindListing)
		err := collector.Request("GET", fmt.Sprintf("%s?version=%d", c.listings, major), nil, reqCtx, nil)
		if err != nil {
			c.fail(major, err)
		}
	}

	collector.Wait()
}

// Fetch returns the releases of one major version, crawling every major
// version first if this is the first call.
func (c *Crawler) Fetch(ctx context.Context, major int) ([]ledger.Record, error) {
	c.once.Do(func() {
		c.crawl(ctx)
	})
	res := c.result(major)
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return res.records, res.err
}

// Sources returns one source per major version sharing the crawl.
func (c *Crawler) Sources() []MajorSource {
	out := make([]MajorSource, len(c.majors))
	for i, major := range c.majors {
		out[i] = MajorSource{crawler: c, major: major}
	}
	return out
}

type MajorSource struct {
	crawler *Crawler
	major   int
}

func (s MajorSource) Name() string {
	return fmt.Sprintf("drupal_%d", s.major)
}

func (s MajorSource) Fetch(ctx context.Context) ([]ledger.Record, error) {
	return s.crawler.Fetch(ctx, s.major)
}
