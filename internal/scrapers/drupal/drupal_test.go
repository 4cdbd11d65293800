package drupal

import (
	"context"
	"testing"
	"versionhistory/internal/ledger"
	"versionhistory/internal/scrapers"
	"versionhistory/internal/scrapers/scrapertest"

	"github.com/stretchr/testify/require"
)

const oldReleases = `<html><body>
<h2>Release history</h2>
<p>Drupal 6.0, 2008-02-13</p>
<p>Drupal 5.23, 2010-08-11 <a href="/sa">security</a></p>
<p>Drupal 4.7.0, sometime in 2006</p>
<p>See the changelog for details.</p>
</body></html>`

func listing(release string) string {
	return `<html><body>
	<div class="node-project-release"><h2><a href="` + release + `">drupal ` + release + `</a></h2></div>
	<div class="node-project-release"><h2><a href="/ignored">older</a></h2></div>
	</body></html>`
}

func releasePage(items ...[2]string) string {
	body := `<html><body><div class="item-list"><ul>`
	for _, item := range items {
		body += `<li><span><span><a href="#">drupal ` + item[0] + `</a></span></span><span><span>` + item[1] + `</span></span></li>`
	}
	return body + `</ul></div></body></html>`
}

func TestParseOldReleases(t *testing.T) {
	records, errs := ParseOldReleases(scrapertest.Document(t, oldReleases))
	require.Equal(t, []ledger.Record{
		scrapers.Record("6.0", "2008-02-13"),
		scrapers.Record("5.23", "2010-08-11"),
	}, records)
	require.Len(t, errs, 1)
}

func TestParseReleases(t *testing.T) {
	doc := scrapertest.Document(t, releasePage(
		[2]string{"7.99", "1 March 2024"},
		[2]string{"7.x-dev", "4 Jan 2011"},
		[2]string{"7.98", "not a date"},
	))
	records, errs := ParseReleases(doc.Selection)
	require.Equal(t, []ledger.Record{
		scrapers.Record("7.99", "2024-03-01"),
	}, records)
	require.Len(t, errs, 2)
}

func TestReleasePageLink(t *testing.T) {
	href, ok := ReleasePageLink(scrapertest.Document(t, listing("/project/drupal/releases/10.2.4")).Selection)
	require.True(t, ok)
	require.Equal(t, "/project/drupal/releases/10.2.4", href)

	_, ok = ReleasePageLink(scrapertest.Document(t, "<p>nothing</p>").Selection)
	require.False(t, ok)
}

func TestIsDev(t *testing.T) {
	require.True(t, IsDev("7.x-dev"))
	require.False(t, IsDev("7.99"))
}

func TestCrawler(t *testing.T) {
	server := scrapertest.Server(t, scrapertest.Pages{
		"/releases?version=7":  listing("/release/7.99"),
		"/release/7.99":        releasePage([2]string{"7.99", "1 March 2024"}, [2]string{"7.98", "20 July 2023"}),
		"/releases?version=10": listing("/release/10.2.4"),
		"/release/10.2.4":      releasePage([2]string{"10.2.4", "6 March 2024"}),
		"/releases?version=9":  "<html><body><p>no releases</p></body></html>",
	})
	client, _ := scrapertest.Client(t)

	crawler := NewCrawler(client, server.URL+"/releases", 7, 8, 9, 10)
	sources := crawler.Sources()
	require.Len(t, sources, 4)
	require.Equal(t, "drupal_7", sources[0].Name())

	records, err := sources[0].Fetch(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, []ledger.Record{
		scrapers.Record("7.99", "2024-03-01"),
		scrapers.Record("7.98", "2023-07-20"),
	}, records)

	_, err = sources[1].Fetch(context.Background())
	require.Error(t, err)

	_, err = sources[2].Fetch(context.Background())
	require.ErrorIs(t, err, ErrNoRelease)

	records, err = sources[3].Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []ledger.Record{scrapers.Record("10.2.4", "2024-03-06")}, records)
}

func TestCrawlerCancelled(t *testing.T) {
	server := scrapertest.Server(t, scrapertest.Pages{})
	client, _ := scrapertest.Client(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCrawler(client, server.URL+"/releases", 7).Sources()[0].Fetch(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCrawlerRequiresListings(t *testing.T) {
	client, _ := scrapertest.Client(t)
	require.PanicsWithValue(t, "expected listings to be non-empty", func() { NewCrawler(client, "", 7) })
}
