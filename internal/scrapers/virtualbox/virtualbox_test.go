package virtualbox

import (
	"testing"
	"versionhistory/internal/ledger"
	"versionhistory/internal/scrapers"
	"versionhistory/internal/scrapers/scrapertest"

	"github.com/stretchr/testify/require"
)

func TestURLs(t *testing.T) {
	urls := URLs()
	require.Len(t, urls, 11)
	require.Equal(t, "https://www.virtualbox.org/wiki/Changelog", urls[0])
	require.Equal(t, "https://www.virtualbox.org/wiki/Changelog-4.0", urls[10])
}

func TestParse(t *testing.T) {
	doc := scrapertest.Document(t, `<div>
	<p><strong>VirtualBox 6.1.26</strong> (released July 28 2021)</p>
	<p>This is a maintenance release.</p>
	<p>VirtualBox 7.0.14 (released 2024-01-16)</p>
	<p>VirtualBox 6.1.0 (released December 10, 2019)</p>
	<p>VirtualBox 5.2.44 (released soon)</p>
	</div>`)

	records, errs := Parse(doc)
	require.Equal(t, []ledger.Record{
		scrapers.Record("6.1.26", "2021-07-28"),
		scrapers.Record("7.0.14", "2024-01-16"),
		scrapers.Record("6.1.0", "2019-12-10"),
	}, records)
	require.Len(t, errs, 1)
}
