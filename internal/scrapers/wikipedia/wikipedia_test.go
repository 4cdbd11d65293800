package wikipedia

import (
	"context"
	"testing"
	"versionhistory/internal/ledger"
	"versionhistory/internal/scrapers"
	"versionhistory/internal/scrapers/scrapertest"

	"github.com/stretchr/testify/require"
)

func TestParseChrome(t *testing.T) {
	doc := scrapertest.Document(t, `<table><tbody>
	<tr><th>Major version</th><th>Release date</th></tr>
	<tr><td>91.0.4472.124 <sup>[1]</sup></td><td>2021-06-17 <small>Windows, macOS</small> 2021-06-18 Linux</td></tr>
	<tr><td>Chrome 90.0.4430.212</td><td>2021-05-10</td></tr>
	<tr><td>92.0.4515.107</td><td>July 20</td></tr>
	<tr><td>Canary</td><td>2021-06-17</td></tr>
	</tbody></table>`)

	records, errs := ParseChrome(doc)
	require.Equal(t, []ledger.Record{
		scrapers.Record("91.0.4472.124", "2021-06-17"),
		scrapers.Record("90.0.4430.212", "2021-05-10"),
	}, records)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Error(), `"July"`)
}

func TestParseJava(t *testing.T) {
	doc := scrapertest.Document(t, `<table><tbody>
	<tr><td>Java SE 8 Update 201</td><td>January 15, 2019</td></tr>
	<tr><td>Java SE 11.0.2</td><td>2019-01-15</td></tr>
	<tr><td>Java SE 12 Update 33+2</td><td>2019-01-15</td></tr>
	<tr><td>Java SE 7 Update 80</td><td>Apr 14, 2015</td></tr>
	<tr><td>Java SE 6</td><td>2006-12-11</td></tr>
	<tr><td>Java SE 8 Update 202</td><td></td></tr>
	</tbody></table>`)

	records, errs := ParseJava(doc)
	require.Equal(t, []ledger.Record{
		scrapers.Record("1.8.0_201", "2019-01-15", ledger.FieldVersionMajor, "8"),
		scrapers.Record("1.11.0_2", "2019-01-15", ledger.FieldVersionMajor, "11"),
		scrapers.Record("1.7.0_80", "2015-04-14", ledger.FieldVersionMajor, "7"),
	}, records)
	require.Len(t, errs, 1)
}

const vlcArticle = `<html><body><div id="mw-content-text"><div class="mw-parser-output">
<table class="wikitable"><tbody>
<tr><th>Version</th><th>Date</th><th>Notes</th></tr>
<tr><td>3.0.16</td><td>21 juin 2021</td><td></td></tr>
<tr><td>3.0.12</td><td>Windows</td><td>1er février 2021</td></tr>
<tr><td>3.0.11.1</td><td>bientôt</td><td></td></tr>
<tr><td>Nightly</td><td>21 juin 2021</td><td></td></tr>
</tbody></table>
<table><tbody><tr><td>9.9.9</td><td>1 janvier 2030</td></tr></tbody></table>
</div></div></body></html>`

func TestParseVLC(t *testing.T) {
	records, errs := ParseVLC(scrapertest.Document(t, vlcArticle))
	require.Equal(t, []ledger.Record{
		scrapers.Record("3.0.16", "2021-06-21"),
		scrapers.Record("3.0.12", "2021-02-01"),
	}, records)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Error(), "bientôt")
}

func TestFetchVLC(t *testing.T) {
	server := scrapertest.Server(t, scrapertest.Pages{"/wiki/VLC_media_player": vlcArticle})
	client, _ := scrapertest.Client(t)

	records, err := NewVLC(client, server.URL+"/wiki/VLC_media_player").Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
}
