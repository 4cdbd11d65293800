package chocolatey

import (
	"context"
	"errors"
	"testing"
	"versionhistory/internal/ledger"
	"versionhistory/internal/scrapers"
	"versionhistory/internal/scrapers/scrapertest"

	"github.com/stretchr/testify/require"
)

const chromeHistory = `<html><body>
<table class="table">
<thead><tr><th>Version</th><th>Downloads</th><th>Last Updated</th><th>Status</th></tr></thead>
<tbody>
<tr>
	<td><span class="icon"></span></td>
	<td><a href="/packages/GoogleChrome/91.0.4472.124">Google Chrome 91.0.4472.124</a></td>
	<td>1,204,112</td>
	<td>Friday, June 18, 2021</td>
</tr>
<tr>
	<td></td>
	<td><span>Google Chrome 91.0.4472.114</span></td>
	<td>884,121</td>
	<td>Friday, June 11, 2021</td>
</tr>
<tr>
	<td></td>
	<td><a>Google Chrome 90.0.4430.212</a></td>
	<td>1</td>
	<td>sometime in May</td>
</tr>
<tr>
	<td></td>
	<td><a>Google Chrome Beta</a></td>
	<td>1</td>
	<td>Friday, June 11, 2021</td>
</tr>
</tbody>
</table>
</body></html>`

func TestParse(t *testing.T) {
	doc := scrapertest.Document(t, chromeHistory)

	records, errs := NewPackage("GoogleChrome", DottedTwo).Parse(doc)
	require.Equal(t, []ledger.Record{
		scrapers.Record("91.0.4472.124", "2021-06-18"),
		scrapers.Record("91.0.4472.114", "2021-06-11"),
	}, records)

	require.Len(t, errs, 1)
	var parseErr *scrapers.ParseError
	require.True(t, errors.As(errs[0], &parseErr))
	require.Equal(t, "date", parseErr.Field)
	require.Equal(t, "sometime in May", parseErr.Raw)
}

func TestParseJava(t *testing.T) {
	doc := scrapertest.Document(t, `<table>
	<tr><td></td><td><a>Java SE Runtime Environment 8.0.201</a></td><td>3</td><td>Tuesday, January 15, 2019</td></tr>
	<tr><td></td><td><a>OpenJDK 11.0.2.9</a></td><td>3</td><td>Wednesday, January 16, 2019</td></tr>
	</table>`)

	pkg := Package{ID: "jre8", VersionColumn: 1, DateColumn: 3, Pattern: JavaPattern, Rewrite: JavaRewrite}
	records, errs := pkg.Parse(doc)
	require.Empty(t, errs)
	require.Equal(t, []ledger.Record{
		scrapers.Record("1.8.0_201", "2019-01-15", ledger.FieldVersionMajor, "8"),
		scrapers.Record("1.11.0_2.9", "2019-01-16", ledger.FieldVersionMajor, "11"),
	}, records)
}

func TestParseShiftedColumns(t *testing.T) {
	doc := scrapertest.Document(t, `<table>
	<tr><td><a>Adobe Acrobat Reader DC 2021.005.20048</a></td><td>12</td><td>Tuesday, June 8, 2021</td></tr>
	</table>`)

	pkg := Package{ID: "adobereader-update", VersionColumn: 0, DateColumn: 2, Pattern: DottedTwo}
	records, errs := pkg.Parse(doc)
	require.Empty(t, errs)
	require.Equal(t, []ledger.Record{scrapers.Record("21.005.20048", "2021-06-08")}, records)
}

func TestFetch(t *testing.T) {
	server := scrapertest.Server(t, scrapertest.Pages{
		"/packages/GoogleChrome": chromeHistory,
	})
	client, _ := scrapertest.Client(t)

	source := New(client, server.URL+"/packages/", NewPackage("GoogleChrome", DottedTwo))
	require.Equal(t, "chocolatey", source.Name())
	require.Equal(t, []string{server.URL + "/packages/GoogleChrome"}, source.URLs())

	records, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	source = New(client, server.URL+"/packages/", NewPackage("GoogleChrome", DottedTwo), NewPackage("missing", AnyVersion))
	records, err = source.Fetch(context.Background())
	require.ErrorIs(t, err, scrapers.ErrStatus)
	require.Len(t, records, 2)
}
