package exchange

import (
	"testing"
	"versionhistory/internal/ledger"
	"versionhistory/internal/scrapers"
	"versionhistory/internal/scrapers/scrapertest"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		build string
		full  string
		short string
	}{
		{build: "15.2.986.5", full: "15.02.0986.005", short: "15.2.986.5"},
		{build: "15.01.2507.006", full: "15.01.2507.006", short: "15.1.2507.6"},
		{build: "15.00.1497.002", full: "15.00.1497.002", short: "15.0.1497.2"},
		{build: "8.3.83.6", full: "8.03.0083.006", short: "8.3.83.6"},
	}

	for _, test := range testCases {
		full, short, err := Normalize(test.build)
		require.NoError(t, err, test.build)
		require.Equal(t, test.full, full)
		require.Equal(t, test.short, short)
	}

	for _, build := range []string{"15.2.986", "15.002.986.5", "Build", "15.2.x.5", "15..986.5"} {
		_, _, err := Normalize(build)
		var parseErr *scrapers.ParseError
		require.ErrorAs(t, err, &parseErr, build)
		require.Equal(t, "version", parseErr.Field)
	}
}

func TestParseMicrosoft(t *testing.T) {
	doc := scrapertest.Document(t, `<table>
	<tr><th>Product name</th><th>Release date</th><th>Build number (short format)</th><th>Build number (long format)</th></tr>
	<tr><td>Exchange Server 2019 CU12 Mar22SU</td><td>March 8, 2022</td><td>15.2.1118.7</td><td>15.02.1118.007</td></tr>
	<tr><td>Exchange Server 2007 SP3</td><td>June,2010</td><td>8.3.83.6</td><td></td></tr>
	<tr><td>Exchange Server 2019 RTM</td><td>October 22 2018</td><td>15.2.221.12</td><td>15.02.0221.012</td></tr>
	</table>`)

	records, errs := ParseMicrosoft(doc)
	require.Equal(t, []ledger.Record{
		scrapers.Record("15.02.1118.007", "2022-03-08",
			ledger.FieldVersionShort, "15.2.1118.7",
			ledger.FieldDescription, "Exchange Server 2019 CU12 Mar22SU"),
		scrapers.Record("8.3.83.6", "2010-06-01",
			ledger.FieldVersionShort, "8.3.83.6",
			ledger.FieldDescription, "Exchange Server 2007 SP3"),
	}, records)
	require.Len(t, errs, 1)
}

func TestParseBuildNumbers(t *testing.T) {
	doc := scrapertest.Document(t, `<table>
	<tr><td>Build</td><td>Description</td><td>Date</td></tr>
	<tr><td>15.2.1118.7</td><td>Exchange Server 2019 CU12 Mar22SU</td><td>2022 March 8</td></tr>
	<tr><td>15.01.2507.006</td><td>Exchange Server 2016 CU22 Mar22SU</td><td>2022 March 8</td></tr>
	<tr><td>15.1.2375.7</td><td>Exchange Server 2016 CU21</td><td>2021 Septembre 28</td></tr>
	</table>`)

	records, errs := ParseBuildNumbers(doc)
	require.Equal(t, []ledger.Record{
		scrapers.Record("15.02.1118.007", "2022-03-08",
			ledger.FieldVersionShort, "15.2.1118.7",
			ledger.FieldDescription, "Exchange Server 2019 CU12 Mar22SU"),
		scrapers.Record("15.01.2507.006", "2022-03-08",
			ledger.FieldVersionShort, "15.1.2507.6",
			ledger.FieldDescription, "Exchange Server 2016 CU22 Mar22SU"),
	}, records)
	require.Len(t, errs, 1)
}
