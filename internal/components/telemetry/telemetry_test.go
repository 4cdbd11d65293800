package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestScopedAPI(t *testing.T) {
	rec := NewRecorder()
	tel := NewScopedAPI("scrapers", NewScopedAPI("chocolatey", rec))

	tel.ReportWarning("parse.date", "Friday, 13 2020")
	tel.ReportCount("source.admitted", 3)

	warnings := rec.Reports(KindWarning, "")
	require.Len(t, warnings, 1)
	require.Equal(t, "chocolatey: scrapers: parse.date", warnings[0].ID)
	require.Equal(t, []any{"Friday, 13 2020"}, warnings[0].Params)
	require.Equal(t, map[string]int64{"chocolatey: scrapers: source.admitted": 3}, rec.Counts())
}

func TestOtelAPI(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	rec := NewRecorder()
	tel, err := NewOtelAPI(rec, provider.Meter("test"))
	require.NoError(t, err)

	tel.ReportCount("reconcile: source.admitted", 5)
	tel.ReportBroken("reconcile: source.fetch")
	tel.ReportBroken("reconcile: source.fetch")

	require.Len(t, rec.Reports(KindBroken, "source.fetch"), 2)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Gauge[int64]:
				require.Equal(t, "versionhistory.count", m.Name)
				require.Len(t, data.DataPoints, 1)
				require.EqualValues(t, 5, data.DataPoints[0].Value)
				id, ok := data.DataPoints[0].Attributes.Value(attribute.Key("id"))
				require.True(t, ok)
				require.Equal(t, "reconcile: source.admitted", id.AsString())
				found[m.Name] = true
			case metricdata.Sum[int64]:
				if m.Name == "versionhistory.broken" {
					require.Len(t, data.DataPoints, 1)
					require.EqualValues(t, 2, data.DataPoints[0].Value)
					found[m.Name] = true
				}
			}
		}
	}
	require.True(t, found["versionhistory.count"])
	require.True(t, found["versionhistory.broken"])
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "1")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "dump")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	rec := NewRecorder()
	client := resty.New()
	InstrumentResty(client, rec, output)

	_, err = client.R().Get(server.URL + "/history")
	require.NoError(t, err)

	require.Len(t, rec.Reports(KindDebug, report_resty_request), 1)
	require.Len(t, rec.Reports(KindDebug, report_resty_response), 1)

	dumped, err := os.ReadFile(filepath.Join(dir, "1"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(dumped), "---- REQUEST ----"))
	require.Contains(t, string(dumped), "GET "+server.URL+"/history")
	require.Contains(t, string(dumped), "X-Test: 1")
	require.Contains(t, string(dumped), "<html>ok</html>")
}

func TestInstrumentRestyError(t *testing.T) {
	rec := NewRecorder()
	client := resty.New()
	InstrumentResty(client, rec, nil)

	_, err := client.R().Get("http://127.0.0.1:1/unreachable")
	require.Error(t, err)
	require.Len(t, rec.Reports(KindBroken, report_resty_response), 1)
}
