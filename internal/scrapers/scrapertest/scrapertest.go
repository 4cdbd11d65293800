// Package scrapertest serves fixture pages to the source adapters in tests.
package scrapertest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"versionhistory/internal/components/telemetry"
	"versionhistory/internal/scrapers"

	"github.com/PuerkitoBio/goquery"
)

// Pages maps a request path (with its query) to the body served for it,
// unknown paths answer 404.
type Pages map[string]string

// Server starts an httptest server for pages, it is closed with the test.
func Server(t testing.TB, pages Pages) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.RequestURI()]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

// Client returns an unthrottled client reporting to a fresh recorder.
func Client(t testing.TB) (*scrapers.Client, *telemetry.Recorder) {
	recorder := telemetry.NewRecorder()
	opts := scrapers.DefaultOptions()
	opts.RequestsPerSecond = 0
	return scrapers.NewClient(recorder, opts), recorder
}

// Document parses an html fixture.
func Document(t testing.TB, contents string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contents))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}
