package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobclip-engine/internal/browser"
)

const jobPageHTML = `<!doctype html>
<html>
<head><title>Backend Engineer - Acme</title><style>body{color:red}</style></head>
<body>
  <script>window.tracker = "noise";</script>
  <noscript>Enable JS</noscript>
  <h1>Backend   Engineer</h1>
  <div class="meta">Acme&nbsp;Inc — Remote</div>
  <div id="content">
    <p>Build APIs in Go.</p>
    <p>5+ years experience.</p>
  </div>
</body>
</html>`

func testExtractor() *HTTPExtractor {
	return NewHTTPExtractor(Config{
		Timeout:    5 * time.Second,
		MaxBodyKB:  256,
		PerHostRPS: 100,
		Burst:      10,
	})
}

func TestExtractTextVisibleOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(jobPageHTML))
	}))
	defer srv.Close()

	ex := testExtractor()
	text, err := ex.ExtractText(context.Background(), browser.Tab{ID: 1, URL: srv.URL})
	require.NoError(t, err)

	assert.Contains(t, text, "Backend Engineer")
	assert.Contains(t, text, "Acme Inc — Remote")
	assert.Contains(t, text, "Build APIs in Go. 5+ years experience.")
	assert.NotContains(t, text, "window.tracker")
	assert.NotContains(t, text, "Enable JS")
	assert.NotContains(t, text, "color:red")
}

func TestExtractTextPageStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	ex := testExtractor()
	_, err := ex.ExtractText(context.Background(), browser.Tab{ID: 1, URL: srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestExtractTextRestrictedScheme(t *testing.T) {
	ex := testExtractor()

	_, err := ex.ExtractText(context.Background(), browser.Tab{ID: 1, URL: "chrome://extensions"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "restricted page")

	_, err = ex.ExtractText(context.Background(), browser.Tab{ID: 1, URL: "not a url"})
	require.Error(t, err)
}

func TestExtractTextEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><script>1</script></body></html>`))
	}))
	defer srv.Close()

	ex := testExtractor()
	_, err := ex.ExtractText(context.Background(), browser.Tab{ID: 1, URL: srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no visible text")
}

func TestVisibleTextCollapsesWhitespace(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		"<html><body><p>a\n\n  b</p>\n<p>c d</p></body></html>"))
	require.NoError(t, err)
	assert.Equal(t, "a b c d", VisibleText(doc))
}

func TestHostLimiterSharesPerHost(t *testing.T) {
	hl := NewHostLimiter(1000, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, hl.WaitURL(ctx, "https://a.example/x"))
	require.NoError(t, hl.WaitURL(ctx, "https://b.example/y"))
	// unparseable URLs fall into the shared bucket rather than erroring
	require.NoError(t, hl.WaitURL(ctx, "://bad"))
}
