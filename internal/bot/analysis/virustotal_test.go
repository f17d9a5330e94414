package analysis

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sarhadsec/scanbot/internal/common"
	"github.com/sarhadsec/scanbot/internal/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*VirusTotal, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	l := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewVirusTotal(srv.URL, "test-key", rate.NewLimiter(rate.Inf, 1), l), srv
}

func TestSubmitURL_Success(t *testing.T) {
	var gotKey, gotBody string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/urls", r.URL.Path)
		gotKey = r.Header.Get("x-apikey")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte(`{"data":{"id":"u-abc123-1700000000"}}`))
	})

	h, err := client.SubmitURL(context.Background(), "http://example.com")
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotKey)
	assert.Contains(t, gotBody, "url=http")
	assert.Equal(t, "u-abc123-1700000000", h.AnalysisID)
	assert.Equal(t, "https://www.virustotal.com/gui/url/abc123/detection", h.Permalink)
}

func TestSubmitURL_RateLimited(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.SubmitURL(context.Background(), "http://example.com")
	assert.ErrorIs(t, err, common.ErrRateLimited)
}

func TestSubmitURL_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.SubmitURL(context.Background(), "http://example.com")
	assert.ErrorIs(t, err, common.ErrProviderUnavailable)
}

func TestSubmitFile_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/files", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "sample.bin", header.Filename)
		w.Write([]byte(`{"data":{"id":"an-77"}}`))
	})

	h, err := client.SubmitFile(context.Background(), "sample.bin", 4, strings.NewReader("test"))
	require.NoError(t, err)
	assert.Equal(t, "an-77", h.AnalysisID)
	assert.Contains(t, h.Permalink, "/file-analysis/an-77/")
}

func TestSubmitFile_AlreadyKnown(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	_, err := client.SubmitFile(context.Background(), "sample.bin", 4, strings.NewReader("test"))
	assert.ErrorIs(t, err, common.ErrAlreadyKnown)
}

func TestLookupFile(t *testing.T) {
	t.Run("known hash", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/files/deadbeef", r.URL.Path)
			w.Write([]byte(`{"data":{"id":"deadbeef","attributes":{"last_analysis_stats":{"harmless":60,"malicious":3,"suspicious":1,"undetected":6}}}}`))
		})

		rep, err := client.LookupFile(context.Background(), "deadbeef")
		require.NoError(t, err)
		assert.Equal(t, 3, rep.Stats.Malicious)
		assert.Equal(t, 60, rep.Stats.Harmless)
		assert.Contains(t, rep.Permalink, "/file/deadbeef/")
	})

	t.Run("unknown hash", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.LookupFile(context.Background(), "deadbeef")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestFetchVerdict(t *testing.T) {
	t.Run("still queued", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/analyses/an-1", r.URL.Path)
			w.Write([]byte(`{"data":{"id":"an-1","attributes":{"status":"queued"}}}`))
		})

		_, err := client.FetchVerdict(context.Background(), &Handle{AnalysisID: "an-1"})
		assert.ErrorIs(t, err, common.ErrAnalysisPending)
	})

	t.Run("completed", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":{"id":"an-1","attributes":{"status":"completed","stats":{"harmless":70,"undetected":2}}}}`))
		})

		rep, err := client.FetchVerdict(context.Background(), &Handle{AnalysisID: "an-1", Permalink: "p"})
		require.NoError(t, err)
		assert.Equal(t, 70, rep.Stats.Harmless)
		assert.Equal(t, "an-1", rep.ProviderID)
		assert.Equal(t, "p", rep.Permalink)
	})
}
