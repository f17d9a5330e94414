package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sarhadsec/scanbot/internal/common"
	"github.com/sarhadsec/scanbot/internal/logging"
)

// apiKeyHeader carries the VirusTotal API key on every request.
const apiKeyHeader = "x-apikey"

// guiBase is the root of VirusTotal's human-readable report pages.
const guiBase = "https://www.virustotal.com/gui"

// VirusTotal is the v3 API implementation of Client. All requests pass
// through a shared rate limiter so the provider quota holds process-wide
// regardless of how many scans run concurrently.
type VirusTotal struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	logger  logging.Logger
}

func NewVirusTotal(baseURL, apiKey string, limiter *rate.Limiter, logger logging.Logger) *VirusTotal {
	return &VirusTotal{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
		logger:  logger.With("module", "virustotal"),
	}
}

type submitResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type rawStats struct {
	Harmless   int `json:"harmless"`
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Undetected int `json:"undetected"`
	Timeout    int `json:"timeout"`
}

type analysisResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Status string   `json:"status"`
			Stats  rawStats `json:"stats"`
		} `json:"attributes"`
	} `json:"data"`
}

type fileResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			LastAnalysisStats rawStats `json:"last_analysis_stats"`
		} `json:"attributes"`
	} `json:"data"`
}

func (s rawStats) stats() Stats {
	return Stats{
		Harmless:   s.Harmless,
		Malicious:  s.Malicious,
		Suspicious: s.Suspicious,
		Undetected: s.Undetected,
		Timeout:    s.Timeout,
	}
}

func (c *VirusTotal) SubmitURL(ctx context.Context, rawURL string) (*Handle, error) {

	body := url.Values{"url": {rawURL}}
	resp, err := c.do(ctx, http.MethodPost, "/urls", "application/x-www-form-urlencoded",
		strings.NewReader(body.Encode()))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding submit response: %v", common.ErrProviderUnavailable, err)
	}

	return &Handle{
		AnalysisID: parsed.Data.ID,
		Permalink:  urlPermalink(parsed.Data.ID, rawURL),
	}, nil
}

// urlPermalink derives the GUI report link from a URL analysis id of the
// form "u-<urlid>-<timestamp>", falling back to a search link.
func urlPermalink(analysisID, rawURL string) string {
	parts := strings.Split(analysisID, "-")
	if len(parts) == 3 {
		return fmt.Sprintf("%s/url/%s/detection", guiBase, parts[1])
	}
	return fmt.Sprintf("%s/search/%s", guiBase, url.QueryEscape(rawURL))
}

func (c *VirusTotal) SubmitFile(ctx context.Context, name string, size int64, content io.Reader) (*Handle, error) {

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("building upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("reading file content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building upload form: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/files", mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// the provider already has this file on record
	if resp.StatusCode == http.StatusConflict {
		return nil, common.ErrAlreadyKnown
	}

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding submit response: %v", common.ErrProviderUnavailable, err)
	}

	return &Handle{
		AnalysisID: parsed.Data.ID,
		Permalink:  fmt.Sprintf("%s/file-analysis/%s/detection", guiBase, parsed.Data.ID),
	}, nil
}

func (c *VirusTotal) LookupFile(ctx context.Context, sha256hex string) (*Report, error) {

	resp, err := c.do(ctx, http.MethodGet, "/files/"+sha256hex, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, common.ErrNotFound
	}

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var parsed fileResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding file response: %v", common.ErrProviderUnavailable, err)
	}

	return &Report{
		Stats:      parsed.Data.Attributes.LastAnalysisStats.stats(),
		ProviderID: parsed.Data.ID,
		Permalink:  fmt.Sprintf("%s/file/%s/detection", guiBase, sha256hex),
	}, nil
}

func (c *VirusTotal) FetchVerdict(ctx context.Context, h *Handle) (*Report, error) {

	resp, err := c.do(ctx, http.MethodGet, "/analyses/"+h.AnalysisID, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var parsed analysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding analysis response: %v", common.ErrProviderUnavailable, err)
	}

	if parsed.Data.Attributes.Status != "completed" {
		c.logger.Debug(ctx, "analysis still processing",
			"analysis_id", h.AnalysisID, "status", parsed.Data.Attributes.Status)
		return nil, common.ErrAnalysisPending
	}

	return &Report{
		Stats:      parsed.Data.Attributes.Stats.stats(),
		ProviderID: parsed.Data.ID,
		Permalink:  h.Permalink,
	}, nil
}

// do waits for the shared rate limiter, then performs one authenticated
// request against the provider API.
func (c *VirusTotal) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrProviderUnavailable, err)
	}

	return resp, nil
}

// checkStatus maps provider HTTP statuses onto the error taxonomy.
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return common.ErrRateLimited
	case resp.StatusCode == http.StatusBadRequest:
		return common.ErrInvalidTarget
	default:
		return fmt.Errorf("%w: unexpected status %d", common.ErrProviderUnavailable, resp.StatusCode)
	}
}
