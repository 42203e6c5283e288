// Package fetch pulls paginated datasets from data.go.kr-style open APIs.
//
// Every endpoint speaks the same envelope: a header with a result code
// ("00" on success) and a body with a total count and an item list. The
// payload is JSON or XML depending on the dataset, and single-item pages
// arrive as a bare object instead of a one-element list, a quirk the
// fetcher normalizes away.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dongnemap/facility-sync/internal/domain"
)

// Format selects the response body shape of an endpoint.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// Endpoint describes one paginated dataset.
type Endpoint struct {
	BaseURL    string
	ServiceKey string // opaque portal credential, sent as serviceKey
	PageSize   int
	Format     Format
}

// TerminalError is a non-retryable fetch failure: an unexpected HTTP
// status, a malformed envelope, an API-level error code, or an exhausted
// retry budget. It aborts the whole category run.
type TerminalError struct {
	Status int // HTTP status, 0 when the failure is not status-shaped
	Msg    string
}

func (e *TerminalError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch failed: status %d: %s", e.Status, e.Msg)
	}
	return "fetch failed: " + e.Msg
}

const resultCodeOK = "00"

// Client fetches and aggregates all pages of an endpoint.
type Client struct {
	httpClient *http.Client
	policy     BackoffPolicy
	pageDelay  time.Duration
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewClient creates a fetcher. timeout bounds each page request; pageDelay
// is the cooperative pause between consecutive page requests.
func NewClient(timeout, pageDelay time.Duration, policy BackoffPolicy, clock clockwork.Clock, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		policy:     policy,
		pageDelay:  pageDelay,
		clock:      clock,
		logger:     logger,
	}
}

// FetchAll requests every page of the endpoint in ascending page order and
// returns the aggregated rows plus the total count reported by the source.
// Page 1 is fetched first to learn the total; remaining pages follow with a
// fixed inter-page delay.
func (c *Client) FetchAll(ctx context.Context, ep Endpoint) ([]domain.RawRow, int, error) {
	rows, total, err := c.fetchPage(ctx, ep, 1)
	if err != nil {
		return nil, 0, err
	}

	pages := (total + ep.PageSize - 1) / ep.PageSize
	c.logger.Info("fetch started",
		"url", ep.BaseURL, "total", total, "pages", pages, "page_size", ep.PageSize)

	for page := 2; page <= pages; page++ {
		if !sleep(ctx, c.clock, c.pageDelay) {
			return nil, 0, ctx.Err()
		}
		pageRows, _, err := c.fetchPage(ctx, ep, page)
		if err != nil {
			return nil, 0, err
		}
		rows = append(rows, pageRows...)
	}

	return rows, total, nil
}

// fetchPage requests a single page, retrying rate-limit, server-busy, and
// timeout failures under the backoff policy. Any other failure is terminal.
func (c *Client) fetchPage(ctx context.Context, ep Endpoint, page int) ([]domain.RawRow, int, error) {
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		rows, total, retryAfter, err := c.tryPage(ctx, ep, page, attempt)
		if err == nil {
			return rows, total, nil
		}
		if retryAfter < 0 {
			return nil, 0, err
		}

		c.logger.Warn("page request failed, retrying",
			"page", page, "attempt", attempt+1, "wait", retryAfter, "error", err)
		if !sleep(ctx, c.clock, retryAfter) {
			return nil, 0, ctx.Err()
		}
	}

	return nil, 0, &TerminalError{Msg: fmt.Sprintf("page %d: retry budget exhausted after %d attempts", page, c.policy.MaxAttempts)}
}

// tryPage performs one request. retryAfter < 0 means the error is terminal;
// otherwise it is the backoff delay before the next attempt.
func (c *Client) tryPage(ctx context.Context, ep Endpoint, page, attempt int) (rows []domain.RawRow, total int, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL(ep, page), nil)
	if err != nil {
		return nil, 0, -1, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, -1, ctx.Err()
		}
		// Timeouts and transport errors count against the retry budget.
		return nil, 0, c.policy.busyDelay(attempt), fmt.Errorf("page %d request: %w", page, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to body parsing
	case http.StatusTooManyRequests:
		return nil, 0, c.policy.rateLimitDelay(attempt), fmt.Errorf("page %d: rate limited", page)
	case http.StatusServiceUnavailable:
		return nil, 0, c.policy.busyDelay(attempt), fmt.Errorf("page %d: service unavailable", page)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, -1, &TerminalError{Status: resp.StatusCode, Msg: string(body)}
	}

	switch ep.Format {
	case FormatXML:
		rows, total, err = parseXMLEnvelope(resp.Body)
	default:
		rows, total, err = parseJSONEnvelope(resp.Body)
	}
	if err != nil {
		var terminal *TerminalError
		if !errors.As(err, &terminal) {
			err = &TerminalError{Msg: err.Error()}
		}
		return nil, 0, -1, err
	}
	return rows, total, 0, nil
}

func pageURL(ep Endpoint, page int) string {
	params := url.Values{
		"serviceKey": {ep.ServiceKey},
		"pageNo":     {strconv.Itoa(page)},
		"numOfRows":  {strconv.Itoa(ep.PageSize)},
	}
	if ep.Format == FormatJSON {
		params.Set("_type", "json")
	}
	return ep.BaseURL + "?" + params.Encode()
}
