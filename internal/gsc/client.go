// Package gsc is a thin client for the Search Console Search Analytics
// query endpoint. It fetches raw (query, date) metric rows; classification
// happens downstream in the ingest layer.
package gsc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL  = "https://searchconsole.googleapis.com/webmasters/v3"
	DefaultRowLimit = 25000
)

type Client struct {
	BaseURL  string
	SiteURL  string // the GSC property, e.g. "https://www.example.co.uk/"
	Token    string
	RowLimit int
	HTTP     *http.Client
}

func NewClient(siteURL, token string) *Client {
	return &Client{
		BaseURL:  DefaultBaseURL,
		SiteURL:  siteURL,
		Token:    token,
		RowLimit: DefaultRowLimit,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Row is one (query, date) bucket as returned by the provider. CTR is a
// 0-1 fraction and Position a 1-based average rank.
type Row struct {
	Query       string
	Date        string
	Clicks      float64
	Impressions float64
	CTR         float64
	Position    float64
}

type queryRequest struct {
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Dimensions []string `json:"dimensions"`
	RowLimit   int      `json:"rowLimit"`
	DataState  string   `json:"dataState"`
}

type queryResponse struct {
	Rows []struct {
		Keys        []string `json:"keys"`
		Clicks      float64  `json:"clicks"`
		Impressions float64  `json:"impressions"`
		CTR         float64  `json:"ctr"`
		Position    float64  `json:"position"`
	} `json:"rows"`
}

// Query fetches all (query, date) rows for the inclusive date range. Dates
// are YYYY-MM-DD. The provider truncates silently at RowLimit; Truncated
// lets callers detect a cap-sized response.
func (c *Client) Query(ctx context.Context, startDate, endDate string) ([]Row, error) {
	if strings.TrimSpace(c.SiteURL) == "" {
		return nil, errors.New("gsc: no property URL configured")
	}
	limit := c.RowLimit
	if limit <= 0 {
		limit = DefaultRowLimit
	}

	body, err := json.Marshal(queryRequest{
		StartDate:  startDate,
		EndDate:    endDate,
		Dimensions: []string{"query", "date"},
		RowLimit:   limit,
		DataState:  "final",
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/sites/%s/searchAnalytics/query",
		strings.TrimRight(c.BaseURL, "/"), url.PathEscape(c.SiteURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpc := c.HTTP
	if httpc == nil {
		httpc = http.DefaultClient
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gsc: query %s..%s: status %d", startDate, endDate, resp.StatusCode)
	}

	var decoded queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("gsc: decode response: %w", err)
	}

	rows := make([]Row, 0, len(decoded.Rows))
	for _, r := range decoded.Rows {
		if len(r.Keys) < 2 {
			continue
		}
		rows = append(rows, Row{
			Query:       r.Keys[0],
			Date:        r.Keys[1],
			Clicks:      r.Clicks,
			Impressions: r.Impressions,
			CTR:         r.CTR,
			Position:    r.Position,
		})
	}
	return rows, nil
}

// Truncated reports whether a response filled the row cap, meaning the
// provider likely dropped rows beyond it.
func (c *Client) Truncated(rows []Row) bool {
	limit := c.RowLimit
	if limit <= 0 {
		limit = DefaultRowLimit
	}
	return len(rows) >= limit
}
