// Package tourvisor is a thin client for the Tourvisor XML search API.
// A search is two round trips: search.php registers the request and returns
// a request ID, result.php fetches whatever the engine has found so far.
package tourvisor

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// DateFormat is the dd.mm.yyyy layout the API expects in date parameters.
const DateFormat = "02.01.2006"

const defaultHTTPTimeout = 30 * time.Second

var (
	// ErrNoRequestID means search.php answered without a request ID.
	ErrNoRequestID = errors.New("tourvisor: response carries no request id")
	// ErrMissingCredentials means the client has no login or password.
	ErrMissingCredentials = errors.New("tourvisor: login and password are not configured")
)

// SearchParams are the parameters of one tour search.
type SearchParams struct {
	DepartureID string
	CountryID   string
	DateFrom    time.Time
	DateTo      time.Time
	NightsFrom  int
	NightsTo    int
	Adults      int
	Children    int
}

// Client talks to the Tourvisor XML endpoints. Credentials can be swapped
// at runtime through Reconfigure.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.RWMutex
	baseURL  string
	login    string
	password string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a Client for the given Tourvisor account.
func New(login, password string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		baseURL:    "http://tourvisor.ru/xml",
		login:      login,
		password:   password,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reconfigure swaps the account credentials and base URL. An empty base
// URL keeps the current one.
func (c *Client) Reconfigure(login, password, baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.login = login
	c.password = password
	if baseURL != "" {
		c.baseURL = baseURL
	}
}

func (c *Client) account() (login, password, baseURL string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.login, c.password, c.baseURL
}

// SubmitSearch registers a search and returns the request ID to poll with.
func (c *Client) SubmitSearch(ctx context.Context, params SearchParams) (string, error) {
	login, password, baseURL := c.account()
	if login == "" || password == "" {
		return "", ErrMissingCredentials
	}

	q := url.Values{}
	q.Set("authlogin", login)
	q.Set("authpass", password)
	q.Set("departure", params.DepartureID)
	q.Set("country", params.CountryID)
	q.Set("datefrom", params.DateFrom.Format(DateFormat))
	q.Set("dateto", params.DateTo.Format(DateFormat))
	q.Set("nightsfrom", strconv.Itoa(params.NightsFrom))
	q.Set("nightsto", strconv.Itoa(params.NightsTo))
	q.Set("adults", strconv.Itoa(params.Adults))
	q.Set("child", strconv.Itoa(params.Children))
	q.Set("format", "xml")

	body, err := c.get(ctx, baseURL+"/search.php?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("submitting search: %w", err)
	}

	id, err := ParseRequestID(body)
	if err != nil {
		return "", err
	}

	c.logger.Info("search registered",
		"request_id", id,
		"departure", params.DepartureID,
		"country", params.CountryID)
	return id, nil
}

// Results is one result.php snapshot. Status stays "searching" while the
// engine is still collecting offers and becomes "finished" once it is done.
type Results struct {
	Status string
	Hotels []Hotel
}

// Finished reports whether the engine has stopped collecting offers.
func (r *Results) Finished() bool {
	return r.Status == "finished"
}

// FetchResults returns the hotels found so far for a registered search.
func (c *Client) FetchResults(ctx context.Context, requestID string) (*Results, error) {
	login, password, baseURL := c.account()
	if login == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	q := url.Values{}
	q.Set("authlogin", login)
	q.Set("authpass", password)
	q.Set("requestid", requestID)
	q.Set("type", "result")

	body, err := c.get(ctx, baseURL+"/result.php?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetching results: %w", err)
	}

	results, err := ParseResults(body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("search results fetched",
		"request_id", requestID,
		"status", results.Status,
		"hotels", len(results.Hotels))
	return results, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

type submitResponse struct {
	XMLName   xml.Name `xml:"result"`
	RequestID string   `xml:"requestid"`
}

type resultsResponse struct {
	XMLName xml.Name `xml:"data"`
	Status  string   `xml:"status"`
	Hotels  []Hotel  `xml:"result>hotel"`
}

// ParseRequestID extracts the request ID from a search.php response body.
func ParseRequestID(body []byte) (string, error) {
	var parsed submitResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parsing search response: %w", err)
	}
	if parsed.RequestID == "" {
		return "", ErrNoRequestID
	}
	return parsed.RequestID, nil
}

// ParseResults extracts the search status and hotel list from a result.php
// response body.
func ParseResults(body []byte) (*Results, error) {
	var parsed resultsResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing results response: %w", err)
	}
	return &Results{Status: parsed.Status, Hotels: parsed.Hotels}, nil
}
