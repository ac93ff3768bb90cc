// Package harvest talks to the Harvest v2 time-tracking API. Every lookup
// falls back to a small fixed data set when credentials are missing or the
// API misbehaves, so report creation keeps working offline.
package harvest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"reportflow/internal/metrics"
)

var ErrNotConfigured = errors.New("harvest credentials not configured")

const maxPages = 50

type Config struct {
	BaseURL     string
	AccessToken string
	AccountID   string
	Timeout     time.Duration
}

type API struct {
	cfg  Config
	http *http.Client
	lg   *zap.SugaredLogger
}

func New(cfg Config, lg *zap.SugaredLogger) *API {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.harvestapp.com/v2"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &API{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, lg: lg}
}

func (a *API) Configured() bool {
	return a.cfg.AccessToken != "" && a.cfg.AccountID != ""
}

func (a *API) Clients(ctx context.Context) ([]Client, Source) {
	var p page
	if err := a.get(ctx, "/clients", nil, &p); err != nil {
		a.fallback("clients", err)
		return append([]Client{}, mockClients...), SourceMock
	}
	return nonNil(p.Clients), SourceHarvest
}

func (a *API) Projects(ctx context.Context, clientID string) ([]Project, Source) {
	params := url.Values{}
	if clientID != "" {
		params.Set("client_id", clientID)
	}
	var p page
	if err := a.get(ctx, "/projects", params, &p); err != nil {
		a.fallback("projects", err)
		return mockProjectsFor(clientID), SourceMock
	}
	return nonNil(p.Projects), SourceHarvest
}

// TimeEntries returns entries for the query, following pagination.
func (a *API) TimeEntries(ctx context.Context, q TimeEntryQuery) ([]TimeEntry, Source) {
	entries, err := a.fetchTimeEntries(ctx, q)
	if err != nil {
		a.fallback("time_entries", err)
		return filterEntries(mockEntries, q), SourceMock
	}
	return filterEntries(entries, TimeEntryQuery{ClientName: q.ClientName}), SourceHarvest
}

func (a *API) fetchTimeEntries(ctx context.Context, q TimeEntryQuery) ([]TimeEntry, error) {
	params := url.Values{}
	if q.From != "" {
		params.Set("from", q.From)
	}
	if q.To != "" {
		params.Set("to", q.To)
	}
	if q.ClientID != "" {
		params.Set("client_id", q.ClientID)
	}
	if q.ProjectID != "" {
		params.Set("project_id", q.ProjectID)
	}
	var all []TimeEntry
	for pg := 1; pg <= maxPages; pg++ {
		params.Set("page", strconv.Itoa(pg))
		var p page
		if err := a.get(ctx, "/time_entries", params, &p); err != nil {
			return nil, err
		}
		all = append(all, p.TimeEntries...)
		if p.NextPage == nil || *p.NextPage <= pg {
			break
		}
	}
	return all, nil
}

func (a *API) get(ctx context.Context, path string, params url.Values, out any) error {
	if !a.Configured() {
		return ErrNotConfigured
	}
	u := a.cfg.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.AccessToken)
	req.Header.Set("Harvest-Account-ID", a.cfg.AccountID)
	req.Header.Set("User-Agent", "reportflow")
	req.Header.Set("Accept", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("harvest %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("harvest %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("harvest %s: decode: %w", path, err)
	}
	return nil
}

func (a *API) fallback(resource string, err error) {
	metrics.HarvestFallbacks.WithLabelValues(resource).Inc()
	if errors.Is(err, ErrNotConfigured) {
		a.lg.Debugw("harvest not configured, using mock data", "resource", resource)
		return
	}
	a.lg.Warnw("harvest request failed, using mock data", "resource", resource, "error", err)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
