// Package tracking reports analytics events to Matomo.
package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultTimeout = 5 * time.Second

// Nop discards every event
type Nop struct{}

func (Nop) Track(string, string, string) {}

// Matomo sends events to the Matomo HTTP tracking API. Track never blocks the
// caller; delivery failures are logged and dropped.
type Matomo struct {
	http       *resty.Client
	baseURL    string
	siteID     string
	userAgent  string
	resolution string

	wg sync.WaitGroup
}

type Option func(*Matomo)

func WithUserAgent(ua string) Option {
	return func(m *Matomo) {
		m.userAgent = ua
	}
}

// WithResolution sets the res parameter, formatted as WIDTHxHEIGHT
func WithResolution(res string) Option {
	return func(m *Matomo) {
		m.resolution = res
	}
}

func WithTimeout(d time.Duration) Option {
	return func(m *Matomo) {
		m.http.SetTimeout(d)
	}
}

func NewMatomo(baseURL, siteID string, opts ...Option) *Matomo {
	m := &Matomo{
		http:      resty.New().SetTimeout(DefaultTimeout),
		baseURL:   strings.TrimRight(baseURL, "/"),
		siteID:    siteID,
		userAgent: "framestitch",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Enabled reports whether both the endpoint and the site are configured
func (m *Matomo) Enabled() bool {
	return m.baseURL != "" && m.siteID != ""
}

func (m *Matomo) Track(category, action, name string) {
	if !m.Enabled() {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.Send(context.Background(), category, action, name); err != nil {
			slog.Warn("Failed to track action", "category", category, "action", action, "err", err)
		}
	}()
}

// Send delivers one event and waits for the response
func (m *Matomo) Send(ctx context.Context, category, action, name string) error {
	params := map[string]string{
		"idsite": m.siteID,
		"rec":    "1",
		"rand":   fmt.Sprint(rand.IntN(10000000)),
		"ua":     m.userAgent,
		"e_c":    category,
	}
	if m.resolution != "" {
		params["res"] = m.resolution
	}
	if action != "" {
		params["e_a"] = action
	}
	if name != "" {
		params["e_n"] = name
	}

	resp, err := m.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(m.baseURL + "/matomo.php")
	if err != nil {
		return fmt.Errorf("failed to reach matomo: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("matomo returned status %d", resp.StatusCode())
	}
	return nil
}

// Wait blocks until every in-flight event has been delivered or dropped
func (m *Matomo) Wait() {
	m.wg.Wait()
}
