// Package lookup resolves pilot names to corp and alliance tickers against
// an ESI-compatible HTTP API. It is the last and slowest layer of
// affiliation resolution, so everything is cached for the run, negative
// answers included, and calls are paced with a fixed delay.
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/solfleet/combatlog/pkg/logtext"
)

const (
	// DefaultBaseURL is the public ESI endpoint.
	DefaultBaseURL = "https://esi.evetech.net/latest"

	// DefaultDelay paces requests well under the error-limit window.
	DefaultDelay = 250 * time.Millisecond
)

// Affiliation is a resolved pilot's current membership.
type Affiliation struct {
	Corp     string
	Alliance string
}

// Cache holds everything learned during a run. A character ID of 0 marks a
// name the API could not resolve, so it is never asked about again.
type Cache struct {
	CharacterIDs    map[string]int64
	CorpTickers     map[int64]corpInfo
	AllianceTickers map[int64]string
	Pilots          map[string]Affiliation
}

type corpInfo struct {
	Ticker     string
	AllianceID int64
}

// NewCache returns an empty, initialized cache.
func NewCache() *Cache {
	return &Cache{
		CharacterIDs:    map[string]int64{},
		CorpTickers:     map[int64]corpInfo{},
		AllianceTickers: map[int64]string{},
		Pilots:          map[string]Affiliation{},
	}
}

// Client is a paced ESI client. The zero value is not usable; construct
// with New.
type Client struct {
	base   string
	http   *http.Client
	delay  time.Duration
	cache  *Cache
	log    *slog.Logger
	ctx    context.Context
	sleep  func(time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root, mainly for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.base = strings.TrimRight(base, "/") }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithDelay sets the pause inserted after every API call.
func WithDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithContext bounds all requests made by the client.
func WithContext(ctx context.Context) Option {
	return func(c *Client) { c.ctx = ctx }
}

func New(opts ...Option) *Client {
	c := &Client{
		base:  DefaultBaseURL,
		http:  &http.Client{Timeout: 15 * time.Second},
		delay: DefaultDelay,
		cache: NewCache(),
		log:   slog.Default(),
		ctx:   context.Background(),
		sleep: time.Sleep,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SeedPilots preloads pilot answers, typically from the persistent store,
// so known pilots never hit the network.
func (c *Client) SeedPilots(pilots map[string]Affiliation) {
	for name, aff := range pilots {
		key := pilotKey(name)
		if key == "" {
			continue
		}
		c.cache.Pilots[key] = aff
	}
}

// PilotCache returns a copy of every pilot answer learned this run,
// negatives included.
func (c *Client) PilotCache() map[string]Affiliation {
	out := make(map[string]Affiliation, len(c.cache.Pilots))
	for k, v := range c.cache.Pilots {
		out[k] = v
	}
	return out
}

func pilotKey(name string) string {
	return strings.ToLower(logtext.NormalizeKey(name))
}

// Resolve returns the pilot's corp and alliance tickers, or blanks when the
// name does not resolve. Errors are logged and degrade to blanks; a parsing
// run must never die on a flaky lookup.
func (c *Client) Resolve(pilot string) (corp, alliance string) {
	key := pilotKey(pilot)
	if key == "" {
		return "", ""
	}
	if aff, ok := c.cache.Pilots[key]; ok {
		return aff.Corp, aff.Alliance
	}

	aff, err := c.resolve(pilot)
	if err != nil {
		c.log.Warn("affiliation lookup failed", "pilot", pilot, "error", err)
		aff = Affiliation{}
	}
	c.cache.Pilots[key] = aff
	return aff.Corp, aff.Alliance
}

func (c *Client) resolve(pilot string) (Affiliation, error) {
	charID, err := c.characterID(pilot)
	if err != nil {
		return Affiliation{}, err
	}
	if charID == 0 {
		return Affiliation{}, nil
	}

	var char struct {
		CorporationID int64 `json:"corporation_id"`
	}
	if err := c.get(fmt.Sprintf("/characters/%d/", charID), &char); err != nil {
		return Affiliation{}, err
	}
	if char.CorporationID == 0 {
		return Affiliation{}, nil
	}

	corp, err := c.corpInfo(char.CorporationID)
	if err != nil {
		return Affiliation{}, err
	}

	aff := Affiliation{Corp: corp.Ticker}
	if corp.AllianceID != 0 {
		ticker, err := c.allianceTicker(corp.AllianceID)
		if err != nil {
			return aff, err
		}
		aff.Alliance = ticker
	}
	return aff, nil
}

func (c *Client) characterID(pilot string) (int64, error) {
	key := pilotKey(pilot)
	if id, ok := c.cache.CharacterIDs[key]; ok {
		return id, nil
	}

	var out struct {
		Characters []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"characters"`
	}
	if err := c.post("/universe/ids/", []string{pilot}, &out); err != nil {
		return 0, err
	}

	var id int64
	for _, ch := range out.Characters {
		if strings.EqualFold(strings.TrimSpace(ch.Name), strings.TrimSpace(pilot)) {
			id = ch.ID
			break
		}
	}
	c.cache.CharacterIDs[key] = id
	return id, nil
}

func (c *Client) corpInfo(id int64) (corpInfo, error) {
	if info, ok := c.cache.CorpTickers[id]; ok {
		return info, nil
	}
	var out struct {
		Ticker     string `json:"ticker"`
		AllianceID int64  `json:"alliance_id"`
	}
	if err := c.get(fmt.Sprintf("/corporations/%d/", id), &out); err != nil {
		return corpInfo{}, err
	}
	info := corpInfo{Ticker: out.Ticker, AllianceID: out.AllianceID}
	c.cache.CorpTickers[id] = info
	return info, nil
}

func (c *Client) allianceTicker(id int64) (string, error) {
	if t, ok := c.cache.AllianceTickers[id]; ok {
		return t, nil
	}
	var out struct {
		Ticker string `json:"ticker"`
	}
	if err := c.get(fmt.Sprintf("/alliances/%d/", id), &out); err != nil {
		return "", err
	}
	c.cache.AllianceTickers[id] = out.Ticker
	return out.Ticker, nil
}

func (c *Client) get(path string, out any) error {
	req, err := http.NewRequestWithContext(c.ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if c.delay > 0 {
		c.sleep(c.delay)
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("lookup: %s %s: status %d: %s",
			req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
