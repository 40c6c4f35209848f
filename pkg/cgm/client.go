// Package cgm talks to the continuous glucose monitor provider and runs the
// polling worker that turns provider readings into stored statuses.
package cgm

//go:generate mockgen -source=client.go -destination=mocks/provider_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "https://sandbox-api.dexcom.com"

	// provider timestamps are UTC without a zone suffix
	dexcomTimeLayout = "2006-01-02T15:04:05"
)

var ErrProviderStatus = errors.New("cgm: unexpected provider response")

// Reading is one estimated glucose value as reported by the provider.
type Reading struct {
	RecordID    string
	SystemTime  time.Time
	DisplayTime *time.Time
	Value       float64
	Unit        string
	Trend       string
	TrendRate   *float64
}

type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
	FetchReadings(ctx context.Context, token *oauth2.Token, start, end time.Time) ([]Reading, error)
}

type ClientOptions struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	HTTPClient   *http.Client
}

// DexcomClient implements Provider against the Dexcom v3 API.
type DexcomClient struct {
	BaseURL    string
	HTTPClient *http.Client
	oauth      *oauth2.Config
}

func NewDexcomClient(opts ClientOptions) *DexcomClient {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &DexcomClient{
		BaseURL:    base,
		HTTPClient: httpClient,
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Scopes:       []string{"offline_access"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/v2/oauth2/login",
				TokenURL:  base + "/v2/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// withClient makes the oauth2 package use our http client for token calls.
func (c *DexcomClient) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
}

func (c *DexcomClient) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

func (c *DexcomClient) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.oauth.Exchange(c.withClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return token, nil
}

// Refresh always goes to the token endpoint, whatever the current expiry.
func (c *DexcomClient) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if token == nil || token.RefreshToken == "" {
		return nil, errors.New("no refresh token")
	}
	expired := &oauth2.Token{RefreshToken: token.RefreshToken, Expiry: time.Unix(1, 0)}
	refreshed, err := c.oauth.TokenSource(c.withClient(ctx), expired).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = token.RefreshToken
	}
	return refreshed, nil
}

type egvsResponse struct {
	Records []struct {
		RecordID    string   `json:"recordId"`
		SystemTime  string   `json:"systemTime"`
		DisplayTime string   `json:"displayTime"`
		Value       *float64 `json:"value"`
		Unit        string   `json:"unit"`
		Trend       string   `json:"trend"`
		TrendRate   *float64 `json:"trendRate"`
	} `json:"records"`
}

func (c *DexcomClient) FetchReadings(ctx context.Context, token *oauth2.Token, start, end time.Time) ([]Reading, error) {
	q := url.Values{}
	q.Set("startDate", start.UTC().Format(dexcomTimeLayout))
	q.Set("endDate", end.UTC().Format(dexcomTimeLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v3/users/self/egvs?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	httpClient := oauth2.NewClient(c.withClient(ctx), oauth2.StaticTokenSource(token))
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch readings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %d %s", ErrProviderStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload egvsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode readings: %w", err)
	}

	readings := make([]Reading, 0, len(payload.Records))
	for _, rec := range payload.Records {
		if rec.Value == nil {
			continue
		}
		systemTime, err := parseProviderTime(rec.SystemTime)
		if err != nil {
			continue
		}
		r := Reading{
			RecordID:   rec.RecordID,
			SystemTime: systemTime,
			Value:      *rec.Value,
			Unit:       rec.Unit,
			Trend:      rec.Trend,
			TrendRate:  rec.TrendRate,
		}
		if display, err := parseProviderTime(rec.DisplayTime); err == nil {
			r.DisplayTime = &display
		}
		readings = append(readings, r)
	}
	return readings, nil
}

func parseProviderTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation(dexcomTimeLayout, raw, time.UTC)
}
