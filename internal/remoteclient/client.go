package remoteclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lrcsync/internal/lrcerrors"
)

const (
	defaultBaseURL  = "https://lrclib.net/api"
	defaultUserAgent = "lrcsync/dev"
)

// Config describes how to build a Client.
type Config struct {
	BaseURL           string
	RequestsPerSecond int
	AttemptTimeout    time.Duration
	CallBudget        time.Duration
	UserAgent         string
	HTTPClient        *http.Client
}

// Client is the HTTPS client against the remote lyrics catalog.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	userAgent      string
	limiter        *rateLimiter
	attemptTimeout time.Duration
	callBudget     time.Duration
}

// New builds a Client from cfg, applying defaults for anything left zero.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, lrcerrors.Wrap(lrcerrors.ErrConfig, "remoteclient", "parse base url", base, err)
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	attemptTimeout := cfg.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = defaultAttemptTimeout
	}
	callBudget := cfg.CallBudget
	if callBudget <= 0 {
		callBudget = defaultCallBudget
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:        baseURL,
		http:           httpClient,
		userAgent:      userAgent,
		limiter:        newRateLimiter(cfg.RequestsPerSecond),
		attemptTimeout: attemptTimeout,
		callBudget:     callBudget,
	}, nil
}

// LyricPayload is one candidate as returned by the remote catalog, shared by
// both GetSigned and Search.
type LyricPayload struct {
	ID           int64
	TrackName    string
	ArtistName   string
	AlbumName    string
	Duration     float64
	SyncedLyrics string
	PlainLyrics  string
	Instrumental bool
}

type remoteTrack struct {
	ID           int64   `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	SyncedLyrics *string `json:"syncedLyrics"`
	PlainLyrics  *string `json:"plainLyrics"`
	Instrumental bool    `json:"instrumental"`
}

func (r remoteTrack) toPayload() LyricPayload {
	payload := LyricPayload{
		ID:           r.ID,
		TrackName:    r.TrackName,
		ArtistName:   r.ArtistName,
		AlbumName:    r.AlbumName,
		Duration:     r.Duration,
		Instrumental: r.Instrumental,
	}
	if r.SyncedLyrics != nil {
		payload.SyncedLyrics = *r.SyncedLyrics
	}
	if r.PlainLyrics != nil {
		payload.PlainLyrics = *r.PlainLyrics
	}
	return payload
}

// GetSigned performs an exact lookup by canonical signature. A nil payload
// with a nil error means the remote catalog has no match (HTTP 404).
func (c *Client) GetSigned(ctx context.Context, title, artist, album string, durationSeconds float64) (*LyricPayload, error) {
	params := url.Values{}
	params.Set("track_name", title)
	params.Set("artist_name", artist)
	if album != "" {
		params.Set("album_name", album)
	}
	if durationSeconds > 0 {
		params.Set("duration", strconv.FormatFloat(durationSeconds, 'f', -1, 64))
	}

	resp, err := c.get(ctx, "get", params)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	defer resp.Body.Close()

	var track remoteTrack
	if err := json.NewDecoder(resp.Body).Decode(&track); err != nil {
		return nil, lrcerrors.Wrap(lrcerrors.ErrRemote, "remoteclient", "decode get response", "", err)
	}
	payload := track.toPayload()
	return &payload, nil
}

// Search returns fuzzy candidates for title with optional artist/album
// filters, for the resolver's remote-search fallback strategy.
func (c *Client) Search(ctx context.Context, title, artist, album string) ([]LyricPayload, error) {
	params := url.Values{}
	params.Set("track_name", title)
	if artist != "" {
		params.Set("artist_name", artist)
	}
	if album != "" {
		params.Set("album_name", album)
	}

	resp, err := c.get(ctx, "search", params)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	defer resp.Body.Close()

	var tracks []remoteTrack
	if err := json.NewDecoder(resp.Body).Decode(&tracks); err != nil {
		return nil, lrcerrors.Wrap(lrcerrors.ErrRemote, "remoteclient", "decode search response", "", err)
	}
	payloads := make([]LyricPayload, 0, len(tracks))
	for _, t := range tracks {
		payloads = append(payloads, t.toPayload())
	}
	return payloads, nil
}

// get issues a GET against path with params, retrying per executeWithRetry.
// A nil response with a nil error signals a 404 (no result, not an error).
func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	endpoint := c.baseURL.JoinPath(path)
	endpoint.RawQuery = params.Encode()

	resp, err := c.executeWithRetry(ctx, func(attemptCtx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		var remoteErr *lrcerrors.RemoteError
		if errors.As(err, &remoteErr) {
			return nil, remoteErr
		}
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		resp.Body.Close()
		return nil, nil
	}
	return resp, nil
}
