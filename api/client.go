package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/unkn0wn-root/tipcache"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithCodec sets the encoding requested through Accept. Responses are
// decoded by their own Content-Type either way.
func WithCodec(codec Codec[Envelope[Website]]) ClientOption {
	return func(c *Client) { c.accept = codec.ContentType() }
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// Client reads entities from the dashboard backend.
type Client struct {
	base   *url.URL
	http   *http.Client
	accept string
	log    *slog.Logger
}

// NewClient builds a client for baseURL, e.g. "http://localhost:8080/api".
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api: unsupported scheme %q", u.Scheme)
	}

	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: defaultTimeout},
		accept: ContentTypeJSON,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Website fetches one website by id. It satisfies tipcache.FetchFunc.
// Failures are *tipcache.NetworkError or *tipcache.ValidationError; a done
// ctx yields an error matching tipcache.ErrCancelled.
func (c *Client) Website(ctx context.Context, id string) (Website, error) {
	const op = "get website"
	var zero Website

	endpoint := c.base.JoinPath("websites", id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return zero, &tipcache.NetworkError{Op: op, Key: id, Cause: err}
	}
	req.Header.Set("Accept", c.accept)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%w: %v", tipcache.ErrCancelled, ctx.Err())
		}
		return zero, &tipcache.NetworkError{Op: op, Key: id, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%w: %v", tipcache.ErrCancelled, ctx.Err())
		}
		return zero, &tipcache.NetworkError{Op: op, Key: id, Status: resp.StatusCode, Cause: err}
	}

	env, decodeErr := CodecFor[Envelope[Website]](resp.Header.Get("Content-Type")).Decode(body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && env.Error != "" {
			msg = env.Error
		}
		return zero, &tipcache.NetworkError{Op: op, Key: id, Status: resp.StatusCode, Cause: errors.New(msg)}
	}
	if decodeErr != nil {
		return zero, &tipcache.ValidationError{Key: id, Field: "body", Reason: "undecodable: " + decodeErr.Error()}
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "API request failed"
		}
		return zero, &tipcache.NetworkError{Op: op, Key: id, Status: resp.StatusCode, Cause: errors.New(msg)}
	}
	if env.Data == nil || env.Data.URL == "" {
		return zero, &tipcache.ValidationError{Key: id, Field: "url"}
	}

	c.log.Debug("website fetched", "key", id, "content_type", resp.Header.Get("Content-Type"))
	w := *env.Data
	if w.ID == "" {
		w.ID = id
	}
	return w, nil
}
