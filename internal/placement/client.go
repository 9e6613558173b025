package placement

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/schema"
	"golang.org/x/sync/singleflight"
)

// Client asks a remote placement service for layouts. Requests in flight
// at the same time share one round trip only when they carry the same
// [Request.Key], that is, when they come from the same game.
type Client struct {
	logger  *slog.Logger
	baseURL string
	http    *http.Client
	enc     *schema.Encoder
	group   singleflight.Group
}

func NewClient(logger *slog.Logger, baseURL string, httpClient *http.Client) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid placement service url: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	client := &Client{
		logger:  logger,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
		enc:     schema.NewEncoder(),
	}
	return client, nil
}

func (c *Client) Place(ctx context.Context, req Request) (*Response, error) {
	v, err, shared := c.group.Do(req.Key(), func() (any, error) {
		return c.place(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("shared placement response", "key", req.Key())
	}
	return v.(*Response), nil
}

func (c *Client) place(ctx context.Context, req Request) (*Response, error) {
	query := url.Values{}
	if err := c.enc.Encode(req, query); err != nil {
		return nil, fmt.Errorf("unable to encode placement request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+"/place?"+query.Encode(), nil,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create placement request: %w", err)
	}

	c.logger.Debug("requesting mine layout", "url", httpReq.URL.String())
	res, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("placement service unreachable: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf(
			"placement service replied %d: %s",
			res.StatusCode, strings.TrimSpace(string(body)),
		)
	}

	var placed Response
	if err := json.NewDecoder(res.Body).Decode(&placed); err != nil {
		return nil, fmt.Errorf("%w: unable to decode response: %w", ErrBadLayout, err)
	}
	return &placed, nil
}
