// Package walrus stores contract documents on a Walrus publisher and builds aggregator read URLs.
package walrus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Config holds publisher and aggregator endpoints.
type Config struct {
	PublisherURL  string
	AggregatorURL string
	Epochs        int
	Timeout       time.Duration
}

// Client uploads blobs through a publisher.
type Client struct {
	publisherURL  string
	aggregatorURL string
	epochs        int
	httpClient    *http.Client
	logger        zerolog.Logger
}

// New constructs a publisher client.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.PublisherURL == "" {
		return nil, fmt.Errorf("walrus publisher URL required")
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Client{
		publisherURL:  strings.TrimRight(cfg.PublisherURL, "/"),
		aggregatorURL: strings.TrimRight(cfg.AggregatorURL, "/"),
		epochs:        cfg.Epochs,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		logger:        logger.With().Str("component", "walrus").Logger(),
	}, nil
}

// Name identifies the store.
func (c *Client) Name() string { return "walrus" }

// Put stores body and returns its blob id with an aggregator URL when one is configured.
// Re-uploading identical content returns the id of the already certified blob.
func (c *Client) Put(ctx context.Context, name string, body []byte) (string, string, error) {
	endpoint := c.publisherURL + "/v1/blobs?epochs=" + strconv.Itoa(c.epochs)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("publisher returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	blobID := gjson.GetBytes(respBody, "newlyCreated.blobObject.blobId").String()
	if blobID == "" {
		blobID = gjson.GetBytes(respBody, "alreadyCertified.blobId").String()
	}
	if blobID == "" {
		return "", "", fmt.Errorf("publisher response carried no blob id")
	}

	c.logger.Info().Str("blob_id", blobID).Str("file_name", name).Int("size", len(body)).Msg("document stored on walrus")

	return blobID, c.BlobURL(blobID), nil
}

// BlobURL returns the aggregator read URL of blobID, or "" without an aggregator.
func (c *Client) BlobURL(blobID string) string {
	if c.aggregatorURL == "" || blobID == "" {
		return ""
	}
	return c.aggregatorURL + "/v1/blobs/" + url.PathEscape(blobID)
}
