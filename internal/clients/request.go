package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"resty.dev/v3"

	logger "github.com/pwnholic/docexport/internal"
)

var (
	ErrBlocked       = errors.New("clients: request blocked")
	ErrNotImage      = errors.New("clients: response is not an image")
	ErrImageTooLarge = errors.New("clients: image exceeds size limit")
)

type ImageClient struct {
	Client  *resty.Client
	maxSize int64
}

func NewImageClient(t *HTTPClientOptions) *ImageClient {
	if t == nil {
		t = DefaultHTTPClientOptions()
	}
	client := resty.New().
		SetRetryCount(t.RetryCount).
		SetRetryWaitTime(t.RetryWaitTime).
		SetRetryMaxWaitTime(t.RetryMaxWaitTime).
		SetTimeout(t.TimeOut).
		SetHeader("User-Agent", t.UserAgent)

	return &ImageClient{
		Client:  client,
		maxSize: t.MaxImageSize,
	}
}

func (c *ImageClient) Close() error {
	return c.Client.Close()
}

func statusCode(resp *resty.Response) (bool, string) {
	switch resp.StatusCode() {
	case http.StatusTooManyRequests:
		return true, "Too Many Requests (429)"
	case http.StatusForbidden:
		return true, "Forbidden (403)"
	case http.StatusServiceUnavailable:
		return true, "Service Unavailable (503)"
	case http.StatusOK:
		return false, "Status OK"
	}
	return false, fmt.Sprintf("Status %d", resp.StatusCode())
}

// Fetch downloads the image at rawURL.
func (c *ImageClient) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	response, err := c.Client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		logger.Error("Failed to fetch URL: %s", err.Error())
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer response.Body.Close()

	if blocked, reason := statusCode(response); blocked {
		logger.Warn("BLOCKED: %s %s", rawURL, reason)
		return nil, fmt.Errorf("%w: %s", ErrBlocked, reason)
	}
	if response.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image %s: status %d", rawURL, response.StatusCode())
	}

	contentType := response.Header().Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "application/octet-stream") {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, contentType)
	}

	var body io.Reader = response.Body
	if c.maxSize > 0 {
		body = io.LimitReader(response.Body, c.maxSize+1)
	}

	buff := new(bytes.Buffer)
	if _, err := buff.ReadFrom(body); err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if c.maxSize > 0 && int64(buff.Len()) > c.maxSize {
		return nil, fmt.Errorf("%w: %s", ErrImageTooLarge, rawURL)
	}

	logger.Debug("Fetched %d bytes (%s) from %s", buff.Len(), contentType, rawURL)
	return buff.Bytes(), nil
}
