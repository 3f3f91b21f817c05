package clients

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testOptions(maxSize int64) *HTTPClientOptions {
	return &HTTPClientOptions{
		RetryCount:       0,
		RetryWaitTime:    10 * time.Millisecond,
		RetryMaxWaitTime: 10 * time.Millisecond,
		TimeOut:          5 * time.Second,
		UserAgent:        "docexport-test",
		MaxImageSize:     maxSize,
	}
}

func TestFetch(t *testing.T) {
	payload := []byte("\x89PNG\r\n\x1a\nfake")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "docexport-test" {
			t.Errorf("User-Agent = %q", ua)
		}
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(payload)
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		case "/blocked":
			w.WriteHeader(http.StatusForbidden)
		case "/big.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(bytes.Repeat([]byte{1}, 64))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewImageClient(testOptions(32))
	defer client.Close()
	ctx := context.Background()

	data, err := client.Fetch(ctx, srv.URL+"/ok.png")
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("Fetch() = %q, want %q", data, payload)
	}

	if _, err := client.Fetch(ctx, srv.URL+"/page.html"); !errors.Is(err, ErrNotImage) {
		t.Errorf("Fetch(html) error = %v, want ErrNotImage", err)
	}
	if _, err := client.Fetch(ctx, srv.URL+"/blocked"); !errors.Is(err, ErrBlocked) {
		t.Errorf("Fetch(403) error = %v, want ErrBlocked", err)
	}
	if _, err := client.Fetch(ctx, srv.URL+"/big.png"); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("Fetch(big) error = %v, want ErrImageTooLarge", err)
	}
	if _, err := client.Fetch(ctx, srv.URL+"/missing.png"); err == nil {
		t.Error("Fetch(404) succeeded")
	}
}

func TestNewImageClient_Defaults(t *testing.T) {
	client := NewImageClient(nil)
	defer client.Close()

	if client.maxSize != 0 {
		t.Errorf("maxSize = %d, want unlimited", client.maxSize)
	}
	if client.Client == nil {
		t.Fatal("Client is nil")
	}
}
