// Package clients fetches remote source images over HTTP.
package clients

import "time"

type HTTPClientOptions struct {
	RetryCount       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
	TimeOut          time.Duration
	UserAgent        string
	// MaxImageSize caps the bytes read for a single image; 0 disables it.
	MaxImageSize int64
}

func DefaultHTTPClientOptions() *HTTPClientOptions {
	return &HTTPClientOptions{
		RetryCount:       3,
		RetryWaitTime:    2 * time.Second,
		RetryMaxWaitTime: 5 * time.Second,
		TimeOut:          30 * time.Second,
		UserAgent:        "docexport/1.0",
	}
}
