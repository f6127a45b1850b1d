// Package whttp sends small JSON API requests through a go-retryablehttp
// client whose logging goes to the shared logrus logger.
package whttp

import (
	"context"
	"io"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/sw33tLie/estform/internal/utils"
)

const userAgent = "estform/1.0 (+https://github.com/sw33tLie/estform)"

type Header struct {
	Name  string
	Value string
}

type Request struct {
	URL     string
	Method  string
	Headers []Header
}

type Response struct {
	StatusCode int
	Body       string
}

// NewClient builds a client that retries at most retryMax times. Non-success
// responses are handed back to the caller instead of being turned into
// "giving up" errors, so status codes stay visible.
func NewClient(retryMax int) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = retryMax
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 5 * time.Second
	c.HTTPClient.Timeout = 30 * time.Second
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.Logger = leveledLogger{}
	return c
}

// Send performs the request and reads the whole body.
func Send(ctx context.Context, wReq *Request, client *retryablehttp.Client) (*Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, wReq.Method, wReq.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	for _, h := range wReq.Headers {
		req.Header.Add(h.Name, h.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Body: string(body)}, nil
}

// leveledLogger forwards retryablehttp's messages to utils.Log.
type leveledLogger struct{}

func fields(kv []interface{}) map[string]interface{} {
	f := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			f[k] = kv[i+1]
		}
	}
	return f
}

func (leveledLogger) Error(msg string, kv ...interface{}) {
	utils.Log.WithFields(fields(kv)).Error(msg)
}

func (leveledLogger) Warn(msg string, kv ...interface{}) {
	utils.Log.WithFields(fields(kv)).Warn(msg)
}

// Info is demoted to debug to keep lookups quiet.
func (leveledLogger) Info(msg string, kv ...interface{}) {
	utils.Log.WithFields(fields(kv)).Debug(msg)
}

func (leveledLogger) Debug(msg string, kv ...interface{}) {
	utils.Log.WithFields(fields(kv)).Debug(msg)
}
