package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	xhttp "PlayerCast/pkg/http"
)

// HTTPServiceBase holds the client and base URL shared by remote model backends.
type HTTPServiceBase struct {
	baseURL string
	client  *xhttp.Client
	retries int
}

// NewHTTPServiceBase builds an HTTP client with timeout and base URL.
// retries is the number of extra attempts after a failed call.
func NewHTTPServiceBase(baseURL string, timeout time.Duration, retries int) *HTTPServiceBase {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	return &HTTPServiceBase{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		retries: retries,
	}
}

// PostJSON posts the given payload to `path` under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return errors.New("model http client not initialized")
	}
	err := b.client.DoJSON(ctx, xhttp.MethodPost, b.baseURL+path, payload, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

// PostJSONWithRetry retries PostJSON with linear backoff. Client errors other
// than 429 are returned at once.
func (b *HTTPServiceBase) PostJSONWithRetry(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	var err error
	for i := 0; i <= b.retries; i++ {
		if i > 0 {
			select {
			case <-time.After(time.Duration(i) * 50 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err = b.PostJSON(ctx, path, payload, dest)
		if err == nil {
			return nil
		}
		var se *xhttp.StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return err
		}
	}
	return err
}
