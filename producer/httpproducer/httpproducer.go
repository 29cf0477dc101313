// Package httpproducer builds querycore.Producer functions from HTTP
// requests — the concrete rendering of spec.md §1's "an opaque,
// asynchronous value-producing function... typically HTTP endpoints."
//
// It is built on github.com/hashicorp/go-retryablehttp, a direct
// dependency of the teacher repository, and classifies non-2xx responses
// through internal/apierror.
package httpproducer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/querycore/querycore/internal/apierror"
)

// RequestFunc builds the request to issue for a given production. It is
// called once per production; retries performed internally by the
// retryablehttp client reuse the request it returned. It receives ctx so
// cancellation of the Refetch that triggered the production is honored.
type RequestFunc func(ctx context.Context) (*retryablehttp.Request, error)

// JSON returns a querycore.Producer[T] that issues the request built by
// reqFn using client, and decodes a 2xx JSON body into T. A non-2xx
// response is turned into an *apierror.StatusError carrying the response's
// status code.
func JSON[T any](client *retryablehttp.Client, reqFn RequestFunc) func(ctx context.Context) (T, error) {
	if client == nil {
		client = retryablehttp.NewClient()
	}
	return func(ctx context.Context) (T, error) {
		var zero T

		req, err := reqFn(ctx)
		if err != nil {
			return zero, err
		}
		req = req.WithContext(ctx)
		if req.Header.Get("Accept") == "" {
			req.Header.Set("Accept", "application/json")
		}

		resp, err := client.Do(req)
		if err != nil {
			return zero, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return zero, err
		}

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return zero, apierror.Classify(resp.StatusCode, body)
		}

		var val T
		if err := json.Unmarshal(body, &val); err != nil {
			return zero, err
		}
		return val, nil
	}
}
