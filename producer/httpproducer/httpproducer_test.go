package httpproducer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/require"

	"github.com/querycore/querycore/internal/apierror"
)

type widget struct {
	ID int `json:"id"`
}

func TestJSONDecodesSuccessResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":7}`))
	}))
	defer srv.Close()

	produce := JSON[widget](nil, func(ctx context.Context) (*retryablehttp.Request, error) {
		return retryablehttp.NewRequest(http.MethodGet, srv.URL, nil)
	})

	got, err := produce(context.Background())
	require.NoError(t, err)
	require.Equal(t, widget{ID: 7}, got)
}

func TestJSONClassifiesNonSuccessStatus(t *testing.T) {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.Logger = nil

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("no such widget"))
	}))
	defer srv.Close()

	produce := JSON[widget](client, func(ctx context.Context) (*retryablehttp.Request, error) {
		return retryablehttp.NewRequest(http.MethodGet, srv.URL, nil)
	})

	_, err := produce(context.Background())
	require.Error(t, err)
	var statusErr *apierror.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.Status())
	require.False(t, statusErr.Retriable())
}

func TestJSONPropagatesRequestBuildError(t *testing.T) {
	produce := JSON[widget](nil, func(ctx context.Context) (*retryablehttp.Request, error) {
		return nil, errBuild
	})
	_, err := produce(context.Background())
	require.ErrorIs(t, err, errBuild)
}

var errBuild = &buildError{}

type buildError struct{}

func (*buildError) Error() string { return "cannot build request" }
