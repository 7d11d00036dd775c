package rest

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/vnstock-chat/internal/models"
)

func TestNewClient_RetriesServerErrorsUpToCount(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, RetryPolicy{Count: 2, Wait: time.Millisecond, MaxWait: 5 * time.Millisecond})
	resp, err := c.R().Get("/x")
	require.NoError(t, err)

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "one attempt plus two retries")
	assert.Error(t, CheckResponse("TEST", resp))
}

func TestNewClient_RetryCountIsCapped(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, RetryPolicy{Count: 50, Wait: time.Millisecond, MaxWait: 2 * time.Millisecond})
	_, err := c.R().Get("/x")
	require.NoError(t, err)

	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestNewClient_NoRetryOnClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, RetryPolicy{Count: 3, Wait: time.Millisecond, MaxWait: 2 * time.Millisecond})
	resp, err := c.R().Get("/x")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	apiErr := CheckResponse("TEST", resp)
	require.Error(t, apiErr)
	assert.True(t, errors.Is(apiErr, models.ErrSymbolNotFound), "404 should match ErrSymbolNotFound")
}

func TestNewClient_TimeoutIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 20*time.Millisecond, RetryPolicy{Count: 3, Wait: time.Millisecond, MaxWait: 2 * time.Millisecond})
	_, err := c.R().Get("/slow")
	require.Error(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCheckResponse_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, time.Second, RetryPolicy{}).R().Get("/ok")
	require.NoError(t, err)
	assert.NoError(t, CheckResponse("TEST", resp))
}
