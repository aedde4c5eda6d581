package extraction

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		io.WriteString(w, `{"status":"ok","message":"API funcionando corretamente","anthropic_configured":true}`)
	}))
	defer ts.Close()

	h, err := newTestClient(ts).Health(context.Background())
	require.NoError(t, err)
	assert.True(t, h.OK())
	assert.True(t, h.AnthropicConfigured)
	assert.Equal(t, "API funcionando corretamente", h.Message)
}

func TestHealth_BadStatus(t *testing.T) {
	ts := serve(t, http.StatusInternalServerError, `{}`)

	_, err := newTestClient(ts).Health(context.Background())
	assert.Error(t, err)
}

func TestWaitHealthy_EventuallyOK(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"status":"ok"}`)
	}))
	defer ts.Close()

	h, err := newTestClient(ts).WaitHealthy(context.Background(), 5, time.Millisecond)
	require.NoError(t, err)
	assert.True(t, h.OK())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWaitHealthy_GivesUp(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		io.WriteString(w, `{"status":"degraded","message":"ANTHROPIC_API_KEY não configurada"}`)
	}))
	defer ts.Close()

	h, err := newTestClient(ts).WaitHealthy(context.Background(), 2, time.Millisecond)
	require.Error(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "degraded", h.Status)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
