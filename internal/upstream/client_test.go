package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anomalydash/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&config.Config{
		OriginBaseURL:     srv.URL + "/",
		OriginTimeout:     2 * time.Second,
		BypassHeader:      "ngrok-skip-browser-warning",
		BypassHeaderValue: "true",
	})
}

func TestListImages_SendsBypassHeader(t *testing.T) {
	var gotHeader string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("ngrok-skip-browser-warning")
		assert.Equal(t, "/api/anomaly-images", r.URL.Path)
		w.Write([]byte(`{"success":true,"images":[{"filename":"f1.jpg","size":10,"blockchain_match":true,"tx_data":{"folder":"A","frame":3,"error":"blur"}}],"total_count":1}`))
	})

	images, err := c.ListImages(context.Background())
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "true", gotHeader)
	assert.Equal(t, "f1.jpg", images[0].Filename)
	assert.True(t, images[0].BlockchainMatch)
	assert.Equal(t, 3, images[0].TxData.Frame)
}

func TestListImages_ServerReportedFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"images":[],"total_count":0,"error":"RPi Connection Error (Timeout)"}`))
	})

	_, err := c.ListImages(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrServerReported))
	assert.Contains(t, err.Error(), "Timeout")
}

func TestFetchImage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/image/ok.jpg":
			w.Write([]byte(`{"success":true,"image":"data:image/jpeg;base64,AAAA"}`))
		case "/api/image/missing.jpg":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"success":false,"error":"not found"}`))
		case "/api/image/garbage.jpg":
			w.Write([]byte(`{"success":true,"image":"hello"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`<html>tunnel offline</html>`))
		}
	})
	ctx := context.Background()

	payload, err := c.FetchImage(ctx, "ok.jpg")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", payload)

	_, err = c.FetchImage(ctx, "missing.jpg")
	assert.ErrorIs(t, err, ErrServerReported)

	_, err = c.FetchImage(ctx, "garbage.jpg")
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = c.FetchImage(ctx, "other.jpg")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestBlockchainData_FailureKeepsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"anomaly_count":0,"tx_logs":[],"error":"Failed to connect to the blockchain."}`))
	})

	resp, err := c.BlockchainData(context.Background())
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "Failed to connect to the blockchain.", resp.Error)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(&config.Config{OriginBaseURL: srv.URL, OriginTimeout: 50 * time.Millisecond})
	_, err := c.ListImages(context.Background())
	require.Error(t, err)
}
