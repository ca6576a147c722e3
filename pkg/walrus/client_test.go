package walrus

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestPutNewlyCreated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/v1/blobs", r.URL.Path)
		require.Equal(t, "5", r.URL.Query().Get("epochs"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, "%PDF-1.4 test", string(body))

		_, _ = w.Write([]byte(`{"newlyCreated":{"blobObject":{"id":"0xobj","blobId":"blob-new","size":13}}}`))
	}))
	defer server.Close()

	client, err := New(Config{PublisherURL: server.URL, AggregatorURL: "https://aggregator.example/", Epochs: 5}, zerolog.Nop())
	require.NoError(t, err)

	blobID, url, err := client.Put(context.Background(), "contract.pdf", []byte("%PDF-1.4 test"))
	require.NoError(t, err)
	require.Equal(t, "blob-new", blobID)
	require.Equal(t, "https://aggregator.example/v1/blobs/blob-new", url)
}

func TestPutAlreadyCertified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"alreadyCertified":{"blobId":"blob-old","endEpoch":42}}`))
	}))
	defer server.Close()

	client, err := New(Config{PublisherURL: server.URL}, zerolog.Nop())
	require.NoError(t, err)

	blobID, url, err := client.Put(context.Background(), "contract.pdf", []byte("x"))
	require.NoError(t, err)
	require.Equal(t, "blob-old", blobID)
	require.Empty(t, url)
}

func TestPutFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("epochs") == "1" {
			http.Error(w, "storage full", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, err := New(Config{PublisherURL: server.URL}, zerolog.Nop())
	require.NoError(t, err)
	_, _, err = client.Put(context.Background(), "a.pdf", []byte("x"))
	require.ErrorContains(t, err, "storage full")

	client, err = New(Config{PublisherURL: server.URL, Epochs: 2}, zerolog.Nop())
	require.NoError(t, err)
	_, _, err = client.Put(context.Background(), "a.pdf", []byte("x"))
	require.ErrorContains(t, err, "no blob id")

	_, err = New(Config{}, zerolog.Nop())
	require.Error(t, err)
}
