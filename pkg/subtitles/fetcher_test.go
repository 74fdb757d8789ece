package subtitles_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tubewise/tubewise/pkg/subtitles"
)

const transcriptXML = `<?xml version="1.0" encoding="utf-8"?>
<transcript>
	<text start="0.0" dur="2.5">Welcome to the channel</text>
	<text start="2.5" dur="3.0">today we talk about chunking</text>
	<text start="5.5" dur="1.5">  </text>
	<text start="7.0" dur="2.0">and overlap</text>
</transcript>`

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "vid42", r.URL.Query().Get("v"))
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		fmt.Fprint(w, transcriptXML)
	}))
	defer server.Close()

	fetcher := subtitles.NewWithConfig(subtitles.FetcherConfig{
		BaseURL:   server.URL,
		RateLimit: 1000,
	})

	segments, err := fetcher.Fetch(context.Background(), "vid42", nil)
	require.NoError(t, err)
	require.Len(t, segments, 3) // blank cue dropped

	assert.Equal(t, "Welcome to the channel", segments[0].Text)
	assert.Equal(t, 0.0, segments[0].StartSec)
	assert.Equal(t, 2.5, segments[0].DurSec)
	assert.Equal(t, "and overlap", segments[2].Text)
	assert.Equal(t, 7.0, segments[2].StartSec)

	assert.Equal(t,
		"Welcome to the channel today we talk about chunking and overlap",
		subtitles.Text(segments))
}

func TestFetchLanguageFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lang") == "de" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, transcriptXML)
	}))
	defer server.Close()

	fetcher := subtitles.NewWithConfig(subtitles.FetcherConfig{
		BaseURL:   server.URL,
		RateLimit: 1000,
	})

	segments, err := fetcher.Fetch(context.Background(), "vid42", []string{"de", "en"})
	require.NoError(t, err)
	assert.Len(t, segments, 3)
}

func TestFetchNoTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher := subtitles.NewWithConfig(subtitles.FetcherConfig{
		BaseURL:   server.URL,
		RateLimit: 1000,
	})

	_, err := fetcher.Fetch(context.Background(), "vid42", nil)
	assert.ErrorIs(t, err, subtitles.ErrNoTranscript)
}

func TestFetchRetriesTransientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, transcriptXML)
	}))
	defer server.Close()

	fetcher := subtitles.NewWithConfig(subtitles.FetcherConfig{
		BaseURL:   server.URL,
		RateLimit: 1000,
		Retries:   3,
	})

	segments, err := fetcher.Fetch(context.Background(), "vid42", nil)
	require.NoError(t, err)
	assert.Len(t, segments, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
