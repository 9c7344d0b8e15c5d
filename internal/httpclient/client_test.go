package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aleister1102/faleproxy/internal/common/errorwrapper"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Do(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-value", r.Header.Get("X-Test-Header"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithUserAgent("test-agent").Build()
	require.NoError(t, err)

	resp, err := client.Do(&HTTPRequest{
		URL:    server.URL,
		Method: "GET",
		Headers: map[string]string{
			"X-Test-Header": "test-value",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"status":"ok"}`, string(resp.Body))
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
}

func TestHTTPClient_Do_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, `{"key":"value"}`, string(body))
		_, _ = w.Write([]byte(`{"received":true}`))
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).Build()
	require.NoError(t, err)

	resp, err := client.Do(&HTTPRequest{
		URL:     server.URL,
		Method:  "POST",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    bytes.NewReader([]byte(`{"key":"value"}`)),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"received":true}`, string(resp.Body))
}

func TestHTTPClient_CustomHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en-GB", r.Header.Get("Accept-Language"))
		assert.Equal(t, "yes", r.Header.Get("X-Extra"))
		assert.Contains(t, r.Header.Get("Accept"), "text/html")
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).
		WithCustomHeaders(map[string]string{"Accept-Language": "en-GB", "X-Extra": "yes"}).
		Build()
	require.NoError(t, err)

	_, err = client.Do(&HTTPRequest{URL: server.URL})
	require.NoError(t, err)
}

func TestHTTPClient_Redirects(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/redirect":
			http.Redirect(w, r, "/final", http.StatusFound)
		case "/final":
			fmt.Fprint(w, "ok")
		}
	}))
	defer ts.Close()

	clientFollow, err := NewHTTPClientBuilder(zerolog.Nop()).WithFollowRedirects(true).Build()
	require.NoError(t, err)
	req := &HTTPRequest{URL: ts.URL + "/redirect", Method: "GET"}
	resp, err := clientFollow.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, ts.URL+"/final", resp.FinalURL)

	clientNoFollow, err := NewHTTPClientBuilder(zerolog.Nop()).WithFollowRedirects(false).Build()
	require.NoError(t, err)
	resp, err = clientNoFollow.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestHTTPClient_MaxRedirects(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer ts.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithMaxRedirects(2).Build()
	require.NoError(t, err)

	_, err = client.Do(&HTTPRequest{URL: ts.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped after 2 redirects")
}

func TestHTTPClient_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).Build()
	require.NoError(t, err)

	_, err = client.Do(&HTTPRequest{URL: url})
	require.Error(t, err)

	var netErr *errorwrapper.NetworkError
	assert.True(t, errors.As(err, &netErr))
	assert.Equal(t, url, netErr.URL)
}

func TestHTTPClient_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).Build()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Do(&HTTPRequest{URL: ts.URL, Context: ctx})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPClient_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithTimeout(50 * time.Millisecond).Build()
	require.NoError(t, err)

	_, err = client.Do(&HTTPRequest{URL: ts.URL})
	assert.Error(t, err)
}

func TestHTTPClient_FetchContent_Simple(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<p>some content</p>"))
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).Build()
	require.NoError(t, err)

	result, err := client.FetchContent(FetchContentInput{URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.HTTPStatusCode)
	assert.Equal(t, "<p>some content</p>", string(result.Content))
	assert.Equal(t, "text/html; charset=utf-8", result.ContentType)
	assert.Equal(t, server.URL, result.FinalURL)
}

func TestHTTPClient_FetchContent_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).Build()
	require.NoError(t, err)

	result, err := client.FetchContent(FetchContentInput{URL: server.URL})
	require.Error(t, err)

	var statusErr *errorwrapper.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, server.URL, statusErr.URL)
	assert.ErrorIs(t, err, errorwrapper.ErrUpstreamStatus)
	require.NotNil(t, result)
	assert.Len(t, result.Content, 1024)
}

func TestHTTPClient_FetchContent_MaxSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is some very long content"))
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithMaxContentSize(10).Build()
	require.NoError(t, err)

	_, err = client.FetchContent(FetchContentInput{URL: server.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, errorwrapper.ErrContentTooLarge)
}

func TestHTTPClient_FetchContent_ExactlyMaxSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithMaxContentSize(10).Build()
	require.NoError(t, err)

	result, err := client.FetchContent(FetchContentInput{URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(result.Content))
}
