package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/aleister1102/faleproxy/internal/common/errorwrapper"
	"github.com/aleister1102/faleproxy/internal/logger"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// errorBodyLimit caps how much of a non-2xx body is kept for diagnostics.
const errorBodyLimit = 1024

// HTTPClient fetches upstream pages. It is safe for concurrent use.
type HTTPClient struct {
	client     *http.Client
	config     HTTPClientConfig
	logger     zerolog.Logger
	bufferPool sync.Pool
}

// NewHTTPClient builds the transport, proxy and redirect policy described by cfg.
func NewHTTPClient(cfg HTTPClientConfig, zLogger zerolog.Logger) (*HTTPClient, error) {
	log := logger.Component(zLogger, "HTTPClient")

	transport, err := newTransport(cfg, log)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Dur("timeout", cfg.Timeout).
		Bool("follow_redirects", cfg.FollowRedirects).
		Int("max_redirects", cfg.MaxRedirects).
		Int("max_content_size", cfg.MaxContentSize).
		Bool("http2_enabled", cfg.EnableHTTP2).
		Msg("HTTP client created")

	return &HTTPClient{
		client: &http.Client{
			Transport:     transport,
			Timeout:       cfg.Timeout,
			CheckRedirect: redirectPolicy(cfg),
		},
		config: cfg,
		logger: log,
		bufferPool: sync.Pool{
			New: func() any {
				b := make([]byte, 0, 32*1024)
				return &b
			},
		},
	}, nil
}

func newTransport(cfg HTTPClientConfig, log zerolog.Logger) (*http.Transport, error) {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout: cfg.ExpectContinueTimeout,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
	}

	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, errorwrapper.WrapError(err, "failed to parse proxy URL")
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		log.Info().Str("proxy", proxyURL.Redacted()).Msg("Routing upstream fetches through proxy")
	}

	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			log.Warn().Err(err).Msg("HTTP/2 unavailable, using HTTP/1.1")
		}
	}
	return transport, nil
}

// redirectPolicy returns nil (the net/http default of 10) when MaxRedirects is unset.
func redirectPolicy(cfg HTTPClientConfig) func(*http.Request, []*http.Request) error {
	switch {
	case !cfg.FollowRedirects:
		return func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	case cfg.MaxRedirects > 0:
		return func(_ *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		}
	default:
		return nil
	}
}

// Do sends req and reads the whole body, subject to MaxContentSize.
// Transport failures are returned as *errorwrapper.NetworkError.
func (c *HTTPClient) Do(req *HTTPRequest) (*HTTPResponse, error) {
	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, req.Body)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to create HTTP request")
	}
	c.setHeaders(httpReq, req.Headers)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errorwrapper.NewNetworkError(req.URL, err)
	}
	defer resp.Body.Close()

	body, err := c.readBody(resp.Body)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to read response body from '"+req.URL+"'")
	}

	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	return &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       body,
		FinalURL:   resp.Request.URL.String(),
	}, nil
}

// setHeaders applies configured headers, then per-request ones. A configured
// User-Agent always wins.
func (c *HTTPClient) setHeaders(httpReq *http.Request, extra map[string]string) {
	for key, value := range c.config.CustomHeaders {
		httpReq.Header.Set(key, value)
	}
	for key, value := range extra {
		httpReq.Header.Set(key, value)
	}
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}
}

// readBody drains body through a pooled buffer. A body larger than
// MaxContentSize fails with ErrContentTooLarge instead of being truncated.
func (c *HTTPClient) readBody(body io.Reader) ([]byte, error) {
	bufPtr := c.bufferPool.Get().(*[]byte)
	buf := bytes.NewBuffer((*bufPtr)[:0])
	defer func() {
		*bufPtr = buf.Bytes()[:0]
		c.bufferPool.Put(bufPtr)
	}()

	limit := c.config.MaxContentSize
	reader := body
	if limit > 0 {
		reader = io.LimitReader(body, int64(limit)+1)
	}
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, err
	}
	if limit > 0 && buf.Len() > limit {
		return nil, errorwrapper.WrapError(errorwrapper.ErrContentTooLarge,
			fmt.Sprintf("body exceeds %d bytes", limit))
	}

	return bytes.Clone(buf.Bytes()), nil
}

// FetchContentInput holds parameters for FetchContent.
type FetchContentInput struct {
	URL     string
	Context context.Context
}

// FetchContentResult holds results from FetchContent.
type FetchContentResult struct {
	Content        []byte
	ContentType    string
	FinalURL       string
	HTTPStatusCode int
}

// FetchContent GETs input.URL once. A status outside 2xx is returned as an
// *errorwrapper.StatusError together with a result holding the first
// kilobyte of the body.
func (c *HTTPClient) FetchContent(input FetchContentInput) (*FetchContentResult, error) {
	resp, err := c.Do(&HTTPRequest{URL: input.URL, Method: http.MethodGet, Context: input.Context})
	if err != nil {
		c.logger.Error().Err(err).Str("url", input.URL).Msg("Upstream request failed")
		return nil, err
	}

	result := &FetchContentResult{
		Content:        resp.Body,
		ContentType:    resp.Headers["Content-Type"],
		FinalURL:       resp.FinalURL,
		HTTPStatusCode: resp.StatusCode,
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().Str("url", input.URL).Int("status_code", resp.StatusCode).Msg("Upstream returned non-2xx status")
		if len(result.Content) > errorBodyLimit {
			result.Content = result.Content[:errorBodyLimit]
		}
		return result, errorwrapper.NewStatusError(input.URL, resp.StatusCode)
	}

	c.logger.Debug().
		Str("url", input.URL).
		Str("final_url", result.FinalURL).
		Int("content_size", len(result.Content)).
		Str("content_type", result.ContentType).
		Msg("Upstream page fetched")
	return result, nil
}
