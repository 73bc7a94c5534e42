package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0"

// maxResponseBytes caps how much of an upstream response is read.
const maxResponseBytes = 4 << 20

// NewHTTPClient builds the shared client used by all adapters. When
// socksProxyURL is non-empty, outbound requests are dialed through that
// SOCKS5 proxy.
func NewHTTPClient(socksProxyURL string, timeout time.Duration) (*http.Client, error) {
	transport := &http.Transport{
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
	}

	if socksProxyURL != "" {
		dialer, err := proxy.SOCKS5("tcp", socksProxyURL, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

// fetch performs one upstream request and returns the response body,
// mapping transport failures and status codes onto the engine error
// taxonomy. 403 and 429 are treated as the provider blocking us.
func fetch(ctx context.Context, client *http.Client, engineName string, req *http.Request) ([]byte, *Error) {
	req = req.WithContext(ctx)
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewError(engineName, KindTimeout, err)
		}
		return nil, NewError(engineName, KindTransport, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewError(engineName, KindBlocked, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, NewError(engineName, KindTransport, fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewError(engineName, KindTimeout, err)
		}
		return nil, NewError(engineName, KindTransport, err)
	}

	return body, nil
}
