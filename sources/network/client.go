package network

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"runtime"
	"time"
	"musegate/sources/configuration"
	"musegate/sources/tracing"

	"golang.org/x/net/proxy"
)

func NewHTTPClient(dialer proxy.Dialer, config *configuration.Config, log *tracing.Logger) *http.Client {
	dc := func(ctx context.Context, network, address string) (net.Conn, error) {
		return dialer.Dial(network, address)
	}

	timeout := time.Duration(config.Network.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dc,
			MaxIdleConns:          20,
			IdleConnTimeout:       10 * time.Minute,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 5 * time.Second,
			MaxIdleConnsPerHost:   runtime.GOMAXPROCS(0) + 1,
			OnProxyConnectResponse: func(ctx context.Context, proxyURL *url.URL, connectReq *http.Request, connectRes *http.Response) error {
				log.I("Connected to proxy", tracing.ProxyUrl, proxyURL.String(), tracing.ProxyRes, connectRes.Status)
				return nil
			},
		},
	}
}
