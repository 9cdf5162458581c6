package network

import (
	"musegate/sources/configuration"
	"musegate/sources/tracing"

	"golang.org/x/net/proxy"
)

// NewProxyDialer builds the outbound dialer. Provider APIs are reached
// through a SOCKS5 proxy when one is configured; otherwise connections go
// direct.
func NewProxyDialer(config *configuration.Config, log *tracing.Logger) proxy.Dialer {
	if config.Network.ProxyAddress == "" {
		return proxy.Direct
	}

	var auth *proxy.Auth
	if config.Network.ProxyUser != "" {
		auth = &proxy.Auth{User: config.Network.ProxyUser, Password: config.Network.ProxyPass}
	}

	dialer, err := proxy.SOCKS5("tcp", config.Network.ProxyAddress, auth, proxy.Direct)
	if err != nil {
		log.F("Failed to create proxy dialer", tracing.InnerError, err, tracing.ProxyUrl, config.Network.ProxyAddress)
	}

	log.I("Outbound traffic proxied", tracing.ProxyUrl, config.Network.ProxyAddress)
	return dialer
}
