// ABOUTME: SSH-tunnelled SOCKS5 dialer for reaching vCenter through a jumpbox
// ABOUTME: Parses ssh+socks5://user@host:port?private-key=/path proxy URLs

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	proxy "github.com/cloudfoundry/socks5-proxy"
)

// DialContextFunc matches http.Transport.DialContext.
type DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

// ProxySettings is a parsed VSPHERE_ALL_PROXY value.
type ProxySettings struct {
	Username   string
	Host       string
	PrivateKey string
}

// ParseAllProxy parses ssh+socks5://user@host:port?private-key=/path.
// The ssh+ prefix is optional.
func ParseAllProxy(allProxy string) (ProxySettings, error) {
	proxyURL, err := url.Parse(strings.TrimPrefix(allProxy, "ssh+"))
	if err != nil {
		return ProxySettings{}, fmt.Errorf("parsing proxy URL: %w", err)
	}
	if proxyURL.Scheme != "socks5" {
		return ProxySettings{}, fmt.Errorf("unsupported proxy scheme %q, want ssh+socks5", proxyURL.Scheme)
	}
	if proxyURL.Host == "" {
		return ProxySettings{}, errors.New("proxy URL has no host")
	}

	queryMap, err := url.ParseQuery(proxyURL.RawQuery)
	if err != nil {
		return ProxySettings{}, fmt.Errorf("parsing proxy query params: %w", err)
	}
	keyPath := queryMap.Get("private-key")
	if keyPath == "" {
		return ProxySettings{}, errors.New("proxy URL missing required 'private-key' query param")
	}

	settings := ProxySettings{Host: proxyURL.Host, PrivateKey: keyPath}
	if proxyURL.User != nil {
		settings.Username = proxyURL.User.Username()
	}
	return settings, nil
}

// NewProxyDialContext returns a dial function that tunnels through the
// jumpbox in allProxy. The SSH connection is opened on first use.
func NewProxyDialContext(allProxy string) (DialContextFunc, error) {
	settings, err := ParseAllProxy(allProxy)
	if err != nil {
		return nil, err
	}

	keyPath, err := ValidateSSHKeyPath(settings.PrivateKey)
	if err != nil {
		return nil, err
	}
	privateKey, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("reading SSH private key %s: %w", keyPath, err)
	}

	socks5Proxy := proxy.NewSocks5Proxy(proxy.NewHostKey(), log.Default(), 1*time.Minute)

	var (
		dialer proxy.DialFunc
		mut    sync.RWMutex
	)

	return func(ctx context.Context, network, address string) (net.Conn, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		mut.RLock()
		haveDialer := dialer != nil
		mut.RUnlock()

		if haveDialer {
			return dialer(network, address)
		}

		mut.Lock()
		defer mut.Unlock()
		if dialer == nil {
			proxyDialer, err := socks5Proxy.Dialer(settings.Username, string(privateKey), settings.Host)
			if err != nil {
				return nil, fmt.Errorf("error creating SOCKS5 dialer: %w", err)
			}
			dialer = proxyDialer
		}
		return dialer(network, address)
	}, nil
}

// ValidateSSHKeyPath rejects key paths containing "..", even percent-encoded,
// and paths that are not regular files. It returns the absolute path.
func ValidateSSHKeyPath(path string) (string, error) {
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("invalid SSH key path %q: %w", path, err)
	}
	if slices.Contains(strings.Split(filepath.ToSlash(decoded), "/"), "..") {
		return "", fmt.Errorf("SSH key path %q must not contain '..'", path)
	}

	abs, err := filepath.Abs(decoded)
	if err != nil {
		return "", fmt.Errorf("resolving SSH key path %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("SSH key %q: %w", abs, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("SSH key %q is not a regular file", abs)
	}
	return abs, nil
}
