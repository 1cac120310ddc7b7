// Package network provides the shared HTTP client used for media server communication.
package network

import (
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/samber/lo"
	"golang.org/x/net/publicsuffix"
)

// Client is the HTTP client shared across the application.
// It carries no overall timeout: report calls are fire-and-forget and a slow one only delays itself.
var Client = &http.Client{
	Transport: newTransport(),
	Jar:       lo.Must(cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})),
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 16
	t.MaxIdleConnsPerHost = 8
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	return t
}
