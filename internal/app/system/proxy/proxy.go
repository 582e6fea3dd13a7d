// internal/app/system/proxy/proxy.go
package proxy

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// New returns a reverse proxy to target. The request path is appended to
// the target path. Any inbound Authorization header is dropped; when token
// is set, Authorization: Bearer <token> is sent upstream instead.
//
// An unreachable upstream yields 502 with "remote <target> unreachable". A
// request body cut off by http.MaxBytesReader yields 413.
func New(target string, token string, logger *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse proxy target %q: %w", target, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("proxy target %q must be an absolute URL", target)
	}

	var transport http.RoundTripper = http.DefaultTransport
	if token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   http.DefaultTransport,
		}
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
			pr.Out.Header.Del("Authorization")
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				logger.Warn("proxy request body over limit",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Int64("max_bytes", tooLarge.Limit))
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			logger.Error("proxy upstream failed",
				zap.String("target", u.String()),
				zap.String("path", r.URL.Path),
				zap.Error(err))
			http.Error(w, fmt.Sprintf("remote %s unreachable", u), http.StatusBadGateway)
		},
	}, nil
}
