package ngrok

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	ngrok "golang.ngrok.com/ngrok"
	"golang.ngrok.com/ngrok/config"
)

var ErrMissingLocalAddr = errors.New("ngrok local address is required")

const connectAttempts = 3

// Options describe how the local control server is published.
type Options struct {
	LocalAddr     string
	Authtoken     string
	Region        string
	Domain        string
	BasicAuthUser string
	BasicAuthPass string
}

// Tunnel forwards a public ngrok endpoint to the local control server.
type Tunnel struct {
	forwarder ngrok.Forwarder
}

func (o Options) backend() (*url.URL, error) {
	if o.LocalAddr == "" {
		return nil, ErrMissingLocalAddr
	}
	backend, err := url.Parse(o.LocalAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid local address %q: %w", o.LocalAddr, err)
	}
	if backend.Scheme == "" || backend.Host == "" {
		return nil, fmt.Errorf("invalid local address %q: scheme and host are required", o.LocalAddr)
	}
	return backend, nil
}

func (o Options) endpoint() []config.HTTPEndpointOption {
	var opts []config.HTTPEndpointOption
	if o.Domain != "" {
		opts = append(opts, config.WithDomain(o.Domain))
	}
	// Basic auth is only enabled when both credentials are set.
	if o.BasicAuthUser != "" && o.BasicAuthPass != "" {
		opts = append(opts, config.WithBasicAuth(o.BasicAuthUser, o.BasicAuthPass))
	}
	return opts
}

func (o Options) connect() []ngrok.ConnectOption {
	var opts []ngrok.ConnectOption
	if o.Authtoken != "" {
		opts = append(opts, ngrok.WithAuthtoken(o.Authtoken))
	}
	if o.Region != "" {
		opts = append(opts, ngrok.WithRegion(o.Region))
	}
	return opts
}

// Start opens the tunnel, the session is retried a few times before giving up.
func Start(ctx context.Context, opts Options, logger *slog.Logger) (*Tunnel, error) {
	backend, err := opts.backend()
	if err != nil {
		return nil, err
	}

	var fwd ngrok.Forwarder
	err = retry.Do(
		func() error {
			var err error
			fwd, err = ngrok.ListenAndForward(ctx, backend, config.HTTPEndpoint(opts.endpoint()...), opts.connect()...)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(connectAttempts),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("ngrok tunnel failed to start, retrying", slog.Int("attempt", int(n)+1), slog.Any("error", err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("error starting ngrok tunnel: %w", err)
	}

	return &Tunnel{forwarder: fwd}, nil
}

func (t *Tunnel) URL() string {
	if t == nil || t.forwarder == nil {
		return ""
	}
	return t.forwarder.URL()
}

func (t *Tunnel) Close() error {
	if t == nil || t.forwarder == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return t.forwarder.CloseWithContext(ctx)
}
