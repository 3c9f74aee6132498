package publish

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/adroit-lang/adroit/internal/ctxlog"
)

// DefaultEvent is the event name snapshots are emitted under.
const DefaultEvent = "diagnostics"

// SocketIOOptions configures a socket.io publisher.
type SocketIOOptions struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
	// ConnectTimeout bounds Dial. Defaults to 15s.
	ConnectTimeout time.Duration
}

// SocketIO emits snapshots on a connected socket.io client.
type SocketIO struct {
	client *socket.Socket
	event  string
}

var _ Publisher = (*SocketIO)(nil)

// DialSocketIO connects to a socket.io server and waits for the connection.
func DialSocketIO(ctx context.Context, opts SocketIOOptions) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("publisher", "socketio", "url", opts.URL)

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("publish URL %q needs a scheme and host", opts.URL)
	}
	if opts.Namespace == "" {
		opts.Namespace = "/"
	}
	if opts.Event == "" {
		opts.Event = DefaultEvent
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 15 * time.Second
	}

	sockOpts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		sockOpts.SetPath(parsedURL.Path)
	}
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification.")
		sockOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))
	sockOpts.SetReconnection(false)
	sockOpts.SetTimeout(opts.ConnectTimeout)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sockOpts)
	io := manager.Socket(opts.Namespace, sockOpts)

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connected <- err
	})

	logger.Debug("Connecting.")
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(opts.ConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", opts.ConnectTimeout)
	}

	logger.Info("Publisher connected.", "sid", io.Id(), "namespace", opts.Namespace)
	return &SocketIO{client: io, event: opts.Event}, nil
}

// Publish implements Publisher.
func (p *SocketIO) Publish(ctx context.Context, s Snapshot) error {
	if !p.client.Connected() {
		return fmt.Errorf("socket.io client is not connected")
	}
	data, err := s.payload()
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Publishing snapshot.", "event", p.event, "revision", s.Revision, "errors", s.Errors)
	return p.client.Emit(p.event, data)
}

// Close implements Publisher.
func (p *SocketIO) Close() error {
	p.client.Disconnect()
	return nil
}
