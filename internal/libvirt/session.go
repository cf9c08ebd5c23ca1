package libvirt

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/digitalocean/go-libvirt"
	"github.com/digitalocean/go-libvirt/socket"
	"github.com/digitalocean/go-libvirt/socket/dialers"
)

const (
	// DefaultSocket is the local libvirtd socket.
	DefaultSocket = "/var/run/libvirt/libvirt-sock"
	// DefaultTimeout bounds dialing the endpoint.
	DefaultTimeout = 5 * time.Second
	// TestURI selects libvirt's built-in test driver.
	TestURI = "test:///default"
)

// Session is an open connection to a libvirt management endpoint.
// A Session must be closed exactly once and is invalid after Close.
type Session struct {
	uri     string
	libvirt *libvirt.Libvirt
	closed  bool
}

type options struct {
	socket  string
	timeout time.Duration
}

// Option configures how Open dials the endpoint.
type Option func(*options)

// WithSocket sets the local unix socket used for local URIs.
func WithSocket(path string) Option {
	return func(o *options) {
		if path != "" {
			o.socket = path
		}
	}
}

// WithTimeout sets the dial timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// Open establishes a session to the endpoint identified by uri.
//
// Local URIs (test:///default, qemu:///system, qemu:///session) are reached
// through the libvirtd unix socket. URIs with a +tcp transport
// (qemu+tcp://host:16509/system) are reached over TCP. Failures are
// returned as *ConnectionError; nothing is retried.
func Open(uri string, opts ...Option) (*Session, error) {
	o := options{socket: DefaultSocket, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	dialer, driverURI, err := endpointDialer(uri, o)
	if err != nil {
		return nil, newConnectionError(uri, "open", err)
	}

	l := libvirt.NewWithDialer(dialer)
	if err := l.ConnectToURI(libvirt.ConnectURI(driverURI)); err != nil {
		return nil, newConnectionError(uri, "open", err)
	}

	return &Session{uri: uri, libvirt: l}, nil
}

// OpenWithContext is Open with cancellation of the wait for the dial.
func OpenWithContext(ctx context.Context, uri string, opts ...Option) (*Session, error) {
	type result struct {
		session *Session
		err     error
	}
	resultCh := make(chan result, 1)

	go func() {
		s, err := Open(uri, opts...)
		resultCh <- result{session: s, err: err}
	}()

	select {
	case <-ctx.Done():
		// Close a session that completes after the caller gave up.
		go func() {
			if res := <-resultCh; res.session != nil {
				_ = res.session.Close()
			}
		}()
		return nil, newConnectionError(uri, "open", fmt.Errorf("connection cancelled: %w", ctx.Err()))
	case res := <-resultCh:
		return res.session, res.err
	}
}

// endpointDialer picks a socket dialer for uri and returns the driver URI
// to request once connected.
func endpointDialer(uri string, o options) (socket.Dialer, string, error) {
	if uri == "" {
		return nil, "", fmt.Errorf("endpoint URI is required")
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, "", fmt.Errorf("invalid endpoint URI %q: %w", uri, err)
	}
	if u.Scheme == "" {
		return nil, "", fmt.Errorf("endpoint URI %q has no scheme", uri)
	}

	driver, transport, _ := strings.Cut(u.Scheme, "+")
	switch transport {
	case "", "unix":
		if u.Host != "" && transport == "" {
			return nil, "", fmt.Errorf("endpoint URI %q names a host but no transport; use %s+tcp://", uri, driver)
		}
		local := dialers.NewLocal(
			dialers.WithSocket(o.socket),
			dialers.WithLocalTimeout(o.timeout),
		)
		return local, driver + "://" + u.Path, nil
	case "tcp":
		if u.Hostname() == "" {
			return nil, "", fmt.Errorf("endpoint URI %q has no host", uri)
		}
		remoteOpts := []dialers.RemoteOption{dialers.WithRemoteTimeout(o.timeout)}
		if port := u.Port(); port != "" {
			remoteOpts = append(remoteOpts, dialers.UsePort(port))
		}
		return dialers.NewRemote(u.Hostname(), remoteOpts...), driver + "://" + u.Path, nil
	default:
		return nil, "", fmt.Errorf("unsupported transport %q in endpoint URI %q", transport, uri)
	}
}

// Close disconnects from the endpoint. A second Close returns
// ErrSessionClosed.
func (s *Session) Close() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true

	if s.libvirt == nil {
		return nil
	}
	if err := s.libvirt.Disconnect(); err != nil {
		return newConnectionError(s.uri, "close", err)
	}
	return nil
}

// URI returns the endpoint URI the session was opened with.
func (s *Session) URI() string {
	return s.uri
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.closed
}

// Libvirt returns the underlying go-libvirt client for direct API access.
func (s *Session) Libvirt() *libvirt.Libvirt {
	return s.libvirt
}

// Ping verifies the connection is still alive.
func (s *Session) Ping() error {
	if err := s.usable(); err != nil {
		return err
	}
	if _, err := s.libvirt.ConnectGetLibVersion(); err != nil {
		return fmt.Errorf("libvirt connection is dead: %w", err)
	}
	return nil
}

// Version is a decoded libvirt library version.
type Version struct {
	Major, Minor, Patch uint64
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// DecodeVersion splits libvirt's packed version number (8006000 for 8.6.0).
func DecodeVersion(packed uint64) Version {
	return Version{
		Major: packed / 1000000,
		Minor: (packed % 1000000) / 1000,
		Patch: packed % 1000,
	}
}

// Version returns the libvirt library version of the endpoint.
func (s *Session) Version() (Version, error) {
	if err := s.usable(); err != nil {
		return Version{}, err
	}
	packed, err := s.libvirt.ConnectGetLibVersion()
	if err != nil {
		return Version{}, fmt.Errorf("failed to get libvirt version: %w", err)
	}
	return DecodeVersion(packed), nil
}

// Hostname returns the hypervisor host name.
func (s *Session) Hostname() (string, error) {
	if err := s.usable(); err != nil {
		return "", err
	}
	hostname, err := s.libvirt.ConnectGetHostname()
	if err != nil {
		return "", fmt.Errorf("failed to get hostname: %w", err)
	}
	return hostname, nil
}

func (s *Session) usable() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.libvirt == nil {
		return fmt.Errorf("session not connected")
	}
	return nil
}
