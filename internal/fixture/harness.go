package fixture

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/digitalocean/go-libvirt"
	"github.com/go-logr/logr"

	"github.com/jbweber/testbed/api/v1alpha1"
	"github.com/jbweber/testbed/internal/config"
	testbedlibvirt "github.com/jbweber/testbed/internal/libvirt"
	"github.com/jbweber/testbed/internal/naming"
)

// Harness builds and reaps namespaced libvirt resources over one session.
// It is not safe for concurrent use.
type Harness struct {
	session *testbedlibvirt.Session
	client  libvirtClient

	ns       naming.Namespace
	poolPath string
	log      logr.Logger

	domains  *binding[libvirt.Domain]
	pools    *binding[libvirt.StoragePool]
	networks *binding[libvirt.Network]
	ifaces   *binding[libvirt.Interface]

	nextID      uint64
	outstanding map[uint64]string
	closed      bool
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger used when the context carries none.
func WithLogger(log logr.Logger) Option {
	return func(h *Harness) {
		h.log = log
	}
}

// WithPrefix sets the namespace prefix for resource names.
func WithPrefix(prefix string) Option {
	return func(h *Harness) {
		h.ns = naming.NewNamespace(prefix)
	}
}

// WithPoolPath sets the target path for storage pools that do not set one.
func WithPoolPath(path string) Option {
	return func(h *Harness) {
		if path != "" {
			h.poolPath = path
		}
	}
}

// Open connects to the endpoint in cfg and returns a harness owning the
// session. Close disconnects it.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Harness, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	session, err := testbedlibvirt.OpenWithContext(ctx, cfg.URI, cfg.SessionOptions()...)
	if err != nil {
		return nil, err
	}

	opts = append([]Option{WithPrefix(cfg.Prefix), WithPoolPath(cfg.PoolPath)}, opts...)
	h := New(session.Libvirt(), opts...)
	h.session = session

	h.logger(ctx).V(1).Info("opened libvirt session", "uri", cfg.URI, "prefix", h.ns.Prefix())
	return h, nil
}

// New returns a harness over an existing client. *libvirt.Libvirt
// satisfies the client interface. Close on such a harness does not
// disconnect the client.
func New(client libvirtClient, opts ...Option) *Harness {
	h := &Harness{
		client:      client,
		ns:          naming.NewNamespace(""),
		poolPath:    config.Default().PoolPath,
		log:         logr.Discard(),
		domains:     domainBinding(client),
		pools:       storagePoolBinding(client),
		networks:    networkBinding(client),
		ifaces:      interfaceBinding(client),
		outstanding: make(map[uint64]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Prefix returns the namespace prefix.
func (h *Harness) Prefix() string {
	return h.ns.Prefix()
}

// Name returns the namespaced name for short.
func (h *Harness) Name(short string) string {
	return h.ns.Name(short)
}

// Session returns the owned session, or nil for a harness made with New.
func (h *Harness) Session() *testbedlibvirt.Session {
	return h.session
}

// Outstanding lists handles issued by this harness that were not released,
// as Kind/name strings in sorted order.
func (h *Harness) Outstanding() []string {
	names := make([]string, 0, len(h.outstanding))
	for _, name := range h.outstanding {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close disconnects the session. Handles still outstanding are reported
// with a *LeakError after the disconnect. A second Close returns
// ErrSessionClosed.
func (h *Harness) Close() error {
	if h.closed {
		return ErrSessionClosed
	}
	h.closed = true

	var errs []error
	if h.session != nil {
		if err := h.session.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if leaked := h.Outstanding(); len(leaked) > 0 {
		h.log.Info("closing with unreleased handles", "handles", leaked)
		errs = append(errs, &LeakError{Names: leaked})
	}
	return errors.Join(errs...)
}

// Reap tears r down and releases it. Teardown step failures are logged
// and ignored; a handle that was already released yields a *ReleaseError
// wrapping ErrReleased without any endpoint call. After Close the handle
// is released without teardown and the session error is returned.
func (h *Harness) Reap(ctx context.Context, r Resource) error {
	if err := h.usable(); err != nil && !r.Released() {
		return errors.Join(err, r.Release())
	}
	return r.reap(h.logger(ctx))
}

// ReapAll reaps resources in the order given and returns every release
// failure.
func (h *Harness) ReapAll(ctx context.Context, rs ...Resource) error {
	var errs []error
	for _, r := range rs {
		if err := h.Reap(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Activate starts a defined persistent resource.
func (h *Harness) Activate(ctx context.Context, r Resource) error {
	if err := h.usable(); err != nil {
		return err
	}
	if err := r.activate(); err != nil {
		return err
	}
	h.logger(ctx).V(1).Info("activated resource", "kind", r.Kind(), "name", r.Name())
	return nil
}

func (h *Harness) logger(ctx context.Context) logr.Logger {
	if log, err := logr.FromContext(ctx); err == nil {
		return log
	}
	return h.log
}

func (h *Harness) usable() error {
	if h.closed {
		return ErrSessionClosed
	}
	return nil
}

// track registers an issued handle and returns the func that forgets it.
func (h *Harness) track(kind v1alpha1.ResourceKind, name string) func() {
	h.nextID++
	id := h.nextID
	h.outstanding[id] = string(kind) + "/" + name
	return func() {
		delete(h.outstanding, id)
	}
}
