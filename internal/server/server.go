// Package server serves the contact book over HTTP: the page with the form,
// list and toasts, the form and delete POST endpoints, a small JSON API and a
// WebSocket that pushes toasts and list changes to open pages.
package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/conneroisu/contactbook/internal/config"
	"github.com/conneroisu/contactbook/internal/contact"
	"github.com/conneroisu/contactbook/internal/errors"
	"github.com/conneroisu/contactbook/internal/form"
	"github.com/conneroisu/contactbook/internal/list"
	"github.com/conneroisu/contactbook/internal/logging"
	"github.com/conneroisu/contactbook/internal/notify"
	"github.com/conneroisu/contactbook/internal/store"
	"github.com/conneroisu/contactbook/internal/websocket"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// MissingContactMessage is the warning shown when a delete targets a contact
// that is already gone.
const MissingContactMessage = "That contact is no longer in contacts."

// ContactServer owns the contact store and wires the form, list, toast center
// and WebSocket hub around it.
type ContactServer struct {
	config *config.Config
	logger logging.Logger

	store  *store.Memory
	toasts *notify.Center
	hub    *websocket.Hub
	form   *form.Form
	list   *list.List

	// submitMu makes snapshot-then-add atomic across requests.
	submitMu sync.Mutex

	httpServer   *http.Server
	listener     net.Listener
	serverMutex  sync.RWMutex
	unsubscribe  []func()
	shutdownOnce sync.Once
	shutdownErr  error
}

// Option configures a ContactServer.
type Option func(*options)

type options struct {
	ids    contact.IDGenerator
	toasts *notify.Center
}

// WithIDGenerator replaces the UUID generator used for new contacts.
func WithIDGenerator(gen contact.IDGenerator) Option {
	return func(o *options) {
		o.ids = gen
	}
}

// WithNotifyCenter supplies the toast center, for example one with a fake
// clock.
func WithNotifyCenter(center *notify.Center) Option {
	return func(o *options) {
		o.toasts = center
	}
}

// New creates a server around st.
func New(cfg *config.Config, st *store.Memory, logger logging.Logger, opts ...Option) *ContactServer {
	o := &options{ids: contact.UUIDGenerator{}}
	for _, opt := range opts {
		opt(o)
	}
	if o.toasts == nil {
		o.toasts = notify.NewCenter(cfg.Notifications.AutoClose)
	}

	logger = logger.WithComponent("server")

	s := &ContactServer{
		config: cfg,
		logger: logger,
		store:  st,
		toasts: o.toasts,
		hub:    websocket.NewHub(logger, originPatterns(cfg.Server.AllowedOrigins)),
	}

	s.form = form.New(s.addContact, s.toasts,
		form.WithIDGenerator(o.ids),
		form.WithLogger(logger),
	)
	s.list = list.New(s.deleteContact)

	s.unsubscribe = append(s.unsubscribe,
		st.Subscribe(func(change store.Change) {
			s.hub.Broadcast(websocket.ContactsChangedEvent(change.Count))
		}),
		s.toasts.Subscribe(func(t notify.Toast) {
			s.hub.Broadcast(websocket.ToastEvent(t))
		}),
	)

	return s
}

// addContact is the form's owner callback.
func (s *ContactServer) addContact(c contact.Contact) {
	if err := s.store.Add(c); err != nil {
		s.logger.Error(context.Background(), err, "Failed to store contact", "id", c.ID)
	}
}

// deleteContact is the list's owner callback.
func (s *ContactServer) deleteContact(id string) {
	if err := s.store.Delete(id); err != nil {
		if errors.IsNotFound(err) {
			s.logger.Warn(context.Background(), err, "Delete of unknown contact", "id", id)
			s.toasts.Warn(MissingContactMessage)
			return
		}
		s.logger.Error(context.Background(), err, "Failed to delete contact", "id", id)
		return
	}
	s.logger.Info(context.Background(), "Contact deleted", "id", id)
}

// Handler returns the full middleware-wrapped router.
func (s *ContactServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /contacts", s.handleSubmit)
	mux.HandleFunc("POST /contacts/{id}/delete", s.handleDelete)
	mux.HandleFunc("GET /api/contacts", s.handleAPIContacts)
	mux.HandleFunc("GET /api/toasts", s.handleAPIToasts)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /ws", s.hub)
	mux.Handle("GET /static/", staticHandler())

	secured := SecurityMiddleware(SecurityConfigFromAppConfig(s.config, s.logger))(mux)
	return RequestLogger(s.logger)(secured)
}

// SetAutoClose changes how long future toasts stay visible.
func (s *ContactServer) SetAutoClose(d time.Duration) {
	s.toasts.SetAutoClose(d)
	s.logger.Info(context.Background(), "Toast auto-close updated", "auto_close", d.String())
}

// Addr returns the bound listen address once Start is serving.
func (s *ContactServer) Addr() string {
	s.serverMutex.RLock()
	defer s.serverMutex.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down.
func (s *ContactServer) Start(ctx context.Context) error {
	addr := s.config.Server.Address()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeListenFailed, "failed to listen on "+addr, err)
	}

	s.serverMutex.Lock()
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Contact book listening", "addr", ln.Addr().String(), "environment", s.config.Server.Environment)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return errors.NewInternalError(errors.ErrCodeInternalError, "server error", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown gracefully shuts down the server and cleans up resources
func (s *ContactServer) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")

		for _, unsubscribe := range s.unsubscribe {
			unsubscribe()
		}

		if err := s.hub.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, err, "WebSocket hub did not stop in time")
			s.shutdownErr = err
		}

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()

		if server != nil {
			if err := server.Shutdown(ctx); err != nil {
				s.shutdownErr = err
			}
		}
	})

	return s.shutdownErr
}
