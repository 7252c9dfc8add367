// Package httpapi implements the local HTTP control API:
// the UI-facing surface routing into the registry, task manager,
// settings store, and session lock, with permissive CORS on every
// response and an async-task-poll pattern for long operations.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vireo-stream/hostcore/boxart"
	"github.com/vireo-stream/hostcore/config"
	"github.com/vireo-stream/hostcore/errors"
	"github.com/vireo-stream/hostcore/identity"
	"github.com/vireo-stream/hostcore/logger"
	"github.com/vireo-stream/hostcore/registry"
	"github.com/vireo-stream/hostcore/session"
	"github.com/vireo-stream/hostcore/tasks"
)

const shutdownGrace = 5 * time.Second

// ScreenInfoProvider is the OS-plumbing collaborator
// behind GET /settings/screeninfo: display enumeration lives outside this
// core, which only surfaces whatever the collaborator reports.
type ScreenInfoProvider interface {
	ScreenInfo() interface{}
}

// Deps bundles every collaborator the control API dispatches into.
type Deps struct {
	Registry          *registry.Registry
	Tasks             *tasks.Manager
	Identity          *identity.Store
	Settings          *config.Store
	Session           *session.Manager
	BoxArt            *boxart.Fetcher
	FederatedTokens   *tasks.FederatedTokenStore
	FederatedResolver tasks.FederatedSecretResolver
	ScreenInfo        ScreenInfoProvider
	DeviceName        string
	VersionString     string
	PollingActive     bool
	OnExit            func()
}

// Server is the local control API HTTP server.
type Server struct {
	registry          *registry.Registry
	tasks             *tasks.Manager
	identity          *identity.Store
	settings          *config.Store
	session           *session.Manager
	boxart            *boxart.Fetcher
	federatedTokens   *tasks.FederatedTokenStore
	federatedResolver tasks.FederatedSecretResolver
	screenInfo        ScreenInfoProvider
	deviceName        string
	versionString     string
	pollingActive     bool
	onExit            func()

	log        *zap.SugaredLogger
	httpServer *http.Server
	hub        *hub
}

// New constructs the control API server, unstarted.
func New(deps Deps, log *zap.SugaredLogger) *Server {
	return &Server{
		registry:          deps.Registry,
		tasks:             deps.Tasks,
		identity:          deps.Identity,
		settings:          deps.Settings,
		session:           deps.Session,
		boxart:            deps.BoxArt,
		federatedTokens:   deps.FederatedTokens,
		federatedResolver: deps.FederatedResolver,
		screenInfo:        deps.ScreenInfo,
		deviceName:        deps.DeviceName,
		versionString:     deps.VersionString,
		pollingActive:     deps.PollingActive,
		onExit:            deps.OnExit,
		log:               logger.AddHTTPSymbol(log),
		hub:               newHub(),
	}
}

// ListenAndServe binds to addr and serves until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.routes()}
	s.log.Infow("control API listening", "addr", addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "control API server")
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
