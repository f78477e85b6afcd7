package api

import (
	"context"
	"net/http"
	"time"

	"unified-console/config"
	"unified-console/core/auth"
	"unified-console/core/rolesync"
	"unified-console/core/store"
	"unified-console/core/utils"

	"github.com/prometheus/client_golang/prometheus"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Config    *config.AppConfig
	Logger    *utils.Logger
	Sessions  *auth.SessionManager
	Users     store.UsersStore
	SessStore store.SessionsStore
	Apps      store.ApplicationsStore
	Roles     store.RolesStore
	Audit     store.AuditStore
	Dashboard store.DashboardStore
	Engine    *rolesync.Engine
	Encryptor *utils.Encryptor
}

type Server struct {
	cfg       *config.AppConfig
	logger    *utils.Logger
	sessions  *auth.SessionManager
	users     store.UsersStore
	sessStore store.SessionsStore
	apps      store.ApplicationsStore
	roles     store.RolesStore
	audit     store.AuditStore
	dashboard store.DashboardStore
	engine    *rolesync.Engine
	encryptor *utils.Encryptor

	loginLimiter *rateLimiter
	registry     *prometheus.Registry
	startedAt    time.Time
	httpServer   *http.Server
}

func NewServer(d Deps) *Server {
	s := &Server{
		cfg:          d.Config,
		logger:       d.Logger,
		sessions:     d.Sessions,
		users:        d.Users,
		sessStore:    d.SessStore,
		apps:         d.Apps,
		roles:        d.Roles,
		audit:        d.Audit,
		dashboard:    d.Dashboard,
		engine:       d.Engine,
		encryptor:    d.Encryptor,
		loginLimiter: newRateLimiter(10, 0.5),
		startedAt:    time.Now(),
	}
	s.initObservability()
	return s
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.logger.Printf("listening on %s", s.cfg.ListenAddr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
