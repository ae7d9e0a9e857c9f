// Package httpapi exposes the service layer over JSON/HTTP. Handlers
// translate requests into service calls and service errors into status
// codes; all authorization decisions stay in the service layer.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/mvoronin/parceltrack/internal/logging"
	"github.com/mvoronin/parceltrack/internal/server/services"
)

type Server struct {
	address   string
	users     *services.UserService
	packages  *services.PackageService
	proofs    *services.ProofService
	jwtSecret []byte
	logger    logging.Logger
}

func NewServer(address string, l logging.Logger, us *services.UserService,
	ps *services.PackageService, prs *services.ProofService, secretKey string) *Server {
	return &Server{
		address:   address,
		users:     us,
		packages:  ps,
		proofs:    prs,
		jwtSecret: []byte(secretKey),
		logger:    l.With("module", "http_server"),
	}
}

// routes builds the handler tree. Kept separate from Run so tests can
// drive it through httptest without binding a port.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)

	mux.Handle("POST /api/packages", s.withActor(s.handleCreatePackage))
	mux.Handle("GET /api/packages/{id}", s.withActor(s.handleGetPackage))
	mux.Handle("POST /api/packages/{id}/status", s.withActor(s.handleUpdateStatus))
	mux.Handle("POST /api/packages/{id}/decrypt", s.withActor(s.handleDecryptPackage))
	mux.Handle("GET /api/packages/{id}/audit", s.withActor(s.handleAuditByPackage))
	mux.Handle("GET /api/owners/{id}/packages", s.withActor(s.handleListByOwner))
	mux.Handle("GET /api/agents/{id}/packages", s.withActor(s.handleListByAgent))
	mux.Handle("GET /api/agents/{id}/audit", s.withActor(s.handleAuditByAgent))

	mux.Handle("POST /api/packages/{id}/proofs", s.withActor(s.handleRequestProofUpload))
	mux.Handle("POST /api/proofs/{id}/uploaded", s.withActor(s.handleMarkProofUploaded))
	mux.Handle("GET /api/packages/{id}/proof", s.withActor(s.handleGetProofURL))

	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
