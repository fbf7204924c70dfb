package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/yndnr/assetgw-go/internal/infra/tlsroots"
)

// Server timeouts. WriteTimeout covers the slowest ledger dispatch.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	idleTimeout       = 2 * time.Minute
	defaultWrite      = 90 * time.Second
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	keyPair    *tlsroots.KeyPair
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithTLS serves HTTPS with a reloadable key pair.
func WithTLS(kp *tlsroots.KeyPair) ServerOption {
	return func(s *Server) {
		s.keyPair = kp
	}
}

// WithWriteTimeout overrides the response write timeout. It must exceed
// the ledger dispatch timeout or slow dispatches lose their response.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.httpServer.WriteTimeout = d
		}
	}
}

// New creates a new HTTP server.
func New(addr string, handler http.Handler, opts ...ServerOption) *Server {
	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      defaultWrite,
			IdleTimeout:       idleTimeout,
		},
		handler: handler,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.keyPair != nil {
		s.httpServer.TLSConfig = s.keyPair.ServerTLSConfig()
	}
	return s
}

// TLS reports whether the server serves HTTPS.
func (s *Server) TLS() bool {
	return s.keyPair != nil
}

// ListenAndServe starts the server, over TLS when configured. It returns
// nil after Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. It returns nil after Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	var err error
	if s.keyPair != nil {
		// Certificates come from TLSConfig.GetCertificate.
		err = s.httpServer.ServeTLS(ln, "", "")
	} else {
		err = s.httpServer.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
