package server

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/garnet/vm"
	"github.com/chazu/garnet/vm/dist"
)

var log = commonlog.GetLogger("garnet.server")

// GarnetServer is the compile server. It serves gRPC, gRPC-Web, and
// Connect (HTTP/JSON) on the same port.
type GarnetServer struct {
	worker   *CompileWorker
	sessions *SessionStore
	cache    *UnitCache
	mux      *http.ServeMux
}

// ServerOption configures a GarnetServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	contentStore *vm.ContentStore
	store        *dist.Store
	noCache      bool
}

// WithContentStore sets the in-memory unit cache. Without this a fresh
// content store is used.
func WithContentStore(cs *vm.ContentStore) ServerOption {
	return func(c *serverConfig) { c.contentStore = cs }
}

// WithStore adds a persistent unit cache behind the in-memory one.
func WithStore(store *dist.Store) ServerOption {
	return func(c *serverConfig) { c.store = store }
}

// WithoutCache disables unit caching; every evaluation is compiled fresh.
func WithoutCache() ServerOption {
	return func(c *serverConfig) { c.noCache = true }
}

// New creates a GarnetServer.
func New(opts ...ServerOption) *GarnetServer {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &GarnetServer{
		worker:   NewCompileWorker(),
		sessions: NewSessionStore(),
		mux:      http.NewServeMux(),
	}
	if !cfg.noCache {
		s.cache = NewUnitCache(cfg.contentStore, cfg.store)
	}

	svc := NewCompileService(s.worker, s.sessions, s.cache)
	s.mux.Handle(CompileProcedure, connect.NewUnaryHandler(CompileProcedure, svc.Compile))
	s.mux.Handle(EvaluateProcedure, connect.NewUnaryHandler(EvaluateProcedure, svc.Evaluate))
	s.mux.Handle(DumpProcedure, connect.NewUnaryHandler(DumpProcedure, svc.Dump))
	s.mux.Handle(CreateSessionProcedure, connect.NewUnaryHandler(CreateSessionProcedure, svc.CreateSession))
	s.mux.Handle(DestroySessionProcedure, connect.NewUnaryHandler(DestroySessionProcedure, svc.DestroySession))

	return s
}

// Handler returns the HTTP handler serving every procedure.
func (s *GarnetServer) Handler() http.Handler {
	return s.mux
}

// Sessions returns the server's session store.
func (s *GarnetServer) Sessions() *SessionStore {
	return s.sessions
}

// Cache returns the unit cache, or nil when caching is disabled.
func (s *GarnetServer) Cache() *UnitCache {
	return s.cache
}

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
func (s *GarnetServer) ListenAndServe(addr string) error {
	log.Infof("garnet compile server listening on %s", addr)
	log.Infof("connect (HTTP/JSON): http://%s%s", addr, CompileProcedure)

	// gRPC clients speak HTTP/2 without TLS.
	var protocols http.Protocols
	protocols.SetHTTP1(true)
	protocols.SetUnencryptedHTTP2(true)

	srv := &http.Server{
		Addr:      addr,
		Handler:   s.mux,
		Protocols: &protocols,
	}
	return srv.ListenAndServe()
}

// Stop shuts down the compile worker.
func (s *GarnetServer) Stop() {
	s.worker.Stop()
}
