package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/NYTimes/gziphandler"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/gorilla/mux"
	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Config struct {
	ListenAddress  string   `yaml:"listenAddress"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

func DefaultConfig() *Config {
	return &Config{
		ListenAddress:  "127.0.0.1:9650",
		AllowedOrigins: []string{"*"},
	}
}

// NewHandler mounts the JSON-RPC service, the websocket hub, metrics and the
// health check on one router.
func NewHandler(
	log logging.Logger,
	cfg *Config,
	rt Runtime,
	ws *WebSocketServer,
	gatherer prometheus.Gatherer,
) (http.Handler, error) {
	server := rpc.NewServer()
	codec := json2.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterAfterFunc(func(i *rpc.RequestInfo) {
		if i.Error != nil {
			log.Debug("rpc request failed",
				zap.String("method", i.Method),
				zap.Error(i.Error),
			)
		}
	})
	if err := server.RegisterService(NewJSONRPCServer(rt), Name); err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	router.Handle(JSONRPCEndpoint, gziphandler.GzipHandler(server)).Methods(http.MethodPost)
	router.Handle(WebSocketEndpoint, ws)
	router.Handle(MetricsEndpoint, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	router.HandleFunc(HealthEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]bool{"healthy": len(rt.Programs()) > 0})
	}).Methods(http.MethodGet)

	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
	}).Handler(router), nil
}

type Server struct {
	log  logging.Logger
	http *http.Server
	ws   *WebSocketServer
}

func NewServer(
	log logging.Logger,
	cfg *Config,
	rt Runtime,
	gatherer prometheus.Gatherer,
) (*Server, error) {
	ws := NewWebSocketServer(log, rt)
	handler, err := NewHandler(log, cfg, rt, ws, gatherer)
	if err != nil {
		ws.Close()
		return nil, err
	}
	return &Server{
		log: log,
		http: &http.Server{
			Addr:              cfg.ListenAddress,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		ws: ws,
	}, nil
}

// Serve blocks until the listener fails or the server is shut down.
func (s *Server) Serve(l net.Listener) error {
	s.log.Info("serving api", zap.Stringer("address", l.Addr()))
	if err := s.http.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.ws.Close()
	return s.http.Shutdown(ctx)
}
