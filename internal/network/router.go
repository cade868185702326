package network

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nightcrew/lastshift/internal/engine"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

// SnapshotSource is anything that can report the current frame.
type SnapshotSource interface {
	Snapshot() engine.Snapshot
}

// Runtime is the part of the hosted shift the HTTP layer talks to.
// *engine.Runner satisfies it.
type Runtime interface {
	Controller
	SnapshotSource
}

// MetricsHandlers exposes collector output. *metrics.Collector satisfies it.
type MetricsHandlers interface {
	Handler() http.HandlerFunc
	PrometheusHandler() http.HandlerFunc
}

// RouterDeps wires the router.
type RouterDeps struct {
	Hub        *Hub
	Runtime    Runtime
	Replay     *ReplayHandler
	Manager    *ManagerBridge
	Metrics    MetricsHandlers // optional
	Client     ClientOptions
	MaxClients int
	Logger     *logger.Logger
}

// NewRouter builds the HTTP surface of a hosted shift.
func NewRouter(d RouterDeps) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", ServeWS(d.Hub, d.Runtime, d.Client, d.MaxClients))
	r.HandleFunc("/api/shift/snapshot", func(w http.ResponseWriter, _ *http.Request) {
		jsonSuccess(w, d.Runtime.Snapshot())
	}).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		jsonSuccess(w, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	if d.Replay != nil {
		d.Replay.RegisterRoutes(r)
	}
	if d.Manager != nil {
		d.Manager.RegisterRoutes(r)
	}
	if d.Metrics != nil {
		r.HandleFunc("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)
		r.HandleFunc("/metrics/prometheus", d.Metrics.PrometheusHandler()).Methods(http.MethodGet)
	}

	if d.Logger != nil {
		r.Use(requestLogger(d.Logger))
	}
	return r
}

func requestLogger(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/ws" {
				log.Debug(r.Method + " " + r.URL.Path)
			}
			next.ServeHTTP(w, r)
		})
	}
}
