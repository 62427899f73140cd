package ops

import (
	"context"
	"errors"
	"net/http"
	"time"

	"exstats/internal/model"
	"exstats/pkg/exception"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yanun0323/logs"
)

const readHeaderTimeout = 5 * time.Second

// StatsReader looks up the aggregated row of one player.
type StatsReader interface {
	Get(ctx context.Context, id model.Identity) (model.PlayerStats, error)
}

// StatsView is the JSON body served by GET /stats/{steamid}.
type StatsView struct {
	SteamID   string           `json:"steam_id"`
	DmgHealth int64            `json:"dmg_health"`
	DmgArmor  int64            `json:"dmg_armor"`
	Regions   map[string]int64 `json:"regions"`
}

// NewRouter serves /healthz, /metrics from gatherer and, when reader is
// non-nil, /stats/{steamid} keyed by the decimal SteamID64.
func NewRouter(gatherer prometheus.Gatherer, reader StatsReader) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	if reader != nil {
		r.Get("/stats/{steamid}", statsHandler(reader))
	}
	return r
}

func statsHandler(reader StatsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, err := model.ParseIdentity(chi.URLParam(req, "steamid"))
		if err != nil {
			http.Error(w, "invalid steamid", http.StatusBadRequest)
			return
		}

		row, err := reader.Get(req.Context(), id)
		switch {
		case errors.Is(err, exception.ErrStatsNotFound):
			http.Error(w, "not found", http.StatusNotFound)
			return
		case err != nil:
			logs.Errorf("ops stats lookup %s, err: %+v", id, err)
			http.Error(w, "stats unavailable", http.StatusServiceUnavailable)
			return
		}

		view := StatsView{
			SteamID:   row.SteamID.String(),
			DmgHealth: row.DmgHealth,
			DmgArmor:  row.DmgArmor,
			Regions:   make(map[string]int64, len(row.RegionCounts())),
		}
		for region, n := range row.RegionCounts() {
			view.Regions[region.Column()] = n
		}

		body, err := sonic.Marshal(view)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}
}

// Server runs the ops listener in the background.
type Server struct {
	srv *http.Server
}

// NewServer binds handler to addr without listening yet.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}}
}

// Start listens until Shutdown.
func (s *Server) Start() {
	go func() {
		logs.Infof("ops listening: %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Errorf("ops server, err: %+v", err)
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
