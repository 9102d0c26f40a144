// Package api implements the probe's read-only HTTP query surface, grounded
// on pyospf/api/api.py's Flask routes and marmos91-dittofs/pkg/api/router.go
// for the chi router/middleware idiom.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	ospf2 "github.com/ospfprobe/ospfprobe"
	"github.com/ospfprobe/ospfprobe/internal/engine"
)

// Source is what the API reads from to answer queries; engine.Receiver (via
// its LSDB and Stats) satisfies it in production, and it lets handler tests
// substitute a fixture.
type Source interface {
	LSDB() *engine.LSDB
	Stats() *engine.Stats
	RouterID() ospf2.ID
	StartTime() time.Time
}

// Credentials configures HTTP Basic auth. An empty Username disables auth
// entirely, matching pyospf/api/api.py's need_auth flag.
type Credentials struct {
	Username string
	Password string
}

// NewRouter builds the probe's HTTP handler: /lsdb, /lsdb/{type},
// /lsdb_summary, /stats, /probe, plus a Prometheus /metrics endpoint fed by
// the same Stats registry, grounded on pyospf/api/api.py's route table.
func NewRouter(src Source, creds Credentials, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	if creds.Username != "" {
		r.Use(basicAuth(creds))
	}

	r.Get("/lsdb", lsdbHandler(src, ""))
	r.Get("/lsdb/{type}", lsdbTypeHandler(src))
	r.Get("/lsdb_summary", lsdbSummaryHandler(src))
	r.Get("/stats", statsHandler(src))
	r.Get("/probe", probeHandler(src))
	r.Handle("/metrics", promhttp.HandlerFor(src.Stats().Registry(), promhttp.HandlerOpts{}))

	return r
}

// basicAuth rejects requests lacking valid HTTP Basic credentials, grounded
// on pyospf/api/api.py's requires_auth/check_auth/authenticate trio.
func basicAuth(creds Credentials) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			validUser := subtle.ConstantTimeCompare([]byte(user), []byte(creds.Username)) == 1
			validPass := subtle.ConstantTimeCompare([]byte(pass), []byte(creds.Password)) == 1
			if !ok || !validUser || !validPass {
				w.Header().Set("WWW-Authenticate", `Basic realm="Auth Required"`)
				http.Error(w, "Could not verify your access level for that URL.\n"+
					"You have to login with proper credentials", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("API request")
		})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

// lsaTypeName maps an LSType to the lowercase string pyospf's lsdb dict used
// as a key, so /lsdb/{type} accepts the same vocabulary the Python API did.
func lsaTypeName(t ospf2.LSType) string {
	switch t {
	case ospf2.RouterLSA:
		return "router"
	case ospf2.NetworkLSA:
		return "network"
	case ospf2.SummaryLSA:
		return "summary"
	case ospf2.SummaryASBRLSA:
		return "summary_asbr"
	case ospf2.ASExternalLSA:
		return "external"
	case ospf2.NSSALSA:
		return "nssa"
	case ospf2.OpaqueLinkLSA:
		return "opaque_link"
	case ospf2.OpaqueAreaLSA:
		return "opaque_area"
	case ospf2.OpaqueASLSA:
		return "opaque_as"
	default:
		return "unknown"
	}
}

func lsdbByType(src Source) map[string][]ospf2.LSA {
	out := make(map[string][]ospf2.LSA)
	for _, lsa := range src.LSDB().All() {
		name := lsaTypeName(lsa.Header.Type)
		out[name] = append(out[name], lsa)
	}
	return out
}

func lsdbHandler(src Source, _ string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, lsdbByType(src))
	}
}

func lsdbTypeHandler(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ltype := chi.URLParam(r, "type")
		byType := lsdbByType(src)
		result, ok := byType[ltype]
		if !ok {
			writeJSON(w, map[string][]ospf2.LSA{})
			return
		}
		writeJSON(w, map[string][]ospf2.LSA{ltype: result})
	}
}

func lsdbSummaryHandler(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts := src.LSDB().Count()
		summary := make(map[string]int, len(counts)+1)
		total := 0
		for t, n := range counts {
			summary[lsaTypeName(t)] = n
			total += n
		}
		summary["total_lsa"] = total
		writeJSON(w, summary)
	}
}

func statsHandler(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, src.Stats().Snapshot())
	}
}

func probeHandler(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := src.StartTime()
		writeJSON(w, map[string]string{
			"router_id":    src.RouterID().String(),
			"start_time":   start.Format(time.RFC3339),
			"running_time": time.Since(start).String(),
		})
	}
}
