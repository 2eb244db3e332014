// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/tidelock/tide/eventdb"
	"github.com/tidelock/tide/ledger"
	"github.com/tidelock/tide/log"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	PprofOn         bool
	EnableReqLogger bool
	EnableMetrics   bool
}

// New returns the api router.
func New(
	ldgr *ledger.Ledger,
	eventDB *eventdb.EventDB,
	opts Options,
) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	NewStaking(ldgr, eventDB).
		Mount(router, "/pools")

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsHandler)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}

	return handler.ServeHTTP
}
