// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/stakelock/lockbox/api/doc"
	"github.com/stakelock/lockbox/api/events"
	"github.com/stakelock/lockbox/api/staking"
	"github.com/stakelock/lockbox/api/subscriptions"
	"github.com/stakelock/lockbox/eventdb"
	"github.com/stakelock/lockbox/ledger"
	"github.com/stakelock/lockbox/lockbox"
	"github.com/stakelock/lockbox/log"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins string
	EventsLimit    uint64
	PprofOn        bool
	LogRequests    *atomic.Bool
	EnableMetrics  bool
}

// New return api router
func New(
	ledger *ledger.Ledger,
	eventDB *eventdb.EventDB,
	genesisID lockbox.Bytes32,
	opts Options,
) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	// to serve the open api doc
	router.PathPrefix("/doc").Handler(
		http.StripPrefix("/doc/", http.FileServer(http.FS(doc.FS))),
	)

	staking.New(ledger).
		Mount(router, "/staking")
	if eventDB != nil {
		events.New(eventDB, opts.EventsLimit).
			Mount(router, "/events")
	}
	subs := subscriptions.New(ledger, origins)
	subs.Mount(router, "/subscriptions")

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", "x-genesis-id"}),
		handlers.ExposedHeaders([]string{"x-genesis-id", "x-lockbox-ver"}),
	)(handler)

	if opts.LogRequests != nil {
		handler = RequestLoggerHandler(handler, logger, opts.LogRequests)
	}

	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("x-genesis-id", genesisID.String())
		w.Header().Set("x-lockbox-ver", doc.Version())
		handler.ServeHTTP(w, req)
	}, subs.Close // subscriptions handles hijacked conns, which need to be closed
}
