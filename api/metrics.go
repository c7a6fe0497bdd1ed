// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/stakelock/lockbox/metrics"
)

var (
	metricHTTPReqCounter       = metrics.LazyLoadCounterVec("api_request_count", []string{"name", "code", "method"})
	metricHTTPReqDuration      = metrics.LazyLoadHistogramVec("api_duration_ms", []string{"name", "code", "method"}, metrics.BucketHTTPReqs)
	metricActiveWebsocketCount = metrics.LazyLoadGaugeVec("api_active_websocket_count", []string{"subject"})
)

// metricsResponseWriter is a wrapper around http.ResponseWriter that captures the status code.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{w, http.StatusOK}
}

func (m *metricsResponseWriter) WriteHeader(code int) {
	m.statusCode = code
	m.ResponseWriter.WriteHeader(code)
}

// Hijack complies with the http.Hijacker interface so websocket
// upgrades work through the wrapper.
func (m *metricsResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return m.ResponseWriter.(http.Hijacker).Hijack()
}

// metricsMiddleware records request count and duration for every named
// route, plus a live connection gauge per websocket subject.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var (
			enabled      = false
			name         = ""
			subscription = ""
		)

		// all named routes will be recorded
		if route := mux.CurrentRoute(req); route != nil {
			if name = route.GetName(); name != "" {
				enabled = true
				if strings.HasPrefix(name, "subscriptions") {
					// example path: /subscriptions/stakes -> subject = stakes
					paths := strings.Split(req.URL.Path, "/")
					if len(paths) > 2 {
						subscription = paths[2]
					}
				}
			}
		}

		now := time.Now()
		mrw := newMetricsResponseWriter(w)
		if subscription != "" {
			metricActiveWebsocketCount().AddWithLabel(1, map[string]string{"subject": subscription})
			defer metricActiveWebsocketCount().AddWithLabel(-1, map[string]string{"subject": subscription})
		}
		next.ServeHTTP(mrw, req)

		if enabled {
			labels := map[string]string{"name": name, "code": strconv.Itoa(mrw.statusCode), "method": req.Method}
			metricHTTPReqCounter().AddWithLabel(1, labels)
			metricHTTPReqDuration().ObserveWithLabels(time.Since(now).Milliseconds(), labels)
		}
	})
}
