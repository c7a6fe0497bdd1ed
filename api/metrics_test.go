// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakelock/lockbox/api/staking"
	"github.com/stakelock/lockbox/api/subscriptions"
	"github.com/stakelock/lockbox/genesis"
	"github.com/stakelock/lockbox/ledger"
	"github.com/stakelock/lockbox/lvldb"
	"github.com/stakelock/lockbox/metrics"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

// launch time of the devnet preset
const genesisTime = uint64(1735689600)

func initLedger(t *testing.T) *ledger.Ledger {
	db, _ := lvldb.NewMem()
	t.Cleanup(func() { db.Close() })
	_, err := genesis.Commit(db, genesis.NewDevnet())
	require.NoError(t, err)

	l, err := ledger.New(db, func() uint64 { return genesisTime })
	require.NoError(t, err)
	t.Cleanup(l.Close)
	return l
}

func TestMetricsMiddleware(t *testing.T) {
	l := initLedger(t)

	router := mux.NewRouter()
	staking.New(l).Mount(router, "/staking")
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	router.Use(metricsMiddleware)
	ts := httptest.NewServer(router)
	defer ts.Close()

	user := genesis.DevAccounts()[1].Address
	_, code := httpGet(t, ts.URL+"/staking/accounts/invalid/stakes")
	assert.Equal(t, 400, code)
	_, code = httpGet(t, ts.URL+"/staking/accounts/"+user.String()+"/stakes")
	assert.Equal(t, 200, code)

	body, _ := httpGet(t, ts.URL+"/metrics")
	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	assert.Nil(t, err)

	// the registry is process-global and other tests in this package
	// record series too, keep only the route this test exercises
	codes := map[string]float64{}
	for _, m := range families["lockbox_metrics_api_request_count"].GetMetric() {
		var code, method, name string
		for _, label := range m.GetLabel() {
			switch label.GetName() {
			case "code":
				code = label.GetValue()
			case "method":
				method = label.GetValue()
			case "name":
				name = label.GetValue()
			}
		}
		if name != "staking_get_stakes" {
			continue
		}
		assert.Equal(t, "GET", method)
		codes[code] = m.GetCounter().GetValue()
	}

	require.Equal(t, 2, len(codes), "should be 2 metric entries")
	assert.Equal(t, float64(1), codes["200"])
	assert.Equal(t, float64(1), codes["400"])
}

func TestWebsocketMetrics(t *testing.T) {
	l := initLedger(t)

	router := mux.NewRouter()
	subs := subscriptions.New(l, []string{"*"})
	defer subs.Close()
	subs.Mount(router, "/subscriptions")
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	router.Use(metricsMiddleware)
	ts := httptest.NewServer(router)
	defer ts.Close()

	// one open subscription, active websocket count should be 1
	u := url.URL{Scheme: "ws", Host: strings.TrimPrefix(ts.URL, "http://"), Path: "/subscriptions/stakes"}
	conn1, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	assert.Nil(t, err)
	defer conn1.Close()

	body, _ := httpGet(t, ts.URL+"/metrics")
	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	assert.Nil(t, err)

	m := families["lockbox_metrics_api_active_websocket_count"].GetMetric()
	require.Equal(t, 1, len(m), "should be 1 metric entry")
	assert.Equal(t, float64(1), m[0].GetGauge().GetValue())

	labels := m[0].GetLabel()
	assert.Equal(t, "subject", labels[0].GetName())
	assert.Equal(t, "stakes", labels[0].GetValue())

	// a second subscription, active websocket count should be 2
	conn2, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	assert.Nil(t, err)
	defer conn2.Close()

	body, _ = httpGet(t, ts.URL+"/metrics")
	families, err = parser.TextToMetricFamilies(bytes.NewReader(body))
	assert.Nil(t, err)

	m = families["lockbox_metrics_api_active_websocket_count"].GetMetric()
	require.Equal(t, 1, len(m), "should be 1 metric entry")
	assert.Equal(t, float64(2), m[0].GetGauge().GetValue())
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	if err != nil {
		t.Fatal(err)
	}
	r, err := io.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	return r, res.StatusCode
}
