// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakelock/lockbox/api/utils"
	"github.com/stakelock/lockbox/genesis"
	"github.com/stakelock/lockbox/health"
	"github.com/stakelock/lockbox/lockbox"
	"github.com/stakelock/lockbox/log"
)

func TestAdmin_postLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		httpCode int
	}{
		{"debug", http.StatusOK},
		{"info", http.StatusOK},
		{"warn", http.StatusOK},
		{"error", http.StatusOK},
		{"trace", http.StatusOK},
		{"crit", http.StatusOK},
		{"invalid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			admin := newAdmin(t)
			req := newRequest(t, http.MethodPost, "/admin/loglevel", map[string]string{"level": tt.level})
			res := newHTTPTest(req, admin.postLogLevelHandler)

			assert.Equal(t, tt.httpCode, res.Code)
			if tt.httpCode == http.StatusOK {
				assert.Equal(t, tt.level, log.LevelString(admin.logLevel.Level()))
			}
		})
	}
}

func TestAdmin_getLogLevel(t *testing.T) {
	admin := newAdmin(t)
	req := newRequest(t, http.MethodGet, "/admin/loglevel", nil)

	res := newHTTPTest(req, admin.getLogLevelHandler)

	assert.Equal(t, http.StatusOK, res.Code)
	var body logLevelResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, slog.LevelDebug.String(), body.CurrentLevel)
}

func TestAdmin_postRequestLogger(t *testing.T) {
	testCases := []struct {
		enabled  interface{}
		httpCode int
	}{
		{true, http.StatusOK},
		{false, http.StatusOK},
		{"invalid", http.StatusBadRequest},
		{nil, http.StatusBadRequest},
	}

	for _, tt := range testCases {
		t.Run(fmt.Sprintf("enabled=%v", tt.enabled), func(t *testing.T) {
			admin := newAdmin(t)
			req := newRequest(t, http.MethodPost, "/admin/apilogs", map[string]interface{}{"enabled": tt.enabled})

			res := newHTTPTest(req, admin.postRequestLogger)

			assert.Equal(t, tt.httpCode, res.Code)
			if res.Code == http.StatusOK {
				assert.Equal(t, tt.enabled, admin.logRequests.Load())
			}
		})
	}
}

func TestAdmin_getRequestLoggerEnabled(t *testing.T) {
	admin := newAdmin(t)
	req := newRequest(t, http.MethodGet, "/admin/apilogs", nil)

	res := newHTTPTest(req, admin.getRequestLoggerEnabled)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.True(t, admin.logRequests.Load())
}

func TestAdmin_pauseResume(t *testing.T) {
	admin := newAdmin(t)

	res := newHTTPTest(newRequest(t, http.MethodPost, "/admin/staking/pause", nil), admin.pauseStakingHandler)
	assert.Equal(t, http.StatusOK, res.Code)
	paused, err := admin.ledger.Paused()
	require.NoError(t, err)
	assert.True(t, paused)

	res = newHTTPTest(newRequest(t, http.MethodPost, "/admin/staking/pause", nil), admin.pauseStakingHandler)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "already paused")

	res = newHTTPTest(newRequest(t, http.MethodPost, "/admin/staking/resume", nil), admin.resumeStakingHandler)
	assert.Equal(t, http.StatusOK, res.Code)
	paused, err = admin.ledger.Paused()
	require.NoError(t, err)
	assert.False(t, paused)

	res = newHTTPTest(newRequest(t, http.MethodPost, "/admin/staking/resume", nil), admin.resumeStakingHandler)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "not paused")
}

func TestAdmin_setLockRate(t *testing.T) {
	admin := newAdmin(t)
	duration := 2 * lockbox.UnitPeriod

	res := newHTTPTest(newRequest(t, http.MethodPut, "/admin/staking/rates", map[string]uint64{"duration": duration, "rate": 7}), admin.setLockRateHandler)
	assert.Equal(t, http.StatusOK, res.Code)

	rate, err := admin.ledger.LockRate(duration)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), rate)

	res = newHTTPTest(newRequest(t, http.MethodPut, "/admin/staking/rates", map[string]uint64{"duration": duration}), admin.setLockRateHandler)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "rate")

	res = newHTTPTest(newRequest(t, http.MethodPut, "/admin/staking/rates", map[string]uint64{"rate": 7}), admin.setLockRateHandler)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "duration")
}

func TestAdmin_wrongAdminForbidden(t *testing.T) {
	var lvl slog.LevelVar
	var enabled atomic.Bool

	l := initLedger(t)
	admin := NewAdmin("localhost:0", l, genesis.DevAccounts()[1].Address, &health.Health{}, &lvl, &enabled)

	res := newHTTPTest(newRequest(t, http.MethodPost, "/admin/staking/pause", nil), admin.pauseStakingHandler)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "not the admin")
}

func TestAdmin_health(t *testing.T) {
	admin := newAdmin(t)

	res := newHTTPTest(newRequest(t, http.MethodGet, "/admin/health", nil), admin.healthHandler)
	assert.Equal(t, http.StatusOK, res.Code)
	var status health.Status
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &status))
	assert.True(t, status.Healthy)

	// journal moves on while the index stalls
	admin.health.JournalCommit(3)
	res = newHTTPTest(newRequest(t, http.MethodGet, "/admin/health", nil), admin.healthHandler)
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
}

func TestAdmin_start(t *testing.T) {
	admin := newAdmin(t)

	url, cancel, err := admin.Start()
	require.NoError(t, err)
	defer cancel()

	body, code := httpGet(t, url+"/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "healthy")
}

func newHTTPTest(req *http.Request, handlerFunc utils.HandlerFunc) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler := utils.WrapHandlerFunc(handlerFunc)
	handler.ServeHTTP(rr, req)
	return rr
}

func newAdmin(t *testing.T) *Admin {
	var lvl slog.LevelVar
	lvl.Set(slog.LevelDebug)

	var enabled atomic.Bool
	enabled.Store(true)

	l := initLedger(t)
	return NewAdmin("localhost:0", l, genesis.DevAccounts()[0].Address, &health.Health{}, &lvl, &enabled)
}

func newRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	reqBody := marshalBody(t, body)
	req, err := http.NewRequest(method, url, bytes.NewBuffer(reqBody))
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func marshalBody(t *testing.T, body interface{}) []byte {
	var reqBody []byte
	var err error
	if body != nil {
		reqBody, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("could not marshal request body: %v", err)
		}
	}
	return reqBody
}
