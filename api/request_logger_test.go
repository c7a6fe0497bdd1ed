// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakelock/lockbox/log"
)

// mockLogger captures Info calls and swallows everything else.
type mockLogger struct {
	loggedMessages []string
}

func (m *mockLogger) With(_ ...interface{}) log.Logger { return m }
func (m *mockLogger) New(_ ...interface{}) log.Logger  { return m }

func (m *mockLogger) Log(_ slog.Level, _ string, _ ...interface{}) {}
func (m *mockLogger) Trace(_ string, _ ...interface{})             {}
func (m *mockLogger) Debug(_ string, _ ...interface{})             {}

func (m *mockLogger) Info(msg string, ctx ...interface{}) {
	m.loggedMessages = append(m.loggedMessages, msg)
	for i := 1; i < len(ctx); i += 2 {
		m.loggedMessages = append(m.loggedMessages, fmt.Sprintf("%v", ctx[i]))
	}
}

func (m *mockLogger) Warn(_ string, _ ...interface{})              {}
func (m *mockLogger) Error(_ string, _ ...interface{})             {}
func (m *mockLogger) Crit(_ string, _ ...interface{})              {}
func (m *mockLogger) Write(_ slog.Level, _ string, _ ...interface{}) {}
func (m *mockLogger) Enabled(_ context.Context, _ slog.Level) bool { return true }
func (m *mockLogger) Handler() slog.Handler                        { return nil }

func TestRequestLoggerHandler(t *testing.T) {
	mockLog := &mockLogger{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	var enabled atomic.Bool
	enabled.Store(true)
	loggerHandler := RequestLoggerHandler(handler, mockLog, &enabled)

	req := httptest.NewRequest(http.MethodPost, "http://example.com/stakes", strings.NewReader(`{"caller":"0x0"}`))
	w := httptest.NewRecorder()

	loggerHandler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Result().StatusCode)

	require.NotEmpty(t, mockLog.loggedMessages)
	assert.Equal(t, "API Request", mockLog.loggedMessages[0])
	assert.Contains(t, mockLog.loggedMessages, "http://example.com/stakes")
	assert.Contains(t, mockLog.loggedMessages, `{"caller":"0x0"}`)
}

func TestRequestLoggerHandlerDisabled(t *testing.T) {
	mockLog := &mockLogger{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	var enabled atomic.Bool
	loggerHandler := RequestLoggerHandler(handler, mockLog, &enabled)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/staking/total", nil)
	w := httptest.NewRecorder()

	loggerHandler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Result().StatusCode)
	assert.Empty(t, mockLog.loggedMessages)
}
