package internal

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		name     string
		status   int
		body     string
		wantCode int
	}{
		{"ok", http.StatusOK, "hello", http.StatusOK},
		{"implicit ok", 0, "hello", http.StatusOK},
		{"not found", http.StatusNotFound, "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()

			isHandlerCalled := false
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				isHandlerCalled = true
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				w.Write([]byte(tt.body)) //nolint:errcheck
			})

			req := httptest.NewRequest(http.MethodGet, "/parties/chat/r1/messages", nil)
			rec := httptest.NewRecorder()
			Middleware(nextHandler).ServeHTTP(rec, req)

			assert.True(t, isHandlerCalled)
			assert.Equal(t, tt.wantCode, rec.Code)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, "handled", entry["msg"])
			assert.Equal(t, http.MethodGet, entry["method"])
			assert.Equal(t, "/parties/chat/r1/messages", entry["path"])
			assert.EqualValues(t, tt.wantCode, entry["status"])
			assert.EqualValues(t, len(tt.body), entry["bytes"])
		})
	}
}
