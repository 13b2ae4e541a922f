package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthalyze/healthalyze_backend/config"
	"github.com/healthalyze/healthalyze_backend/pkg/reqctx"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug": "DEBUG",
		"WARN":  "WARN",
		"error": "ERROR",
		"":      "INFO",
		"bogus": "INFO",
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in).String(), in)
	}
}

func TestLoggerAddsRequestContext(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Environment = "production"
	cfg.Logging.Output.Stdout = true

	var buf bytes.Buffer
	logger := newLogger(cfg, &buf)

	ctx := reqctx.WithRequestMeta(context.Background(), &reqctx.RequestMeta{
		RequestID: "r-9",
		ClientIP:  "203.0.113.4",
		UserAgent: "healthalyze-web/1.0",
	})
	ctx = reqctx.WithSubject(ctx, "p-1")
	logger.InfoContext(ctx, "assessment stored", "risk_level", "High")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "assessment stored", rec["msg"])
	assert.Equal(t, "r-9", rec["request_id"])
	assert.Equal(t, "203.0.113.4", rec["client_ip"])
	assert.Equal(t, "healthalyze-web/1.0", rec["user_agent"])
	assert.Equal(t, "p-1", rec["subject_id"])
	assert.Equal(t, "High", rec["risk_level"])
	assert.Equal(t, cfg.Observability.ServiceName, rec["service"])
}

func TestLokiWriter(t *testing.T) {
	var got lokiPush
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, lokiPushPath, r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "loki", user)
		assert.Equal(t, "secret", pass)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Logging.Output.Loki = config.LokiConfig{Enabled: true, Endpoint: srv.URL, Username: "loki", Password: "secret"}

	lw := newLokiWriter(cfg)
	lw.now = func() time.Time { return time.Unix(0, 42) }

	line := []byte(`{"msg":"hello \"world\""}` + "\n")
	n, err := lw.Write(line)
	require.NoError(t, err)
	assert.Equal(t, len(line), n)

	require.Len(t, got.Streams, 1)
	assert.Equal(t, cfg.Server.Environment, got.Streams[0].Stream["env"])
	require.Len(t, got.Streams[0].Values, 1)
	assert.Equal(t, "42", got.Streams[0].Values[0][0])
	assert.Equal(t, `{"msg":"hello \"world\""}`, got.Streams[0].Values[0][1])
}

func TestLokiWriterRejectedPush(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Logging.Output.Loki.Endpoint = srv.URL

	_, err := newLokiWriter(cfg).Write([]byte("x"))
	assert.Error(t, err)
}
