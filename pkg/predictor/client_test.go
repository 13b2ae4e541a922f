package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthalyze/healthalyze_backend/config"
	"github.com/healthalyze/healthalyze_backend/pkg/risk"
)

func sampleRequest() Request {
	return Request{
		Age: 67, Hypertension: 0, HeartDisease: 1, AvgGlucoseLevel: 228.69,
		BMI: 36.6, Height: 175, Weight: 112, Gender: "Male",
		SmokingStatus: "Formerly smoked", Residence: "Urban", WorkType: "Private",
		EverMarried: "Yes", PhysicalActivity: "Low",
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL, Path: "/api/predict", Timeout: timeout})
	require.NoError(t, err)
	return c
}

func TestPredictSuccess(t *testing.T) {
	var got Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"stroke_probability": 71.35, "risk_level": "High", "advice": "See a doctor."}`))
	}, time.Second)

	resp, err := c.Predict(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, 71.35, resp.StrokeProbability)
	assert.Equal(t, risk.High, resp.RiskLevel)
	assert.Equal(t, "See a doctor.", resp.Advice)
	assert.Equal(t, sampleRequest(), got)
}

func TestPredictFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{"server error", http.StatusInternalServerError, `{"detail":"model not loaded"}`, http.StatusInternalServerError},
		{"bad request", http.StatusUnprocessableEntity, `{"detail":"age missing"}`, http.StatusUnprocessableEntity},
		{"malformed json", http.StatusOK, `{"stroke_probability": `, http.StatusOK},
		{"missing field", http.StatusOK, `{"stroke_probability": 10, "risk_level": "Low"}`, http.StatusOK},
		{"unknown level", http.StatusOK, `{"stroke_probability": 10, "risk_level": "Severe", "advice": ""}`, http.StatusOK},
		{"probability out of range", http.StatusOK, `{"stroke_probability": 140, "risk_level": "High", "advice": ""}`, http.StatusOK},
		{"probability as string", http.StatusOK, `{"stroke_probability": "10", "risk_level": "Low", "advice": ""}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, time.Second)

			resp, err := c.Predict(context.Background(), sampleRequest())
			assert.Nil(t, resp)

			var pe *Error
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.wantStatus, pe.StatusCode)
		})
	}
}

func TestPredictLevelMismatchIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		name   string
		body   string
		logged bool
	}{
		{"consistent", `{"stroke_probability": 35, "risk_level": "Low", "advice": ""}`, false},
		{"boundary", `{"stroke_probability": 65, "risk_level": "High", "advice": ""}`, false},
		{"mismatch", `{"stroke_probability": 12.5, "risk_level": "High", "advice": ""}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}, time.Second)

			resp, err := c.Predict(context.Background(), sampleRequest())
			require.NoError(t, err)
			assert.NotEmpty(t, resp.RiskLevel)
			if !tt.logged {
				assert.Empty(t, buf.String())
				return
			}
			var rec map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
			assert.Equal(t, "High", rec["risk_level"])
			assert.Equal(t, string(risk.VeryLow), rec["expected_level"])
		})
	}
}

func TestPredictTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	_, err := c.Predict(context.Background(), sampleRequest())
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "call", pe.Op)
}

func TestPredictUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url, Path: "/api/predict", Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Predict(context.Background(), sampleRequest())
	var pe *Error
	assert.True(t, errors.As(err, &pe))
}

func TestNew(t *testing.T) {
	_, err := New(Config{BaseURL: "localhost:8000"})
	assert.Error(t, err)

	c, err := New(FromCentralConfig(config.PredictorConfig{BaseURL: "http://predictor:8000/", Path: "api/predict"}))
	require.NoError(t, err)
	assert.Equal(t, "http://predictor:8000/api/predict", c.Endpoint())

	cfg := FromCentralConfig(config.PredictorConfig{})
	assert.Equal(t, DefaultConfig(), cfg)
}
