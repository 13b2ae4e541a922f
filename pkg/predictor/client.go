// Package predictor is the HTTP client for the external stroke-risk
// prediction service. Calls are synchronous, bounded by a timeout and never
// retried.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/healthalyze/healthalyze_backend/pkg/risk"
)

const (
	tracerName      = "github.com/healthalyze/healthalyze_backend/pkg/predictor"
	maxResponseSize = 1 << 20
	maxErrorBody    = 512
)

// Request is the predictor input. Binary flags are 0/1.
type Request struct {
	Age              float64 `json:"age"`
	Hypertension     int     `json:"hypertension"`
	HeartDisease     int     `json:"heart_disease"`
	AvgGlucoseLevel  float64 `json:"avg_glucose_level"`
	BMI              float64 `json:"bmi"`
	Height           float64 `json:"height"`
	Weight           float64 `json:"weight"`
	Gender           string  `json:"gender"`
	SmokingStatus    string  `json:"smoking_status"`
	Residence        string  `json:"residence"`
	WorkType         string  `json:"work_type"`
	EverMarried      string  `json:"ever_married"`
	PhysicalActivity string  `json:"physical_activity"`
}

// Response is the predictor output. StrokeProbability is in percent.
type Response struct {
	StrokeProbability float64    `json:"stroke_probability"`
	RiskLevel         risk.Level `json:"risk_level"`
	Advice            string     `json:"advice"`
}

type Client struct {
	endpoint string
	http     *http.Client
}

// New builds a client for cfg. The returned client is safe for concurrent use.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("predictor: invalid base url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.TrimLeft(cfg.Path, "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *Client) Endpoint() string { return c.endpoint }

// Predict posts req and returns the validated response. Every failure is an
// *Error.
func (c *Client) Predict(ctx context.Context, req Request) (*Response, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "predictor.Predict",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", c.endpoint)),
	)
	defer span.End()

	resp, err := c.predict(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("risk.level", resp.RiskLevel.String()))
	// The service's label is authoritative; a mismatch with its own published
	// cut-offs usually means a model or threshold rollout is in progress.
	if want := risk.FromProbability(resp.StrokeProbability); want != resp.RiskLevel {
		span.SetAttributes(attribute.String("risk.expected_level", want.String()))
		slog.WarnContext(ctx, "predictor risk level disagrees with probability",
			"risk_level", resp.RiskLevel,
			"probability", resp.StrokeProbability,
			"expected_level", want,
		)
	}
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

func (c *Client) predict(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Op: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Op: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &Error{Op: "call", Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, &Error{Op: "read response", StatusCode: httpResp.StatusCode, Err: err}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &Error{
			Op:         "call",
			StatusCode: httpResp.StatusCode,
			Err:        errors.New(http.StatusText(httpResp.StatusCode)),
			Body:       truncate(strings.TrimSpace(string(raw)), maxErrorBody),
		}
	}

	if err := validateResponse(raw); err != nil {
		return nil, &Error{Op: "decode response", StatusCode: httpResp.StatusCode, Err: err}
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &Error{Op: "decode response", StatusCode: httpResp.StatusCode, Err: err}
	}
	return &out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
