package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/healthalyze/healthalyze_backend/config"
	"github.com/healthalyze/healthalyze_backend/internal/api/http/handler"
	"github.com/healthalyze/healthalyze_backend/internal/api/http/middleware"
	"github.com/healthalyze/healthalyze_backend/internal/service/assessment"
	"github.com/healthalyze/healthalyze_backend/internal/service/intake"
	"github.com/healthalyze/healthalyze_backend/internal/service/statistics"
	"github.com/healthalyze/healthalyze_backend/pkg/database"
)

const readinessTimeout = 2 * time.Second

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg           *config.Config
	DB            *database.DB
	IntakeSvc     intake.Service
	AssessmentSvc assessment.Service
	StatisticsSvc statistics.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	subjectRequired := middleware.SubjectRequired(r.p.Cfg.Identity.SubjectHeader)

	// 3. Initialize Handlers
	questionnaireH := handler.NewQuestionnaireHandler(r.p.IntakeSvc)
	assessmentH := handler.NewAssessmentHandler(r.p.AssessmentSvc)
	statisticsH := handler.NewStatisticsHandler(r.p.StatisticsSvc)

	api := app.Group("/api/v1")

	// 4. Delegate to sub-files
	r.registerQuestionnaireRoutes(api, questionnaireH, subjectRequired)
	r.registerAssessmentRoutes(api, assessmentH, subjectRequired)
	r.registerStatisticsRoutes(api, statisticsH, subjectRequired)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			ctx, cancel := context.WithTimeout(c.Context(), readinessTimeout)
			defer cancel()
			return r.p.DB.Ping(ctx) == nil
		},
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
