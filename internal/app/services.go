package app

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/healthalyze/healthalyze_backend/config"
	"github.com/healthalyze/healthalyze_backend/internal/repo"
	"github.com/healthalyze/healthalyze_backend/internal/service/assessment"
	"github.com/healthalyze/healthalyze_backend/internal/service/intake"
	"github.com/healthalyze/healthalyze_backend/internal/service/statistics"
	"github.com/healthalyze/healthalyze_backend/internal/service/wizard"
	"github.com/healthalyze/healthalyze_backend/pkg/events"
	"github.com/healthalyze/healthalyze_backend/pkg/predictor"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		wizard.DefaultCatalog,
		ProvideDraftStore,
		ProvideIntakeService,
		ProvideAssessmentService,
		ProvideStatisticsService,
	),
)

func ProvideDraftStore(cfg *config.Config, rdb *redis.Client) intake.DraftStore {
	ttl := time.Duration(cfg.Drafts.TTLMinutes) * time.Minute
	if cfg.Drafts.Backend == "redis" && rdb != nil {
		return intake.NewRedisDrafts(rdb, ttl)
	}
	return intake.NewMemoryDrafts(ttl)
}

func ProvideIntakeService(
	catalog wizard.Catalog,
	drafts intake.DraftStore,
	store *repo.Store,
	client *predictor.Client,
	pub events.Publisher,
) intake.Service {
	return intake.New(catalog, drafts, store, intake.WizardPredictor(client), intake.WithEvents(pub))
}

func ProvideAssessmentService(store *repo.Store, catalog wizard.Catalog) assessment.Service {
	return assessment.New(store, catalog)
}

func ProvideStatisticsService(store *repo.Store) statistics.Service {
	return statistics.New(store)
}
