package intake

import (
	"context"

	"github.com/healthalyze/healthalyze_backend/internal/service/wizard"
	"github.com/healthalyze/healthalyze_backend/pkg/predictor"
)

// PredictionClient is the remote predictor; *predictor.Client implements it.
type PredictionClient interface {
	Predict(ctx context.Context, req predictor.Request) (*predictor.Response, error)
}

// WizardPredictor adapts a PredictionClient to the questionnaire.
func WizardPredictor(c PredictionClient) wizard.Predictor {
	return wizard.PredictorFunc(func(ctx context.Context, s wizard.Submission) (*wizard.Prediction, error) {
		resp, err := c.Predict(ctx, predictor.Request{
			Age:              s.Age,
			Hypertension:     s.Hypertension,
			HeartDisease:     s.HeartDisease,
			AvgGlucoseLevel:  s.AvgGlucoseLevel,
			BMI:              s.BMI,
			Height:           s.Height,
			Weight:           s.Weight,
			Gender:           s.Gender,
			SmokingStatus:    s.SmokingStatus,
			Residence:        s.Residence,
			WorkType:         s.WorkType,
			EverMarried:      s.EverMarried,
			PhysicalActivity: s.PhysicalActivity,
		})
		if err != nil {
			return nil, err
		}
		return &wizard.Prediction{
			Probability: resp.StrokeProbability,
			RiskLevel:   resp.RiskLevel,
			Advice:      resp.Advice,
		}, nil
	})
}
