// Package riskupdate applies a user's risk-factor measurements to the graph
// in the background: global edge refresh per type, then the personal edges.
package riskupdate

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/medgraph-backend/internal/jobs/runtime"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
	"github.com/yungbote/medgraph-backend/internal/riskfactor"
)

const JobType = "risk_profile_update"

const valueKeyPrefix = "rf:"

// NewJob builds the submission payload for one profile update.
func NewJob(userID string, values map[string]float64) runtime.Job {
	payload := map[string]string{"user_id": userID}
	for rfType, value := range values {
		payload[valueKeyPrefix+rfType] = strconv.FormatFloat(value, 'f', -1, 64)
	}
	return runtime.NewJob(JobType, payload)
}

type Handler struct {
	risk *riskfactor.Service
	log  *logger.Logger
}

func NewHandler(risk *riskfactor.Service, baseLog *logger.Logger) *Handler {
	return &Handler{
		risk: risk,
		log:  baseLog.With("job", JobType),
	}
}

func (h *Handler) Type() string { return JobType }

func (h *Handler) Run(ctx context.Context, job runtime.Job) error {
	userID := job.Payload["user_id"]
	if userID == "" {
		return fmt.Errorf("risk update job missing user_id")
	}

	values := make(map[string]float64)
	for key, raw := range job.Payload {
		if !strings.HasPrefix(key, valueKeyPrefix) {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.log.Warn("unparseable risk factor value, skipping",
				"rf_type", strings.TrimPrefix(key, valueKeyPrefix), "raw", raw)
			continue
		}
		values[strings.TrimPrefix(key, valueKeyPrefix)] = value
	}
	if len(values) == 0 {
		h.log.Info("risk update carried no values", "user_id", userID)
		return nil
	}

	for rfType, value := range values {
		if err := h.risk.UpsertRiskFactor(ctx, rfType, value); err != nil {
			return fmt.Errorf("global risk edges for %s: %w", rfType, err)
		}
	}
	h.risk.CreateUserRiskFactorRelationships(ctx, userID, values)
	return nil
}
