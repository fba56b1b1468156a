package sweeper

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/auction-api/internal/types"
	"github.com/ksred/auction-api/pkg/metrics"
	"github.com/ksred/auction-api/pkg/response"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service applies time-based status transitions to lots and stores:
// ARCHIVED entities whose window now contains "now" go ACTIVE, ACTIVE
// entities past their end time go ARCHIVED. The sweep only ever writes the
// status column, so it is safe to run alongside in-flight bids, and it is
// idempotent.
type Service struct {
	db *gorm.DB
}

// NewService creates a new sweeper service with the given database
// connection
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Sweep applies all due transitions as of now and returns the counts
func (s *Service) Sweep(now time.Time) (*types.SweepResponse, error) {
	logger := log.With().Str("component", "status_sweeper").Logger()
	result := &types.SweepResponse{}

	// Lots back into their live window
	res := s.db.Model(&types.Lot{}).
		Where("status = ? AND start_datetime <= ? AND end_datetime > ?", types.StatusArchived, now, now).
		Update("status", types.StatusActive)
	if res.Error != nil {
		return nil, res.Error
	}
	result.LotsActivated = int(res.RowsAffected)

	// Lots past their end
	res = s.db.Model(&types.Lot{}).
		Where("status = ? AND end_datetime <= ?", types.StatusActive, now).
		Update("status", types.StatusArchived)
	if res.Error != nil {
		return nil, res.Error
	}
	result.LotsArchived = int(res.RowsAffected)

	res = s.db.Model(&types.Store{}).
		Where("status = ? AND start_datetime <= ? AND end_datetime > ?", types.StatusArchived, now, now).
		Update("status", types.StatusActive)
	if res.Error != nil {
		return nil, res.Error
	}
	result.StoresActivated = int(res.RowsAffected)

	res = s.db.Model(&types.Store{}).
		Where("status = ? AND end_datetime <= ?", types.StatusActive, now).
		Update("status", types.StatusArchived)
	if res.Error != nil {
		return nil, res.Error
	}
	result.StoresArchived = int(res.RowsAffected)

	metrics.SweepTransitions.WithLabelValues("lot", "activated").Add(float64(result.LotsActivated))
	metrics.SweepTransitions.WithLabelValues("lot", "archived").Add(float64(result.LotsArchived))
	metrics.SweepTransitions.WithLabelValues("store", "activated").Add(float64(result.StoresActivated))
	metrics.SweepTransitions.WithLabelValues("store", "archived").Add(float64(result.StoresArchived))

	if result.LotsActivated+result.LotsArchived+result.StoresActivated+result.StoresArchived > 0 {
		logger.Info().
			Int("lots_activated", result.LotsActivated).
			Int("lots_archived", result.LotsArchived).
			Int("stores_activated", result.StoresActivated).
			Int("stores_archived", result.StoresArchived).
			Msg("applied status transitions")
	}

	return result, nil
}

// Processor runs the sweep on a fixed interval
type Processor struct {
	service  *Service
	interval time.Duration
}

func NewProcessor(service *Service, interval time.Duration) *Processor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Processor{service: service, interval: interval}
}

// Start begins the sweep loop; it returns when the context is cancelled
func (p *Processor) Start(ctx context.Context) {
	logger := log.With().Str("component", "status_sweeper").Logger()
	logger.Info().Dur("interval", p.interval).Msg("starting status sweeper")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down status sweeper")
			return
		case <-ticker.C:
			if _, err := p.service.Sweep(time.Now()); err != nil {
				logger.Error().Err(err).Msg("status sweep failed")
			}
		}
	}
}

// GinHandlers contains HTTP handlers for sweeper endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for sweeper endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// SweepHandler handles POST requests triggering a sweep immediately
func (h *GinHandlers) SweepHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := h.service.Sweep(time.Now())
		response.Handle(c, result, err)
	}
}
