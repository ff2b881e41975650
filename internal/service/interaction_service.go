package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/capyvagas/capyvagas-api/internal/models"
	appErrors "github.com/capyvagas/capyvagas-api/pkg/errors"
)

type interactionReader interface {
	List(ctx context.Context, filter models.InteractionFilter) ([]models.InteractionLog, int, error)
}

type jobSearchReader interface {
	List(ctx context.Context, filter models.JobSearchFilter) ([]models.JobSearchLog, int, error)
}

// InteractionService serves the dashboard's conversation history views.
type InteractionService struct {
	interactions interactionReader
	searches     jobSearchReader
	logger       *zap.Logger
}

// NewInteractionService constructs an InteractionService instance.
func NewInteractionService(interactions interactionReader, searches jobSearchReader, logger *zap.Logger) *InteractionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InteractionService{interactions: interactions, searches: searches, logger: logger}
}

// ListInteractions returns audited messages matching the filter.
func (s *InteractionService) ListInteractions(ctx context.Context, filter models.InteractionFilter) ([]models.InteractionLog, int, error) {
	normalizePaging(&filter.Page, &filter.PageSize)
	logs, total, err := s.interactions.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list interactions")
	}
	return logs, total, nil
}

// ListSearches returns audited job searches matching the filter.
func (s *InteractionService) ListSearches(ctx context.Context, filter models.JobSearchFilter) ([]models.JobSearchLog, int, error) {
	normalizePaging(&filter.Page, &filter.PageSize)
	logs, total, err := s.searches.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list job searches")
	}
	return logs, total, nil
}

func normalizePaging(page, pageSize *int) {
	if *page <= 0 {
		*page = 1
	}
	if *pageSize <= 0 || *pageSize > 200 {
		*pageSize = 50
	}
}
