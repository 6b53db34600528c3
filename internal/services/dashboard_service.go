package services

import (
	"context"
	"math"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fuel-pricing/internal/authz"
	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
)

const recentActivityLimit = 10

type DashboardServiceInterface interface {
	GetDashboard(ctx context.Context) (*dto.DashboardDTO, error)
}

type DashboardService struct {
	*BaseService
	repo        repositories.DashboardRepositoryInterface
	historyRepo repositories.ApprovalHistoryRepositoryInterface
	logger      *zap.Logger
}

func NewDashboardService(
	base *BaseService,
	repo repositories.DashboardRepositoryInterface,
	historyRepo repositories.ApprovalHistoryRepositoryInterface,
	logger *zap.Logger,
) DashboardServiceInterface {
	return &DashboardService{BaseService: base, repo: repo, historyRepo: historyRepo, logger: logger}
}

// securityCondition limits aggregates to the suggestions the actor may list.
// nil means no restriction.
func securityCondition(actor *entities.User, perms map[string]bool) sq.Sqlizer {
	if perms[authz.Superuser] || perms[authz.ScopeAll] || (perms[authz.SuggestionsApprove] && actor.ApprovalLevel > 0) {
		return nil
	}
	visible := sq.Or{sq.Eq{"ps.requested_by": actor.ID}}
	if perms[authz.ScopeStation] && actor.StationID != nil {
		visible = append(visible, sq.Eq{"ps.station_id": *actor.StationID})
	}
	return visible
}

func approvalRate(counts map[string]int64) float64 {
	approved := counts[constants.SuggestionStatusApproved]
	decided := approved + counts[constants.SuggestionStatusRejected]
	if decided == 0 {
		return 0
	}
	return math.Round(float64(approved)/float64(decided)*10000) / 100
}

func (s *DashboardService) GetDashboard(ctx context.Context) (*dto.DashboardDTO, error) {
	actor, perms, err := s.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.SuggestionsView, authz.Context{Actor: actor, Permissions: perms}) {
		return nil, apperrors.ErrForbidden
	}
	cond := securityCondition(actor, perms)

	var (
		statuses []entities.StatusCount
		margins  []entities.ProductMargin
		levels   []entities.LevelCount
		recent   []entities.ApprovalHistory
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { statuses, err = s.repo.GetCountByStatus(gctx, cond); return })
	g.Go(func() (err error) { margins, err = s.repo.GetMarginByProduct(gctx, cond); return })
	g.Go(func() (err error) { levels, err = s.repo.GetPendingByLevel(gctx, cond); return })
	if cond == nil {
		g.Go(func() (err error) { recent, err = s.historyRepo.FindRecent(gctx, recentActivityLimit); return })
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load dashboard", zap.Uint64("userID", actor.ID), zap.Error(err))
		return nil, apperrors.ErrInternalServer
	}

	result := &dto.DashboardDTO{
		StatusCounts:    make(map[string]int64, len(constants.SuggestionStatuses)),
		MarginByProduct: make([]dto.ProductMarginDTO, 0, len(margins)),
		PendingByLevel:  make([]dto.LevelCountDTO, 0, len(levels)),
		RecentActivity:  make([]dto.HistoryEntryDTO, 0, len(recent)),
	}
	for _, status := range constants.SuggestionStatuses {
		result.StatusCounts[status] = 0
	}
	for _, sc := range statuses {
		result.StatusCounts[sc.Status] = sc.Count
		result.Total += sc.Count
	}
	result.ApprovalRate = approvalRate(result.StatusCounts)

	for _, m := range margins {
		result.MarginByProduct = append(result.MarginByProduct, dto.ProductMarginDTO{
			Product:       m.Product,
			ProductLabel:  productLabel(m.Product),
			AverageMargin: moneyToDTO(m.AvgMarginCents),
			MarginPercent: float64(m.AvgMarginBps) / 100,
			Count:         m.Count,
		})
	}
	for _, l := range levels {
		result.PendingByLevel = append(result.PendingByLevel, dto.LevelCountDTO{Level: l.Level, Count: l.Count})
	}
	for i := range recent {
		result.RecentActivity = append(result.RecentActivity, historyEntryToDTO(&recent[i]))
	}
	return result, nil
}
