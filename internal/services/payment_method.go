package services

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fuel-pricing/internal/authz"
	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/pkg/types"
)

type PaymentMethodServiceInterface interface {
	GetPaymentMethods(ctx context.Context, filter types.Filter) ([]dto.PaymentMethodDTO, uint64, error)
	FindPaymentMethod(ctx context.Context, id uint64) (*dto.PaymentMethodDTO, error)
	CreatePaymentMethod(ctx context.Context, payload dto.CreatePaymentMethodDTO) (*dto.PaymentMethodDTO, error)
	UpdatePaymentMethod(ctx context.Context, id uint64, payload dto.UpdatePaymentMethodDTO) (*dto.PaymentMethodDTO, error)
	DeletePaymentMethod(ctx context.Context, id uint64) error
}

type PaymentMethodService struct {
	*BaseService
	txManager repositories.TxManagerInterface
	repo      repositories.PaymentMethodRepositoryInterface
	logger    *zap.Logger
}

func NewPaymentMethodService(
	base *BaseService,
	txManager repositories.TxManagerInterface,
	repo repositories.PaymentMethodRepositoryInterface,
	logger *zap.Logger,
) PaymentMethodServiceInterface {
	return &PaymentMethodService{BaseService: base, txManager: txManager, repo: repo, logger: logger}
}

func (s *PaymentMethodService) GetPaymentMethods(ctx context.Context, filter types.Filter) ([]dto.PaymentMethodDTO, uint64, error) {
	if _, err := s.CheckPermission(ctx, authz.PaymentMethodsView); err != nil {
		return nil, 0, err
	}
	methods, total, err := s.repo.GetPaymentMethods(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]dto.PaymentMethodDTO, 0, len(methods))
	for i := range methods {
		dtos = append(dtos, paymentMethodToDTO(&methods[i]))
	}
	return dtos, total, nil
}

func (s *PaymentMethodService) FindPaymentMethod(ctx context.Context, id uint64) (*dto.PaymentMethodDTO, error) {
	if _, err := s.CheckPermission(ctx, authz.PaymentMethodsView); err != nil {
		return nil, err
	}
	pm, err := s.repo.FindPaymentMethod(ctx, id)
	if err != nil {
		return nil, err
	}
	result := paymentMethodToDTO(pm)
	return &result, nil
}

func (s *PaymentMethodService) CreatePaymentMethod(ctx context.Context, payload dto.CreatePaymentMethodDTO) (*dto.PaymentMethodDTO, error) {
	actorID, err := s.CheckPermission(ctx, authz.PaymentMethodsCreate)
	if err != nil {
		return nil, err
	}
	pm := &entities.PaymentMethod{
		Name:           strings.TrimSpace(payload.Name),
		Kind:           payload.Kind,
		FeeBps:         payload.FeeBps,
		SettlementDays: payload.SettlementDays,
		Active:         true,
	}
	var id uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		id, err = s.repo.CreatePaymentMethod(ctx, tx, pm)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("payment method created", zap.Uint64("paymentMethodID", id), zap.Uint64("createdBy", actorID))
	return s.FindPaymentMethod(ctx, id)
}

func (s *PaymentMethodService) UpdatePaymentMethod(ctx context.Context, id uint64, payload dto.UpdatePaymentMethodDTO) (*dto.PaymentMethodDTO, error) {
	actorID, err := s.CheckPermission(ctx, authz.PaymentMethodsUpdate)
	if err != nil {
		return nil, err
	}
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		pm, err := s.repo.FindPaymentMethod(ctx, id)
		if err != nil {
			return err
		}
		if payload.Name.Valid {
			pm.Name = strings.TrimSpace(payload.Name.String)
		}
		if payload.Kind.Valid {
			pm.Kind = payload.Kind.String
		}
		if payload.FeeBps.Valid {
			pm.FeeBps = int(payload.FeeBps.Int64)
		}
		if payload.SettlementDays.Valid {
			pm.SettlementDays = int(payload.SettlementDays.Int64)
		}
		if payload.Active.Valid {
			pm.Active = payload.Active.Bool
		}
		return s.repo.UpdatePaymentMethod(ctx, tx, pm)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("payment method updated", zap.Uint64("paymentMethodID", id), zap.Uint64("updatedBy", actorID))
	return s.FindPaymentMethod(ctx, id)
}

func (s *PaymentMethodService) DeletePaymentMethod(ctx context.Context, id uint64) error {
	actorID, err := s.CheckPermission(ctx, authz.PaymentMethodsDelete)
	if err != nil {
		return err
	}
	if err := s.repo.DeletePaymentMethod(ctx, id); err != nil {
		return err
	}
	s.logger.Info("payment method deleted", zap.Uint64("paymentMethodID", id), zap.Uint64("deletedBy", actorID))
	return nil
}
