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
	"fuel-pricing/pkg/validation"
)

type ClientServiceInterface interface {
	GetClients(ctx context.Context, filter types.Filter) ([]dto.ClientDTO, uint64, error)
	FindClient(ctx context.Context, id uint64) (*dto.ClientDTO, error)
	CreateClient(ctx context.Context, payload dto.CreateClientDTO) (*dto.ClientDTO, error)
	UpdateClient(ctx context.Context, id uint64, payload dto.UpdateClientDTO) (*dto.ClientDTO, error)
	DeleteClient(ctx context.Context, id uint64) error
}

type ClientService struct {
	*BaseService
	txManager  repositories.TxManagerInterface
	clientRepo repositories.ClientRepositoryInterface
	logger     *zap.Logger
}

func NewClientService(
	base *BaseService,
	txManager repositories.TxManagerInterface,
	clientRepo repositories.ClientRepositoryInterface,
	logger *zap.Logger,
) ClientServiceInterface {
	return &ClientService{BaseService: base, txManager: txManager, clientRepo: clientRepo, logger: logger}
}

func digitsPtr(s *string) *string {
	if s == nil {
		return nil
	}
	d := validation.OnlyDigits(*s)
	if d == "" {
		return nil
	}
	return &d
}

func (s *ClientService) GetClients(ctx context.Context, filter types.Filter) ([]dto.ClientDTO, uint64, error) {
	if _, err := s.CheckPermission(ctx, authz.ClientsView); err != nil {
		return nil, 0, err
	}
	clients, total, err := s.clientRepo.GetClients(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]dto.ClientDTO, 0, len(clients))
	for i := range clients {
		dtos = append(dtos, clientToDTO(&clients[i]))
	}
	return dtos, total, nil
}

func (s *ClientService) FindClient(ctx context.Context, id uint64) (*dto.ClientDTO, error) {
	if _, err := s.CheckPermission(ctx, authz.ClientsView); err != nil {
		return nil, err
	}
	client, err := s.clientRepo.FindClient(ctx, id)
	if err != nil {
		return nil, err
	}
	result := clientToDTO(client)
	return &result, nil
}

func (s *ClientService) CreateClient(ctx context.Context, payload dto.CreateClientDTO) (*dto.ClientDTO, error) {
	actorID, err := s.CheckPermission(ctx, authz.ClientsCreate)
	if err != nil {
		return nil, err
	}
	client := &entities.Client{
		Name:      strings.TrimSpace(payload.Name),
		Document:  digitsPtr(payload.Document),
		Email:     payload.Email,
		Phone:     digitsPtr(payload.Phone),
		StationID: payload.StationID,
		Active:    true,
	}

	var id uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		id, err = s.clientRepo.CreateClient(ctx, tx, client)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("client created", zap.Uint64("clientID", id), zap.Uint64("createdBy", actorID))
	return s.FindClient(ctx, id)
}

func (s *ClientService) UpdateClient(ctx context.Context, id uint64, payload dto.UpdateClientDTO) (*dto.ClientDTO, error) {
	actorID, err := s.CheckPermission(ctx, authz.ClientsUpdate)
	if err != nil {
		return nil, err
	}
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		client, err := s.clientRepo.FindClient(ctx, id)
		if err != nil {
			return err
		}
		if payload.Name.Valid {
			client.Name = strings.TrimSpace(payload.Name.String)
		}
		if payload.Document.Valid {
			client.Document = digitsPtr(&payload.Document.String)
		}
		if payload.Email.Valid {
			client.Email = &payload.Email.String
		}
		if payload.Phone.Valid {
			client.Phone = digitsPtr(&payload.Phone.String)
		}
		if payload.StationID.Valid {
			if payload.StationID.Uint64 == 0 {
				client.StationID = nil
			} else {
				stationID := payload.StationID.Uint64
				client.StationID = &stationID
			}
		}
		if payload.Active.Valid {
			client.Active = payload.Active.Bool
		}
		return s.clientRepo.UpdateClient(ctx, tx, client)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("client updated", zap.Uint64("clientID", id), zap.Uint64("updatedBy", actorID))
	return s.FindClient(ctx, id)
}

func (s *ClientService) DeleteClient(ctx context.Context, id uint64) error {
	actorID, err := s.CheckPermission(ctx, authz.ClientsDelete)
	if err != nil {
		return err
	}
	if err := s.clientRepo.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.logger.Info("client deleted", zap.Uint64("clientID", id), zap.Uint64("deletedBy", actorID))
	return nil
}
