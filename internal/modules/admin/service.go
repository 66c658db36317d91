package admin

import (
	"context"
	"fmt"

	"automedon/internal/models"
	"automedon/internal/modules/missions"
	"automedon/internal/modules/users"
)

// ServiceInterface defines the back-office operations. Every method assumes
// the admin role was already established from the verified JWT; the
// lifecycle authorization table is still consulted for mission mutations so
// the rules live in exactly one place.
type ServiceInterface interface {
	ListAllMissions(ctx context.Context, statut string, page, limit int) ([]*models.Mission, int, error)
	GetMission(ctx context.Context, missionID string) (*models.MissionDetails, error)
	SetPricing(ctx context.Context, missionID, callerID string, req models.PricingRequest) (*models.Mission, error)
	ReassignMission(ctx context.Context, missionID, callerID string, req models.ReassignRequest) (*models.Mission, error)
	ListUsers(ctx context.Context, page, limit int) ([]*models.User, int, error)
}

// Service implements the admin back office on top of the mission and user
// repositories.
type Service struct {
	missionRepo missions.RepositoryInterface
	userRepo    users.RepositoryInterface
	publisher   missions.EventPublisherInterface
}

// NewService creates a new admin service.
func NewService(missionRepo missions.RepositoryInterface, userRepo users.RepositoryInterface, publisher missions.EventPublisherInterface) ServiceInterface {
	return &Service{missionRepo: missionRepo, userRepo: userRepo, publisher: publisher}
}

// ListAllMissions returns every mission, optionally filtered by status. The
// filter accepts the legacy French labels and folds them onto the canonical
// vocabulary.
func (s *Service) ListAllMissions(ctx context.Context, statut string, page, limit int) ([]*models.Mission, int, error) {
	if statut != "" {
		normalized, ok := missions.ParseStatus(statut)
		if !ok {
			return nil, 0, fmt.Errorf("%w: unknown status %q", models.ErrValidation, statut)
		}
		statut = string(normalized)
	}
	return s.missionRepo.ListAll(ctx, statut, page, limit)
}

// GetMission returns any mission with its sub-records.
func (s *Service) GetMission(ctx context.Context, missionID string) (*models.MissionDetails, error) {
	details, err := s.missionRepo.FindDetails(ctx, missionID)
	if err != nil {
		return nil, fmt.Errorf("admin.GetMission: %w", err)
	}
	return details, nil
}

// SetPricing updates the money fields of a mission. Independent of the state
// machine: allowed in any status and never changes it.
func (s *Service) SetPricing(ctx context.Context, missionID, callerID string, req models.PricingRequest) (*models.Mission, error) {
	m, err := s.missionRepo.FindByID(ctx, missionID)
	if err != nil {
		return nil, fmt.Errorf("admin.SetPricing: %w", err)
	}
	if err := missions.Authorize(missions.ActionSetPrice, callerID, models.RoleAdmin, m); err != nil {
		return nil, err
	}

	updated, err := s.missionRepo.UpdatePricing(ctx, missionID, req)
	if err != nil {
		return nil, err
	}
	if s.publisher != nil {
		_ = s.publisher.PublishMissionEvent(ctx, updated.ID, updated.Statut, "pricing_updated")
	}
	return updated, nil
}

// ReassignMission moves an assigned, unfinished mission to another
// convoyeur, the recovery path when a driver drops out.
func (s *Service) ReassignMission(ctx context.Context, missionID, callerID string, req models.ReassignRequest) (*models.Mission, error) {
	m, err := s.missionRepo.FindByID(ctx, missionID)
	if err != nil {
		return nil, fmt.Errorf("admin.ReassignMission: %w", err)
	}
	if err := missions.Authorize(missions.ActionReassign, callerID, models.RoleAdmin, m); err != nil {
		return nil, err
	}

	// The target must exist and be a convoyeur.
	target, err := s.userRepo.FindByID(ctx, req.ConvoyeurID)
	if err != nil {
		return nil, fmt.Errorf("admin.ReassignMission.FindTarget: %w", err)
	}
	if target.Role != models.RoleConvoyeur {
		return nil, fmt.Errorf("%w: target user is not a convoyeur", models.ErrValidation)
	}

	updated, err := s.missionRepo.Reassign(ctx, missionID, req.ConvoyeurID)
	if err != nil {
		return nil, err
	}
	if s.publisher != nil {
		_ = s.publisher.PublishMissionEvent(ctx, updated.ID, updated.Statut, "reassigned")
	}
	return updated, nil
}

// ListUsers returns all registered users.
func (s *Service) ListUsers(ctx context.Context, page, limit int) ([]*models.User, int, error) {
	return s.userRepo.ListUsers(ctx, page, limit)
}
