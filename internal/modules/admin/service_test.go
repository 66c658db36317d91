package admin

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"automedon/internal/models"
	"automedon/internal/modules/missions"
	"automedon/internal/modules/users"
)

// The fakes embed the real interfaces and override only what the admin
// service touches; an unexpected call panics loudly.
type fakeMissionRepo struct {
	missions.RepositoryInterface
	missions map[string]*models.Mission

	listAllStatut string
}

func (r *fakeMissionRepo) FindByID(_ context.Context, missionID string) (*models.Mission, error) {
	m, ok := r.missions[missionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *m
	return &c, nil
}

func (r *fakeMissionRepo) ListAll(_ context.Context, statut string, _, _ int) ([]*models.Mission, int, error) {
	r.listAllStatut = statut
	return nil, 0, nil
}

func (r *fakeMissionRepo) UpdatePricing(_ context.Context, missionID string, req models.PricingRequest) (*models.Mission, error) {
	m, ok := r.missions[missionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if req.ClientPrice != nil {
		m.ClientPrice = sql.NullFloat64{Float64: *req.ClientPrice, Valid: true}
	}
	if req.ConvoyeurPayout != nil {
		m.ConvoyeurPayout = sql.NullFloat64{Float64: *req.ConvoyeurPayout, Valid: true}
	}
	c := *m
	return &c, nil
}

func (r *fakeMissionRepo) Reassign(_ context.Context, missionID, convoyeurID string) (*models.Mission, error) {
	m, ok := r.missions[missionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	m.ConvoyeurID = sql.NullString{String: convoyeurID, Valid: true}
	c := *m
	return &c, nil
}

type fakeUserRepo struct {
	users.RepositoryInterface
	users map[string]*models.User
}

func (r *fakeUserRepo) FindByID(_ context.Context, userID string) (*models.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func assigned(statut, convoyeurID string) *models.Mission {
	return &models.Mission{
		ID:          "m-1",
		Statut:      statut,
		ClientID:    "c-1",
		ConvoyeurID: sql.NullString{String: convoyeurID, Valid: convoyeurID != ""},
	}
}

func newTestService(m *models.Mission, u ...*models.User) (*fakeMissionRepo, ServiceInterface) {
	mr := &fakeMissionRepo{missions: map[string]*models.Mission{}}
	if m != nil {
		mr.missions[m.ID] = m
	}
	ur := &fakeUserRepo{users: map[string]*models.User{}}
	for _, user := range u {
		ur.users[user.ID] = user
	}
	return mr, NewService(mr, ur, nil)
}

func TestListAllMissionsNormalizesStatusFilter(t *testing.T) {
	t.Parallel()
	mr, svc := newTestService(nil)

	if _, _, err := svc.ListAllMissions(context.Background(), "en cours", 1, 20); err != nil {
		t.Fatalf("ListAllMissions: %v", err)
	}
	if mr.listAllStatut != "in_progress" {
		t.Errorf("filter passed to repository = %q, want in_progress", mr.listAllStatut)
	}

	if _, _, err := svc.ListAllMissions(context.Background(), "annulée", 1, 20); !errors.Is(err, models.ErrValidation) {
		t.Errorf("unknown filter err = %v, want ErrValidation", err)
	}
}

func TestSetPricing(t *testing.T) {
	t.Parallel()
	_, svc := newTestService(assigned("delivered", "v-1"))

	price := 540.0
	payout := 600.0 // payout above the client price is deliberately legal
	m, err := svc.SetPricing(context.Background(), "m-1", "a-1", models.PricingRequest{
		ClientPrice:     &price,
		ConvoyeurPayout: &payout,
	})
	if err != nil {
		t.Fatalf("SetPricing: %v", err)
	}
	if !m.ClientPrice.Valid || m.ClientPrice.Float64 != 540 {
		t.Errorf("client price = %+v, want 540", m.ClientPrice)
	}
	if !m.ConvoyeurPayout.Valid || m.ConvoyeurPayout.Float64 != 600 {
		t.Errorf("payout = %+v, want 600", m.ConvoyeurPayout)
	}
	if m.Statut != "delivered" {
		t.Errorf("pricing changed the status to %q", m.Statut)
	}
}

func TestReassignMission(t *testing.T) {
	t.Parallel()

	t.Run("moves an accepted mission to another convoyeur", func(t *testing.T) {
		t.Parallel()
		_, svc := newTestService(
			assigned("accepted", "v-1"),
			&models.User{ID: "v-2", Role: models.RoleConvoyeur},
		)
		m, err := svc.ReassignMission(context.Background(), "m-1", "a-1", models.ReassignRequest{ConvoyeurID: "v-2"})
		if err != nil {
			t.Fatalf("ReassignMission: %v", err)
		}
		if m.ConvoyeurID.String != "v-2" {
			t.Errorf("convoyeur = %q, want v-2", m.ConvoyeurID.String)
		}
	})

	t.Run("rejects a non-convoyeur target", func(t *testing.T) {
		t.Parallel()
		_, svc := newTestService(
			assigned("accepted", "v-1"),
			&models.User{ID: "c-2", Role: models.RoleClient},
		)
		_, err := svc.ReassignMission(context.Background(), "m-1", "a-1", models.ReassignRequest{ConvoyeurID: "c-2"})
		if !errors.Is(err, models.ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})

	t.Run("rejects an unclaimed mission", func(t *testing.T) {
		t.Parallel()
		_, svc := newTestService(
			assigned("available", ""),
			&models.User{ID: "v-2", Role: models.RoleConvoyeur},
		)
		_, err := svc.ReassignMission(context.Background(), "m-1", "a-1", models.ReassignRequest{ConvoyeurID: "v-2"})
		if !errors.Is(err, models.ErrInvalidTransition) {
			t.Fatalf("err = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("rejects a delivered mission", func(t *testing.T) {
		t.Parallel()
		_, svc := newTestService(
			assigned("delivered", "v-1"),
			&models.User{ID: "v-2", Role: models.RoleConvoyeur},
		)
		_, err := svc.ReassignMission(context.Background(), "m-1", "a-1", models.ReassignRequest{ConvoyeurID: "v-2"})
		if !errors.Is(err, models.ErrInvalidTransition) {
			t.Fatalf("err = %v, want ErrInvalidTransition", err)
		}
	})
}
