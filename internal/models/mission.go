package models

import (
	"database/sql"
	"time"
)

// Mission represents a single vehicle-convoyance job from an origin to a
// destination with a deadline. Status values are owned by the missions
// package; the four canonical labels are "available", "accepted",
// "in_progress" and "delivered".
type Mission struct {
	ID              string          `json:"id"`
	Immatriculation string          `json:"immatriculation"`
	Modele          string          `json:"modele"`
	LieuDepart      string          `json:"lieu_depart"`
	LieuArrivee     string          `json:"lieu_arrivee"`
	HeureLimite     time.Time       `json:"heure_limite"`
	Statut          string          `json:"statut"`
	ClientID        string          `json:"client_id"`
	ConvoyeurID     sql.NullString  `json:"convoyeur_id,omitempty"`
	ClientPrice     sql.NullFloat64 `json:"client_price,omitempty"`
	ConvoyeurPayout sql.NullFloat64 `json:"convoyeur_payout,omitempty"`
	FinalComment    sql.NullString  `json:"final_comment,omitempty"`
	FinalPhotos     []string        `json:"final_photos,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// MissionDetails bundles a mission with its append-only sub-records for the
// detail view.
type MissionDetails struct {
	Mission
	Updates        []*MissionUpdate  `json:"updates"`
	Expenses       []*MissionExpense `json:"expenses"`
	DepartureSheet *InspectionSheet  `json:"departure_details,omitempty"`
	ArrivalSheet   *InspectionSheet  `json:"arrival_details,omitempty"`
}

// MissionUpdate is one entry of the in-transit status log.
type MissionUpdate struct {
	ID        string    `json:"id"`
	MissionID string    `json:"mission_id"`
	Comment   string    `json:"comment"`
	Photos    []string  `json:"photos"`
	CreatedAt time.Time `json:"created_at"`
}

// Expense types a convoyeur may log against a mission in progress.
const (
	ExpenseCarburant = "carburant"
	ExpensePeage     = "péage"
	ExpenseLavage    = "lavage"
	ExpenseAutre     = "autre"
)

// MissionExpense is one reimbursable cost logged by the assigned convoyeur.
type MissionExpense struct {
	ID          string    `json:"id"`
	MissionID   string    `json:"mission_id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateMissionRequest is the body for creating a mission.
type CreateMissionRequest struct {
	Immatriculation string    `json:"immatriculation" validate:"required,min=2,max=20"`
	Modele          string    `json:"modele" validate:"required,min=1,max=100"`
	LieuDepart      string    `json:"lieu_depart" validate:"required,min=2,max=300"`
	LieuArrivee     string    `json:"lieu_arrivee" validate:"required,min=2,max=300"`
	HeureLimite     time.Time `json:"heure_limite" validate:"required"`
}

// AppendUpdateRequest is the body for adding an in-transit status note.
// IdempotencyKey is optional; a retried submission carrying the same key is
// answered with the first-written update instead of a duplicate.
type AppendUpdateRequest struct {
	Comment        string   `json:"comment" validate:"required,min=1,max=2000"`
	Photos         []string `json:"photos,omitempty" validate:"omitempty,dive,url"`
	IdempotencyKey string   `json:"idempotency_key,omitempty" validate:"omitempty,uuid4"`
}

// AddExpenseRequest is the body for logging a reimbursable cost.
type AddExpenseRequest struct {
	Type           string  `json:"type" validate:"required,oneof=carburant péage lavage autre"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Description    string  `json:"description,omitempty" validate:"omitempty,max=500"`
	PhotoURL       string  `json:"photo_url,omitempty" validate:"omitempty,url"`
	IdempotencyKey string  `json:"idempotency_key,omitempty" validate:"omitempty,uuid4"`
}

// CompleteMissionRequest is the body for marking a mission delivered.
type CompleteMissionRequest struct {
	Comment string   `json:"comment,omitempty" validate:"omitempty,max=2000"`
	Photos  []string `json:"photos,omitempty" validate:"omitempty,dive,url"`
}

// PricingRequest is the admin-only body for setting mission money fields.
// The two amounts are independent: payout is deliberately not required to be
// less than or equal to the client price.
type PricingRequest struct {
	ClientPrice     *float64 `json:"client_price,omitempty" validate:"omitempty,gt=0"`
	ConvoyeurPayout *float64 `json:"convoyeur_payout,omitempty" validate:"omitempty,gt=0"`
}

// ReassignRequest is the admin-only body for moving a mission to another
// convoyeur.
type ReassignRequest struct {
	ConvoyeurID string `json:"convoyeur_id" validate:"required,uuid4"`
}
