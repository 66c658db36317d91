package models

import "time"

// Inspection sheet directions. At most one sheet exists per
// (mission, direction) pair; saving again updates the existing sheet.
const (
	SheetDeparture = "departure"
	SheetArrival   = "arrival"
)

// Checklist holds the departure-only equipment inventory. Everything is a
// plain yes/no observation made before the vehicle leaves.
type Checklist struct {
	CarteGrise         bool `json:"carte_grise"`
	Assurance          bool `json:"assurance"`
	DoubleCles         bool `json:"double_cles"`
	RoueSecours        bool `json:"roue_secours"`
	KitSecurite        bool `json:"kit_securite"`
	GiletTriangle      bool `json:"gilet_triangle"`
	CarnetEntretien    bool `json:"carnet_entretien"`
	ManuelUtilisation  bool `json:"manuel_utilisation"`
	TapisSol           bool `json:"tapis_sol"`
	Antenne            bool `json:"antenne"`
	EnjoliveursComplet bool `json:"enjoliveurs_complet"`
	CableRecharge      bool `json:"cable_recharge"`
	CarburantPlein     bool `json:"carburant_plein"`
}

// InspectionSheet is the structured vehicle-condition report captured at
// departure and at arrival. Fuel and cleanliness are scored 1 (worst) to
// 8 (best).
type InspectionSheet struct {
	ID                 string     `json:"id"`
	MissionID          string     `json:"mission_id"`
	Direction          string     `json:"direction"`
	Mileage            int        `json:"mileage"`
	FuelLevel          int        `json:"fuel_level"`
	Cleanliness        int        `json:"cleanliness"`
	ConditionNotes     string     `json:"condition_notes,omitempty"`
	ConvoyeurSignature string     `json:"convoyeur_signature"`
	ClientSignature    string     `json:"client_signature"`
	Photos             []string   `json:"photos,omitempty"`
	Checklist          *Checklist `json:"checklist,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// SaveSheetRequest is the body for creating or updating an inspection sheet.
// Direction comes from the URL, not the body.
type SaveSheetRequest struct {
	Mileage            int        `json:"mileage" validate:"min=0"`
	FuelLevel          int        `json:"fuel_level" validate:"required,min=1,max=8"`
	Cleanliness        int        `json:"cleanliness" validate:"required,min=1,max=8"`
	ConditionNotes     string     `json:"condition_notes,omitempty" validate:"omitempty,max=4000"`
	ConvoyeurSignature string     `json:"convoyeur_signature" validate:"required,min=2,max=120"`
	ClientSignature    string     `json:"client_signature" validate:"required,min=2,max=120"`
	Photos             []string   `json:"photos,omitempty" validate:"omitempty,dive,url"`
	Checklist          *Checklist `json:"checklist,omitempty"`
}
