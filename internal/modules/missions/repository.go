package missions

import (
	"context"
	"errors"
	"fmt"

	"automedon/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const missionColumns = `id, immatriculation, modele, lieu_depart, lieu_arrivee, heure_limite,
	statut, client_id, convoyeur_id, client_price, convoyeur_payout,
	final_comment, final_photos, created_at, updated_at`

// RepositoryInterface defines the contract for mission storage.
type RepositoryInterface interface {
	Create(ctx context.Context, clientID string, req models.CreateMissionRequest) (*models.Mission, error)
	FindByID(ctx context.Context, missionID string) (*models.Mission, error)
	FindDetails(ctx context.Context, missionID string) (*models.MissionDetails, error)
	ListAvailable(ctx context.Context, page, limit int) ([]*models.Mission, int, error)
	ListByCreator(ctx context.Context, clientID string, page, limit int) ([]*models.Mission, int, error)
	ListByConvoyeur(ctx context.Context, convoyeurID string, page, limit int) ([]*models.Mission, int, error)
	ListAll(ctx context.Context, statut string, page, limit int) ([]*models.Mission, int, error)

	Claim(ctx context.Context, missionID, convoyeurID string) (*models.Mission, error)
	Start(ctx context.Context, missionID string) (*models.Mission, error)
	Complete(ctx context.Context, missionID, finalComment string, finalPhotos []string) (*models.Mission, error)

	AppendUpdate(ctx context.Context, missionID string, req models.AppendUpdateRequest) (*models.MissionUpdate, error)
	ListUpdates(ctx context.Context, missionID string) ([]*models.MissionUpdate, error)
	AddExpense(ctx context.Context, missionID string, req models.AddExpenseRequest) (*models.MissionExpense, error)
	ListExpenses(ctx context.Context, missionID string) ([]*models.MissionExpense, error)

	UpsertSheet(ctx context.Context, missionID, direction string, req models.SaveSheetRequest) (*models.InspectionSheet, error)
	GetSheet(ctx context.Context, missionID, direction string) (*models.InspectionSheet, error)

	UpdatePricing(ctx context.Context, missionID string, req models.PricingRequest) (*models.Mission, error)
	Reassign(ctx context.Context, missionID, convoyeurID string) (*models.Mission, error)
}

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new mission repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// scanMission is a helper to scan a row into a Mission model.
func scanMission(row pgx.Row) (*models.Mission, error) {
	var m models.Mission
	err := row.Scan(
		&m.ID,
		&m.Immatriculation,
		&m.Modele,
		&m.LieuDepart,
		&m.LieuArrivee,
		&m.HeureLimite,
		&m.Statut,
		&m.ClientID,
		&m.ConvoyeurID,
		&m.ClientPrice,
		&m.ConvoyeurPayout,
		&m.FinalComment,
		&m.FinalPhotos,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan mission: %w", err)
	}
	return &m, nil
}

// Create inserts a new mission in the available state.
func (r *Repository) Create(ctx context.Context, clientID string, req models.CreateMissionRequest) (*models.Mission, error) {
	query := `
		INSERT INTO missions (immatriculation, modele, lieu_depart, lieu_arrivee, heure_limite, statut, client_id)
		VALUES ($1, $2, $3, $4, $5, 'available', $6)
		RETURNING ` + missionColumns

	row := r.db.QueryRow(ctx, query,
		req.Immatriculation, req.Modele, req.LieuDepart, req.LieuArrivee, req.HeureLimite, clientID)
	m, err := scanMission(row)
	if err != nil {
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return m, nil
}

// FindByID retrieves a single mission by its ID.
func (r *Repository) FindByID(ctx context.Context, missionID string) (*models.Mission, error) {
	query := `SELECT ` + missionColumns + ` FROM missions WHERE id = $1`
	m, err := scanMission(r.db.QueryRow(ctx, query, missionID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return m, nil
}

// FindDetails retrieves a mission together with its updates, expenses and
// inspection sheets.
func (r *Repository) FindDetails(ctx context.Context, missionID string) (*models.MissionDetails, error) {
	m, err := r.FindByID(ctx, missionID)
	if err != nil {
		return nil, err
	}

	details := &models.MissionDetails{Mission: *m}

	if details.Updates, err = r.ListUpdates(ctx, missionID); err != nil {
		return nil, err
	}
	if details.Expenses, err = r.ListExpenses(ctx, missionID); err != nil {
		return nil, err
	}

	for _, direction := range []string{models.SheetDeparture, models.SheetArrival} {
		sheet, err := r.GetSheet(ctx, missionID, direction)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if direction == models.SheetDeparture {
			details.DepartureSheet = sheet
		} else {
			details.ArrivalSheet = sheet
		}
	}
	return details, nil
}

// listMissions runs a mission list query plus its count query.
func (r *Repository) listMissions(ctx context.Context, where string, page, limit int, args ...interface{}) ([]*models.Mission, int, error) {
	offset := (page - 1) * limit
	query := fmt.Sprintf(`
		SELECT %s FROM missions %s
		ORDER BY created_at DESC
		LIMIT %d OFFSET %d`, missionColumns, where, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.listMissions.Query: %w", err)
	}
	defer rows.Close()

	var missions []*models.Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.listMissions.Scan: %w", err)
		}
		missions = append(missions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.listMissions.Rows: %w", err)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM missions " + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.listMissions.Count: %w", err)
	}
	return missions, total, nil
}

// ListAvailable retrieves claimable missions, newest first.
func (r *Repository) ListAvailable(ctx context.Context, page, limit int) ([]*models.Mission, int, error) {
	return r.listMissions(ctx, "WHERE statut = 'available'", page, limit)
}

// ListByCreator retrieves the missions created by a client or concessionnaire.
func (r *Repository) ListByCreator(ctx context.Context, clientID string, page, limit int) ([]*models.Mission, int, error) {
	return r.listMissions(ctx, "WHERE client_id = $1", page, limit, clientID)
}

// ListByConvoyeur retrieves the missions assigned to a convoyeur.
func (r *Repository) ListByConvoyeur(ctx context.Context, convoyeurID string, page, limit int) ([]*models.Mission, int, error) {
	return r.listMissions(ctx, "WHERE convoyeur_id = $1", page, limit, convoyeurID)
}

// ListAll retrieves every mission, optionally filtered by status (admin use).
func (r *Repository) ListAll(ctx context.Context, statut string, page, limit int) ([]*models.Mission, int, error) {
	if statut == "" {
		return r.listMissions(ctx, "", page, limit)
	}
	return r.listMissions(ctx, "WHERE statut = $1", page, limit, statut)
}

// Claim atomically assigns a convoyeur to an available mission. The WHERE
// clause is the whole race policy: only a row that is still available and
// unassigned can match, so of two concurrent claims exactly one affects a
// row. Zero rows means the mission is gone or was taken first.
func (r *Repository) Claim(ctx context.Context, missionID, convoyeurID string) (*models.Mission, error) {
	query := `
		UPDATE missions
		SET statut = 'accepted', convoyeur_id = $1, updated_at = NOW()
		WHERE id = $2 AND statut = 'available' AND convoyeur_id IS NULL
		RETURNING ` + missionColumns

	m, err := scanMission(r.db.QueryRow(ctx, query, convoyeurID, missionID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Disambiguate a lost race from a bad id.
			if _, findErr := r.FindByID(ctx, missionID); findErr != nil {
				return nil, findErr
			}
			return nil, models.ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("repository.Claim: %w", err)
	}
	return m, nil
}

// Start moves an accepted mission to in_progress. Conditional on the current
// status so a stale request cannot rewind or repeat the transition.
func (r *Repository) Start(ctx context.Context, missionID string) (*models.Mission, error) {
	query := `
		UPDATE missions
		SET statut = 'in_progress', updated_at = NOW()
		WHERE id = $1 AND statut = 'accepted'
		RETURNING ` + missionColumns

	m, err := scanMission(r.db.QueryRow(ctx, query, missionID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			if _, findErr := r.FindByID(ctx, missionID); findErr != nil {
				return nil, findErr
			}
			return nil, models.ErrInvalidTransition
		}
		return nil, fmt.Errorf("repository.Start: %w", err)
	}
	return m, nil
}

// Complete moves an in_progress mission to its terminal delivered state and
// records the final delivery note.
func (r *Repository) Complete(ctx context.Context, missionID, finalComment string, finalPhotos []string) (*models.Mission, error) {
	query := `
		UPDATE missions
		SET statut = 'delivered', final_comment = $1, final_photos = $2, updated_at = NOW()
		WHERE id = $3 AND statut = 'in_progress'
		RETURNING ` + missionColumns

	if finalPhotos == nil {
		finalPhotos = []string{}
	}
	m, err := scanMission(r.db.QueryRow(ctx, query, finalComment, finalPhotos, missionID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			if _, findErr := r.FindByID(ctx, missionID); findErr != nil {
				return nil, findErr
			}
			return nil, models.ErrInvalidTransition
		}
		return nil, fmt.Errorf("repository.Complete: %w", err)
	}
	return m, nil
}

// AppendUpdate inserts an in-transit status note. When the request carries an
// idempotency key and a note with that key already exists, the stored note is
// returned instead of a duplicate being written.
func (r *Repository) AppendUpdate(ctx context.Context, missionID string, req models.AppendUpdateRequest) (*models.MissionUpdate, error) {
	photos := req.Photos
	if photos == nil {
		photos = []string{}
	}

	query := `
		INSERT INTO mission_updates (mission_id, comment, photos, idempotency_key)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		ON CONFLICT (mission_id, idempotency_key) DO NOTHING
		RETURNING id, mission_id, comment, photos, created_at`

	u := &models.MissionUpdate{}
	err := r.db.QueryRow(ctx, query, missionID, req.Comment, photos, req.IdempotencyKey).
		Scan(&u.ID, &u.MissionID, &u.Comment, &u.Photos, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) && req.IdempotencyKey != "" {
			return r.findUpdateByKey(ctx, missionID, req.IdempotencyKey)
		}
		return nil, fmt.Errorf("repository.AppendUpdate: %w", err)
	}
	return u, nil
}

func (r *Repository) findUpdateByKey(ctx context.Context, missionID, key string) (*models.MissionUpdate, error) {
	query := `
		SELECT id, mission_id, comment, photos, created_at
		FROM mission_updates
		WHERE mission_id = $1 AND idempotency_key = $2`

	u := &models.MissionUpdate{}
	err := r.db.QueryRow(ctx, query, missionID, key).
		Scan(&u.ID, &u.MissionID, &u.Comment, &u.Photos, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.findUpdateByKey: %w", err)
	}
	return u, nil
}

// ListUpdates returns the status log for a mission, oldest first.
func (r *Repository) ListUpdates(ctx context.Context, missionID string) ([]*models.MissionUpdate, error) {
	query := `
		SELECT id, mission_id, comment, photos, created_at
		FROM mission_updates
		WHERE mission_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, missionID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListUpdates: %w", err)
	}
	defer rows.Close()

	var updates []*models.MissionUpdate
	for rows.Next() {
		u := &models.MissionUpdate{}
		if err := rows.Scan(&u.ID, &u.MissionID, &u.Comment, &u.Photos, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository.ListUpdates.Scan: %w", err)
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListUpdates.Rows: %w", err)
	}
	return updates, nil
}

// AddExpense inserts a reimbursable cost with the same idempotency contract
// as AppendUpdate.
func (r *Repository) AddExpense(ctx context.Context, missionID string, req models.AddExpenseRequest) (*models.MissionExpense, error) {
	query := `
		INSERT INTO mission_expenses (mission_id, type, amount, description, photo_url, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		ON CONFLICT (mission_id, idempotency_key) DO NOTHING
		RETURNING id, mission_id, type, amount, description, photo_url, created_at`

	e := &models.MissionExpense{}
	err := r.db.QueryRow(ctx, query, missionID, req.Type, req.Amount, req.Description, req.PhotoURL, req.IdempotencyKey).
		Scan(&e.ID, &e.MissionID, &e.Type, &e.Amount, &e.Description, &e.PhotoURL, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) && req.IdempotencyKey != "" {
			return r.findExpenseByKey(ctx, missionID, req.IdempotencyKey)
		}
		return nil, fmt.Errorf("repository.AddExpense: %w", err)
	}
	return e, nil
}

func (r *Repository) findExpenseByKey(ctx context.Context, missionID, key string) (*models.MissionExpense, error) {
	query := `
		SELECT id, mission_id, type, amount, description, photo_url, created_at
		FROM mission_expenses
		WHERE mission_id = $1 AND idempotency_key = $2`

	e := &models.MissionExpense{}
	err := r.db.QueryRow(ctx, query, missionID, key).
		Scan(&e.ID, &e.MissionID, &e.Type, &e.Amount, &e.Description, &e.PhotoURL, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.findExpenseByKey: %w", err)
	}
	return e, nil
}

// ListExpenses returns a mission's expenses, oldest first.
func (r *Repository) ListExpenses(ctx context.Context, missionID string) ([]*models.MissionExpense, error) {
	query := `
		SELECT id, mission_id, type, amount, description, photo_url, created_at
		FROM mission_expenses
		WHERE mission_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, missionID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListExpenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.MissionExpense
	for rows.Next() {
		e := &models.MissionExpense{}
		if err := rows.Scan(&e.ID, &e.MissionID, &e.Type, &e.Amount, &e.Description, &e.PhotoURL, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository.ListExpenses.Scan: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListExpenses.Rows: %w", err)
	}
	return expenses, nil
}

const sheetColumns = `id, mission_id, direction, mileage, fuel_level, cleanliness,
	condition_notes, convoyeur_signature, client_signature, photos, checklist, created_at, updated_at`

func scanSheet(row pgx.Row) (*models.InspectionSheet, error) {
	s := &models.InspectionSheet{}
	err := row.Scan(
		&s.ID, &s.MissionID, &s.Direction, &s.Mileage, &s.FuelLevel, &s.Cleanliness,
		&s.ConditionNotes, &s.ConvoyeurSignature, &s.ClientSignature, &s.Photos,
		&s.Checklist, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan inspection sheet: %w", err)
	}
	return s, nil
}

// UpsertSheet creates or replaces the inspection sheet for a mission and
// direction. The unique key on (mission_id, direction) makes saving twice an
// update of the single stored sheet, never a second row.
func (r *Repository) UpsertSheet(ctx context.Context, missionID, direction string, req models.SaveSheetRequest) (*models.InspectionSheet, error) {
	photos := req.Photos
	if photos == nil {
		photos = []string{}
	}

	query := `
		INSERT INTO inspection_sheets
			(mission_id, direction, mileage, fuel_level, cleanliness, condition_notes,
			 convoyeur_signature, client_signature, photos, checklist)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (mission_id, direction) DO UPDATE SET
			mileage = EXCLUDED.mileage,
			fuel_level = EXCLUDED.fuel_level,
			cleanliness = EXCLUDED.cleanliness,
			condition_notes = EXCLUDED.condition_notes,
			convoyeur_signature = EXCLUDED.convoyeur_signature,
			client_signature = EXCLUDED.client_signature,
			photos = EXCLUDED.photos,
			checklist = EXCLUDED.checklist,
			updated_at = NOW()
		RETURNING ` + sheetColumns

	s, err := scanSheet(r.db.QueryRow(ctx, query,
		missionID, direction, req.Mileage, req.FuelLevel, req.Cleanliness,
		req.ConditionNotes, req.ConvoyeurSignature, req.ClientSignature, photos, req.Checklist))
	if err != nil {
		return nil, fmt.Errorf("repository.UpsertSheet: %w", err)
	}
	return s, nil
}

// GetSheet retrieves the inspection sheet for a mission and direction.
func (r *Repository) GetSheet(ctx context.Context, missionID, direction string) (*models.InspectionSheet, error) {
	query := `SELECT ` + sheetColumns + ` FROM inspection_sheets WHERE mission_id = $1 AND direction = $2`
	s, err := scanSheet(r.db.QueryRow(ctx, query, missionID, direction))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.GetSheet: %w", err)
	}
	return s, nil
}

// UpdatePricing sets the admin-controlled money fields. Independent of the
// state machine: legal in any status, never changes it.
func (r *Repository) UpdatePricing(ctx context.Context, missionID string, req models.PricingRequest) (*models.Mission, error) {
	query := `
		UPDATE missions
		SET client_price = COALESCE($1, client_price),
		    convoyeur_payout = COALESCE($2, convoyeur_payout),
		    updated_at = NOW()
		WHERE id = $3
		RETURNING ` + missionColumns

	m, err := scanMission(r.db.QueryRow(ctx, query, req.ClientPrice, req.ConvoyeurPayout, missionID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.UpdatePricing: %w", err)
	}
	return m, nil
}

// Reassign moves an already-assigned, unfinished mission to another
// convoyeur (admin recovery path).
func (r *Repository) Reassign(ctx context.Context, missionID, convoyeurID string) (*models.Mission, error) {
	query := `
		UPDATE missions
		SET convoyeur_id = $1, updated_at = NOW()
		WHERE id = $2 AND statut IN ('accepted', 'in_progress')
		RETURNING ` + missionColumns

	m, err := scanMission(r.db.QueryRow(ctx, query, convoyeurID, missionID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			if _, findErr := r.FindByID(ctx, missionID); findErr != nil {
				return nil, findErr
			}
			return nil, models.ErrInvalidTransition
		}
		return nil, fmt.Errorf("repository.Reassign: %w", err)
	}
	return m, nil
}
