package missions

import (
	"context"
	"fmt"
	"io"
	"time"

	"automedon/internal/models"

	"github.com/google/uuid"
)

// DirectoryInterface is the slice of the users module the lifecycle manager
// needs: enough to notify mission owners and to gate claiming on profile
// completeness.
type DirectoryInterface interface {
	GetUserEmail(ctx context.Context, userID string) (string, error)
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// EventPublisherInterface publishes mission change notifications to the
// realtime feed. Implementations must be non-blocking from the caller's
// perspective; a failed publish is logged, never surfaced, since the row is
// already committed.
type EventPublisherInterface interface {
	PublishMissionEvent(ctx context.Context, missionID, statut, action string) error
}

// UploaderInterface stores a photo and returns its durable URL. Delete is
// the cleanup path when the record write after an upload fails.
type UploaderInterface interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// NotifierInterface sends the mission-assigned email to the mission owner.
type NotifierInterface interface {
	SendMissionClaimed(ctx context.Context, to string, mission *models.Mission) error
}

// ServiceInterface defines the mission lifecycle operations. Every mutating
// method takes the caller's identity and role and consults the lifecycle
// authorization table before touching storage.
type ServiceInterface interface {
	CreateMission(ctx context.Context, callerID, callerRole string, req models.CreateMissionRequest) (*models.Mission, error)
	GetMissionDetails(ctx context.Context, missionID, callerID, callerRole string) (*models.MissionDetails, error)
	ListAvailable(ctx context.Context, page, limit int) ([]*models.Mission, int, error)
	ListMine(ctx context.Context, callerID, callerRole string, page, limit int) ([]*models.Mission, int, error)

	ClaimMission(ctx context.Context, missionID, callerID, callerRole string) (*models.Mission, error)
	StartMission(ctx context.Context, missionID, callerID, callerRole string) (*models.Mission, error)
	AppendUpdate(ctx context.Context, missionID, callerID, callerRole string, req models.AppendUpdateRequest) (*models.MissionUpdate, error)
	AddExpense(ctx context.Context, missionID, callerID, callerRole string, req models.AddExpenseRequest, receipt *ReceiptUpload) (*models.MissionExpense, error)
	ListExpenses(ctx context.Context, missionID, callerID, callerRole string) ([]*models.MissionExpense, float64, error)
	CompleteMission(ctx context.Context, missionID, callerID, callerRole string, req models.CompleteMissionRequest) (*models.Mission, error)

	UploadPhoto(ctx context.Context, missionID, callerID, callerRole string, photo *ReceiptUpload) (string, error)
	SaveSheet(ctx context.Context, missionID, direction, callerID, callerRole string, req models.SaveSheetRequest) (*models.InspectionSheet, error)
	GetSheet(ctx context.Context, missionID, direction, callerID, callerRole string) (*models.InspectionSheet, error)
}

// ReceiptUpload carries an expense receipt photo to be stored before the
// expense row is written.
type ReceiptUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Service implements the mission lifecycle.
type Service struct {
	repo      RepositoryInterface
	directory DirectoryInterface
	publisher EventPublisherInterface
	uploader  UploaderInterface
	notifier  NotifierInterface
}

// NewService creates the mission lifecycle service.
func NewService(
	repo RepositoryInterface,
	directory DirectoryInterface,
	publisher EventPublisherInterface,
	uploader UploaderInterface,
	notifier NotifierInterface,
) ServiceInterface {
	return &Service{
		repo:      repo,
		directory: directory,
		publisher: publisher,
		uploader:  uploader,
		notifier:  notifier,
	}
}

// publish sends a feed event for an already-committed change. Best effort:
// the mutation is durable, so a feed hiccup must not fail the request.
func (s *Service) publish(ctx context.Context, missionID, statut, action string) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.PublishMissionEvent(ctx, missionID, statut, action)
}

// CreateMission creates a mission in the available state on behalf of a
// client or concessionnaire.
func (s *Service) CreateMission(ctx context.Context, callerID, callerRole string, req models.CreateMissionRequest) (*models.Mission, error) {
	if err := Authorize(ActionCreate, callerID, callerRole, nil); err != nil {
		return nil, err
	}
	if !req.HeureLimite.After(time.Now()) {
		return nil, fmt.Errorf("%w: heure_limite must be in the future", models.ErrValidation)
	}

	m, err := s.repo.Create(ctx, callerID, req)
	if err != nil {
		return nil, fmt.Errorf("service.CreateMission: %w", err)
	}
	s.publish(ctx, m.ID, m.Statut, "created")
	return m, nil
}

// GetMissionDetails returns a mission with its sub-records. Visible to the
// creator, the assigned convoyeur and admins; everyone else gets NotFound to
// avoid leaking mission existence.
func (s *Service) GetMissionDetails(ctx context.Context, missionID, callerID, callerRole string) (*models.MissionDetails, error) {
	details, err := s.repo.FindDetails(ctx, missionID)
	if err != nil {
		return nil, fmt.Errorf("service.GetMissionDetails: %w", err)
	}
	if !s.canView(&details.Mission, callerID, callerRole) {
		return nil, models.ErrNotFound
	}
	return details, nil
}

func (s *Service) canView(m *models.Mission, callerID, callerRole string) bool {
	if callerRole == models.RoleAdmin {
		return true
	}
	if m.ClientID == callerID {
		return true
	}
	if m.ConvoyeurID.Valid && m.ConvoyeurID.String == callerID {
		return true
	}
	// Convoyeurs may inspect missions still open for claiming.
	return callerRole == models.RoleConvoyeur && m.Statut == string(StatusAvailable)
}

// ListAvailable returns the claimable mission pool.
func (s *Service) ListAvailable(ctx context.Context, page, limit int) ([]*models.Mission, int, error) {
	return s.repo.ListAvailable(ctx, page, limit)
}

// ListMine returns the caller's missions: created ones for client-like
// roles, assigned ones for convoyeurs.
func (s *Service) ListMine(ctx context.Context, callerID, callerRole string, page, limit int) ([]*models.Mission, int, error) {
	if callerRole == models.RoleConvoyeur {
		return s.repo.ListByConvoyeur(ctx, callerID, page, limit)
	}
	return s.repo.ListByCreator(ctx, callerID, page, limit)
}

// ClaimMission lets a convoyeur take ownership of an available mission. The
// repository update is conditional, so of two concurrent claims exactly one
// wins and the other receives ErrAlreadyClaimed.
func (s *Service) ClaimMission(ctx context.Context, missionID, callerID, callerRole string) (*models.Mission, error) {
	m, err := s.repo.FindByID(ctx, missionID)
	if err != nil {
		return nil, fmt.Errorf("service.ClaimMission: %w", err)
	}
	if err := Authorize(ActionClaim, callerID, callerRole, m); err != nil {
		return nil, err
	}

	profile, err := s.directory.GetProfile(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("service.ClaimMission.GetProfile: %w", err)
	}
	if !profile.Complete() {
		return nil, models.ErrProfileIncomplete
	}

	claimed, err := s.repo.Claim(ctx, missionID, callerID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, claimed.ID, claimed.Statut, "claimed")

	// Owner notification is best effort: the claim is committed either way.
	if s.notifier != nil {
		if email, mailErr := s.directory.GetUserEmail(ctx, claimed.ClientID); mailErr == nil {
			_ = s.notifier.SendMissionClaimed(ctx, email, claimed)
		}
	}
	return claimed, nil
}

// StartMission moves an accepted mission to in_progress. Only the assigned
// convoyeur may do this.
func (s *Service) StartMission(ctx context.Context, missionID, callerID, callerRole string) (*models.Mission, error) {
	m, err := s.repo.FindByID(ctx, missionID)
	if err != nil {
		return nil, fmt.Errorf("service.StartMission: %w", err)
	}
	if err := Authorize(ActionStart, callerID, callerRole, m); err != nil {
		return nil, err
	}

	started, err := s.repo.Start(ctx, missionID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, started.ID, started.Statut, "started")
	return started, nil
}

// AppendUpdate adds an in-transit status note to a mission in progress.
func (s *Service) AppendUpdate(ctx context.Context, missionID, callerID, callerRole string, req models.AppendUpdateRequest) (*models.MissionUpdate, error) {
	m, err := s.repo.FindByID(ctx, missionID)
	if err != nil {
		return nil, fmt.Errorf("service.AppendUpdate: %w", err)
	}
	if err := Authorize(ActionAppend, callerID, callerRole, m); err != nil {
		return nil, err
	}

	u, err := s.repo.AppendUpdate(ctx, missionID, req)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, missionID, m.Statut, "update_added")
	return u, nil
}

// AddExpense logs a reimbursable cost. When a receipt photo accompanies the
// request, the object is uploaded first and the row written second; if the
// row write fails the uploaded object is deleted, so a failure never leaves
// an expense pointing at nothing or an orphan visible to the caller.
func (s *Service) AddExpense(ctx context.Context, missionID, callerID, callerRole string, req models.AddExpenseRequest, receipt *ReceiptUpload) (*models.MissionExpense, error) {
	m, err := s.repo.FindByID(ctx, missionID)
	if err != nil {
		return nil, fmt.Errorf("service.AddExpense: %w", err)
	}
	if err := Authorize(ActionAppend, callerID, callerRole, m); err != nil {
		return nil, err
	}

	var uploadedKey string
	if receipt != nil {
		key := fmt.Sprintf("missions/%s/expenses/%s-%s", missionID, uuid.NewString(), receipt.Filename)
		url, upErr := s.uploader.Upload(ctx, key, receipt.ContentType, receipt.Body)
		if upErr != nil {
			return nil, fmt.Errorf("service.AddExpense.Upload: %w", upErr)
		}
		req.PhotoURL = url
		uploadedKey = key
	}

	e, err := s.repo.AddExpense(ctx, missionID, req)
	if err != nil {
		if uploadedKey != "" {
			_ = s.uploader.Delete(ctx, uploadedKey)
		}
		return nil, err
	}
	s.publish(ctx, missionID, m.Statut, "expense_added")
	return e, nil
}

// ListExpenses returns a mission's expenses and their total. Visible to the
// same audience as the mission details.
func (s *Service) ListExpenses(ctx context.Context, missionID, callerID, callerRole string) ([]*models.MissionExpense, float64, error) {
	m, err := s.repo.FindByID(ctx, missionID)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ListExpenses: %w", err)
	}
	if !s.canView(m, callerID, callerRole) {
		return nil, 0, models.ErrNotFound
	}

	expenses, err := s.repo.ListExpenses(ctx, missionID)
	if err != nil {
		return nil, 0, err
	}
	var total float64
	for _, e := range expenses {
		total += e.Amount
	}
	return expenses, total, nil
}

// CompleteMission moves a mission in progress to its terminal delivered
// state. The mission is read-only afterwards.
func (s *Service) CompleteMission(ctx context.Context, missionID, callerID, callerRole string, req models.CompleteMissionRequest) (*models.Mission, error) {
	m, err := s.repo.FindByID(ctx, missionID)
	if err != nil {
		return nil, fmt.Errorf("service.CompleteMission: %w", err)
	}
	if err := Authorize(ActionComplete, callerID, callerRole, m); err != nil {
		return nil, err
	}

	completed, err := s.repo.Complete(ctx, missionID, req.Comment, req.Photos)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, completed.ID, completed.Statut, "delivered")
	return completed, nil
}

// UploadPhoto stores a photo for later attachment to an update or sheet and
// returns its durable URL. Restricted to the assigned convoyeur while the
// mission is still live; the record write referencing the URL happens in a
// follow-up request.
func (s *Service) UploadPhoto(ctx context.Context, missionID, callerID, callerRole string, photo *ReceiptUpload) (string, error) {
	m, err := s.repo.FindByID(ctx, missionID)
	if err != nil {
		return "", fmt.Errorf("service.UploadPhoto: %w", err)
	}
	if callerRole != models.RoleConvoyeur || !m.ConvoyeurID.Valid || m.ConvoyeurID.String != callerID {
		return "", models.ErrForbidden
	}
	if m.Statut == string(StatusDelivered) {
		return "", models.ErrInvalidTransition
	}

	key := fmt.Sprintf("missions/%s/photos/%s-%s", missionID, uuid.NewString(), photo.Filename)
	url, err := s.uploader.Upload(ctx, key, photo.ContentType, photo.Body)
	if err != nil {
		return "", fmt.Errorf("service.UploadPhoto.Upload: %w", err)
	}
	return url, nil
}

// SaveSheet creates or updates the inspection sheet for one direction. A
// departure sheet may be filled in as soon as the mission is accepted (the
// convoyeur inspects before driving off); arrival requires the mission to be
// in progress. Checklist data is only meaningful at departure.
func (s *Service) SaveSheet(ctx context.Context, missionID, direction, callerID, callerRole string, req models.SaveSheetRequest) (*models.InspectionSheet, error) {
	if direction != models.SheetDeparture && direction != models.SheetArrival {
		return nil, models.ErrSheetDirection
	}

	m, err := s.repo.FindByID(ctx, missionID)
	if err != nil {
		return nil, fmt.Errorf("service.SaveSheet: %w", err)
	}

	status, _ := ParseStatus(m.Statut)
	if direction == models.SheetDeparture && status == StatusAccepted {
		// Departure inspection happens before the trip starts; authorize it
		// as the start-adjacent action rather than a strict in-progress
		// append.
		if err := Authorize(ActionStart, callerID, callerRole, m); err != nil {
			return nil, err
		}
	} else {
		if err := Authorize(ActionAppend, callerID, callerRole, m); err != nil {
			return nil, err
		}
	}

	if direction == models.SheetArrival {
		req.Checklist = nil
	}

	sheet, err := s.repo.UpsertSheet(ctx, missionID, direction, req)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, missionID, m.Statut, direction+"_sheet_saved")
	return sheet, nil
}

// GetSheet retrieves the inspection sheet for one direction.
func (s *Service) GetSheet(ctx context.Context, missionID, direction, callerID, callerRole string) (*models.InspectionSheet, error) {
	if direction != models.SheetDeparture && direction != models.SheetArrival {
		return nil, models.ErrSheetDirection
	}

	m, err := s.repo.FindByID(ctx, missionID)
	if err != nil {
		return nil, fmt.Errorf("service.GetSheet: %w", err)
	}
	if !s.canView(m, callerID, callerRole) {
		return nil, models.ErrNotFound
	}
	return s.repo.GetSheet(ctx, missionID, direction)
}
