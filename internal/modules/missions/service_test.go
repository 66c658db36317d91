package missions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"automedon/internal/models"
)

// fakeRepo is an in-memory RepositoryInterface good enough to drive the
// service through a full mission lifecycle, including the conditional claim.
type fakeRepo struct {
	mu       sync.Mutex
	missions map[string]*models.Mission
	updates  map[string][]*models.MissionUpdate
	expenses map[string][]*models.MissionExpense
	sheets   map[string]*models.InspectionSheet

	failAddExpense bool
	seq            int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		missions: make(map[string]*models.Mission),
		updates:  make(map[string][]*models.MissionUpdate),
		expenses: make(map[string][]*models.MissionExpense),
		sheets:   make(map[string]*models.InspectionSheet),
	}
}

func (r *fakeRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *fakeRepo) Create(_ context.Context, clientID string, req models.CreateMissionRequest) (*models.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := &models.Mission{
		ID:              r.nextID("m"),
		Immatriculation: req.Immatriculation,
		Modele:          req.Modele,
		LieuDepart:      req.LieuDepart,
		LieuArrivee:     req.LieuArrivee,
		HeureLimite:     req.HeureLimite,
		Statut:          string(StatusAvailable),
		ClientID:        clientID,
	}
	r.missions[m.ID] = m
	return copyMission(m), nil
}

func (r *fakeRepo) FindByID(_ context.Context, missionID string) (*models.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.missions[missionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyMission(m), nil
}

func (r *fakeRepo) FindDetails(ctx context.Context, missionID string) (*models.MissionDetails, error) {
	m, err := r.FindByID(ctx, missionID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return &models.MissionDetails{
		Mission:        *m,
		Updates:        r.updates[missionID],
		Expenses:       r.expenses[missionID],
		DepartureSheet: r.sheets[missionID+"/"+models.SheetDeparture],
		ArrivalSheet:   r.sheets[missionID+"/"+models.SheetArrival],
	}, nil
}

func (r *fakeRepo) ListAvailable(context.Context, int, int) ([]*models.Mission, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Mission
	for _, m := range r.missions {
		if m.Statut == string(StatusAvailable) {
			out = append(out, copyMission(m))
		}
	}
	return out, len(out), nil
}

func (r *fakeRepo) ListByCreator(_ context.Context, clientID string, _, _ int) ([]*models.Mission, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Mission
	for _, m := range r.missions {
		if m.ClientID == clientID {
			out = append(out, copyMission(m))
		}
	}
	return out, len(out), nil
}

func (r *fakeRepo) ListByConvoyeur(_ context.Context, convoyeurID string, _, _ int) ([]*models.Mission, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Mission
	for _, m := range r.missions {
		if m.ConvoyeurID.Valid && m.ConvoyeurID.String == convoyeurID {
			out = append(out, copyMission(m))
		}
	}
	return out, len(out), nil
}

func (r *fakeRepo) ListAll(context.Context, string, int, int) ([]*models.Mission, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Mission
	for _, m := range r.missions {
		out = append(out, copyMission(m))
	}
	return out, len(out), nil
}

func (r *fakeRepo) Claim(_ context.Context, missionID, convoyeurID string) (*models.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.missions[missionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if m.Statut != string(StatusAvailable) || m.ConvoyeurID.Valid {
		return nil, models.ErrAlreadyClaimed
	}
	m.Statut = string(StatusAccepted)
	m.ConvoyeurID = sql.NullString{String: convoyeurID, Valid: true}
	return copyMission(m), nil
}

func (r *fakeRepo) Start(_ context.Context, missionID string) (*models.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.missions[missionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if m.Statut != string(StatusAccepted) {
		return nil, models.ErrInvalidTransition
	}
	m.Statut = string(StatusInProgress)
	return copyMission(m), nil
}

func (r *fakeRepo) Complete(_ context.Context, missionID, finalComment string, finalPhotos []string) (*models.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.missions[missionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if m.Statut != string(StatusInProgress) {
		return nil, models.ErrInvalidTransition
	}
	m.Statut = string(StatusDelivered)
	if finalComment != "" {
		m.FinalComment = sql.NullString{String: finalComment, Valid: true}
	}
	m.FinalPhotos = finalPhotos
	return copyMission(m), nil
}

func (r *fakeRepo) AppendUpdate(_ context.Context, missionID string, req models.AppendUpdateRequest) (*models.MissionUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := &models.MissionUpdate{
		ID:        r.nextID("u"),
		MissionID: missionID,
		Comment:   req.Comment,
		Photos:    req.Photos,
		CreatedAt: time.Now(),
	}
	r.updates[missionID] = append(r.updates[missionID], u)
	return u, nil
}

func (r *fakeRepo) ListUpdates(_ context.Context, missionID string) ([]*models.MissionUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates[missionID], nil
}

func (r *fakeRepo) AddExpense(_ context.Context, missionID string, req models.AddExpenseRequest) (*models.MissionExpense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAddExpense {
		return nil, errors.New("write failed")
	}
	e := &models.MissionExpense{
		ID:          r.nextID("e"),
		MissionID:   missionID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
		CreatedAt:   time.Now(),
	}
	r.expenses[missionID] = append(r.expenses[missionID], e)
	return e, nil
}

func (r *fakeRepo) ListExpenses(_ context.Context, missionID string) ([]*models.MissionExpense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expenses[missionID], nil
}

func (r *fakeRepo) UpsertSheet(_ context.Context, missionID, direction string, req models.SaveSheetRequest) (*models.InspectionSheet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := missionID + "/" + direction
	s, ok := r.sheets[key]
	if !ok {
		s = &models.InspectionSheet{ID: r.nextID("s"), MissionID: missionID, Direction: direction}
		r.sheets[key] = s
	}
	s.Mileage = req.Mileage
	s.FuelLevel = req.FuelLevel
	s.Cleanliness = req.Cleanliness
	s.ConditionNotes = req.ConditionNotes
	s.ConvoyeurSignature = req.ConvoyeurSignature
	s.ClientSignature = req.ClientSignature
	s.Photos = req.Photos
	s.Checklist = req.Checklist
	s.UpdatedAt = time.Now()
	return s, nil
}

func (r *fakeRepo) GetSheet(_ context.Context, missionID, direction string) (*models.InspectionSheet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sheets[missionID+"/"+direction]
	if !ok {
		return nil, models.ErrNotFound
	}
	return s, nil
}

func (r *fakeRepo) UpdatePricing(_ context.Context, missionID string, req models.PricingRequest) (*models.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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
	return copyMission(m), nil
}

func (r *fakeRepo) Reassign(_ context.Context, missionID, convoyeurID string) (*models.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.missions[missionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if m.Statut != string(StatusAccepted) && m.Statut != string(StatusInProgress) {
		return nil, models.ErrInvalidTransition
	}
	m.ConvoyeurID = sql.NullString{String: convoyeurID, Valid: true}
	return copyMission(m), nil
}

func copyMission(m *models.Mission) *models.Mission {
	c := *m
	return &c
}

type fakeDirectory struct {
	profiles map[string]*models.Profile
	emails   map[string]string
}

func (d *fakeDirectory) GetUserEmail(_ context.Context, userID string) (string, error) {
	if e, ok := d.emails[userID]; ok {
		return e, nil
	}
	return "", models.ErrNotFound
}

func (d *fakeDirectory) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	if p, ok := d.profiles[userID]; ok {
		return p, nil
	}
	return nil, models.ErrNotFound
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePublisher) PublishMissionEvent(_ context.Context, missionID, statut, action string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, action)
	return nil
}

func (p *fakePublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type fakeUploader struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
	failNext bool
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, body io.Reader) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.failNext {
		u.failNext = false
		return "", errors.New("upload failed")
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	u.uploaded = append(u.uploaded, key)
	return "https://bucket.example/" + key, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, key)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *fakeNotifier) SendMissionClaimed(_ context.Context, to string, _ *models.Mission) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, to)
	return nil
}

func completeConvoyeurProfile(userID string) *models.Profile {
	licence := "2015-06-01"
	birth := "1990-03-12"
	return &models.Profile{
		UserID:        userID,
		Role:          models.RoleConvoyeur,
		FirstName:     "Jean",
		LastName:      "Martin",
		Phone:         "0601020304",
		Address:       "1 rue de la Gare",
		PostalCode:    "75010",
		City:          "Paris",
		LicenceNumber: "123456789",
		LicenceDate:   &licence,
		BirthDate:     &birth,
	}
}

type testEnv struct {
	repo      *fakeRepo
	directory *fakeDirectory
	publisher *fakePublisher
	uploader  *fakeUploader
	notifier  *fakeNotifier
	svc       ServiceInterface
}

func newTestEnv() *testEnv {
	env := &testEnv{
		repo: newFakeRepo(),
		directory: &fakeDirectory{
			profiles: map[string]*models.Profile{"v-1": completeConvoyeurProfile("v-1")},
			emails:   map[string]string{"c-1": "client@example.com"},
		},
		publisher: &fakePublisher{},
		uploader:  &fakeUploader{},
		notifier:  &fakeNotifier{},
	}
	env.svc = NewService(env.repo, env.directory, env.publisher, env.uploader, env.notifier)
	return env
}

func (e *testEnv) createMission(t *testing.T) *models.Mission {
	t.Helper()
	m, err := e.svc.CreateMission(context.Background(), "c-1", models.RoleClient, models.CreateMissionRequest{
		Immatriculation: "AB-123-CD",
		Modele:          "Peugeot 308",
		LieuDepart:      "Paris",
		LieuArrivee:     "Lyon",
		HeureLimite:     time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateMission: %v", err)
	}
	return m
}

func TestCreateMissionRejectsPastDeadline(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	_, err := env.svc.CreateMission(context.Background(), "c-1", models.RoleClient, models.CreateMissionRequest{
		Immatriculation: "AB-123-CD",
		Modele:          "Peugeot 308",
		LieuDepart:      "Paris",
		LieuArrivee:     "Lyon",
		HeureLimite:     time.Now().Add(-time.Hour),
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestClaimRequiresCompleteProfile(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	m := env.createMission(t)

	incomplete := completeConvoyeurProfile("v-2")
	incomplete.LicenceNumber = ""
	env.directory.profiles["v-2"] = incomplete

	_, err := env.svc.ClaimMission(context.Background(), m.ID, "v-2", models.RoleConvoyeur)
	if !errors.Is(err, models.ErrProfileIncomplete) {
		t.Fatalf("err = %v, want ErrProfileIncomplete", err)
	}

	got, _ := env.repo.FindByID(context.Background(), m.ID)
	if got.Statut != string(StatusAvailable) {
		t.Errorf("mission left available pool despite rejected claim: %s", got.Statut)
	}
}

func TestClaimSecondCallerLosesRace(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	m := env.createMission(t)
	env.directory.profiles["v-2"] = completeConvoyeurProfile("v-2")

	if _, err := env.svc.ClaimMission(context.Background(), m.ID, "v-1", models.RoleConvoyeur); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	_, err := env.svc.ClaimMission(context.Background(), m.ID, "v-2", models.RoleConvoyeur)
	if !errors.Is(err, models.ErrAlreadyClaimed) {
		t.Fatalf("second claim err = %v, want ErrAlreadyClaimed", err)
	}

	got, _ := env.repo.FindByID(context.Background(), m.ID)
	if got.ConvoyeurID.String != "v-1" {
		t.Errorf("winner = %q, want v-1", got.ConvoyeurID.String)
	}
	if len(env.notifier.sent) != 1 || env.notifier.sent[0] != "client@example.com" {
		t.Errorf("owner notification = %v, want one mail to client@example.com", env.notifier.sent)
	}
}

func TestAddExpenseDeletesUploadWhenWriteFails(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	m := env.createMission(t)

	if _, err := env.svc.ClaimMission(context.Background(), m.ID, "v-1", models.RoleConvoyeur); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := env.svc.StartMission(context.Background(), m.ID, "v-1", models.RoleConvoyeur); err != nil {
		t.Fatalf("start: %v", err)
	}

	env.repo.failAddExpense = true
	_, err := env.svc.AddExpense(context.Background(), m.ID, "v-1", models.RoleConvoyeur,
		models.AddExpenseRequest{Type: models.ExpenseCarburant, Amount: 42.50},
		&ReceiptUpload{Filename: "receipt.jpg", ContentType: "image/jpeg", Body: strings.NewReader("jpeg")},
	)
	if err == nil {
		t.Fatal("expected write failure")
	}
	if len(env.uploader.uploaded) != 1 {
		t.Fatalf("uploads = %d, want 1", len(env.uploader.uploaded))
	}
	if len(env.uploader.deleted) != 1 || env.uploader.deleted[0] != env.uploader.uploaded[0] {
		t.Errorf("orphan receipt not cleaned up: deleted=%v uploaded=%v", env.uploader.deleted, env.uploader.uploaded)
	}
}

func TestSaveSheetDirections(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	m := env.createMission(t)

	if _, err := env.svc.ClaimMission(context.Background(), m.ID, "v-1", models.RoleConvoyeur); err != nil {
		t.Fatalf("claim: %v", err)
	}

	req := models.SaveSheetRequest{
		Mileage:            52000,
		FuelLevel:          6,
		Cleanliness:        7,
		ConvoyeurSignature: "J. Martin",
		ClientSignature:    "A. Dupont",
		Checklist:          &models.Checklist{CarteGrise: true, DoubleCles: true},
	}

	// Departure sheet is allowed while merely accepted.
	sheet, err := env.svc.SaveSheet(context.Background(), m.ID, models.SheetDeparture, "v-1", models.RoleConvoyeur, req)
	if err != nil {
		t.Fatalf("departure sheet: %v", err)
	}
	if sheet.Checklist == nil || !sheet.Checklist.CarteGrise {
		t.Error("departure sheet lost its checklist")
	}

	// Arrival before the trip starts is rejected.
	if _, err := env.svc.SaveSheet(context.Background(), m.ID, models.SheetArrival, "v-1", models.RoleConvoyeur, req); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("arrival while accepted err = %v, want ErrInvalidTransition", err)
	}

	if _, err := env.svc.StartMission(context.Background(), m.ID, "v-1", models.RoleConvoyeur); err != nil {
		t.Fatalf("start: %v", err)
	}

	arrival, err := env.svc.SaveSheet(context.Background(), m.ID, models.SheetArrival, "v-1", models.RoleConvoyeur, req)
	if err != nil {
		t.Fatalf("arrival sheet: %v", err)
	}
	if arrival.Checklist != nil {
		t.Error("arrival sheet must not carry a checklist")
	}

	// Saving departure again updates in place.
	req.Mileage = 52010
	again, err := env.svc.SaveSheet(context.Background(), m.ID, models.SheetDeparture, "v-1", models.RoleConvoyeur, req)
	if err != nil {
		t.Fatalf("departure resave: %v", err)
	}
	if again.ID != sheet.ID || again.Mileage != 52010 {
		t.Errorf("resave created a second sheet: first=%s second=%s", sheet.ID, again.ID)
	}

	if _, err := env.svc.SaveSheet(context.Background(), m.ID, "sideways", "v-1", models.RoleConvoyeur, req); !errors.Is(err, models.ErrSheetDirection) {
		t.Fatalf("bad direction err = %v, want ErrSheetDirection", err)
	}
}

func TestMissionDetailsVisibility(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	m := env.createMission(t)

	if _, err := env.svc.GetMissionDetails(context.Background(), m.ID, "c-1", models.RoleClient); err != nil {
		t.Errorf("creator view: %v", err)
	}
	if _, err := env.svc.GetMissionDetails(context.Background(), m.ID, "v-9", models.RoleConvoyeur); err != nil {
		t.Errorf("convoyeur view of available mission: %v", err)
	}
	if _, err := env.svc.GetMissionDetails(context.Background(), m.ID, "c-2", models.RoleClient); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("stranger view err = %v, want ErrNotFound", err)
	}

	if _, err := env.svc.ClaimMission(context.Background(), m.ID, "v-1", models.RoleConvoyeur); err != nil {
		t.Fatalf("claim: %v", err)
	}
	// Once claimed, other convoyeurs no longer see it.
	if _, err := env.svc.GetMissionDetails(context.Background(), m.ID, "v-9", models.RoleConvoyeur); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("non-assigned convoyeur err = %v, want ErrNotFound", err)
	}
	if _, err := env.svc.GetMissionDetails(context.Background(), m.ID, "a-1", models.RoleAdmin); err != nil {
		t.Errorf("admin view: %v", err)
	}
}

func TestFullMissionLifecycle(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()
	m := env.createMission(t)

	if _, err := env.svc.ClaimMission(ctx, m.ID, "v-1", models.RoleConvoyeur); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := env.svc.StartMission(ctx, m.ID, "v-1", models.RoleConvoyeur); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.svc.AppendUpdate(ctx, m.ID, "v-1", models.RoleConvoyeur, models.AppendUpdateRequest{Comment: "Péage de Fleury passé"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := env.svc.AddExpense(ctx, m.ID, "v-1", models.RoleConvoyeur, models.AddExpenseRequest{Type: models.ExpensePeage, Amount: 12.25}, nil); err != nil {
		t.Fatalf("expense: %v", err)
	}
	if _, err := env.svc.AddExpense(ctx, m.ID, "v-1", models.RoleConvoyeur, models.AddExpenseRequest{Type: models.ExpenseCarburant, Amount: 60}, nil); err != nil {
		t.Fatalf("expense: %v", err)
	}

	expenses, total, err := env.svc.ListExpenses(ctx, m.ID, "c-1", models.RoleClient)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(expenses) != 2 || total != 72.25 {
		t.Errorf("expenses = %d total = %.2f, want 2 / 72.25", len(expenses), total)
	}

	delivered, err := env.svc.CompleteMission(ctx, m.ID, "v-1", models.RoleConvoyeur, models.CompleteMissionRequest{Comment: "RAS"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if delivered.Statut != string(StatusDelivered) {
		t.Fatalf("statut = %s, want delivered", delivered.Statut)
	}

	// The mission is read-only once delivered.
	if _, err := env.svc.AppendUpdate(ctx, m.ID, "v-1", models.RoleConvoyeur, models.AppendUpdateRequest{Comment: "trop tard"}); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("append after delivery err = %v, want ErrInvalidTransition", err)
	}
	if _, err := env.svc.CompleteMission(ctx, m.ID, "v-1", models.RoleConvoyeur, models.CompleteMissionRequest{}); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("second complete err = %v, want ErrInvalidTransition", err)
	}

	want := []string{"created", "claimed", "started", "update_added", "expense_added", "expense_added", "delivered"}
	got := env.publisher.actions()
	if len(got) != len(want) {
		t.Fatalf("published actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("published actions = %v, want %v", got, want)
		}
	}
}

func TestUploadPhotoGating(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()
	m := env.createMission(t)

	photo := func() *ReceiptUpload {
		return &ReceiptUpload{Filename: "p.jpg", ContentType: "image/jpeg", Body: strings.NewReader("jpeg")}
	}

	if _, err := env.svc.UploadPhoto(ctx, m.ID, "v-1", models.RoleConvoyeur, photo()); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("photo before claim err = %v, want ErrForbidden", err)
	}

	if _, err := env.svc.ClaimMission(ctx, m.ID, "v-1", models.RoleConvoyeur); err != nil {
		t.Fatalf("claim: %v", err)
	}
	url, err := env.svc.UploadPhoto(ctx, m.ID, "v-1", models.RoleConvoyeur, photo())
	if err != nil {
		t.Fatalf("photo: %v", err)
	}
	if url == "" {
		t.Error("empty photo URL")
	}

	if _, err := env.svc.StartMission(ctx, m.ID, "v-1", models.RoleConvoyeur); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.svc.CompleteMission(ctx, m.ID, "v-1", models.RoleConvoyeur, models.CompleteMissionRequest{}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := env.svc.UploadPhoto(ctx, m.ID, "v-1", models.RoleConvoyeur, photo()); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("photo after delivery err = %v, want ErrInvalidTransition", err)
	}
}
