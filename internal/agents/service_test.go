package agents

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
	pkgerrors "github.com/shopsphere/shopsphere-backend/pkg/errors"
	"github.com/shopsphere/shopsphere-backend/pkg/logger"
)

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRepo struct {
	profiles map[uuid.UUID]*models.AgentProfile
	logs     []models.AgentApprovalLog
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{profiles: map[uuid.UUID]*models.AgentProfile{}}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.AgentProfile, error) {
	return f.FindByIDForUpdate(ctx, id)
}

func (f *fakeRepo) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*models.AgentProfile, error) {
	if p, ok := f.profiles[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*models.AgentProfile, error) {
	for _, p := range f.profiles {
		if p.UserID == userID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) Create(_ context.Context, profile *models.AgentProfile) error {
	copied := *profile
	f.profiles[profile.ID] = &copied
	return nil
}

func (f *fakeRepo) Save(_ context.Context, profile *models.AgentProfile) error {
	copied := *profile
	f.profiles[profile.ID] = &copied
	return nil
}

func (f *fakeRepo) List(_ context.Context, approval enums.AgentApprovalStatus, _ int) ([]models.AgentProfile, error) {
	var out []models.AgentProfile
	for _, p := range f.profiles {
		if approval != "" && p.ApprovalStatus != approval {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeRepo) AppendApprovalLog(_ context.Context, row *models.AgentApprovalLog) error {
	f.logs = append(f.logs, *row)
	return nil
}

func (f *fakeRepo) ListApprovalLogs(_ context.Context, agentID uuid.UUID) ([]models.AgentApprovalLog, error) {
	var out []models.AgentApprovalLog
	for _, row := range f.logs {
		if row.AgentID == agentID {
			out = append(out, row)
		}
	}
	return out, nil
}

func newService(t *testing.T, repo *fakeRepo) Service {
	t.Helper()
	svc, err := NewService(fakeTx{}, repo, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func codeOf(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	return appErr.Code()
}

func seedAgent(repo *fakeRepo, approval enums.AgentApprovalStatus) *models.AgentProfile {
	profile := &models.AgentProfile{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		ApprovalStatus: approval,
	}
	repo.profiles[profile.ID] = profile
	return profile
}

func TestApprovePendingAgent(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(t, repo)

	agent := seedAgent(repo, enums.AgentApprovalPending)
	adminID := uuid.New()

	got, err := svc.Approve(context.Background(), agent.ID, adminID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.ApprovalStatus != enums.AgentApprovalApproved {
		t.Fatalf("status = %s, want approved", got.ApprovalStatus)
	}
	if len(repo.logs) != 1 {
		t.Fatalf("expected one approval log, got %d", len(repo.logs))
	}
	log := repo.logs[0]
	if log.Action != "approve" || log.AdminUserID != adminID || log.AgentID != agent.ID {
		t.Fatalf("log = %+v", log)
	}
}

func TestApproveRejectsNonPending(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(t, repo)

	agent := seedAgent(repo, enums.AgentApprovalApproved)

	_, err := svc.Approve(context.Background(), agent.ID, uuid.New())
	if codeOf(t, err) != pkgerrors.CodeStateConflict {
		t.Fatalf("code = %s, want STATE_CONFLICT", codeOf(t, err))
	}
}

func TestRejectRequiresReason(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(t, repo)

	agent := seedAgent(repo, enums.AgentApprovalPending)

	_, err := svc.Reject(context.Background(), agent.ID, uuid.New(), "")
	if codeOf(t, err) != pkgerrors.CodeValidation {
		t.Fatalf("code = %s, want VALIDATION_ERROR", codeOf(t, err))
	}

	got, err := svc.Reject(context.Background(), agent.ID, uuid.New(), "incomplete documents")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if got.ApprovalStatus != enums.AgentApprovalRejected {
		t.Fatalf("status = %s, want rejected", got.ApprovalStatus)
	}
	if repo.logs[len(repo.logs)-1].Reason != "incomplete documents" {
		t.Fatalf("reason not recorded: %+v", repo.logs)
	}
}

func TestBlockUnblockRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(t, repo)

	agent := seedAgent(repo, enums.AgentApprovalApproved)
	adminID := uuid.New()

	got, err := svc.Block(context.Background(), agent.ID, adminID, "repeated failed deliveries")
	if err != nil {
		t.Fatalf("Block: %v", err)
	}
	if !got.IsBlocked {
		t.Fatalf("agent should be blocked")
	}

	if _, err := svc.Block(context.Background(), agent.ID, adminID, "again"); codeOf(t, err) != pkgerrors.CodeStateConflict {
		t.Fatalf("double block should conflict")
	}

	got, err = svc.Unblock(context.Background(), agent.ID, adminID)
	if err != nil {
		t.Fatalf("Unblock: %v", err)
	}
	if got.IsBlocked {
		t.Fatalf("agent should be unblocked")
	}
	if len(repo.logs) != 2 {
		t.Fatalf("expected block and unblock logs, got %d", len(repo.logs))
	}
}

func TestApproveMissingAgent(t *testing.T) {
	svc := newService(t, newFakeRepo())

	_, err := svc.Approve(context.Background(), uuid.New(), uuid.New())
	if codeOf(t, err) != pkgerrors.CodeNotFound {
		t.Fatalf("code = %s, want NOT_FOUND", codeOf(t, err))
	}
}
