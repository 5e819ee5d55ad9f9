package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"wasmember/internal/audit"
	auditmem "wasmember/internal/audit/store/memory"
	"wasmember/internal/claims/models"
	"wasmember/internal/claims/store"
	"wasmember/internal/notify"
	"wasmember/internal/registry"
	id "wasmember/pkg/domain"
	"wasmember/pkg/requestcontext"
)

// passthroughTx runs fn directly; transactional atomicity is exercised
// against Postgres in the store integration tests.
type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (c *captureNotifier) Emit(n notify.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
}

func (c *captureNotifier) all() []notify.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.Notification(nil), c.sent...)
}

type stubRegistry struct {
	candidates []registry.Candidate
	err        error
}

func (s *stubRegistry) Search(_ context.Context, _ string) ([]registry.Candidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.candidates, nil
}

type fixture struct {
	svc      *Service
	store    *store.InMemory
	audit    *auditmem.Store
	notifier *captureNotifier
	registry *stubRegistry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    store.NewInMemory(),
		audit:    auditmem.NewInMemoryStore(),
		notifier: &captureNotifier{},
		registry: &stubRegistry{},
	}
	f.svc = New(f.store, passthroughTx{}, audit.NewPublisher(f.audit), f.notifier, f.registry)
	return f
}

func newAccountID() id.AccountID { return id.AccountID(uuid.New()) }
func newAdminID() id.AdminID     { return id.AdminID(uuid.New()) }

func accountCtx(accountID id.AccountID) context.Context {
	ctx := requestcontext.WithAccountID(context.Background(), accountID)
	return requestcontext.WithTime(ctx, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
}

func adminCtx(adminID id.AdminID) context.Context {
	ctx := requestcontext.WithAdminID(context.Background(), adminID)
	return requestcontext.WithTime(ctx, time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
}

func testItem(code string) models.ClaimItem {
	return models.ClaimItem{
		MemberCode:     code,
		CompanyName:    "Acme Fabrication GmbH",
		TaxID:          "DE811234567",
		MemberTypeCode: "MT01",
		DocumentRef:    "https://docs.example/ref/" + code,
	}
}

// submitOne files a single claim and returns it, failing the test on any
// unsuccessful outcome.
func (f *fixture) submitOne(t *testing.T, accountID id.AccountID, code string) *models.Claim {
	t.Helper()
	res, err := f.svc.SubmitBatch(accountCtx(accountID), accountID, models.SubmitBatchRequest{
		Items: []models.ClaimItem{testItem(code)},
	})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	require.True(t, res.Results[0].Success, "submit %s: %s", code, res.Results[0].Error)

	claimID, err := id.ParseClaimID(res.Results[0].ClaimID)
	require.NoError(t, err)
	claim, err := f.store.FindByID(context.Background(), claimID)
	require.NoError(t, err)
	return claim
}

// approve drives a claim to approved through the service.
func (f *fixture) approve(t *testing.T, claimID id.ClaimID) *models.Claim {
	t.Helper()
	claim, err := f.svc.Approve(adminCtx(newAdminID()), claimID)
	require.NoError(t, err)
	return claim
}

// reject drives a claim to rejected through the service.
func (f *fixture) reject(t *testing.T, claimID id.ClaimID, reason string) *models.Claim {
	t.Helper()
	claim, err := f.svc.Reject(adminCtx(newAdminID()), claimID, reason)
	require.NoError(t, err)
	return claim
}
