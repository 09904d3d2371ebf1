package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"blockbridge-go/internal/ledger"
	"blockbridge-go/internal/models"
	"blockbridge-go/internal/store"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory store.AccountStore for driving the engine.
type memStore struct {
	users         map[string]*models.User
	funding       map[string]*models.FundingRequest
	withdrawals   map[string]*models.WithdrawalRequest
	notifications []models.Notification

	// failStatusPersist makes request status updates fail, simulating the
	// window between the wallet write and the status write.
	failStatusPersist bool
}

var _ store.AccountStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]*models.User),
		funding:     make(map[string]*models.FundingRequest),
		withdrawals: make(map[string]*models.WithdrawalRequest),
	}
}

func (m *memStore) ListUsers(ctx context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) Insert(ctx context.Context, user models.User) (*models.User, error) {
	m.users[user.ID] = &user
	return &user, nil
}

func (m *memStore) UpdateInPlace(ctx context.Context, id string, patch func(*models.User) error) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *u
	if err := patch(&c); err != nil {
		return nil, err
	}
	m.users[id] = &c
	return &c, nil
}

func (m *memStore) ListFundingRequests(ctx context.Context) ([]models.FundingRequest, error) {
	out := make([]models.FundingRequest, 0, len(m.funding))
	for _, r := range m.funding {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memStore) ListFundingRequestsByUser(ctx context.Context, userID string) ([]models.FundingRequest, error) {
	var out []models.FundingRequest
	for _, r := range m.funding {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) InsertFundingRequest(ctx context.Context, req models.FundingRequest) (*models.FundingRequest, error) {
	m.funding[req.ID] = &req
	return &req, nil
}

func (m *memStore) UpdateFundingRequest(ctx context.Context, id string, patch func(*models.FundingRequest) error) (*models.FundingRequest, error) {
	if m.failStatusPersist {
		return nil, fmt.Errorf("simulated persist failure")
	}
	r, ok := m.funding[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *r
	if err := patch(&c); err != nil {
		return nil, err
	}
	m.funding[id] = &c
	return &c, nil
}

func (m *memStore) ListWithdrawalRequests(ctx context.Context) ([]models.WithdrawalRequest, error) {
	out := make([]models.WithdrawalRequest, 0, len(m.withdrawals))
	for _, r := range m.withdrawals {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memStore) ListWithdrawalRequestsByUser(ctx context.Context, userID string) ([]models.WithdrawalRequest, error) {
	var out []models.WithdrawalRequest
	for _, r := range m.withdrawals {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) InsertWithdrawalRequest(ctx context.Context, req models.WithdrawalRequest) (*models.WithdrawalRequest, error) {
	m.withdrawals[req.ID] = &req
	return &req, nil
}

func (m *memStore) UpdateWithdrawalRequest(ctx context.Context, id string, patch func(*models.WithdrawalRequest) error) (*models.WithdrawalRequest, error) {
	if m.failStatusPersist {
		return nil, fmt.Errorf("simulated persist failure")
	}
	r, ok := m.withdrawals[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *r
	if err := patch(&c); err != nil {
		return nil, err
	}
	m.withdrawals[id] = &c
	return &c, nil
}

func (m *memStore) ListNotificationsForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range m.notifications {
		if n.VisibleTo(userID) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) InsertNotification(ctx context.Context, n models.Notification) (*models.Notification, error) {
	m.notifications = append(m.notifications, n)
	return &n, nil
}

func (m *memStore) MarkNotificationRead(ctx context.Context, id, userID string) (*models.Notification, error) {
	return nil, store.ErrNotFound
}

func (m *memStore) ListMessagesForUser(ctx context.Context, userID string) ([]models.Message, error) {
	return nil, nil
}

func (m *memStore) InsertMessage(ctx context.Context, msg models.Message) (*models.Message, error) {
	return &msg, nil
}

// memJournal records the approval cycle calls.
type memJournal struct {
	begun       int
	completed   []string
	compensated []string
}

func (j *memJournal) Begin(ctx context.Context, requestType, requestID, userID, assetID string, amount decimal.Decimal) (string, error) {
	j.begun++
	return fmt.Sprintf("entry-%d", j.begun), nil
}

func (j *memJournal) Complete(ctx context.Context, id string) error {
	j.completed = append(j.completed, id)
	return nil
}

func (j *memJournal) Compensate(ctx context.Context, id string) error {
	j.compensated = append(j.compensated, id)
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *memStore, *memJournal) {
	t.Helper()
	st := newMemStore()
	jr := &memJournal{}
	eng, err := NewEngine(st, jr)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return eng, st, jr
}

func seedWalletUser(st *memStore, id string, wallets ...models.WalletEntry) {
	st.users[id] = &models.User{
		ID:            id,
		Email:         id + "@example.com",
		Role:          models.RoleUser,
		Tier:          1,
		AccountStatus: models.AccountActive,
		Wallets:       wallets,
		CreatedAt:     time.Now().UTC(),
	}
}

func usd(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSubmitFundingStartsPending(t *testing.T) {
	eng, st, _ := newTestEngine(t)
	seedWalletUser(st, "u1")

	req, err := eng.SubmitFunding(context.Background(), "u1", "USDC", "bank_transfer", usd("50"), "https://proof.example/1")
	if err != nil {
		t.Fatalf("SubmitFunding failed: %v", err)
	}
	if req.Status != models.StatusPending {
		t.Errorf("expected Pending, got %s", req.Status)
	}
	if req.ID == "" {
		t.Error("expected generated request id")
	}
}

func TestSubmitRejectsNonPositiveAmount(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	if _, err := eng.SubmitFunding(context.Background(), "u1", "USDC", "bank", usd("0"), ""); err == nil {
		t.Error("zero amount must be rejected")
	}
	if _, err := eng.SubmitWithdrawal(context.Background(), "u1", "USDC", "bank", usd("-5"), "addr"); err == nil {
		t.Error("negative amount must be rejected")
	}
	if _, err := eng.SubmitWithdrawal(context.Background(), "u1", "USDC", "bank", usd("5"), ""); err == nil {
		t.Error("empty destination must be rejected")
	}
}

func TestApproveFundingCreditsWallet(t *testing.T) {
	eng, st, jr := newTestEngine(t)
	seedWalletUser(st, "u1",
		models.WalletEntry{AssetID: ledger.ReferenceAsset, Balance: usd("100"), ValueUSD: usd("100")},
	)

	req, err := eng.SubmitFunding(context.Background(), "u1", "USDC", "bank_transfer", usd("50"), "")
	if err != nil {
		t.Fatalf("SubmitFunding failed: %v", err)
	}

	approved, err := eng.ApproveFunding(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("ApproveFunding failed: %v", err)
	}
	if approved.Status != models.StatusApproved {
		t.Errorf("expected Approved, got %s", approved.Status)
	}

	u, _ := st.FindByID(context.Background(), "u1")
	if got := ledger.Balance(u.Wallets, "USDC"); !got.Equal(usd("50")) {
		t.Errorf("expected 50 USDC after approval, got %s", got)
	}
	if got := ledger.Balance(u.Wallets, ledger.ReferenceAsset); !got.Equal(usd("100")) {
		t.Errorf("USD balance must be untouched, got %s", got)
	}

	if len(jr.completed) != 1 {
		t.Errorf("expected 1 completed journal entry, got %d", len(jr.completed))
	}
	if len(jr.compensated) != 0 {
		t.Errorf("expected no compensated entries, got %d", len(jr.compensated))
	}
}

func TestApproveFundingIsTerminal(t *testing.T) {
	eng, st, _ := newTestEngine(t)
	seedWalletUser(st, "u1")

	req, _ := eng.SubmitFunding(context.Background(), "u1", "USDC", "bank", usd("50"), "")
	if _, err := eng.ApproveFunding(context.Background(), req.ID); err != nil {
		t.Fatalf("first approval failed: %v", err)
	}

	if _, err := eng.ApproveFunding(context.Background(), req.ID); !errors.Is(err, store.ErrInvalidStateTransition) {
		t.Fatalf("second approval: expected ErrInvalidStateTransition, got %v", err)
	}
	if _, err := eng.DeclineFunding(context.Background(), req.ID); !errors.Is(err, store.ErrInvalidStateTransition) {
		t.Fatalf("decline after approval: expected ErrInvalidStateTransition, got %v", err)
	}

	u, _ := st.FindByID(context.Background(), "u1")
	if got := ledger.Balance(u.Wallets, "USDC"); !got.Equal(usd("50")) {
		t.Errorf("repeat approval must not credit twice, got %s", got)
	}
}

func TestApproveWithdrawalInsufficientFunds(t *testing.T) {
	eng, st, jr := newTestEngine(t)
	seedWalletUser(st, "u1",
		models.WalletEntry{AssetID: "BTC", Balance: usd("0.5"), ValueUSD: usd("30000")},
	)

	req, err := eng.SubmitWithdrawal(context.Background(), "u1", "BTC", "onchain", usd("2"), "bc1qexample")
	if err != nil {
		t.Fatalf("SubmitWithdrawal failed: %v", err)
	}

	_, err = eng.ApproveWithdrawal(context.Background(), req.ID)
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// Request stays Pending and the balance is unchanged.
	reqs, _ := st.ListWithdrawalRequests(context.Background())
	if reqs[0].Status != models.StatusPending {
		t.Errorf("failed approval must leave request Pending, got %s", reqs[0].Status)
	}
	u, _ := st.FindByID(context.Background(), "u1")
	if got := ledger.Balance(u.Wallets, "BTC"); !got.Equal(usd("0.5")) {
		t.Errorf("balance must be unchanged, got %s", got)
	}
	if len(jr.compensated) != 1 {
		t.Errorf("expected journal entry compensated, got %d", len(jr.compensated))
	}
}

func TestApproveWithdrawalDebitsWallet(t *testing.T) {
	eng, st, _ := newTestEngine(t)
	seedWalletUser(st, "u1",
		models.WalletEntry{AssetID: "ETH", Balance: usd("2"), ValueUSD: usd("4000")},
	)

	req, _ := eng.SubmitWithdrawal(context.Background(), "u1", "ETH", "onchain", usd("1.5"), "0xexample")
	approved, err := eng.ApproveWithdrawal(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("ApproveWithdrawal failed: %v", err)
	}
	if approved.Status != models.StatusApproved {
		t.Errorf("expected Approved, got %s", approved.Status)
	}

	u, _ := st.FindByID(context.Background(), "u1")
	if got := ledger.Balance(u.Wallets, "ETH"); !got.Equal(usd("0.5")) {
		t.Errorf("expected 0.5 ETH, got %s", got)
	}
	// Unit price preserved: 0.5 ETH at 2000 each.
	for _, w := range u.Wallets {
		if w.AssetID == "ETH" && !w.ValueUSD.Equal(usd("1000")) {
			t.Errorf("expected valueUsd 1000, got %s", w.ValueUSD)
		}
	}
}

func TestDeclineLeavesWalletUntouched(t *testing.T) {
	eng, st, jr := newTestEngine(t)
	seedWalletUser(st, "u1",
		models.WalletEntry{AssetID: ledger.ReferenceAsset, Balance: usd("100"), ValueUSD: usd("100")},
	)

	req, _ := eng.SubmitFunding(context.Background(), "u1", "USDC", "bank", usd("50"), "")
	declined, err := eng.DeclineFunding(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("DeclineFunding failed: %v", err)
	}
	if declined.Status != models.StatusDeclined {
		t.Errorf("expected Declined, got %s", declined.Status)
	}

	u, _ := st.FindByID(context.Background(), "u1")
	if got := ledger.Balance(u.Wallets, "USDC"); !got.IsZero() {
		t.Errorf("decline must not credit, got %s", got)
	}
	if jr.begun != 0 {
		t.Errorf("decline must not journal, got %d entries", jr.begun)
	}
}

func TestDeclineIsTerminal(t *testing.T) {
	eng, st, _ := newTestEngine(t)
	seedWalletUser(st, "u1")

	req, _ := eng.SubmitWithdrawal(context.Background(), "u1", "USDC", "bank", usd("10"), "addr")
	if _, err := eng.DeclineWithdrawal(context.Background(), req.ID); err != nil {
		t.Fatalf("DeclineWithdrawal failed: %v", err)
	}
	if _, err := eng.ApproveWithdrawal(context.Background(), req.ID); !errors.Is(err, store.ErrInvalidStateTransition) {
		t.Fatalf("approve after decline: expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestPartialApprovalSurfacesDistinctError(t *testing.T) {
	eng, st, jr := newTestEngine(t)
	seedWalletUser(st, "u1")

	req, _ := eng.SubmitFunding(context.Background(), "u1", "USDC", "bank", usd("50"), "")
	st.failStatusPersist = true

	_, err := eng.ApproveFunding(context.Background(), req.ID)

	var partial *PartialApprovalError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialApprovalError, got %v", err)
	}
	if partial.RequestID != req.ID {
		t.Errorf("expected request id %s in error, got %s", req.ID, partial.RequestID)
	}

	// The wallet write landed; the journal entry must stay unresolved for
	// the reconciler.
	u, _ := st.FindByID(context.Background(), "u1")
	if got := ledger.Balance(u.Wallets, "USDC"); !got.Equal(usd("50")) {
		t.Errorf("wallet write should have landed, got %s", got)
	}
	if len(jr.completed) != 0 || len(jr.compensated) != 0 {
		t.Error("journal entry must remain pending after partial approval")
	}
}

func TestApprovalRecordsNotification(t *testing.T) {
	eng, st, _ := newTestEngine(t)
	seedWalletUser(st, "u1")

	req, _ := eng.SubmitFunding(context.Background(), "u1", "USDC", "bank", usd("50"), "")
	if _, err := eng.ApproveFunding(context.Background(), req.ID); err != nil {
		t.Fatalf("ApproveFunding failed: %v", err)
	}

	items, _ := st.ListNotificationsForUser(context.Background(), "u1")
	if len(items) != 1 {
		t.Fatalf("expected 1 resolution notification, got %d", len(items))
	}
	if items[0].RecipientID != "u1" {
		t.Errorf("notification should target the requester, got %s", items[0].RecipientID)
	}

	// Resolution notices are private to the requester.
	others, _ := st.ListNotificationsForUser(context.Background(), "u2")
	if len(others) != 0 {
		t.Errorf("resolution notification leaked to other users, got %d", len(others))
	}
}
