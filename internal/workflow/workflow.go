/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package workflow drives the pending-request lifecycle shared by funding
// and withdrawal requests: Pending transitions once to Approved or Declined,
// both terminal. The wallet mutation happens exactly on the Approved
// transition.
package workflow

import (
	"context"
	"fmt"
	"time"

	"blockbridge-go/internal/ledger"
	"blockbridge-go/internal/models"
	"blockbridge-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Request kinds recorded in the approval journal.
const (
	KindFunding    = "funding"
	KindWithdrawal = "withdrawal"
)

// PartialApprovalError reports that the wallet mutation persisted but the
// request status did not: funds moved while the request still reads Pending.
// The journal entry stays pending so an operator can reconcile manually.
type PartialApprovalError struct {
	RequestType string
	RequestID   string
	JournalID   string
	Err         error
}

func (e *PartialApprovalError) Error() string {
	return fmt.Sprintf("%s request %s: wallet updated but status persist failed (journal entry %s): %v",
		e.RequestType, e.RequestID, e.JournalID, e.Err)
}

func (e *PartialApprovalError) Unwrap() error { return e.Err }

// ApprovalJournal records each approval's two-step persistence cycle.
// *journal.Service satisfies it.
type ApprovalJournal interface {
	Begin(ctx context.Context, requestType, requestID, userID, assetID string, amount decimal.Decimal) (string, error)
	Complete(ctx context.Context, id string) error
	Compensate(ctx context.Context, id string) error
}

type Engine struct {
	store   store.AccountStore
	journal ApprovalJournal
}

func NewEngine(accounts store.AccountStore, journal ApprovalJournal) (*Engine, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account store cannot be nil")
	}
	if journal == nil {
		return nil, fmt.Errorf("approval journal cannot be nil")
	}
	return &Engine{store: accounts, journal: journal}, nil
}

// SubmitFunding records a user's intent to credit their wallet.
func (e *Engine) SubmitFunding(ctx context.Context, userID, assetID, method string, amount decimal.Decimal, proofURL string) (*models.FundingRequest, error) {
	if err := validateSubmission(userID, assetID, amount); err != nil {
		return nil, err
	}

	return e.store.InsertFundingRequest(ctx, models.FundingRequest{
		ID:        uuid.New().String(),
		UserID:    userID,
		AssetID:   assetID,
		Method:    method,
		Amount:    amount,
		ProofURL:  proofURL,
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	})
}

// SubmitWithdrawal records a user's intent to debit their wallet. The
// balance check happens at approval time, not submission time.
func (e *Engine) SubmitWithdrawal(ctx context.Context, userID, assetID, method string, amount decimal.Decimal, destination string) (*models.WithdrawalRequest, error) {
	if err := validateSubmission(userID, assetID, amount); err != nil {
		return nil, err
	}
	if destination == "" {
		return nil, fmt.Errorf("withdrawal destination cannot be empty")
	}

	return e.store.InsertWithdrawalRequest(ctx, models.WithdrawalRequest{
		ID:          uuid.New().String(),
		UserID:      userID,
		AssetID:     assetID,
		Method:      method,
		Amount:      amount,
		Destination: destination,
		Status:      models.StatusPending,
		CreatedAt:   time.Now().UTC(),
	})
}

// ApproveFunding credits the request amount to the user's wallet and marks
// the request Approved. The two persists are separate writes; a failure
// between them surfaces *PartialApprovalError.
func (e *Engine) ApproveFunding(ctx context.Context, requestID string) (*models.FundingRequest, error) {
	req, err := e.findFunding(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.StatusPending {
		return nil, fmt.Errorf("funding request %s is %s: %w",
			requestID, req.Status, store.ErrInvalidStateTransition)
	}

	updated, err := e.settle(ctx, KindFunding, req.ID, req.UserID, req.AssetID, req.Amount, func(ctx context.Context) (models.RequestStatus, error) {
		r, err := e.store.UpdateFundingRequest(ctx, req.ID, approveFundingPatch)
		if err != nil {
			return "", err
		}
		return r.Status, nil
	})
	if err != nil {
		return nil, err
	}

	req.Status = updated
	e.notifyResolution(ctx, req.UserID, "Funding approved",
		fmt.Sprintf("Your funding request for %s %s has been approved and credited.", req.Amount.String(), req.AssetID))
	return req, nil
}

// ApproveWithdrawal debits the request amount, requiring the balance to
// cover it at approval time. On insufficient funds nothing is mutated and
// the request stays Pending.
func (e *Engine) ApproveWithdrawal(ctx context.Context, requestID string) (*models.WithdrawalRequest, error) {
	req, err := e.findWithdrawal(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.StatusPending {
		return nil, fmt.Errorf("withdrawal request %s is %s: %w",
			requestID, req.Status, store.ErrInvalidStateTransition)
	}

	updated, err := e.settle(ctx, KindWithdrawal, req.ID, req.UserID, req.AssetID, req.Amount.Neg(), func(ctx context.Context) (models.RequestStatus, error) {
		r, err := e.store.UpdateWithdrawalRequest(ctx, req.ID, approveWithdrawalPatch)
		if err != nil {
			return "", err
		}
		return r.Status, nil
	})
	if err != nil {
		return nil, err
	}

	req.Status = updated
	e.notifyResolution(ctx, req.UserID, "Withdrawal approved",
		fmt.Sprintf("Your withdrawal request for %s %s has been approved.", req.Amount.String(), req.AssetID))
	return req, nil
}

// DeclineFunding marks the request Declined. No ledger effect.
func (e *Engine) DeclineFunding(ctx context.Context, requestID string) (*models.FundingRequest, error) {
	req, err := e.store.UpdateFundingRequest(ctx, requestID, declineFundingPatch)
	if err != nil {
		return nil, err
	}

	e.notifyResolution(ctx, req.UserID, "Funding declined",
		fmt.Sprintf("Your funding request for %s %s has been declined.", req.Amount.String(), req.AssetID))
	return req, nil
}

// DeclineWithdrawal marks the request Declined. No ledger effect.
func (e *Engine) DeclineWithdrawal(ctx context.Context, requestID string) (*models.WithdrawalRequest, error) {
	req, err := e.store.UpdateWithdrawalRequest(ctx, requestID, declineWithdrawalPatch)
	if err != nil {
		return nil, err
	}

	e.notifyResolution(ctx, req.UserID, "Withdrawal declined",
		fmt.Sprintf("Your withdrawal request for %s %s has been declined.", req.Amount.String(), req.AssetID))
	return req, nil
}

// settle runs the shared approval cycle: journal the intent, apply the
// ledger delta against the freshly read user record, then persist the
// terminal status through persistStatus.
func (e *Engine) settle(ctx context.Context, kind, requestID, userID, assetID string, delta decimal.Decimal,
	persistStatus func(ctx context.Context) (models.RequestStatus, error)) (models.RequestStatus, error) {

	journalID, err := e.journal.Begin(ctx, kind, requestID, userID, assetID, delta)
	if err != nil {
		return "", fmt.Errorf("unable to journal approval: %w", err)
	}

	_, err = e.store.UpdateInPlace(ctx, userID, func(u *models.User) error {
		wallets, err := ledger.ApplyDelta(u.Wallets, assetID, delta)
		if err != nil {
			return err
		}
		u.Wallets = wallets
		return nil
	})
	if err != nil {
		// Nothing applied; close out the intent.
		if compErr := e.journal.Compensate(ctx, journalID); compErr != nil {
			zap.L().Error("Failed to compensate journal entry",
				zap.String("entry_id", journalID), zap.Error(compErr))
		}
		return "", err
	}

	status, err := persistStatus(ctx)
	if err != nil {
		zap.L().Error("Request status persist failed after wallet update",
			zap.String("request_type", kind),
			zap.String("request_id", requestID),
			zap.String("journal_entry", journalID),
			zap.Error(err))
		return "", &PartialApprovalError{RequestType: kind, RequestID: requestID, JournalID: journalID, Err: err}
	}

	if err := e.journal.Complete(ctx, journalID); err != nil {
		// Both writes landed; a pending journal row is a false positive the
		// reconciler will report, not an approval failure.
		zap.L().Warn("Failed to complete journal entry",
			zap.String("entry_id", journalID), zap.Error(err))
	}

	zap.L().Info("Request approved",
		zap.String("request_type", kind),
		zap.String("request_id", requestID),
		zap.String("user_id", userID),
		zap.String("asset", assetID),
		zap.String("delta", delta.String()))
	return status, nil
}

// notifyResolution best-effort records a personal notification; resolution
// already persisted, so a notification failure is only logged.
func (e *Engine) notifyResolution(ctx context.Context, userID, title, message string) {
	_, err := e.store.InsertNotification(ctx, models.Notification{
		ID:          uuid.New().String(),
		Title:       title,
		Message:     message,
		Type:        models.NotificationPersonal,
		RecipientID: userID,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		zap.L().Warn("Failed to record resolution notification",
			zap.String("user_id", userID), zap.Error(err))
	}
}

func (e *Engine) findFunding(ctx context.Context, requestID string) (*models.FundingRequest, error) {
	reqs, err := e.store.ListFundingRequests(ctx)
	if err != nil {
		return nil, err
	}
	for i := range reqs {
		if reqs[i].ID == requestID {
			return &reqs[i], nil
		}
	}
	return nil, fmt.Errorf("funding request %s: %w", requestID, store.ErrNotFound)
}

func (e *Engine) findWithdrawal(ctx context.Context, requestID string) (*models.WithdrawalRequest, error) {
	reqs, err := e.store.ListWithdrawalRequests(ctx)
	if err != nil {
		return nil, err
	}
	for i := range reqs {
		if reqs[i].ID == requestID {
			return &reqs[i], nil
		}
	}
	return nil, fmt.Errorf("withdrawal request %s: %w", requestID, store.ErrNotFound)
}

func validateSubmission(userID, assetID string, amount decimal.Decimal) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if assetID == "" {
		return fmt.Errorf("asset id cannot be empty")
	}
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", amount.String())
	}
	return nil
}

// Terminal-state guards run inside the repository patch so the check applies
// to the freshly read record, not the copy the admin looked at.
func approveFundingPatch(r *models.FundingRequest) error {
	if r.Status != models.StatusPending {
		return fmt.Errorf("funding request %s is %s: %w", r.ID, r.Status, store.ErrInvalidStateTransition)
	}
	r.Status = models.StatusApproved
	return nil
}

func declineFundingPatch(r *models.FundingRequest) error {
	if r.Status != models.StatusPending {
		return fmt.Errorf("funding request %s is %s: %w", r.ID, r.Status, store.ErrInvalidStateTransition)
	}
	r.Status = models.StatusDeclined
	return nil
}

func approveWithdrawalPatch(r *models.WithdrawalRequest) error {
	if r.Status != models.StatusPending {
		return fmt.Errorf("withdrawal request %s is %s: %w", r.ID, r.Status, store.ErrInvalidStateTransition)
	}
	r.Status = models.StatusApproved
	return nil
}

func declineWithdrawalPatch(r *models.WithdrawalRequest) error {
	if r.Status != models.StatusPending {
		return fmt.Errorf("withdrawal request %s is %s: %w", r.ID, r.Status, store.ErrInvalidStateTransition)
	}
	r.Status = models.StatusDeclined
	return nil
}
