package store

import (
	"context"
	"errors"
	"fmt"

	"blockbridge-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrDuplicateEmail         = errors.New("email already registered")
	ErrNotFound               = errors.New("record not found")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidStateTransition = errors.New("request already resolved")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrAccountInactive        = errors.New("account is not active")
	ErrConflict               = errors.New("concurrent modification detected")
)

// SchemaError reports that a document read from the store did not match the
// expected shape. Reads fail fast instead of propagating missing fields.
type SchemaError struct {
	Handle string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("malformed document %s: %v", e.Handle, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// UserStore provides CRUD over the user list. Persistence is whole-document
// read-modify-write; writes carry a version token and fail with ErrConflict
// when a concurrent writer got there first.
type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, user models.User) (*models.User, error)
	// UpdateInPlace loads the list, locates the user by id, applies patch to
	// the freshly read record, and persists the whole list.
	UpdateInPlace(ctx context.Context, id string, patch func(*models.User) error) (*models.User, error)
}

// FundingRequestStore manages the funding request document.
type FundingRequestStore interface {
	ListFundingRequests(ctx context.Context) ([]models.FundingRequest, error)
	ListFundingRequestsByUser(ctx context.Context, userID string) ([]models.FundingRequest, error)
	InsertFundingRequest(ctx context.Context, req models.FundingRequest) (*models.FundingRequest, error)
	UpdateFundingRequest(ctx context.Context, id string, patch func(*models.FundingRequest) error) (*models.FundingRequest, error)
}

// WithdrawalRequestStore manages the withdrawal request document.
type WithdrawalRequestStore interface {
	ListWithdrawalRequests(ctx context.Context) ([]models.WithdrawalRequest, error)
	ListWithdrawalRequestsByUser(ctx context.Context, userID string) ([]models.WithdrawalRequest, error)
	InsertWithdrawalRequest(ctx context.Context, req models.WithdrawalRequest) (*models.WithdrawalRequest, error)
	UpdateWithdrawalRequest(ctx context.Context, id string, patch func(*models.WithdrawalRequest) error) (*models.WithdrawalRequest, error)
}

// NotificationStore manages the notification document.
type NotificationStore interface {
	ListNotificationsForUser(ctx context.Context, userID string) ([]models.Notification, error)
	InsertNotification(ctx context.Context, n models.Notification) (*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) (*models.Notification, error)
}

// MessageStore manages the support-chat document.
type MessageStore interface {
	ListMessagesForUser(ctx context.Context, userID string) ([]models.Message, error)
	InsertMessage(ctx context.Context, m models.Message) (*models.Message, error)
}

// AccountStore is the full contract the document-store backend satisfies.
type AccountStore interface {
	UserStore
	FundingRequestStore
	WithdrawalRequestStore
	NotificationStore
	MessageStore
}
