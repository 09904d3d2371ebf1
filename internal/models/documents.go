package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role controls access to admin-only operations.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AccountStatus is the lifecycle state of a user account.
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
	AccountPending  AccountStatus = "pending"
)

// RequestStatus is the lifecycle state of a funding or withdrawal request.
// Approved and Declined are terminal.
type RequestStatus string

const (
	StatusPending  RequestStatus = "Pending"
	StatusApproved RequestStatus = "Approved"
	StatusDeclined RequestStatus = "Declined"
)

// NotificationType distinguishes broadcasts from single-recipient records.
type NotificationType string

const (
	NotificationGeneral  NotificationType = "general"
	NotificationPersonal NotificationType = "personal"
	NotificationSystem   NotificationType = "system"
)

// Tier bounds for account benefit levels.
const (
	MinTier = 1
	MaxTier = 12
)

// WalletEntry is one asset balance bucket owned by a user.
// Balance never goes negative; ValueUSD is derived from Balance and the
// entry's unit price, except for the reference currency where it always
// equals Balance.
type WalletEntry struct {
	AssetID  string          `json:"assetId"`
	Name     string          `json:"name,omitempty"`
	Balance  decimal.Decimal `json:"balance"`
	ValueUSD decimal.Decimal `json:"valueUsd"`
}

// User is an account record as persisted in the users document.
// PasswordHash is a bcrypt hash and never leaves the repository boundary
// unsanitized.
type User struct {
	ID            string        `json:"id"`
	Email         string        `json:"email"`
	Username      string        `json:"username,omitempty"`
	PasswordHash  string        `json:"passwordHash,omitempty"`
	Role          Role          `json:"role"`
	Tier          int           `json:"tier"`
	AccountStatus AccountStatus `json:"accountStatus"`
	Wallets       []WalletEntry `json:"wallets"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Sanitized returns a copy of the user with the credential hash stripped.
func (u User) Sanitized() User {
	c := u
	c.PasswordHash = ""
	return c
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FundingRequest is a pending intent to credit a user's wallet, reviewed by
// an admin. Requests are never deleted; resolved ones remain as audit trail.
type FundingRequest struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	AssetID   string          `json:"assetId"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	ProofURL  string          `json:"proofUrl,omitempty"`
	Status    RequestStatus   `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// WithdrawalRequest is a pending intent to debit a user's wallet. Approval
// additionally requires the wallet balance to cover the amount.
type WithdrawalRequest struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	AssetID     string          `json:"assetId"`
	Method      string          `json:"method"`
	Amount      decimal.Decimal `json:"amount"`
	Destination string          `json:"destination"`
	Status      RequestStatus   `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Notification is an informational record, broadcast or personal.
// Read state is tracked per recipient in ReadBy rather than as a single
// shared flag, so one reader does not mark a broadcast read for everyone.
type Notification struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Type        NotificationType `json:"type"`
	RecipientID string           `json:"recipientId,omitempty"`
	ReadBy      []string         `json:"readBy,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// IsReadBy reports whether the given user has read the notification.
func (n Notification) IsReadBy(userID string) bool {
	for _, id := range n.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// VisibleTo reports whether the notification should be shown to the user.
// A record addressed to a recipient is private to that recipient regardless
// of type; a personal record without a recipient is malformed and shown to
// nobody.
func (n Notification) VisibleTo(userID string) bool {
	if n.RecipientID != "" {
		return n.RecipientID == userID
	}
	return n.Type != NotificationPersonal
}

// Message is one support-chat record.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}
