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

package httpapi

import (
	"errors"
	"net/http"
	"time"

	"blockbridge-go/internal/docstore"
	"blockbridge-go/internal/ledger"
	"blockbridge-go/internal/models"
	"blockbridge-go/internal/store"
	"blockbridge-go/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RegisterRequest represents the JSON body for account registration
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents the JSON body for authentication
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the session token and the sanitized user
type LoginResponse struct {
	Success   bool        `json:"success"`
	Token     string      `json:"token"`
	ExpiresAt int64       `json:"expiresAt"`
	User      models.User `json:"user"`
}

// WalletPatchRequest applies a signed delta to one asset balance
type WalletPatchRequest struct {
	AssetID string          `json:"assetId" binding:"required"`
	Delta   decimal.Decimal `json:"delta" binding:"required"`
}

// TierPatchRequest sets the account benefit level
type TierPatchRequest struct {
	Tier int `json:"tier" binding:"required,min=1,max=12"`
}

// StatusPatchRequest sets the account lifecycle state
type StatusPatchRequest struct {
	Status models.AccountStatus `json:"status" binding:"required,oneof=active inactive pending"`
}

// FundingSubmission represents the JSON body for a funding request
type FundingSubmission struct {
	AssetID  string          `json:"assetId" binding:"required"`
	Method   string          `json:"method" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	ProofURL string          `json:"proofUrl"`
}

// WithdrawalSubmission represents the JSON body for a withdrawal request
type WithdrawalSubmission struct {
	AssetID     string          `json:"assetId" binding:"required"`
	Method      string          `json:"method" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Destination string          `json:"destination" binding:"required"`
}

// NotificationSubmission represents the JSON body for an admin notification
type NotificationSubmission struct {
	Title       string                  `json:"title" binding:"required"`
	Message     string                  `json:"message" binding:"required"`
	Type        models.NotificationType `json:"type" binding:"required,oneof=general personal system"`
	RecipientID string                  `json:"recipientId"`
}

// MessageSubmission represents the JSON body for a support-chat message
type MessageSubmission struct {
	Recipient string `json:"recipient"`
	Content   string `json:"content" binding:"required"`
}

func (s *Server) health(c *gin.Context) {
	if err := s.repo.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := s.guard.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user})
}

func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := s.guard.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	token, expiresAt, err := s.guard.IssueToken(user)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		User:      *user,
	})
}

func (s *Server) me(c *gin.Context) {
	claims := sessionClaims(c)
	user, err := s.repo.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user.Sanitized()})
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.repo.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	sanitized := make([]models.User, len(users))
	for i, u := range users {
		sanitized[i] = u.Sanitized()
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": sanitized})
}

func (s *Server) patchUserWallets(c *gin.Context) {
	var req WalletPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := s.repo.UpdateInPlace(c.Request.Context(), c.Param("id"), func(u *models.User) error {
		wallets, err := ledger.ApplyDelta(u.Wallets, req.AssetID, req.Delta)
		if err != nil {
			return err
		}
		u.Wallets = wallets
		return nil
	})
	if err != nil {
		writeError(c, err)
		return
	}

	zap.L().Info("Admin wallet edit",
		zap.String("user_id", user.ID),
		zap.String("asset", req.AssetID),
		zap.String("delta", req.Delta.String()))
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user.Sanitized()})
}

func (s *Server) patchUserTier(c *gin.Context) {
	var req TierPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := s.repo.UpdateInPlace(c.Request.Context(), c.Param("id"), func(u *models.User) error {
		u.Tier = req.Tier
		return nil
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user.Sanitized()})
}

func (s *Server) patchUserStatus(c *gin.Context) {
	var req StatusPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := s.repo.UpdateInPlace(c.Request.Context(), c.Param("id"), func(u *models.User) error {
		u.AccountStatus = req.Status
		return nil
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user.Sanitized()})
}

func (s *Server) createFundingRequest(c *gin.Context) {
	var req FundingSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	claims := sessionClaims(c)
	created, err := s.engine.SubmitFunding(c.Request.Context(), claims.UserID, req.AssetID, req.Method, req.Amount, req.ProofURL)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "request": created})
}

// listFundingRequests returns the caller's own requests, or every request
// for admins.
func (s *Server) listFundingRequests(c *gin.Context) {
	claims := sessionClaims(c)

	var (
		reqs []models.FundingRequest
		err  error
	)
	if claims.Role == models.RoleAdmin {
		reqs, err = s.repo.ListFundingRequests(c.Request.Context())
	} else {
		reqs, err = s.repo.ListFundingRequestsByUser(c.Request.Context(), claims.UserID)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "requests": reqs})
}

func (s *Server) approveFundingRequest(c *gin.Context) {
	req, err := s.engine.ApproveFunding(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "request": req})
}

func (s *Server) declineFundingRequest(c *gin.Context) {
	req, err := s.engine.DeclineFunding(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "request": req})
}

func (s *Server) createWithdrawalRequest(c *gin.Context) {
	var req WithdrawalSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	claims := sessionClaims(c)
	created, err := s.engine.SubmitWithdrawal(c.Request.Context(), claims.UserID, req.AssetID, req.Method, req.Amount, req.Destination)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "request": created})
}

func (s *Server) listWithdrawalRequests(c *gin.Context) {
	claims := sessionClaims(c)

	var (
		reqs []models.WithdrawalRequest
		err  error
	)
	if claims.Role == models.RoleAdmin {
		reqs, err = s.repo.ListWithdrawalRequests(c.Request.Context())
	} else {
		reqs, err = s.repo.ListWithdrawalRequestsByUser(c.Request.Context(), claims.UserID)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "requests": reqs})
}

func (s *Server) approveWithdrawalRequest(c *gin.Context) {
	req, err := s.engine.ApproveWithdrawal(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "request": req})
}

func (s *Server) declineWithdrawalRequest(c *gin.Context) {
	req, err := s.engine.DeclineWithdrawal(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "request": req})
}

func (s *Server) listNotifications(c *gin.Context) {
	claims := sessionClaims(c)
	items, err := s.repo.ListNotificationsForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notifications": items})
}

func (s *Server) createNotification(c *gin.Context) {
	var req NotificationSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Type == models.NotificationPersonal && req.RecipientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "personal notifications require a recipientId",
		})
		return
	}
	if req.Type != models.NotificationPersonal && req.RecipientID != "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "only personal notifications carry a recipientId",
		})
		return
	}

	created, err := s.repo.InsertNotification(c.Request.Context(), models.Notification{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Message:     req.Message,
		Type:        req.Type,
		RecipientID: req.RecipientID,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "notification": created})
}

func (s *Server) markNotificationRead(c *gin.Context) {
	claims := sessionClaims(c)
	n, err := s.repo.MarkNotificationRead(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notification": n})
}

func (s *Server) listMessages(c *gin.Context) {
	claims := sessionClaims(c)

	userID := claims.UserID
	if claims.Role == models.RoleAdmin {
		if q := c.Query("user"); q != "" {
			userID = q
		}
	}

	msgs, err := s.repo.ListMessagesForUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": msgs})
}

func (s *Server) sendMessage(c *gin.Context) {
	var req MessageSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	claims := sessionClaims(c)
	recipient := req.Recipient
	if claims.Role != models.RoleAdmin {
		// Standard users can only write to the support desk.
		recipient = "support"
	} else if recipient == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "admin messages require a recipient",
		})
		return
	}

	msg, err := s.repo.InsertMessage(c.Request.Context(), models.Message{
		ID:        uuid.New().String(),
		Sender:    claims.UserID,
		Recipient: recipient,
		Content:   req.Content,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": msg})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   "invalid request body: " + err.Error(),
	})
}

// writeError maps domain errors to HTTP statuses.
func writeError(c *gin.Context, err error) {
	var (
		transportErr *docstore.TransportError
		schemaErr    *store.SchemaError
		partialErr   *workflow.PartialApprovalError
	)

	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.As(err, &partialErr):
		// Surfaced distinctly so an operator knows reconciliation is needed.
		zap.L().Error("Partial approval", zap.Error(err))
		message = "approval partially applied; manual reconciliation required"
	case errors.Is(err, store.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, store.ErrAccountInactive):
		status = http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateEmail),
		errors.Is(err, store.ErrInvalidStateTransition),
		errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, store.ErrInsufficientFunds):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &transportErr), errors.As(err, &schemaErr):
		zap.L().Error("Document store failure", zap.Error(err))
		status = http.StatusBadGateway
		message = "document store unavailable"
	default:
		zap.L().Error("Unhandled API error", zap.Error(err))
		message = "internal error"
	}

	c.JSON(status, gin.H{"success": false, "error": message})
}
