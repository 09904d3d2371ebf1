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

// Package auth resolves credentials to user records and gates admin-only
// operations. Secrets are stored and compared as bcrypt hashes only; the
// raw secret never persists and the hash never leaves this boundary.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blockbridge-go/internal/models"
	"blockbridge-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Guard struct {
	users         store.UserStore
	notifications store.NotificationStore
	bcryptCost    int
	tokenSecret   []byte
	tokenTTL      time.Duration
}

func NewGuard(users store.UserStore, notifications store.NotificationStore, cfg models.AuthConfig) (*Guard, error) {
	if users == nil {
		return nil, fmt.Errorf("user store cannot be nil")
	}
	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("token secret cannot be empty")
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("token TTL must be positive, got %v", cfg.TokenTTL)
	}

	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	return &Guard{
		users:         users,
		notifications: notifications,
		bcryptCost:    cost,
		tokenSecret:   []byte(cfg.TokenSecret),
		tokenTTL:      cfg.TokenTTL,
	}, nil
}

// DefaultWallets is the wallet set every new registration starts with: the
// welcome credit in the reference currency and zero balances elsewhere.
func DefaultWallets() []models.WalletEntry {
	return []models.WalletEntry{
		{AssetID: "USD", Name: "Welcome Bonus", Balance: decimal.NewFromInt(100), ValueUSD: decimal.NewFromInt(100)},
		{AssetID: "BTC", Name: "Bitcoin", Balance: decimal.Zero, ValueUSD: decimal.Zero},
		{AssetID: "ETH", Name: "Ethereum", Balance: decimal.Zero, ValueUSD: decimal.Zero},
		{AssetID: "USDC", Name: "USD Coin", Balance: decimal.Zero, ValueUSD: decimal.Zero},
	}
}

// Register creates a standard user with the default role, tier, and wallet
// set, and returns it sanitized.
func (g *Guard) Register(ctx context.Context, email, username, secret string) (*models.User, error) {
	user, err := g.createUser(ctx, email, username, secret, models.RoleUser, models.MinTier)
	if err != nil {
		return nil, err
	}

	g.welcome(ctx, user)

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// ProvisionAdmin creates an admin account. This is the explicit, out-of-band
// replacement for seeding a hard-coded admin in application code; it is only
// reachable from operator tooling.
func (g *Guard) ProvisionAdmin(ctx context.Context, email, username, secret string) (*models.User, error) {
	user, err := g.createUser(ctx, email, username, secret, models.RoleAdmin, models.MaxTier)
	if err != nil {
		return nil, err
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

func (g *Guard) createUser(ctx context.Context, email, username, secret string, role models.Role, tier int) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}
	if secret == "" {
		return nil, fmt.Errorf("password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), g.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("unable to hash password: %w", err)
	}

	now := time.Now().UTC()
	user, err := g.users.Insert(ctx, models.User{
		ID:            uuid.New().String(),
		Email:         email,
		Username:      username,
		PasswordHash:  string(hash),
		Role:          role,
		Tier:          tier,
		AccountStatus: models.AccountActive,
		Wallets:       DefaultWallets(),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Account registered",
		zap.String("id", user.ID),
		zap.String("email", user.Email),
		zap.String("role", string(role)))
	return user, nil
}

// Authenticate resolves the credentials to a sanitized user. Every failure
// mode returns the same generic error so callers cannot learn which field
// was wrong.
func (g *Guard) Authenticate(ctx context.Context, email, secret string) (*models.User, error) {
	user, err := g.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)); err != nil {
		zap.L().Debug("Password mismatch", zap.String("email", email))
		return nil, store.ErrInvalidCredentials
	}

	if user.AccountStatus != models.AccountActive {
		return nil, fmt.Errorf("account %s: %w", user.ID, store.ErrAccountInactive)
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// Authorize reports whether the user may perform an operation scoped to the
// required role. Admin satisfies every check; the escalation is one-way.
func (g *Guard) Authorize(user *models.User, required models.Role) bool {
	if user == nil {
		return false
	}
	return user.Role == required || user.Role == models.RoleAdmin
}

// welcome best-effort records the registration notification.
func (g *Guard) welcome(ctx context.Context, user *models.User) {
	if g.notifications == nil {
		return
	}

	_, err := g.notifications.InsertNotification(ctx, models.Notification{
		ID:          uuid.New().String(),
		Title:       "Welcome to BlockBridge",
		Message:     "Your account is ready. A 100 USD welcome credit has been added to your wallet.",
		Type:        models.NotificationPersonal,
		RecipientID: user.ID,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		zap.L().Warn("Failed to record welcome notification",
			zap.String("user_id", user.ID), zap.Error(err))
	}
}
