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

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blockbridge-go/internal/models"
	"blockbridge-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, _, err := getList[models.User](ctx, s, s.handles.Users, keyUsers)
	if err != nil {
		return nil, fmt.Errorf("unable to list users: %w", err)
	}

	zap.L().Debug("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}

func (s *Service) FindByID(ctx context.Context, id string) (*models.User, error) {
	users, _, err := getList[models.User](ctx, s, s.handles.Users, keyUsers)
	if err != nil {
		return nil, fmt.Errorf("unable to look up user: %w", err)
	}

	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	users, _, err := getList[models.User](ctx, s, s.handles.Users, keyUsers)
	if err != nil {
		return nil, fmt.Errorf("unable to look up user: %w", err)
	}

	if u := findByEmail(users, email); u != nil {
		return u, nil
	}
	return nil, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
}

// Insert appends the user and persists the whole list. Email uniqueness is
// enforced against the freshly read list, case-insensitively.
func (s *Service) Insert(ctx context.Context, user models.User) (*models.User, error) {
	users, version, err := getList[models.User](ctx, s, s.handles.Users, keyUsers)
	if err != nil {
		return nil, fmt.Errorf("unable to load users: %w", err)
	}

	if findByEmail(users, user.Email) != nil {
		return nil, fmt.Errorf("user %s: %w", user.Email, store.ErrDuplicateEmail)
	}

	users = append(users, user)
	if err := putList(ctx, s, s.handles.Users, keyUsers, users, version); err != nil {
		return nil, fmt.Errorf("unable to persist users: %w", err)
	}

	zap.L().Info("User created",
		zap.String("id", user.ID),
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)))
	return &user, nil
}

// UpdateInPlace loads the full list, applies patch to the record located by
// id, and persists the whole list. The patch operates on the freshly read
// record, never a stale caller copy.
func (s *Service) UpdateInPlace(ctx context.Context, id string, patch func(*models.User) error) (*models.User, error) {
	users, version, err := getList[models.User](ctx, s, s.handles.Users, keyUsers)
	if err != nil {
		return nil, fmt.Errorf("unable to load users: %w", err)
	}

	idx := -1
	for i := range users {
		if users[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}

	if err := patch(&users[idx]); err != nil {
		return nil, err
	}
	users[idx].UpdatedAt = time.Now().UTC()

	if err := putList(ctx, s, s.handles.Users, keyUsers, users, version); err != nil {
		return nil, fmt.Errorf("unable to persist users: %w", err)
	}

	zap.L().Debug("User updated", zap.String("id", id))
	return &users[idx], nil
}

func findByEmail(users []models.User, email string) *models.User {
	needle := strings.ToLower(strings.TrimSpace(email))
	for i := range users {
		if strings.ToLower(users[i].Email) == needle {
			return &users[i]
		}
	}
	return nil
}
