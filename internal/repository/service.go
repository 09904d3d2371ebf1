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

// Package repository persists every collection as one whole JSON document in
// the hosted store: each read fetches the entire list, each write puts the
// entire list back. All filtering happens client-side after a full fetch.
// Writes carry the version stamp observed at read time so a concurrent
// writer surfaces store.ErrConflict instead of being silently overwritten.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"blockbridge-go/internal/docstore"
	"blockbridge-go/internal/models"
	"blockbridge-go/internal/store"

	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.AccountStore.
var _ store.AccountStore = (*Service)(nil)

// Document field names, one per collection.
const (
	keyUsers              = "users"
	keyFundingRequests    = "fundingRequests"
	keyWithdrawalRequests = "withdrawalRequests"
	keyNotifications      = "notifications"
	keyMessages           = "messages"
)

type Service struct {
	client  *docstore.Client
	handles models.DocumentHandles
}

func NewService(client *docstore.Client, handles models.DocumentHandles) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("document store client cannot be nil")
	}
	for name, handle := range map[string]string{
		"users":               handles.Users,
		"funding_requests":    handles.FundingRequests,
		"withdrawal_requests": handles.WithdrawalRequests,
		"notifications":       handles.Notifications,
		"messages":            handles.Messages,
	} {
		if handle == "" {
			return nil, fmt.Errorf("missing document handle for %s", name)
		}
	}

	zap.L().Info("Document repository initialized",
		zap.String("users_handle", handles.Users),
		zap.String("funding_handle", handles.FundingRequests),
		zap.String("withdrawal_handle", handles.WithdrawalRequests))

	return &Service{client: client, handles: handles}, nil
}

// HealthCheck verifies the users document is reachable and well-formed.
func (s *Service) HealthCheck(ctx context.Context) error {
	if _, err := s.ListUsers(ctx); err != nil {
		return fmt.Errorf("document store health check failed: %w", err)
	}
	return nil
}

// getList reads the whole document behind handle and decodes the named
// array. A missing or null field decodes as an empty list; anything else
// malformed fails fast with a SchemaError.
func getList[T any](ctx context.Context, s *Service, handle, key string) ([]T, int64, error) {
	doc, err := s.client.Get(ctx, handle)
	if err != nil {
		return nil, 0, err
	}

	if len(doc.Record) == 0 || string(doc.Record) == "null" {
		return nil, doc.Version, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc.Record, &fields); err != nil {
		return nil, 0, &store.SchemaError{Handle: handle, Err: err}
	}

	raw, ok := fields[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, doc.Version, nil
	}

	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, 0, &store.SchemaError{Handle: handle, Err: fmt.Errorf("field %q: %w", key, err)}
	}

	return list, doc.Version, nil
}

// putList writes the whole list back under the named field, guarded by the
// version observed at read time.
func putList[T any](ctx context.Context, s *Service, handle, key string, list []T, version int64) error {
	if list == nil {
		list = []T{}
	}
	_, err := s.client.Put(ctx, handle, map[string][]T{key: list}, version)
	return err
}
