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

	"blockbridge-go/internal/models"
	"blockbridge-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) ListFundingRequests(ctx context.Context) ([]models.FundingRequest, error) {
	reqs, _, err := getList[models.FundingRequest](ctx, s, s.handles.FundingRequests, keyFundingRequests)
	if err != nil {
		return nil, fmt.Errorf("unable to list funding requests: %w", err)
	}
	return reqs, nil
}

func (s *Service) ListFundingRequestsByUser(ctx context.Context, userID string) ([]models.FundingRequest, error) {
	reqs, err := s.ListFundingRequests(ctx)
	if err != nil {
		return nil, err
	}

	var filtered []models.FundingRequest
	for _, r := range reqs {
		if r.UserID == userID {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func (s *Service) InsertFundingRequest(ctx context.Context, req models.FundingRequest) (*models.FundingRequest, error) {
	reqs, version, err := getList[models.FundingRequest](ctx, s, s.handles.FundingRequests, keyFundingRequests)
	if err != nil {
		return nil, fmt.Errorf("unable to load funding requests: %w", err)
	}

	reqs = append(reqs, req)
	if err := putList(ctx, s, s.handles.FundingRequests, keyFundingRequests, reqs, version); err != nil {
		return nil, fmt.Errorf("unable to persist funding requests: %w", err)
	}

	zap.L().Info("Funding request created",
		zap.String("id", req.ID),
		zap.String("user_id", req.UserID),
		zap.String("asset", req.AssetID),
		zap.String("amount", req.Amount.String()))
	return &req, nil
}

func (s *Service) UpdateFundingRequest(ctx context.Context, id string, patch func(*models.FundingRequest) error) (*models.FundingRequest, error) {
	reqs, version, err := getList[models.FundingRequest](ctx, s, s.handles.FundingRequests, keyFundingRequests)
	if err != nil {
		return nil, fmt.Errorf("unable to load funding requests: %w", err)
	}

	idx := -1
	for i := range reqs {
		if reqs[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("funding request %s: %w", id, store.ErrNotFound)
	}

	if err := patch(&reqs[idx]); err != nil {
		return nil, err
	}

	if err := putList(ctx, s, s.handles.FundingRequests, keyFundingRequests, reqs, version); err != nil {
		return nil, fmt.Errorf("unable to persist funding requests: %w", err)
	}

	zap.L().Info("Funding request updated",
		zap.String("id", id),
		zap.String("status", string(reqs[idx].Status)))
	return &reqs[idx], nil
}

func (s *Service) ListWithdrawalRequests(ctx context.Context) ([]models.WithdrawalRequest, error) {
	reqs, _, err := getList[models.WithdrawalRequest](ctx, s, s.handles.WithdrawalRequests, keyWithdrawalRequests)
	if err != nil {
		return nil, fmt.Errorf("unable to list withdrawal requests: %w", err)
	}
	return reqs, nil
}

func (s *Service) ListWithdrawalRequestsByUser(ctx context.Context, userID string) ([]models.WithdrawalRequest, error) {
	reqs, err := s.ListWithdrawalRequests(ctx)
	if err != nil {
		return nil, err
	}

	var filtered []models.WithdrawalRequest
	for _, r := range reqs {
		if r.UserID == userID {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func (s *Service) InsertWithdrawalRequest(ctx context.Context, req models.WithdrawalRequest) (*models.WithdrawalRequest, error) {
	reqs, version, err := getList[models.WithdrawalRequest](ctx, s, s.handles.WithdrawalRequests, keyWithdrawalRequests)
	if err != nil {
		return nil, fmt.Errorf("unable to load withdrawal requests: %w", err)
	}

	reqs = append(reqs, req)
	if err := putList(ctx, s, s.handles.WithdrawalRequests, keyWithdrawalRequests, reqs, version); err != nil {
		return nil, fmt.Errorf("unable to persist withdrawal requests: %w", err)
	}

	zap.L().Info("Withdrawal request created",
		zap.String("id", req.ID),
		zap.String("user_id", req.UserID),
		zap.String("asset", req.AssetID),
		zap.String("amount", req.Amount.String()))
	return &req, nil
}

func (s *Service) UpdateWithdrawalRequest(ctx context.Context, id string, patch func(*models.WithdrawalRequest) error) (*models.WithdrawalRequest, error) {
	reqs, version, err := getList[models.WithdrawalRequest](ctx, s, s.handles.WithdrawalRequests, keyWithdrawalRequests)
	if err != nil {
		return nil, fmt.Errorf("unable to load withdrawal requests: %w", err)
	}

	idx := -1
	for i := range reqs {
		if reqs[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("withdrawal request %s: %w", id, store.ErrNotFound)
	}

	if err := patch(&reqs[idx]); err != nil {
		return nil, err
	}

	if err := putList(ctx, s, s.handles.WithdrawalRequests, keyWithdrawalRequests, reqs, version); err != nil {
		return nil, fmt.Errorf("unable to persist withdrawal requests: %w", err)
	}

	zap.L().Info("Withdrawal request updated",
		zap.String("id", id),
		zap.String("status", string(reqs[idx].Status)))
	return &reqs[idx], nil
}
