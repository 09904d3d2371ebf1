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

// Package journal keeps a local record of every approval's two-step
// persistence cycle. An intent row is written before the wallet mutation and
// completed after the request status persists; a row left pending marks the
// credited-but-unresolved gap an operator must reconcile.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"blockbridge-go/internal/models"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Entry lifecycle states. Entries are monotonic: pending rows become
// completed (both writes landed) or compensated (the wallet mutation never
// applied), never pending again.
const (
	EntryPending     = "pending"
	EntryCompleted   = "completed"
	EntryCompensated = "compensated"
)

// Entry is one approval intent record.
type Entry struct {
	ID          string
	RequestType string
	RequestID   string
	UserID      string
	AssetID     string
	Amount      decimal.Decimal
	Status      string
	CreatedAt   time.Time
	ResolvedAt  sql.NullTime
}

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.JournalConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("journal database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening approval journal", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("unable to open journal database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping journal database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize journal schema: %w", err)
	}

	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close journal database", zap.Error(err))
	}
}

func (s *Service) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS approval_entries (
		id TEXT PRIMARY KEY,
		request_type TEXT NOT NULL,
		request_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		asset TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		resolved_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_approval_entries_status ON approval_entries(status);
	CREATE INDEX IF NOT EXISTS idx_approval_entries_request ON approval_entries(request_type, request_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Begin records a pending intent before the wallet mutation and returns the
// entry id.
func (s *Service) Begin(ctx context.Context, requestType, requestID, userID, assetID string, amount decimal.Decimal) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, queryInsertEntry,
		id, requestType, requestID, userID, assetID, amount.String())
	if err != nil {
		return "", fmt.Errorf("unable to record approval intent: %w", err)
	}

	zap.L().Debug("Approval intent recorded",
		zap.String("entry_id", id),
		zap.String("request_type", requestType),
		zap.String("request_id", requestID))
	return id, nil
}

// Complete marks the entry resolved after both persistence steps landed.
func (s *Service) Complete(ctx context.Context, id string) error {
	return s.resolve(ctx, id, EntryCompleted)
}

// Compensate marks the entry resolved because the wallet mutation never
// applied; there is nothing to reconcile.
func (s *Service) Compensate(ctx context.Context, id string) error {
	return s.resolve(ctx, id, EntryCompensated)
}

func (s *Service) resolve(ctx context.Context, id, status string) error {
	result, err := s.db.ExecContext(ctx, queryResolveEntry, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("unable to resolve journal entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("journal entry %s not pending", id)
	}
	return nil
}

// ListDangling returns entries whose wallet mutation applied but whose
// request status persist was never confirmed.
func (s *Service) ListDangling(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, queryListPending)
	if err != nil {
		return nil, fmt.Errorf("unable to query journal: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var entries []Entry
	for rows.Next() {
		var e Entry
		var amountStr string
		if err := rows.Scan(&e.ID, &e.RequestType, &e.RequestID, &e.UserID, &e.AssetID,
			&amountStr, &e.Status, &e.CreatedAt, &e.ResolvedAt); err != nil {
			return nil, fmt.Errorf("unable to scan journal row: %w", err)
		}
		e.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("unable to parse journal amount %q: %w", amountStr, err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal rows: %w", err)
	}
	return entries, nil
}
