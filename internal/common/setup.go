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

package common

import (
	"context"
	"log"
	"strings"

	"blockbridge-go/internal/auth"
	"blockbridge-go/internal/docstore"
	"blockbridge-go/internal/journal"
	"blockbridge-go/internal/models"
	"blockbridge-go/internal/repository"
	"blockbridge-go/internal/workflow"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via other means (shell export,
	// docker, etc.), so a missing .env file is fine.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

type Services struct {
	Repository *repository.Service
	Journal    *journal.Service
	Guard      *auth.Guard
	Engine     *workflow.Engine
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the document store client, repositories, approval
// journal, workflow engine, and authorization guard.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	client, err := docstore.NewClient(cfg.DocStore)
	if err != nil {
		return nil, err
	}

	handles, err := LoadDocumentHandles(cfg.DocStore.DocumentsFile)
	if err != nil {
		return nil, err
	}

	repo, err := repository.NewService(client, handles)
	if err != nil {
		return nil, err
	}

	journalSvc, err := journal.NewService(ctx, cfg.Journal)
	if err != nil {
		return nil, err
	}

	engine, err := workflow.NewEngine(repo, journalSvc)
	if err != nil {
		journalSvc.Close()
		return nil, err
	}

	guard, err := auth.NewGuard(repo, repo, cfg.Auth)
	if err != nil {
		journalSvc.Close()
		return nil, err
	}

	return &Services{
		Repository: repo,
		Journal:    journalSvc,
		Guard:      guard,
		Engine:     engine,
	}, nil
}

func (cs *Services) Close() {
	if cs.Journal != nil {
		cs.Journal.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
