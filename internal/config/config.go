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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"blockbridge-go/internal/models"
)

func Load() (*models.Config, error) {
	requestTimeout, err := getEnvDuration("DOCSTORE_REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	tokenTTL, err := getEnvDuration("AUTH_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("JOURNAL_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("JOURNAL_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	masterKey := os.Getenv("DOCSTORE_MASTER_KEY")
	if masterKey == "" {
		return nil, fmt.Errorf("missing required document store credential: DOCSTORE_MASTER_KEY")
	}

	tokenSecret := os.Getenv("AUTH_TOKEN_SECRET")
	if tokenSecret == "" {
		return nil, fmt.Errorf("missing required session secret: AUTH_TOKEN_SECRET")
	}

	return &models.Config{
		DocStore: models.DocStoreConfig{
			BaseURL:        getEnvString("DOCSTORE_BASE_URL", "https://api.jsonsilo.example/v3"),
			MasterKey:      masterKey,
			AccessKey:      os.Getenv("DOCSTORE_ACCESS_KEY"),
			RequestTimeout: requestTimeout,
			DocumentsFile:  getEnvString("DOCUMENTS_FILE", "documents.yaml"),
		},
		Server: models.ServerConfig{
			Port:            getEnvInt("SERVER_PORT", 8080),
			ShutdownTimeout: shutdownTimeout,
		},
		Auth: models.AuthConfig{
			TokenSecret: tokenSecret,
			TokenTTL:    tokenTTL,
			BcryptCost:  getEnvInt("AUTH_BCRYPT_COST", 0),
		},
		Journal: models.JournalConfig{
			Path:            getEnvString("JOURNAL_PATH", "approvals.db"),
			MaxOpenConns:    getEnvInt("JOURNAL_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("JOURNAL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			PingTimeout:     pingTimeout,
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
