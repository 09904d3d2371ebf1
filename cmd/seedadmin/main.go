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

package main

import (
	"context"
	"flag"
	"fmt"
	"regexp"

	"blockbridge-go/internal/common"
	"blockbridge-go/internal/config"

	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateFlags(email, username, password string) error {
	if email == "" {
		return fmt.Errorf("--email is required")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	if username == "" {
		return fmt.Errorf("--username is required")
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

func main() {
	email := flag.String("email", "", "Email address of the new admin account")
	username := flag.String("username", "", "Display name of the new admin account")
	password := flag.String("password", "", "Initial password (minimum 8 characters)")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	if err := validateFlags(*email, *username, *password); err != nil {
		zap.L().Fatal("Invalid arguments", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	admin, err := services.Guard.ProvisionAdmin(ctx, *email, *username, *password)
	if err != nil {
		zap.L().Fatal("Failed to provision admin account", zap.Error(err))
	}

	zap.L().Info("Admin account provisioned",
		zap.String("user_id", admin.ID),
		zap.String("email", admin.Email))
	fmt.Printf("Admin account created: %s (%s)\n", admin.Email, admin.ID)
}
