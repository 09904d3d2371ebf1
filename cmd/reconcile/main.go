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

// Command reconcile inspects the approval journal for entries that were
// begun but never resolved. A dangling entry means a wallet mutation and
// its request status update may have diverged; an operator verifies the
// remote documents by hand and then marks the entry completed or
// compensated with the flags below.
package main

import (
	"context"
	"flag"
	"fmt"

	"blockbridge-go/internal/common"
	"blockbridge-go/internal/config"
	"blockbridge-go/internal/journal"

	"go.uber.org/zap"
)

func main() {
	completeID := flag.String("complete", "", "Mark the journal entry with this ID as completed")
	compensateID := flag.String("compensate", "", "Mark the journal entry with this ID as compensated")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	svc, err := journal.NewService(ctx, cfg.Journal)
	if err != nil {
		zap.L().Fatal("Failed to open approval journal", zap.Error(err))
	}
	defer svc.Close()

	switch {
	case *completeID != "" && *compensateID != "":
		zap.L().Fatal("--complete and --compensate are mutually exclusive")
	case *completeID != "":
		if err := svc.Complete(ctx, *completeID); err != nil {
			zap.L().Fatal("Failed to complete entry", zap.String("id", *completeID), zap.Error(err))
		}
		fmt.Printf("Entry %s marked completed\n", *completeID)
		return
	case *compensateID != "":
		if err := svc.Compensate(ctx, *compensateID); err != nil {
			zap.L().Fatal("Failed to compensate entry", zap.String("id", *compensateID), zap.Error(err))
		}
		fmt.Printf("Entry %s marked compensated\n", *compensateID)
		return
	}

	entries, err := svc.ListDangling(ctx)
	if err != nil {
		zap.L().Fatal("Failed to list journal entries", zap.Error(err))
	}

	if len(entries) == 0 {
		fmt.Println("No dangling approval entries")
		return
	}

	fmt.Printf("%-36s  %-10s  %-36s  %-8s  %s\n", "ID", "TYPE", "REQUEST", "ASSET", "AMOUNT")
	for _, e := range entries {
		fmt.Printf("%-36s  %-10s  %-36s  %-8s  %s\n",
			e.ID, e.RequestType, e.RequestID, e.AssetID, e.Amount.String())
	}
	fmt.Printf("\n%d dangling entries. Resolve with --complete <id> or --compensate <id>.\n", len(entries))
}
