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

// Package ledger holds the balance-mutation logic. It is pure: no I/O, no
// clock, deterministic given its inputs. Callers persist the returned wallet
// collection through the user repository.
package ledger

import (
	"fmt"

	"blockbridge-go/internal/models"
	"blockbridge-go/internal/store"

	"github.com/shopspring/decimal"
)

// ReferenceAsset is the currency every ValueUSD is expressed in. Its own
// entries always carry ValueUSD == Balance.
const ReferenceAsset = "USD"

// ApplyDelta applies a signed delta to the named asset balance and returns
// the full updated wallet collection. The input slice is never mutated.
//
// A positive delta to an unknown asset creates a new entry priced at one
// reference unit per asset unit; any other mutation requires the resulting
// balance to stay non-negative, failing with store.ErrInsufficientFunds
// otherwise. ValueUSD is recomputed preserving the entry's prior unit price.
func ApplyDelta(wallets []models.WalletEntry, assetID string, delta decimal.Decimal) ([]models.WalletEntry, error) {
	if assetID == "" {
		return nil, fmt.Errorf("asset id cannot be empty")
	}

	updated := make([]models.WalletEntry, len(wallets))
	copy(updated, wallets)

	idx := -1
	for i, w := range updated {
		if w.AssetID == assetID {
			idx = i
			break
		}
	}

	if idx == -1 {
		if delta.IsZero() {
			return updated, nil
		}
		if delta.IsNegative() {
			return nil, fmt.Errorf("no %s balance to debit: %w", assetID, store.ErrInsufficientFunds)
		}
		updated = append(updated, models.WalletEntry{
			AssetID:  assetID,
			Balance:  delta,
			ValueUSD: delta,
		})
		return updated, nil
	}

	entry := updated[idx]
	newBalance := entry.Balance.Add(delta)
	if newBalance.IsNegative() {
		return nil, fmt.Errorf("balance %s %s cannot cover delta %s: %w",
			entry.Balance.String(), assetID, delta.String(), store.ErrInsufficientFunds)
	}

	entry.ValueUSD = valueAt(assetID, entry, newBalance)
	entry.Balance = newBalance
	updated[idx] = entry

	return updated, nil
}

// Balance returns the current balance for the asset, or zero if the user
// holds no entry for it.
func Balance(wallets []models.WalletEntry, assetID string) decimal.Decimal {
	for _, w := range wallets {
		if w.AssetID == assetID {
			return w.Balance
		}
	}
	return decimal.Zero
}

// valueAt reprices the entry at its prior unit price. The reference currency
// is always worth itself; an entry whose prior balance was zero has no unit
// price on record and falls back to one reference unit per asset unit.
func valueAt(assetID string, prior models.WalletEntry, newBalance decimal.Decimal) decimal.Decimal {
	if assetID == ReferenceAsset {
		return newBalance
	}
	if prior.Balance.IsZero() {
		return newBalance
	}
	unitPrice := prior.ValueUSD.Div(prior.Balance)
	return newBalance.Mul(unitPrice)
}
