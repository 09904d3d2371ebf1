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

	"go.uber.org/zap"
)

// ListMessagesForUser returns the support-chat history the user is a party
// to, in document order.
func (s *Service) ListMessagesForUser(ctx context.Context, userID string) ([]models.Message, error) {
	all, _, err := getList[models.Message](ctx, s, s.handles.Messages, keyMessages)
	if err != nil {
		return nil, fmt.Errorf("unable to list messages: %w", err)
	}

	var visible []models.Message
	for _, m := range all {
		if m.Sender == userID || m.Recipient == userID {
			visible = append(visible, m)
		}
	}
	return visible, nil
}

func (s *Service) InsertMessage(ctx context.Context, m models.Message) (*models.Message, error) {
	all, version, err := getList[models.Message](ctx, s, s.handles.Messages, keyMessages)
	if err != nil {
		return nil, fmt.Errorf("unable to load messages: %w", err)
	}

	all = append(all, m)
	if err := putList(ctx, s, s.handles.Messages, keyMessages, all, version); err != nil {
		return nil, fmt.Errorf("unable to persist messages: %w", err)
	}

	zap.L().Debug("Message stored",
		zap.String("id", m.ID),
		zap.String("sender", m.Sender),
		zap.String("recipient", m.Recipient))
	return &m, nil
}
