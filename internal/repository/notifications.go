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

// ListNotificationsForUser returns broadcasts plus the user's personal
// notifications, newest last (document order).
func (s *Service) ListNotificationsForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	all, _, err := getList[models.Notification](ctx, s, s.handles.Notifications, keyNotifications)
	if err != nil {
		return nil, fmt.Errorf("unable to list notifications: %w", err)
	}

	var visible []models.Notification
	for _, n := range all {
		if n.VisibleTo(userID) {
			visible = append(visible, n)
		}
	}
	return visible, nil
}

func (s *Service) InsertNotification(ctx context.Context, n models.Notification) (*models.Notification, error) {
	all, version, err := getList[models.Notification](ctx, s, s.handles.Notifications, keyNotifications)
	if err != nil {
		return nil, fmt.Errorf("unable to load notifications: %w", err)
	}

	all = append(all, n)
	if err := putList(ctx, s, s.handles.Notifications, keyNotifications, all, version); err != nil {
		return nil, fmt.Errorf("unable to persist notifications: %w", err)
	}

	zap.L().Info("Notification created",
		zap.String("id", n.ID),
		zap.String("type", string(n.Type)),
		zap.String("recipient_id", n.RecipientID))
	return &n, nil
}

// MarkNotificationRead records the user in the notification's per-recipient
// read set. Marking twice is a no-op, not an error.
func (s *Service) MarkNotificationRead(ctx context.Context, id, userID string) (*models.Notification, error) {
	all, version, err := getList[models.Notification](ctx, s, s.handles.Notifications, keyNotifications)
	if err != nil {
		return nil, fmt.Errorf("unable to load notifications: %w", err)
	}

	idx := -1
	for i := range all {
		if all[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("notification %s: %w", id, store.ErrNotFound)
	}
	if !all[idx].VisibleTo(userID) {
		return nil, fmt.Errorf("notification %s: %w", id, store.ErrNotFound)
	}

	if all[idx].IsReadBy(userID) {
		return &all[idx], nil
	}

	all[idx].ReadBy = append(all[idx].ReadBy, userID)
	if err := putList(ctx, s, s.handles.Notifications, keyNotifications, all, version); err != nil {
		return nil, fmt.Errorf("unable to persist notifications: %w", err)
	}

	return &all[idx], nil
}
