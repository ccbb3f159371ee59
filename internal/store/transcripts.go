// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists the chat collection and transcripts locally in
// SQLite, so a surface starts with the last known list before the server
// snapshot arrives and keeps working offline.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jeranaias/chatsync/internal/model"
)

// =============================================================================
// TRANSCRIPT PERSISTENCE
// =============================================================================

// SaveTranscript stores a transcript for a chat, replacing any previous
// one. Only closed messages are serialized; an open streaming message
// marshals with its Content still empty, so callers save after the
// session reaches a terminal phase.
func (s *Store) SaveTranscript(ctx context.Context, chatID string, t *model.Transcript) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO transcripts (chat_id, payload, updated_at) VALUES (?, ?, ?)",
		chatID, payload, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

// LoadTranscript loads the stored transcript for a chat.
func (s *Store) LoadTranscript(ctx context.Context, chatID string) (*model.Transcript, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM transcripts WHERE chat_id = ?", chatID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoTranscript
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	var t model.Transcript
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}
	return &t, nil
}

// DeleteTranscript removes the stored transcript for a chat.
func (s *Store) DeleteTranscript(ctx context.Context, chatID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM transcripts WHERE chat_id = ?", chatID)
	return err
}
