// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists the chat collection and transcripts locally in
// SQLite, so a surface starts with the last known list before the server
// snapshot arrives and keeps working offline.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/chatsync/internal/collection"
	"github.com/jeranaias/chatsync/internal/transport"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoTranscript indicates no transcript is stored for a chat.
	ErrNoTranscript = errors.New("store: no transcript for chat")
)

// =============================================================================
// STORE
// =============================================================================

// Store is the local SQLite database. It implements the same collection
// API as the HTTP client, which lets the surface confirm mutations
// against the local copy when the service is unreachable.
type Store struct {
	db   *sql.DB
	path string
}

// schema creates the tables on first open. Timestamps are unix
// milliseconds; folder membership mirrors the in-memory model, one
// folder reference per chat.
const schema = `
CREATE TABLE IF NOT EXISTS chats (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	pinned     INTEGER NOT NULL DEFAULT 0,
	folder_id  TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS folders (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS transcripts (
	chat_id    TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chats_folder ON chats(folder_id);
`

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Compile-time check that the store can stand in for the HTTP client.
var _ transport.CollectionAPI = (*Store)(nil)

// =============================================================================
// SNAPSHOT
// =============================================================================

// ListCollection loads all chats and folders.
func (s *Store) ListCollection(ctx context.Context) (*transport.Snapshot, error) {
	snap := &transport.Snapshot{}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, pinned, folder_id, created_at, updated_at FROM chats")
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it collection.Item
		var pinned int
		var created, updated int64
		if err := rows.Scan(&it.ID, &it.Title, &pinned, &it.FolderID, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		it.Pinned = pinned != 0
		it.CreatedAt = time.UnixMilli(created)
		it.UpdatedAt = time.UnixMilli(updated)
		snap.Items = append(snap.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	frows, err := s.db.QueryContext(ctx, "SELECT id, name, created_at FROM folders")
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer frows.Close()

	for frows.Next() {
		var f collection.Folder
		var created int64
		if err := frows.Scan(&f.ID, &f.Name, &created); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		f.CreatedAt = time.UnixMilli(created)
		snap.Folders = append(snap.Folders, f)
	}
	return snap, frows.Err()
}

// ReplaceAll replaces the local copy with a server snapshot.
func (s *Store) ReplaceAll(ctx context.Context, snap *transport.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chats"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM folders"); err != nil {
		return err
	}

	for _, it := range snap.Items {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chats (id, title, pinned, folder_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			it.ID, it.Title, boolToInt(it.Pinned), it.FolderID,
			it.CreatedAt.UnixMilli(), it.UpdatedAt.UnixMilli()); err != nil {
			return fmt.Errorf("failed to insert chat: %w", err)
		}
	}
	for _, f := range snap.Folders {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO folders (id, name, created_at) VALUES (?, ?, ?)",
			f.ID, f.Name, f.CreatedAt.UnixMilli()); err != nil {
			return fmt.Errorf("failed to insert folder: %w", err)
		}
	}

	return tx.Commit()
}

// =============================================================================
// CHAT MUTATIONS
// =============================================================================

// InsertChat records a newly created chat.
func (s *Store) InsertChat(ctx context.Context, it collection.Item) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO chats (id, title, pinned, folder_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		it.ID, it.Title, boolToInt(it.Pinned), it.FolderID,
		it.CreatedAt.UnixMilli(), it.UpdatedAt.UnixMilli())
	return err
}

// RenameChat updates a chat title and returns the stored record.
func (s *Store) RenameChat(ctx context.Context, id, title string) (*collection.Item, error) {
	return s.updateChat(ctx, id, "title = ?", title)
}

// SetPinned updates a chat's pin state.
func (s *Store) SetPinned(ctx context.Context, id string, pinned bool) (*collection.Item, error) {
	return s.updateChat(ctx, id, "pinned = ?", boolToInt(pinned))
}

// MoveToFolder updates a chat's folder reference.
func (s *Store) MoveToFolder(ctx context.Context, id, folderID string) (*collection.Item, error) {
	return s.updateChat(ctx, id, "folder_id = ?", folderID)
}

// DeleteChat removes a chat and its transcript.
func (s *Store) DeleteChat(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chats WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return transport.ErrNotFound
	}
	_, err = s.db.ExecContext(ctx, "DELETE FROM transcripts WHERE chat_id = ?", id)
	return err
}

// updateChat applies one SET clause and returns the updated record.
func (s *Store) updateChat(ctx context.Context, id, set string, arg any) (*collection.Item, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE chats SET "+set+", updated_at = ? WHERE id = ?",
		arg, time.Now().UnixMilli(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, transport.ErrNotFound
	}
	return s.getChat(ctx, id)
}

// getChat reads one chat row.
func (s *Store) getChat(ctx context.Context, id string) (*collection.Item, error) {
	var it collection.Item
	var pinned int
	var created, updated int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, pinned, folder_id, created_at, updated_at FROM chats WHERE id = ?", id).
		Scan(&it.ID, &it.Title, &pinned, &it.FolderID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, transport.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chat: %w", err)
	}
	it.Pinned = pinned != 0
	it.CreatedAt = time.UnixMilli(created)
	it.UpdatedAt = time.UnixMilli(updated)
	return &it, nil
}

// =============================================================================
// FOLDER MUTATIONS
// =============================================================================

// CreateFolder inserts a folder. The caller's ID is kept: locally there
// is no second authority to assign a canonical one.
func (s *Store) CreateFolder(ctx context.Context, name string) (*collection.Folder, error) {
	f := collection.Folder{
		ID:        collection.NewFolderID(),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO folders (id, name, created_at) VALUES (?, ?, ?)",
		f.ID, f.Name, f.CreatedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to insert folder: %w", err)
	}
	return &f, nil
}

// RenameFolder updates a folder name.
func (s *Store) RenameFolder(ctx context.Context, id, name string) (*collection.Folder, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE folders SET name = ? WHERE id = ?", strings.TrimSpace(name), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update folder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, transport.ErrNotFound
	}

	var f collection.Folder
	var created int64
	err = s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM folders WHERE id = ?", id).
		Scan(&f.ID, &f.Name, &created)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}
	f.CreatedAt = time.UnixMilli(created)
	return &f, nil
}

// DeleteFolder removes a folder and clears the reference on its chats,
// matching the reconciliation rule that a missing folder means
// unfoldered.
func (s *Store) DeleteFolder(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM folders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return transport.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE chats SET folder_id = '' WHERE folder_id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// boolToInt converts for SQLite's integer booleans.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
