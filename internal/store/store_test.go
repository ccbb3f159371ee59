// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists the chat collection and transcripts locally in
// SQLite, so a surface starts with the last known list before the server
// snapshot arrives and keeps working offline.
package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatsync/internal/collection"
	"github.com/jeranaias/chatsync/internal/model"
	"github.com/jeranaias/chatsync/internal/transport"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "collections.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testSnapshot() *transport.Snapshot {
	now := time.Now().Truncate(time.Millisecond)
	return &transport.Snapshot{
		Items: []collection.Item{
			{ID: "c1", Title: "First", Pinned: true, CreatedAt: now, UpdatedAt: now},
			{ID: "c2", Title: "Second", FolderID: "f1", CreatedAt: now, UpdatedAt: now},
		},
		Folders: []collection.Folder{
			{ID: "f1", Name: "Work", CreatedAt: now},
		},
	}
}

// =============================================================================
// SNAPSHOT TESTS
// =============================================================================

func TestStore_ReplaceAllAndList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, testSnapshot()))

	snap, err := s.ListCollection(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Items, 2)
	require.Len(t, snap.Folders, 1)

	byID := map[string]collection.Item{}
	for _, it := range snap.Items {
		byID[it.ID] = it
	}
	assert.True(t, byID["c1"].Pinned)
	assert.Equal(t, "f1", byID["c2"].FolderID)
	assert.Equal(t, "Work", snap.Folders[0].Name)
}

func TestStore_ReplaceAllOverwrites(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, testSnapshot()))
	require.NoError(t, s.ReplaceAll(ctx, &transport.Snapshot{
		Items: []collection.Item{{ID: "c9", Title: "Only"}},
	}))

	snap, err := s.ListCollection(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "c9", snap.Items[0].ID)
	assert.Empty(t, snap.Folders)
}

// =============================================================================
// CHAT MUTATION TESTS
// =============================================================================

func TestStore_RenameChat(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceAll(ctx, testSnapshot()))

	item, err := s.RenameChat(ctx, "c1", "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", item.Title)
	assert.True(t, item.Pinned, "other fields unchanged")
}

func TestStore_MutateMissingChat(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.RenameChat(ctx, "ghost", "x")
	assert.ErrorIs(t, err, transport.ErrNotFound)

	_, err = s.SetPinned(ctx, "ghost", true)
	assert.ErrorIs(t, err, transport.ErrNotFound)

	err = s.DeleteChat(ctx, "ghost")
	assert.ErrorIs(t, err, transport.ErrNotFound)
}

func TestStore_DeleteChatRemovesTranscript(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceAll(ctx, testSnapshot()))

	tr := model.NewTranscript()
	tr.AppendUser("hello")
	require.NoError(t, s.SaveTranscript(ctx, "c1", tr))

	require.NoError(t, s.DeleteChat(ctx, "c1"))

	_, err := s.LoadTranscript(ctx, "c1")
	assert.ErrorIs(t, err, ErrNoTranscript)
}

// =============================================================================
// FOLDER MUTATION TESTS
// =============================================================================

func TestStore_CreateAndRenameFolder(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	f, err := s.CreateFolder(ctx, "  Research ")
	require.NoError(t, err)
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, "Research", f.Name)

	renamed, err := s.RenameFolder(ctx, f.ID, "Archive")
	require.NoError(t, err)
	assert.Equal(t, "Archive", renamed.Name)
}

func TestStore_DeleteFolderUnfiles(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceAll(ctx, testSnapshot()))

	require.NoError(t, s.DeleteFolder(ctx, "f1"))

	snap, err := s.ListCollection(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Folders)
	for _, it := range snap.Items {
		assert.Empty(t, it.FolderID, "chats in a deleted folder become unfoldered")
	}
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestStore_TranscriptRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	tr := model.NewTranscript()
	tr.AppendUser("What is Go?")
	msg := tr.OpenAssistant()
	msg.AppendText("A programming language.")
	msg.SetSources([]model.Source{{Title: "Docs", URL: "https://go.dev", Snippet: "Go"}})
	tr.CloseOpen()

	require.NoError(t, s.SaveTranscript(ctx, "c1", tr))

	loaded, err := s.LoadTranscript(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())
	assert.Equal(t, "What is Go?", loaded.Messages[0].Content)
	assert.Equal(t, "A programming language.", loaded.Messages[1].Content)
	require.Len(t, loaded.Messages[1].Sources, 1)
	assert.Equal(t, "Docs", loaded.Messages[1].Sources[0].Title)
}

func TestStore_SaveTranscriptReplaces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	tr := model.NewTranscript()
	tr.AppendUser("one")
	require.NoError(t, s.SaveTranscript(ctx, "c1", tr))

	tr.AppendUser("two")
	require.NoError(t, s.SaveTranscript(ctx, "c1", tr))

	loaded, err := s.LoadTranscript(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
}

func TestStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "collections.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.ReplaceAll(ctx, testSnapshot()))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	snap, err := s2.ListCollection(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Items, 2)
}
