// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport implements the HTTP client for the chat service:
// the streaming turn endpoint plus the JSON endpoints that confirm
// collection mutations.
package transport

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jeranaias/chatsync/internal/collection"
)

// =============================================================================
// COLLECTION API
// =============================================================================

// CollectionAPI is the set of server operations behind collection
// mutations. The HTTP client implements it against the chat service; the
// store package implements it against the local database for offline use.
type CollectionAPI interface {
	ListCollection(ctx context.Context) (*Snapshot, error)

	RenameChat(ctx context.Context, id, title string) (*collection.Item, error)
	SetPinned(ctx context.Context, id string, pinned bool) (*collection.Item, error)
	MoveToFolder(ctx context.Context, id, folderID string) (*collection.Item, error)
	DeleteChat(ctx context.Context, id string) error

	CreateFolder(ctx context.Context, name string) (*collection.Folder, error)
	RenameFolder(ctx context.Context, id, name string) (*collection.Folder, error)
	DeleteFolder(ctx context.Context, id string) error
}

// Snapshot is the server's full view of the chat list, fetched once at
// startup to seed the collection.
type Snapshot struct {
	Items   []collection.Item   `json:"chats"`
	Folders []collection.Folder `json:"folders"`
}

// Compile-time check that the client satisfies the API.
var _ CollectionAPI = (*Client)(nil)

// =============================================================================
// CHAT ENDPOINTS
// =============================================================================

// ListCollection fetches all chats and folders.
func (c *Client) ListCollection(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	if err := c.doJSON(ctx, http.MethodGet, "/v1/chats", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// RenameChat confirms a title change and returns the canonical record.
func (c *Client) RenameChat(ctx context.Context, id, title string) (*collection.Item, error) {
	body := struct {
		Title string `json:"title"`
	}{Title: title}

	var item collection.Item
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/chats/"+url.PathEscape(id), body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// SetPinned confirms a pin state change.
func (c *Client) SetPinned(ctx context.Context, id string, pinned bool) (*collection.Item, error) {
	body := struct {
		Pinned bool `json:"pinned"`
	}{Pinned: pinned}

	var item collection.Item
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/chats/"+url.PathEscape(id), body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// MoveToFolder confirms a folder move. An empty folderID moves the chat
// out of any folder.
func (c *Client) MoveToFolder(ctx context.Context, id, folderID string) (*collection.Item, error) {
	body := struct {
		FolderID string `json:"folder_id"`
	}{FolderID: folderID}

	var item collection.Item
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/chats/"+url.PathEscape(id), body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteChat confirms a chat deletion.
func (c *Client) DeleteChat(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/chats/"+url.PathEscape(id), nil, nil)
}

// =============================================================================
// FOLDER ENDPOINTS
// =============================================================================

// CreateFolder confirms a folder creation. The returned record carries
// the server-assigned ID, which replaces the client's temporary one.
func (c *Client) CreateFolder(ctx context.Context, name string) (*collection.Folder, error) {
	body := struct {
		Name string `json:"name"`
	}{Name: name}

	var folder collection.Folder
	if err := c.doJSON(ctx, http.MethodPost, "/v1/folders", body, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// RenameFolder confirms a folder rename.
func (c *Client) RenameFolder(ctx context.Context, id, name string) (*collection.Folder, error) {
	body := struct {
		Name string `json:"name"`
	}{Name: name}

	var folder collection.Folder
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/folders/"+url.PathEscape(id), body, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// DeleteFolder confirms a folder deletion.
func (c *Client) DeleteFolder(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/folders/"+url.PathEscape(id), nil, nil)
}
