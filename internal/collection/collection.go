// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package collection holds the shared chat and folder collections and the
// optimistic mutation engine that keeps them converged with the server.
package collection

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ITEM TYPES
// =============================================================================

// Item is one entry of the chat list. Items are value types: a copy is a
// snapshot, which is what the optimistic engine stores for rollback.
type Item struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Pinned    bool      `json:"pinned"`
	FolderID  string    `json:"folder_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Folder is a named grouping of items. Membership lives on the Item side
// (Item.FolderID), which makes exclusive membership structural: an item
// cannot reference two folders.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// =============================================================================
// COLLECTION TYPE
// =============================================================================

// Collection is the local view of the chat and folder lists. Insertion
// order is irrelevant; identity is by ID. It must be mutated only from
// the surface's event loop, and only through a Synchronizer.
type Collection struct {
	items   map[string]Item
	folders map[string]Folder
	version uint64
}

// New creates an empty collection.
func New() *Collection {
	return &Collection{
		items:   make(map[string]Item),
		folders: make(map[string]Folder),
	}
}

// Seed replaces the collection contents with server state, e.g. after the
// initial list fetch. Pending mutations do not survive a seed.
func (c *Collection) Seed(items []Item, folders []Folder) {
	c.items = make(map[string]Item, len(items))
	for _, it := range items {
		c.items[it.ID] = it
	}
	c.folders = make(map[string]Folder, len(folders))
	for _, f := range folders {
		c.folders[f.ID] = f
	}
	c.version++
}

// Item returns a snapshot of one item.
func (c *Collection) Item(id string) (Item, bool) {
	it, ok := c.items[id]
	return it, ok
}

// Folder returns a snapshot of one folder.
func (c *Collection) Folder(id string) (Folder, bool) {
	f, ok := c.folders[id]
	return f, ok
}

// Items returns a snapshot slice of all items, ordered by ID for
// reproducibility.
func (c *Collection) Items() []Item {
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Folders returns a snapshot slice of all folders, ordered by ID.
func (c *Collection) Folders() []Folder {
	out := make([]Folder, 0, len(c.folders))
	for _, f := range c.folders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of items.
func (c *Collection) Len() int {
	return len(c.items)
}

// Version increases on every applied, reconciled, or rolled-back change.
// Derived views (grouping) key their recomputation off it.
func (c *Collection) Version() uint64 {
	return c.version
}

// putItem, deleteItem, putFolder, deleteFolder are the engine's write
// surface; every write bumps the version.

func (c *Collection) putItem(it Item) {
	c.items[it.ID] = it
	c.version++
}

func (c *Collection) deleteItem(id string) {
	delete(c.items, id)
	c.version++
}

func (c *Collection) putFolder(f Folder) {
	c.folders[f.ID] = f
	c.version++
}

func (c *Collection) deleteFolder(id string) {
	delete(c.folders, id)
	c.version++
}

// =============================================================================
// ID HELPERS
// =============================================================================

// NewItemID creates a unique chat item ID.
func NewItemID() string {
	return "chat_" + uuid.NewString()
}

// NewFolderID creates a unique folder ID. Optimistically created folders
// carry one until the server's canonical record replaces it.
func NewFolderID() string {
	return "fold_" + uuid.NewString()
}
