// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package collection holds the shared chat and folder collections and the
// optimistic mutation engine that keeps them converged with the server.
package collection

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// MUTATION KINDS
// =============================================================================

// Kind identifies a mutation kind. At most one mutation per (target, kind)
// is in flight; a second one supersedes the first.
type Kind string

const (
	KindRename       Kind = "rename"
	KindPin          Kind = "pin"
	KindMove         Kind = "move"
	KindDelete       Kind = "delete"
	KindFolderCreate Kind = "folder_create"
	KindFolderRename Kind = "folder_rename"
	KindFolderDelete Kind = "folder_delete"
)

// =============================================================================
// PENDING MUTATIONS
// =============================================================================

// Pending records one optimistic mutation awaiting server confirmation.
//
// Previous is the snapshot taken before the *first* mutation of this
// (target, kind): when a later mutation supersedes an in-flight one, the
// original snapshot is carried forward so rollback never resurrects a
// stale intermediate value. A nil snapshot means the record was absent.
type Pending[T any] struct {
	ID         string
	TargetID   string
	Kind       Kind
	Previous   *T
	Optimistic *T
	IssuedAt   time.Time
}

type pendingKey struct {
	target string
	kind   Kind
}

// engine is the generic apply/confirm/rollback core, shared by the item
// and folder sides of the synchronizer.
type engine[T any] struct {
	get     func(id string) (T, bool)
	put     func(v T)
	del     func(id string)
	pending map[pendingKey]*Pending[T]
}

func newEngine[T any](get func(string) (T, bool), put func(T), del func(string)) engine[T] {
	return engine[T]{
		get:     get,
		put:     put,
		del:     del,
		pending: make(map[pendingKey]*Pending[T]),
	}
}

// apply computes the optimistic value, updates the collection
// synchronously, and records the pending mutation. transform receives a
// snapshot of the current value (nil if absent) and returns the
// optimistic value (nil to delete).
func (e *engine[T]) apply(target string, kind Kind, transform func(cur *T) *T) *Pending[T] {
	var cur *T
	if v, ok := e.get(target); ok {
		cur = &v
	}

	// Supersession keeps the first mutation's pre-image for rollback.
	key := pendingKey{target: target, kind: kind}
	previous := cur
	if inflight, ok := e.pending[key]; ok {
		previous = inflight.Previous
	}

	optimistic := transform(cur)
	if optimistic == nil {
		e.del(target)
	} else {
		e.put(*optimistic)
	}

	p := &Pending[T]{
		ID:         "mut_" + uuid.NewString(),
		TargetID:   target,
		Kind:       kind,
		Previous:   previous,
		Optimistic: optimistic,
		IssuedAt:   time.Now(),
	}
	e.pending[key] = p
	return p
}

// confirm resolves a pending mutation after server success. A canonical
// value that differs from the optimistic guess overwrites it. Returns
// false for a stale confirmation (the mutation was superseded).
func (e *engine[T]) confirm(p *Pending[T], canonical *T) bool {
	key := pendingKey{target: p.TargetID, kind: p.Kind}
	inflight, ok := e.pending[key]
	if !ok || inflight.ID != p.ID {
		return false
	}
	delete(e.pending, key)

	if canonical != nil {
		e.put(*canonical)
	}
	return true
}

// reject rolls the target back to the pending mutation's pre-image.
// Returns false for a stale rejection.
func (e *engine[T]) reject(p *Pending[T]) bool {
	key := pendingKey{target: p.TargetID, kind: p.Kind}
	inflight, ok := e.pending[key]
	if !ok || inflight.ID != p.ID {
		return false
	}
	delete(e.pending, key)

	if inflight.Previous == nil {
		e.del(p.TargetID)
	} else {
		e.put(*inflight.Previous)
	}
	return true
}

// inFlight returns the number of pending mutations.
func (e *engine[T]) inFlight() int {
	return len(e.pending)
}

// =============================================================================
// SYNCHRONIZER
// =============================================================================

// Validation errors. These are rejected before any optimistic mutation or
// network call is made; the collection is untouched.
var (
	ErrEmptyTitle     = errors.New("collection: title must not be empty")
	ErrItemNotFound   = errors.New("collection: item not found")
	ErrFolderNotFound = errors.New("collection: folder not found")
)

// Synchronizer applies local mutations to a Collection immediately and
// converges with server confirmation: Confirm discards the pending record
// (reconciling canonical fields), Reject restores the pre-image.
//
// The synchronizer never performs network calls itself; the surface
// dispatches the confirming request and feeds the outcome back. This
// keeps every state transition a pure (currentState, event) → newState
// step on the event loop.
type Synchronizer struct {
	coll     *Collection
	items    engine[Item]
	folders  engine[Folder]
	onChange func()
}

// NewSynchronizer wraps a collection. onChange fires after every visible
// state change (optimistic apply, canonical reconcile, rollback) so the
// surface re-derives its grouping; it may be nil.
func NewSynchronizer(coll *Collection, onChange func()) *Synchronizer {
	s := &Synchronizer{coll: coll, onChange: onChange}
	s.items = newEngine(coll.Item, coll.putItem, coll.deleteItem)
	s.folders = newEngine(coll.Folder, coll.putFolder, coll.deleteFolder)
	return s
}

// Collection returns the underlying collection.
func (s *Synchronizer) Collection() *Collection {
	return s.coll
}

// InFlight returns the number of pending mutations across both engines.
func (s *Synchronizer) InFlight() int {
	return s.items.inFlight() + s.folders.inFlight()
}

func (s *Synchronizer) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// =============================================================================
// ITEM MUTATIONS
// =============================================================================

// Rename applies an optimistic title change. An empty or whitespace-only
// title is rejected locally: no state change, no request to dispatch.
func (s *Synchronizer) Rename(id, title string) (*Pending[Item], error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if _, ok := s.coll.Item(id); !ok {
		return nil, ErrItemNotFound
	}

	p := s.items.apply(id, KindRename, func(cur *Item) *Item {
		it := *cur
		it.Title = title
		it.UpdatedAt = time.Now()
		return &it
	})
	s.changed()
	return p, nil
}

// SetPinned applies an optimistic pin or unpin.
func (s *Synchronizer) SetPinned(id string, pinned bool) (*Pending[Item], error) {
	if _, ok := s.coll.Item(id); !ok {
		return nil, ErrItemNotFound
	}

	p := s.items.apply(id, KindPin, func(cur *Item) *Item {
		it := *cur
		it.Pinned = pinned
		it.UpdatedAt = time.Now()
		return &it
	})
	s.changed()
	return p, nil
}

// MoveToFolder applies an optimistic move into a folder (or out of every
// folder when folderID is empty). Membership is exclusive: setting the
// folder reference replaces any previous one, in both the optimistic and
// any rolled-back state.
func (s *Synchronizer) MoveToFolder(id, folderID string) (*Pending[Item], error) {
	if _, ok := s.coll.Item(id); !ok {
		return nil, ErrItemNotFound
	}
	if folderID != "" {
		if _, ok := s.coll.Folder(folderID); !ok {
			return nil, ErrFolderNotFound
		}
	}

	p := s.items.apply(id, KindMove, func(cur *Item) *Item {
		it := *cur
		it.FolderID = folderID
		it.UpdatedAt = time.Now()
		return &it
	})
	s.changed()
	return p, nil
}

// DeleteItem applies an optimistic removal.
func (s *Synchronizer) DeleteItem(id string) (*Pending[Item], error) {
	if _, ok := s.coll.Item(id); !ok {
		return nil, ErrItemNotFound
	}

	p := s.items.apply(id, KindDelete, func(cur *Item) *Item {
		return nil
	})
	s.changed()
	return p, nil
}

// ConfirmItem resolves an item mutation after server success, reconciling
// the canonical record when the server returned one.
func (s *Synchronizer) ConfirmItem(p *Pending[Item], canonical *Item) {
	if s.items.confirm(p, canonical) && canonical != nil {
		s.changed()
	}
}

// RejectItem rolls an item mutation back to its pre-image.
func (s *Synchronizer) RejectItem(p *Pending[Item]) {
	if s.items.reject(p) {
		s.changed()
	}
}

// =============================================================================
// FOLDER MUTATIONS
// =============================================================================

// CreateFolder applies an optimistic folder with a locally generated ID.
// The server's canonical record, carrying the authoritative ID, replaces
// it on confirmation.
func (s *Synchronizer) CreateFolder(name string) (*Pending[Folder], error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyTitle
	}

	id := NewFolderID()
	p := s.folders.apply(id, KindFolderCreate, func(cur *Folder) *Folder {
		return &Folder{ID: id, Name: name, CreatedAt: time.Now()}
	})
	s.changed()
	return p, nil
}

// RenameFolder applies an optimistic folder rename, with the same local
// validation as item renames.
func (s *Synchronizer) RenameFolder(id, name string) (*Pending[Folder], error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyTitle
	}
	if _, ok := s.coll.Folder(id); !ok {
		return nil, ErrFolderNotFound
	}

	p := s.folders.apply(id, KindFolderRename, func(cur *Folder) *Folder {
		f := *cur
		f.Name = name
		return &f
	})
	s.changed()
	return p, nil
}

// DeleteFolder applies an optimistic folder removal. Items referencing
// the folder are left untouched; the grouping layer treats a dangling
// folder reference as unfoldered.
func (s *Synchronizer) DeleteFolder(id string) (*Pending[Folder], error) {
	if _, ok := s.coll.Folder(id); !ok {
		return nil, ErrFolderNotFound
	}

	p := s.folders.apply(id, KindFolderDelete, func(cur *Folder) *Folder {
		return nil
	})
	s.changed()
	return p, nil
}

// ConfirmFolder resolves a folder mutation. For a creation the canonical
// record usually carries a server-assigned ID: the optimistic folder is
// replaced and items are not re-pointed because nothing referenced the
// temporary ID outside this client yet.
func (s *Synchronizer) ConfirmFolder(p *Pending[Folder], canonical *Folder) {
	if !s.folders.confirm(p, nil) {
		return
	}
	if canonical == nil {
		return
	}
	if canonical.ID != p.TargetID {
		s.coll.deleteFolder(p.TargetID)
		// Re-point any item that was optimistically moved into the
		// temporary folder before confirmation arrived.
		for _, it := range s.coll.Items() {
			if it.FolderID == p.TargetID {
				it.FolderID = canonical.ID
				s.coll.putItem(it)
			}
		}
	}
	s.coll.putFolder(*canonical)
	s.changed()
}

// RejectFolder rolls a folder mutation back to its pre-image.
func (s *Synchronizer) RejectFolder(p *Pending[Folder]) {
	if s.folders.reject(p) {
		s.changed()
	}
}
