// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package grouping derives the displayed chat-list sections from the
// collection state.
package grouping

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jeranaias/chatsync/internal/collection"
)

// =============================================================================
// BUCKET TYPES
// =============================================================================

// BucketKind identifies what a bucket groups by.
type BucketKind string

const (
	BucketPinned BucketKind = "pinned"
	BucketFolder BucketKind = "folder"
	BucketAge    BucketKind = "age"
)

// Age bucket labels, in display order.
const (
	LabelPinned    = "Pinned"
	LabelToday     = "Today"
	LabelYesterday = "Yesterday"
	LabelWeek      = "Previous 7 Days"
	LabelMonth     = "Previous 30 Days"
	LabelOlder     = "Older"
)

// Bucket is one section of the grouped chat list. FolderID is set only
// for folder buckets.
type Bucket struct {
	Kind     BucketKind
	Label    string
	FolderID string
	Items    []collection.Item
}

// =============================================================================
// GROUPING
// =============================================================================

// Group derives the display sections from a snapshot of the collection.
//
// The derivation is a pure function of (items, folders, now): pinned items
// come first in a single Pinned section regardless of folder membership,
// then one section per non-empty folder ordered case-insensitively by
// name, then the remaining items bucketed by age. An item referencing a
// folder that no longer exists is treated as unfoldered. Within every
// section items are ordered newest first, with the ID as tiebreak, so the
// same state always renders the same list. Empty sections are omitted.
func Group(items []collection.Item, folders []collection.Folder, now time.Time) []Bucket {
	byFolder := make(map[string][]collection.Item)
	var pinned []collection.Item
	var loose []collection.Item

	known := make(map[string]collection.Folder, len(folders))
	for _, f := range folders {
		known[f.ID] = f
	}

	for _, it := range items {
		switch {
		case it.Pinned:
			pinned = append(pinned, it)
		case it.FolderID != "":
			if _, ok := known[it.FolderID]; ok {
				byFolder[it.FolderID] = append(byFolder[it.FolderID], it)
			} else {
				loose = append(loose, it)
			}
		default:
			loose = append(loose, it)
		}
	}

	var out []Bucket
	if len(pinned) > 0 {
		sortNewestFirst(pinned)
		out = append(out, Bucket{Kind: BucketPinned, Label: LabelPinned, Items: pinned})
	}

	out = append(out, folderBuckets(byFolder, known)...)
	out = append(out, ageBuckets(loose, now)...)
	return out
}

// folderBuckets builds one bucket per populated folder, ordered
// case-insensitively by folder name.
func folderBuckets(byFolder map[string][]collection.Item, known map[string]collection.Folder) []Bucket {
	ids := make([]string, 0, len(byFolder))
	for id := range byFolder {
		ids = append(ids, id)
	}

	coll := collate.New(language.Und, collate.IgnoreCase)
	sort.Slice(ids, func(i, j int) bool {
		a, b := known[ids[i]], known[ids[j]]
		if cmp := coll.CompareString(a.Name, b.Name); cmp != 0 {
			return cmp < 0
		}
		return a.ID < b.ID
	})

	buckets := make([]Bucket, 0, len(ids))
	for _, id := range ids {
		items := byFolder[id]
		sortNewestFirst(items)
		buckets = append(buckets, Bucket{
			Kind:     BucketFolder,
			Label:    known[id].Name,
			FolderID: id,
			Items:    items,
		})
	}
	return buckets
}

// ageBuckets splits unpinned, unfoldered items into fixed age sections
// by creation time relative to the start of the current day.
func ageBuckets(items []collection.Item, now time.Time) []Bucket {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := dayStart.AddDate(0, 0, -1)
	weekAgo := dayStart.AddDate(0, 0, -7)
	monthAgo := dayStart.AddDate(0, 0, -30)

	sections := []struct {
		label string
		after time.Time
	}{
		{LabelToday, dayStart},
		{LabelYesterday, yesterday},
		{LabelWeek, weekAgo},
		{LabelMonth, monthAgo},
		{LabelOlder, time.Time{}},
	}

	grouped := make(map[string][]collection.Item, len(sections))
	for _, it := range items {
		for _, s := range sections {
			if !it.CreatedAt.Before(s.after) {
				grouped[s.label] = append(grouped[s.label], it)
				break
			}
		}
	}

	var out []Bucket
	for _, s := range sections {
		items := grouped[s.label]
		if len(items) == 0 {
			continue
		}
		sortNewestFirst(items)
		out = append(out, Bucket{Kind: BucketAge, Label: s.label, Items: items})
	}
	return out
}

// sortNewestFirst orders items by recency descending, breaking ties by ID
// so equal timestamps still produce a stable order.
func sortNewestFirst(items []collection.Item) {
	sort.Slice(items, func(i, j int) bool {
		a, b := recency(items[i]), recency(items[j])
		if !a.Equal(b) {
			return a.After(b)
		}
		return items[i].ID < items[j].ID
	})
}

func recency(it collection.Item) time.Time {
	if it.UpdatedAt.After(it.CreatedAt) {
		return it.UpdatedAt
	}
	return it.CreatedAt
}
