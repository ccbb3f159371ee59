// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package grouping derives the displayed chat-list sections from the
// collection state.
package grouping

import (
	"reflect"
	"testing"
	"time"

	"github.com/jeranaias/chatsync/internal/collection"
)

var testNow = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

func item(id string, age time.Duration, opts ...func(*collection.Item)) collection.Item {
	it := collection.Item{
		ID:        id,
		Title:     id,
		CreatedAt: testNow.Add(-age),
	}
	for _, opt := range opts {
		opt(&it)
	}
	return it
}

func pinned(it *collection.Item) { it.Pinned = true }

func inFolder(id string) func(*collection.Item) {
	return func(it *collection.Item) { it.FolderID = id }
}

func labels(buckets []Bucket) []string {
	out := make([]string, len(buckets))
	for i, b := range buckets {
		out[i] = b.Label
	}
	return out
}

func ids(items []collection.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

// =============================================================================
// BUCKET ORDER TESTS
// =============================================================================

func TestGroup_SectionOrder(t *testing.T) {
	items := []collection.Item{
		item("pin", time.Hour, pinned),
		item("today", time.Hour),
		item("old", 90*24*time.Hour),
		item("filed", time.Hour, inFolder("f1")),
	}
	folders := []collection.Folder{{ID: "f1", Name: "Work"}}

	got := labels(Group(items, folders, testNow))
	want := []string{"Pinned", "Work", "Today", "Older"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("section order = %v, want %v", got, want)
	}
}

func TestGroup_EmptySectionsOmitted(t *testing.T) {
	items := []collection.Item{item("a", time.Hour)}
	folders := []collection.Folder{{ID: "f1", Name: "Empty"}}

	got := labels(Group(items, folders, testNow))
	want := []string{"Today"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sections = %v, want %v", got, want)
	}
}

func TestGroup_PinnedWinsOverFolder(t *testing.T) {
	items := []collection.Item{
		item("both", time.Hour, pinned, inFolder("f1")),
		item("filed", time.Hour, inFolder("f1")),
	}
	folders := []collection.Folder{{ID: "f1", Name: "Work"}}

	buckets := Group(items, folders, testNow)
	if got := labels(buckets); !reflect.DeepEqual(got, []string{"Pinned", "Work"}) {
		t.Fatalf("sections = %v", got)
	}
	if got := ids(buckets[0].Items); !reflect.DeepEqual(got, []string{"both"}) {
		t.Errorf("Pinned items = %v", got)
	}
	// The pinned item must not also appear in its folder's section.
	if got := ids(buckets[1].Items); !reflect.DeepEqual(got, []string{"filed"}) {
		t.Errorf("folder items = %v", got)
	}
}

func TestGroup_DanglingFolderTreatedAsUnfoldered(t *testing.T) {
	items := []collection.Item{item("lost", time.Hour, inFolder("gone"))}

	buckets := Group(items, nil, testNow)
	if got := labels(buckets); !reflect.DeepEqual(got, []string{"Today"}) {
		t.Errorf("sections = %v, want [Today]", got)
	}
}

// =============================================================================
// FOLDER ORDER TESTS
// =============================================================================

func TestGroup_FoldersSortedCaseInsensitively(t *testing.T) {
	items := []collection.Item{
		item("a", time.Hour, inFolder("f1")),
		item("b", time.Hour, inFolder("f2")),
		item("c", time.Hour, inFolder("f3")),
	}
	folders := []collection.Folder{
		{ID: "f1", Name: "zebra"},
		{ID: "f2", Name: "Apple"},
		{ID: "f3", Name: "mango"},
	}

	got := labels(Group(items, folders, testNow))
	want := []string{"Apple", "mango", "zebra"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("folder order = %v, want %v", got, want)
	}
}

// =============================================================================
// AGE BUCKET TESTS
// =============================================================================

func TestGroup_AgeBoundaries(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		want string
	}{
		{"just now", time.Minute, LabelToday},
		{"this morning", 14 * time.Hour, LabelToday},
		{"late yesterday", 15 * time.Hour, LabelYesterday},
		{"three days ago", 3 * 24 * time.Hour, LabelWeek},
		{"two weeks ago", 14 * 24 * time.Hour, LabelMonth},
		{"two months ago", 60 * 24 * time.Hour, LabelOlder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buckets := Group([]collection.Item{item("x", tt.age)}, nil, testNow)
			if len(buckets) != 1 || buckets[0].Label != tt.want {
				t.Errorf("bucket = %v, want %q", labels(buckets), tt.want)
			}
		})
	}
}

// =============================================================================
// DETERMINISM TESTS
// =============================================================================

func TestGroup_NewestFirstWithIDTiebreak(t *testing.T) {
	same := 2 * time.Hour
	items := []collection.Item{
		item("b", same),
		item("a", same),
		item("newest", time.Hour),
	}

	buckets := Group(items, nil, testNow)
	got := ids(buckets[0].Items)
	want := []string{"newest", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestGroup_UpdatedAtDrivesRecency(t *testing.T) {
	old := item("bumped", 48*time.Hour)
	old.UpdatedAt = testNow.Add(-time.Minute)
	fresh := item("fresh", 47*time.Hour)

	// Both created the same age bucket; the recently updated one sorts first.
	buckets := Group([]collection.Item{fresh, old}, nil, testNow)
	got := ids(buckets[0].Items)
	want := []string{"bumped", "fresh"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestGroup_DeterministicAcrossRuns(t *testing.T) {
	items := []collection.Item{
		item("a", time.Hour, inFolder("f1")),
		item("b", time.Hour, inFolder("f2")),
		item("c", 2*time.Hour),
		item("d", 2*time.Hour, pinned),
	}
	folders := []collection.Folder{
		{ID: "f1", Name: "One"},
		{ID: "f2", Name: "Two"},
	}

	first := Group(items, folders, testNow)
	for i := 0; i < 50; i++ {
		if got := Group(items, folders, testNow); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d diverged: %v", i, labels(got))
		}
	}
}
