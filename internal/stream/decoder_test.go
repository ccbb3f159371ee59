// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the chat response stream into logical frames.
package stream

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// decodeAll runs a whole input through a fresh decoder in one chunk.
func decodeAll(input string) []string {
	d := NewDecoder()
	frames := d.Write([]byte(input))
	frames = append(frames, d.Close()...)
	return frames
}

// =============================================================================
// FRAME EXTRACTION TESTS
// =============================================================================

func TestDecoder_BasicFrames(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "single frame",
			input: "data: {\"type\":\"content\",\"content\":\"Hi\"}\n",
			want:  []string{"{\"type\":\"content\",\"content\":\"Hi\"}"},
		},
		{
			name:  "multiple frames",
			input: "data: one\ndata: two\n",
			want:  []string{"one", "two"},
		},
		{
			name:  "blank lines discarded",
			input: "data: one\n\n\ndata: two\n\n",
			want:  []string{"one", "two"},
		},
		{
			name:  "unrecognized fields ignored",
			input: "event: message\nid: 7\n: keep-alive comment\ndata: payload\n",
			want:  []string{"payload"},
		},
		{
			name:  "crlf line endings",
			input: "data: one\r\ndata: two\r\n",
			want:  []string{"one", "two"},
		},
		{
			name:  "prefix without space",
			input: "data:tight\n",
			want:  []string{"tight"},
		},
		{
			name:  "empty payload discarded",
			input: "data: \ndata:\n",
			want:  nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := decodeAll(tc.input)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("decodeAll(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestDecoder_TrailingPartialLineCarriedOver(t *testing.T) {
	d := NewDecoder()

	frames := d.Write([]byte("data: first\ndata: par"))
	if !reflect.DeepEqual(frames, []string{"first"}) {
		t.Fatalf("first write = %v, want [first]", frames)
	}

	frames = d.Write([]byte("tial\n"))
	if !reflect.DeepEqual(frames, []string{"partial"}) {
		t.Errorf("second write = %v, want [partial]", frames)
	}
}

func TestDecoder_CloseFlushesTrailingLine(t *testing.T) {
	d := NewDecoder()
	d.Write([]byte("data: unterminated"))

	frames := d.Close()
	if !reflect.DeepEqual(frames, []string{"unterminated"}) {
		t.Errorf("Close() = %v, want [unterminated]", frames)
	}

	// Closing twice yields nothing further
	if frames = d.Close(); frames != nil {
		t.Errorf("second Close() = %v, want nil", frames)
	}
}

// =============================================================================
// SPLITTING INVARIANT TESTS
// =============================================================================

// TestDecoder_SplitInvariant verifies that decoding a stream split at every
// possible byte boundary yields the same frames as decoding it unsplit.
// The input includes multi-byte characters so splits can land inside them.
func TestDecoder_SplitInvariant(t *testing.T) {
	input := "data: {\"type\":\"content\",\"content\":\"héllo\"}\n" +
		": comment\n" +
		"data: {\"type\":\"content\",\"content\":\"wörld 日本語\"}\n" +
		"\n" +
		"data: {\"type\":\"done\"}\n"

	want := decodeAll(input)
	if len(want) != 3 {
		t.Fatalf("baseline decode produced %d frames, want 3", len(want))
	}

	raw := []byte(input)
	for cut := 1; cut < len(raw); cut++ {
		d := NewDecoder()
		frames := d.Write(raw[:cut])
		frames = append(frames, d.Write(raw[cut:])...)
		frames = append(frames, d.Close()...)

		if !reflect.DeepEqual(frames, want) {
			t.Fatalf("split at byte %d: frames = %v, want %v", cut, frames, want)
		}
	}
}

func TestDecoder_ByteAtATime(t *testing.T) {
	input := "data: {\"type\":\"content\",\"content\":\"héllo\"}\ndata: {\"type\":\"done\"}\n"
	want := decodeAll(input)

	d := NewDecoder()
	var frames []string
	for i := 0; i < len(input); i++ {
		frames = append(frames, d.Write([]byte{input[i]})...)
	}
	frames = append(frames, d.Close()...)

	if !reflect.DeepEqual(frames, want) {
		t.Errorf("byte-at-a-time = %v, want %v", frames, want)
	}
}

func TestDecoder_OversizedLineDropped(t *testing.T) {
	d := NewDecoder()
	huge := "data: " + strings.Repeat("x", MaxFrameSize+1)

	frames := d.Write([]byte(huge))
	if frames != nil {
		t.Errorf("oversized write emitted frames: %v", frames)
	}
	if d.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", d.Dropped())
	}

	// The decoder must keep working after a drop
	frames = d.Write([]byte("data: after\n"))
	if !reflect.DeepEqual(frames, []string{"after"}) {
		t.Errorf("post-drop write = %v, want [after]", frames)
	}
}

// =============================================================================
// EVENT PARSING TESTS
// =============================================================================

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantTyp string
		wantErr bool
	}{
		{"content event", `{"type":"content","content":"Hi"}`, EventContent, false},
		{"sources event", `{"type":"sources","sources":[{"title":"t","url":"u","snippet":"s"}]}`, EventSources, false},
		{"done event", `{"type":"done"}`, EventDone, false},
		{"unknown type kept", `{"type":"usage","tokens":12}`, "usage", false},
		{"invalid json", `{"type":`, "", true},
		{"missing discriminator", `{"content":"Hi"}`, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := ParseEvent(tc.payload)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				var decodeErr *DecodeError
				if !errors.As(err, &decodeErr) {
					t.Errorf("error type = %T, want *DecodeError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEvent() error = %v", err)
			}
			if ev.Type != tc.wantTyp {
				t.Errorf("Type = %q, want %q", ev.Type, tc.wantTyp)
			}
		})
	}
}

func TestEvent_IsKnown(t *testing.T) {
	known := []string{EventContent, EventSources, EventDone, EventError}
	for _, typ := range known {
		if !(Event{Type: typ}).IsKnown() {
			t.Errorf("IsKnown(%q) = false, want true", typ)
		}
	}
	if (Event{Type: "usage"}).IsKnown() {
		t.Error("IsKnown(usage) = true, want false")
	}
}

func TestParseEvent_SourcesOrderPreserved(t *testing.T) {
	payload := `{"type":"sources","sources":[` +
		`{"title":"a","url":"ua","snippet":"sa"},` +
		`{"title":"b","url":"ub","snippet":"sb"}]}`

	ev, err := ParseEvent(payload)
	if err != nil {
		t.Fatalf("ParseEvent() error = %v", err)
	}
	if len(ev.Sources) != 2 || ev.Sources[0].Title != "a" || ev.Sources[1].Title != "b" {
		t.Errorf("sources order not preserved: %+v", ev.Sources)
	}
}
