// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package surface glues the conversation and collection state machines
// to a Bubble Tea event loop. Each surface owns its transcripts and
// session; the collection is shared through the synchronizer.
package surface

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatsync/internal/assembler"
	"github.com/jeranaias/chatsync/internal/cache"
	"github.com/jeranaias/chatsync/internal/collection"
	"github.com/jeranaias/chatsync/internal/config"
	"github.com/jeranaias/chatsync/internal/grouping"
	"github.com/jeranaias/chatsync/internal/model"
	"github.com/jeranaias/chatsync/internal/transport"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyTurn is returned when a submitted turn is empty or
	// whitespace-only; nothing is sent.
	ErrEmptyTurn = errors.New("surface: turn is empty")

	// ErrTurnInFlight is returned when a turn is submitted while the
	// previous one has not reached a terminal phase.
	ErrTurnInFlight = errors.New("surface: previous turn still streaming")

	// ErrNoConversation is returned when no conversation is open.
	ErrNoConversation = errors.New("surface: no conversation open")
)

// =============================================================================
// STREAMER
// =============================================================================

// Streamer opens the response stream for a submitted turn. Implemented
// by the transport client; tests substitute a local reader.
type Streamer interface {
	StreamTurn(ctx context.Context, turn transport.TurnRequest) (io.ReadCloser, error)
}

// streamOpenedMsg carries the opened response body from the submit
// command back onto the event loop, where the runner is created.
type streamOpenedMsg struct {
	body io.ReadCloser
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives one surface. All methods must be called from the
// surface's event loop: every state transition is a plain
// (state, message) step, which is what makes the streaming and mutation
// invariants checkable.
type Controller struct {
	name string
	caps config.Surface

	streamer Streamer
	api      transport.CollectionAPI
	sync     *collection.Synchronizer

	conversationID string
	transcript     *model.Transcript
	session        *assembler.Session
	runner         *StreamRunner
	cancelMgr      *cancelManager

	// transcripts keeps recently viewed conversations so switching back
	// does not refetch them.
	transcripts *cache.Cache[*model.Transcript]

	// groups is the memoized derived view; recomputed when the
	// collection version moves.
	groups        []grouping.Bucket
	groupsVersion uint64
	groupsValid   bool

	now func() time.Time
}

// NewController creates a controller for one surface.
func NewController(name string, caps config.Surface, streamer Streamer, api transport.CollectionAPI, sync *collection.Synchronizer) *Controller {
	return &Controller{
		name:        name,
		caps:        caps,
		streamer:    streamer,
		api:         api,
		sync:        sync,
		cancelMgr:   newCancelManager(),
		transcripts: cache.New[*model.Transcript](32, 10*time.Minute),
		now:         time.Now,
	}
}

// OpenConversation points the controller at a conversation. The current
// transcript is cached so switching back is instant; a nil transcript
// falls back to the cache and then to a fresh one.
//
// A turn still streaming is terminated first: leaving the session
// running would strand the outgoing transcript's open message, keeping
// that conversation busy forever. Failing it annotates the partial
// reply and clears the open handle before the transcript is cached.
func (c *Controller) OpenConversation(id string, t *model.Transcript) {
	if c.Busy() {
		c.session.Fail(errors.New("conversation switched mid-stream"))
		c.endStream()
	}
	if c.conversationID != "" && c.transcript != nil {
		c.transcripts.Put(c.conversationID, c.transcript)
	}
	if t == nil {
		if cached, ok := c.transcripts.Get(id); ok {
			t = cached
		} else {
			t = model.NewTranscript()
		}
	}
	c.conversationID = id
	c.transcript = t
	c.session = nil
}

// Transcript returns the open conversation's transcript, or nil.
func (c *Controller) Transcript() *model.Transcript {
	return c.transcript
}

// Session returns the active stream session, or nil.
func (c *Controller) Session() *assembler.Session {
	return c.session
}

// Busy reports whether a turn is currently streaming.
func (c *Controller) Busy() bool {
	return c.session != nil && !c.session.Phase().IsTerminal()
}

// =============================================================================
// TURN SUBMISSION
// =============================================================================

// SubmitTurn validates and submits a user turn, returning the command
// that opens the response stream. The user message is appended and the
// session created synchronously, so the transcript reflects the turn
// before any network work happens.
func (c *Controller) SubmitTurn(text string) (tea.Cmd, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyTurn
	}
	if c.transcript == nil {
		return nil, ErrNoConversation
	}
	if c.Busy() {
		return nil, ErrTurnInFlight
	}

	session, err := assembler.NewSession(c.transcript, c.caps)
	if err != nil {
		return nil, err
	}
	c.transcript.AppendUser(text)
	c.session = session

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelMgr.set(cancel)

	turn := transport.TurnRequest{
		ConversationID: c.conversationID,
		Surface:        c.name,
		Content:        text,
		LinkMode:       c.caps.SupportsLinkMode,
	}

	return func() tea.Msg {
		body, err := c.streamer.StreamTurn(ctx, turn)
		if err != nil {
			return StreamErrorMsg{Err: err}
		}
		return streamOpenedMsg{body: body}
	}, nil
}

// CancelTurn aborts the active stream. The pump surfaces the abort as a
// StreamErrorMsg, so cancellation follows the same failure path as a
// dropped connection.
func (c *Controller) CancelTurn() {
	c.cancelMgr.cancel()
}

// =============================================================================
// MESSAGE HANDLING
// =============================================================================

// Update applies one event-loop message and returns the follow-up
// command, if any. Unrecognized messages return nil.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case streamOpenedMsg:
		c.runner = NewStreamRunner(msg.body)
		return c.runner.Start()

	case StreamFramesMsg:
		for _, payload := range msg.Payloads {
			if c.session == nil {
				break
			}
			if err := c.session.HandleFrame(payload); err != nil {
				// Terminal session; remaining frames of the batch are
				// part of a dead stream.
				break
			}
		}
		if c.runner != nil {
			return c.runner.Next()
		}
		return nil

	case StreamDoneMsg:
		if c.session != nil {
			c.session.Finish()
		}
		c.endStream()
		return nil

	case StreamErrorMsg:
		if c.session != nil {
			c.session.Fail(msg.Err)
		}
		c.endStream()
		return nil

	case CollectionLoadedMsg:
		if msg.Err == nil && msg.Snapshot != nil {
			c.sync.Collection().Seed(msg.Snapshot.Items, msg.Snapshot.Folders)
			c.groupsValid = false
		}
		return nil

	case ItemConfirmedMsg:
		c.sync.ConfirmItem(msg.Pending, msg.Canonical)
		return nil

	case ItemRejectedMsg:
		c.sync.RejectItem(msg.Pending)
		return nil

	case FolderConfirmedMsg:
		c.sync.ConfirmFolder(msg.Pending, msg.Canonical)
		return nil

	case FolderRejectedMsg:
		c.sync.RejectFolder(msg.Pending)
		return nil
	}
	return nil
}

// endStream tears down per-stream state after a terminal message.
func (c *Controller) endStream() {
	c.cancelMgr.cancel()
	c.runner = nil
}

// =============================================================================
// COLLECTION COMMANDS
// =============================================================================

// LoadCollection returns the command that fetches the startup snapshot.
func (c *Controller) LoadCollection() tea.Cmd {
	return func() tea.Msg {
		snap, err := c.api.ListCollection(context.Background())
		return CollectionLoadedMsg{Snapshot: snap, Err: err}
	}
}

// RenameChat applies an optimistic rename and returns the confirming
// command. Validation failures are returned synchronously with no
// command and no state change.
func (c *Controller) RenameChat(id, title string) (tea.Cmd, error) {
	p, err := c.sync.Rename(id, title)
	if err != nil {
		return nil, err
	}
	return func() tea.Msg {
		canonical, err := c.api.RenameChat(context.Background(), id, strings.TrimSpace(title))
		if err != nil {
			return ItemRejectedMsg{Pending: p, Err: err}
		}
		return ItemConfirmedMsg{Pending: p, Canonical: canonical}
	}, nil
}

// SetPinned applies an optimistic pin change and returns the confirming
// command.
func (c *Controller) SetPinned(id string, pinned bool) (tea.Cmd, error) {
	p, err := c.sync.SetPinned(id, pinned)
	if err != nil {
		return nil, err
	}
	return func() tea.Msg {
		canonical, err := c.api.SetPinned(context.Background(), id, pinned)
		if err != nil {
			return ItemRejectedMsg{Pending: p, Err: err}
		}
		return ItemConfirmedMsg{Pending: p, Canonical: canonical}
	}, nil
}

// MoveToFolder applies an optimistic move and returns the confirming
// command.
func (c *Controller) MoveToFolder(id, folderID string) (tea.Cmd, error) {
	p, err := c.sync.MoveToFolder(id, folderID)
	if err != nil {
		return nil, err
	}
	return func() tea.Msg {
		canonical, err := c.api.MoveToFolder(context.Background(), id, folderID)
		if err != nil {
			return ItemRejectedMsg{Pending: p, Err: err}
		}
		return ItemConfirmedMsg{Pending: p, Canonical: canonical}
	}, nil
}

// DeleteChat applies an optimistic delete and returns the confirming
// command.
func (c *Controller) DeleteChat(id string) (tea.Cmd, error) {
	p, err := c.sync.DeleteItem(id)
	if err != nil {
		return nil, err
	}
	c.transcripts.Invalidate(id)
	return func() tea.Msg {
		if err := c.api.DeleteChat(context.Background(), id); err != nil {
			return ItemRejectedMsg{Pending: p, Err: err}
		}
		return ItemConfirmedMsg{Pending: p}
	}, nil
}

// CreateFolder applies an optimistic folder and returns the confirming
// command; the server's record replaces the temporary one.
func (c *Controller) CreateFolder(name string) (tea.Cmd, error) {
	p, err := c.sync.CreateFolder(name)
	if err != nil {
		return nil, err
	}
	return func() tea.Msg {
		canonical, err := c.api.CreateFolder(context.Background(), strings.TrimSpace(name))
		if err != nil {
			return FolderRejectedMsg{Pending: p, Err: err}
		}
		return FolderConfirmedMsg{Pending: p, Canonical: canonical}
	}, nil
}

// RenameFolder applies an optimistic folder rename and returns the
// confirming command.
func (c *Controller) RenameFolder(id, name string) (tea.Cmd, error) {
	p, err := c.sync.RenameFolder(id, name)
	if err != nil {
		return nil, err
	}
	return func() tea.Msg {
		canonical, err := c.api.RenameFolder(context.Background(), id, strings.TrimSpace(name))
		if err != nil {
			return FolderRejectedMsg{Pending: p, Err: err}
		}
		return FolderConfirmedMsg{Pending: p, Canonical: canonical}
	}, nil
}

// DeleteFolder applies an optimistic folder delete and returns the
// confirming command.
func (c *Controller) DeleteFolder(id string) (tea.Cmd, error) {
	p, err := c.sync.DeleteFolder(id)
	if err != nil {
		return nil, err
	}
	return func() tea.Msg {
		if err := c.api.DeleteFolder(context.Background(), id); err != nil {
			return FolderRejectedMsg{Pending: p, Err: err}
		}
		return FolderConfirmedMsg{Pending: p}
	}, nil
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// Groups returns the grouped chat list, recomputing only when the
// collection has changed since the last call.
func (c *Controller) Groups() []grouping.Bucket {
	coll := c.sync.Collection()
	if c.groupsValid && coll.Version() == c.groupsVersion {
		return c.groups
	}
	c.groups = grouping.Group(coll.Items(), coll.Folders(), c.now())
	c.groupsVersion = coll.Version()
	c.groupsValid = true
	return c.groups
}
