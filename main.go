// chatsync - conversation and collection synchronization client.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatsync/internal/collection"
	"github.com/jeranaias/chatsync/internal/config"
	"github.com/jeranaias/chatsync/internal/store"
	"github.com/jeranaias/chatsync/internal/surface"
	"github.com/jeranaias/chatsync/internal/transport"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "version") {
		fmt.Printf("chatsync %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatsync: failed to load config: %v\n", err)
		os.Exit(1)
	}

	storePath, err := cfg.StorePath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatsync: %v\n", err)
		os.Exit(1)
	}
	db, err := store.Open(storePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatsync: failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	client := transport.NewClient(cfg.Transport)

	coll := collection.New()
	sync := collection.NewSynchronizer(coll, nil)

	// Seed from the local copy so the list is usable immediately; the
	// server snapshot replaces it once LoadCollection completes.
	seedFromStore(db, coll)

	ctrl := surface.NewController(
		cfg.DefaultSurface,
		cfg.SurfaceByName(cfg.DefaultSurface),
		client,
		client,
		sync,
	)
	ctrl.OpenConversation(collection.NewItemID(), nil)

	app := newApp(ctrl, db)
	if _, err := tea.NewProgram(app).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatsync: %v\n", err)
		os.Exit(1)
	}
}

// configPath resolves the config file location.
func configPath() string {
	if p := os.Getenv("CHATSYNC_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".chatsync", "config.toml")
}

// seedFromStore loads the last known collection state. Failures are not
// fatal: an empty list until the server answers is acceptable.
func seedFromStore(db *store.Store, coll *collection.Collection) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap, err := db.ListCollection(ctx)
	if err != nil {
		return
	}
	coll.Seed(snap.Items, snap.Folders)
}

// =============================================================================
// APP MODEL
// =============================================================================

// app is the minimal shell around the surface controller: an input line,
// the transcript, and the grouped chat list.
type app struct {
	ctrl  *surface.Controller
	db    *store.Store
	input string
	err   string
}

func newApp(ctrl *surface.Controller, db *store.Store) *app {
	return &app{ctrl: ctrl, db: db}
}

func (a *app) Init() tea.Cmd {
	return a.ctrl.LoadCollection()
}

func (a *app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.ctrl.CancelTurn()
			return a, tea.Quit
		case "esc":
			a.ctrl.CancelTurn()
			return a, nil
		case "enter":
			cmd, err := a.ctrl.SubmitTurn(a.input)
			if err != nil {
				a.err = err.Error()
				return a, nil
			}
			a.input = ""
			a.err = ""
			return a, cmd
		case "backspace":
			if len(a.input) > 0 {
				runes := []rune(a.input)
				a.input = string(runes[:len(runes)-1])
			}
			return a, nil
		default:
			if msg.Type == tea.KeyRunes {
				a.input += string(msg.Runes)
			}
			return a, nil
		}

	case surface.StreamDoneMsg, surface.StreamErrorMsg:
		cmd := a.ctrl.Update(msg)
		a.saveTranscript()
		return a, cmd
	}

	return a, a.ctrl.Update(msg)
}

// saveTranscript persists the transcript after a turn reaches a terminal
// phase.
func (a *app) saveTranscript() {
	t := a.ctrl.Transcript()
	if t == nil || t.IsEmpty() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.db.SaveTranscript(ctx, t.ID, t); err != nil {
		a.err = err.Error()
	}
}

func (a *app) View() string {
	var b strings.Builder

	for _, bucket := range a.ctrl.Groups() {
		b.WriteString(bucket.Label)
		b.WriteString("\n")
		for _, it := range bucket.Items {
			b.WriteString("  ")
			b.WriteString(it.Title)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	if t := a.ctrl.Transcript(); t != nil {
		for _, msg := range t.Messages {
			b.WriteString(msg.Role.DisplayName())
			b.WriteString(": ")
			b.WriteString(msg.DisplayContent())
			b.WriteString("\n")
		}
	}

	if a.ctrl.Busy() {
		b.WriteString("...\n")
	}
	if a.err != "" {
		b.WriteString("error: " + a.err + "\n")
	}

	b.WriteString("> " + a.input)
	return b.String()
}
