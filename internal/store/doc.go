// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists the chat collection and transcripts in a local
// SQLite database.
//
// The store implements the same CollectionAPI as the HTTP client, which
// lets a surface confirm mutations against the local copy when the
// service is unreachable and seed its chat list at startup from the
// last known state.
//
// # Storage Location
//
// The database lives at ~/.chatsync/collections.db by default; the path
// comes from the store section of the config.
package store
