// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for transcripts and messages.
//
// This package defines the core domain types shared by every chat surface
// for representing a conversation transcript and its messages.
//
// # Key Types
//
//   - Transcript: Ordered message list for one conversation, with an explicit
//     handle to the message currently receiving streamed content
//   - Message: Single message with role, content, optional segments and sources
//   - Role: Message role enumeration (user, assistant, system)
//   - Source: Citation metadata attached to assistant messages
//
// # Usage
//
// Build up a transcript during a streamed exchange:
//
//	t := model.NewTranscript()
//	t.AppendUser("Hello!")
//	msg := t.OpenAssistant()
//	t.AppendToOpen("Hi")
//	t.CloseOpen()
//
// A message's content is mutable only while it is the transcript's open
// message; once closed it is immutable.
package model
