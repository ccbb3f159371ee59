// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport implements the HTTP client for the chat service.
//
// Two kinds of traffic flow through it:
//
//   - StreamTurn opens the response stream for a submitted turn. The
//     stream is never retried; a mid-stream failure is a failed session.
//   - The CollectionAPI endpoints confirm collection mutations. They are
//     rate limited, retried with exponential backoff on 5xx and rate
//     limits (honoring Retry-After), and never retried on 4xx.
//
// Errors carry both an APIError with the HTTP detail and a package
// sentinel (ErrAuthFailed, ErrNotFound, ErrRateLimited) matchable with
// errors.Is.
package transport
