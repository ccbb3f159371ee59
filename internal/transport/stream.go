// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport implements the HTTP client for the chat service:
// the streaming turn endpoint plus the JSON endpoints that confirm
// collection mutations.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jeranaias/chatsync/internal/model"
)

// =============================================================================
// TURN STREAMING
// =============================================================================

// TurnRequest describes one submitted user turn.
type TurnRequest struct {
	ConversationID string `json:"conversation_id"`
	Surface        string `json:"surface"`

	// Content is the plain text of the turn. Segments, when present,
	// carry the structured form for surfaces with file support.
	Content  string          `json:"content,omitempty"`
	Segments []model.Segment `json:"segments,omitempty"`

	// LinkMode requests that the reply include source citations on the
	// stream's side channel.
	LinkMode bool `json:"link_mode,omitempty"`
}

// StreamTurn submits a turn and returns the raw response stream. The
// caller feeds it through the frame decoder chunk by chunk and must
// close it. Cancelling the context aborts the stream.
//
// There is no retry here: once frames have been consumed the request is
// not replayable, so a mid-stream failure is surfaced to the caller and
// handled as a failed session.
func (c *Client) StreamTurn(ctx context.Context, turn TurnRequest) (io.ReadCloser, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	bodyBytes, err := json.Marshal(turn)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/turns", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, readErr := readResponse(resp)
		resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}
		return nil, errorFromResponse(resp, body)
	}

	return resp.Body, nil
}
