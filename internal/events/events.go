// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

// Package events carries dataset lifecycle events from the API handler to
// websocket clients over an in-process Watermill pub/sub.
//
// The handler publishes a DatasetEvent whenever it detects a new dataset
// version or a failed load. A Watermill router consumes the topic and hands
// each event to a Sink, normally the websocket hub:
//
//	api.Handler --Publish--> gochannel[dataset.events] --Router--> Sink (ws.Hub)
//
// Publishing never blocks the request path. While the router is not running,
// events are delivered to the sink directly so startup and shutdown do not
// lose notifications.
package events

import (
	"fmt"

	"github.com/goccy/go-json"

	ws "github.com/tomtom215/rentalscope/internal/websocket"
)

// TopicDataset is the pub/sub topic for dataset lifecycle events.
const TopicDataset = "dataset.events"

// Event types, shared with the websocket message types.
const (
	TypeDatasetReloaded = ws.MessageTypeDatasetReloaded
	TypeDatasetError    = ws.MessageTypeDatasetError
)

// DatasetEvent is the payload published on TopicDataset. Exactly one of
// Reloaded and Error is set, matching Type.
type DatasetEvent struct {
	Type     string                  `json:"type"`
	Reloaded *ws.DatasetReloadedData `json:"reloaded,omitempty"`
	Error    *ws.DatasetErrorData    `json:"error,omitempty"`
}

// Validate checks that the payload matches the event type.
func (e *DatasetEvent) Validate() error {
	switch e.Type {
	case TypeDatasetReloaded:
		if e.Reloaded == nil {
			return fmt.Errorf("%s event without payload", e.Type)
		}
	case TypeDatasetError:
		if e.Error == nil {
			return fmt.Errorf("%s event without payload", e.Type)
		}
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

// Marshal encodes the event for the wire.
func (e *DatasetEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalDatasetEvent decodes and validates a payload.
func UnmarshalDatasetEvent(payload []byte) (*DatasetEvent, error) {
	var e DatasetEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("decode dataset event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// Sink receives dataset events. *ws.Hub implements it, and so does *Bus,
// which lets the handler publish without knowing whether a bus is running.
type Sink interface {
	BroadcastDatasetReloaded(data ws.DatasetReloadedData) bool
	BroadcastDatasetError(data ws.DatasetErrorData) bool
}

var _ Sink = (*ws.Hub)(nil)

// deliver hands e to sink and reports whether the sink accepted it.
func deliver(sink Sink, e *DatasetEvent) bool {
	switch e.Type {
	case TypeDatasetReloaded:
		return sink.BroadcastDatasetReloaded(*e.Reloaded)
	case TypeDatasetError:
		return sink.BroadcastDatasetError(*e.Error)
	}
	return false
}
