// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"context"
	"sync"
)

// ScanRecorded is emitted after a scan has been appended to the ledger
type ScanRecorded struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Barcode   string `json:"barcode"`
	Format    string `json:"format,omitempty"`
	Timestamp string `json:"timestamp"`
	Timezone  string `json:"timezone"`
	Source    string `json:"source"`
}

// Publisher delivers scan events to whoever is listening downstream
type Publisher interface {
	PublishScan(ctx context.Context, event ScanRecorded) error
}

// Nop drops every event
type Nop struct{}

func (Nop) PublishScan(context.Context, ScanRecorded) error { return nil }

// Collector keeps events in memory
type Collector struct {
	mu     sync.Mutex
	events []ScanRecorded
	Err    error
}

func (c *Collector) PublishScan(_ context.Context, event ScanRecorded) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.events = append(c.events, event)
	return nil
}

// Events returns a copy of everything published so far
func (c *Collector) Events() []ScanRecorded {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ScanRecorded(nil), c.events...)
}
