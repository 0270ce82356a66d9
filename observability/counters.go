// Package observability aggregates engine telemetry for logs and the
// debug viewer.
package observability

import "sync/atomic"

// Counters tracks what the session engine has done since start. All
// fields are atomic so timer callbacks and commands can bump them
// without coordination.
type Counters struct {
	MessagesSent    atomic.Uint64
	RepliesReceived atomic.Uint64
	AcksAdvanced    atomic.Uint64
	Deletions       atomic.Uint64
	Saves           atomic.Uint64
	SaveRetries     atomic.Uint64
	SaveFailures    atomic.Uint64
}

// Snapshot is a plain copy for rendering.
type Snapshot struct {
	MessagesSent    uint64 `json:"messages_sent"`
	RepliesReceived uint64 `json:"replies_received"`
	AcksAdvanced    uint64 `json:"acks_advanced"`
	Deletions       uint64 `json:"deletions"`
	Saves           uint64 `json:"saves"`
	SaveRetries     uint64 `json:"save_retries"`
	SaveFailures    uint64 `json:"save_failures"`
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		MessagesSent:    c.MessagesSent.Load(),
		RepliesReceived: c.RepliesReceived.Load(),
		AcksAdvanced:    c.AcksAdvanced.Load(),
		Deletions:       c.Deletions.Load(),
		Saves:           c.Saves.Load(),
		SaveRetries:     c.SaveRetries.Load(),
		SaveFailures:    c.SaveFailures.Load(),
	}
}
