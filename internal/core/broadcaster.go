// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package core

import (
	"log/slog"
	"sync"
)

// Broadcaster distributes per-command change sets to observers (tree views,
// the preview adaptor, automation). Subscription and delivery are safe for
// concurrent use; the graph the changes describe is single-writer.
type Broadcaster struct {
	mu   sync.Mutex
	seq  uint64
	subs []chan ChangeSet
}

// NewBroadcaster creates a broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe creates a buffered channel receiving every published change set.
func (b *Broadcaster) Subscribe() chan ChangeSet {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan ChangeSet, 100)
	b.subs = append(b.subs, ch)
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (b *Broadcaster) Unsubscribe(ch chan ChangeSet) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Publish assigns the next sequence number and delivers the set to every
// subscriber. A subscriber with a full buffer misses the set; the editing
// thread must never block on an observer.
func (b *Broadcaster) Publish(set ChangeSet) {
	b.mu.Lock()
	b.seq++
	set.Seq = b.seq
	subs := make([]chan ChangeSet, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- set:
		default:
			slog.Warn("change set dropped: subscriber buffer full",
				"seq", set.Seq,
				"command", set.Command,
				"changes", len(set.Changes),
			)
		}
	}
}
