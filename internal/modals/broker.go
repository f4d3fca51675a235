// Package modals lets server-side code wait on a yes/no answer from the user.
// A named modal is registered by the presentation layer; AwaitResult blocks
// until that layer answers through Resolve.
package modals

import (
	"context"
	"log/slog"
	"sync"
)

type modal struct {
	waiters []chan bool
}

type Broker struct {
	modals map[string]*modal
	mu     sync.Mutex
}

func New() *Broker {
	return &Broker{
		modals: make(map[string]*modal),
	}
}

func (b *Broker) Register(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.modals[name]; !exists {
		b.modals[name] = &modal{}
	}
}

// Unregister removes a modal, declining anyone still waiting on it
func (b *Broker) Unregister(name string) {
	b.mu.Lock()
	m, exists := b.modals[name]
	delete(b.modals, name)
	b.mu.Unlock()

	if exists {
		for _, w := range m.waiters {
			w <- false
		}
	}
}

// AwaitResult opens the named modal and waits for its answer. An unknown modal
// answers false immediately.
func (b *Broker) AwaitResult(ctx context.Context, name string) (bool, error) {
	b.mu.Lock()
	m, exists := b.modals[name]
	if !exists {
		b.mu.Unlock()
		slog.Warn("Awaiting unregistered modal", "name", name)
		return false, nil
	}
	answer := make(chan bool, 1)
	m.waiters = append(m.waiters, answer)
	b.mu.Unlock()

	select {
	case v := <-answer:
		return v, nil
	case <-ctx.Done():
		b.drop(name, answer)
		return false, ctx.Err()
	}
}

// AwaitConfirmation satisfies steps.Confirmer
func (b *Broker) AwaitConfirmation(ctx context.Context, name string) (bool, error) {
	return b.AwaitResult(ctx, name)
}

// Resolve answers every pending wait on the named modal and reports whether
// anyone was waiting.
func (b *Broker) Resolve(name string, answer bool) bool {
	b.mu.Lock()
	m, exists := b.modals[name]
	if !exists || len(m.waiters) == 0 {
		b.mu.Unlock()
		return false
	}
	waiters := m.waiters
	m.waiters = nil
	b.mu.Unlock()

	for _, w := range waiters {
		w <- answer
	}
	return true
}

// Pending reports whether someone is waiting on the named modal
func (b *Broker) Pending(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, exists := b.modals[name]
	return exists && len(m.waiters) > 0
}

func (b *Broker) drop(name string, answer chan bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, exists := b.modals[name]
	if !exists {
		return
	}
	for i, w := range m.waiters {
		if w == answer {
			m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
			return
		}
	}
}
