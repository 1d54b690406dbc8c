// Package queue serializes message processing per chat. Messages from the
// same chat are handled strictly in arrival order, one at a time; different
// chats run concurrently on their own goroutines.
package queue

import (
	"container/list"
	"context"
	"log/slog"
	"sync"

	"github.com/touraibot/tourai/internal/whatsapp"
)

// ProcessFunc handles one message. It runs on the chat's drain goroutine.
type ProcessFunc func(ctx context.Context, msg whatsapp.IncomingMessage)

type chatQueue struct {
	messages *list.List
	active   bool
}

// Dispatcher fans incoming messages out to per-chat FIFO queues.
type Dispatcher struct {
	process ProcessFunc
	logger  *slog.Logger

	mu     sync.Mutex
	chats  map[string]*chatQueue
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// NewDispatcher builds a Dispatcher that hands each message to process.
func NewDispatcher(process ProcessFunc, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		process: process,
		logger:  logger,
		chats:   make(map[string]*chatQueue),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Enqueue queues a message for its chat and starts a drain goroutine for
// the chat if one is not already running. Messages enqueued after Stop are
// dropped.
func (d *Dispatcher) Enqueue(msg whatsapp.IncomingMessage) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("dispatcher stopped, dropping message", "from", msg.From)
		return
	}

	cq, ok := d.chats[msg.From]
	if !ok {
		cq = &chatQueue{messages: list.New()}
		d.chats[msg.From] = cq
	}
	cq.messages.PushBack(msg)

	start := !cq.active
	if start {
		cq.active = true
		d.wg.Add(1)
	}
	d.mu.Unlock()

	if start {
		go d.drain(msg.From, cq)
	}
}

func (d *Dispatcher) drain(chatID string, cq *chatQueue) {
	defer d.wg.Done()
	d.logger.Debug("chat drain started", "chat", chatID)

	for {
		d.mu.Lock()
		front := cq.messages.Front()
		if front == nil || d.closed {
			cq.active = false
			d.mu.Unlock()
			return
		}
		msg := cq.messages.Remove(front).(whatsapp.IncomingMessage)
		d.mu.Unlock()

		d.processSafely(msg)

		select {
		case <-d.ctx.Done():
			d.mu.Lock()
			cq.active = false
			d.mu.Unlock()
			return
		default:
		}
	}
}

func (d *Dispatcher) processSafely(msg whatsapp.IncomingMessage) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("message handler panicked", "from", msg.From, "panic", r)
		}
	}()
	d.process(d.ctx, msg)
}

// Pending reports how many messages are waiting for the given chat.
func (d *Dispatcher) Pending(chatID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	cq, ok := d.chats[chatID]
	if !ok {
		return 0
	}
	return cq.messages.Len()
}

// Stop stops accepting messages, cancels in-flight handlers and waits for
// the drain goroutines to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}
