package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Top-Pesinde/backend-sub001/model"

	"github.com/samber/lo"
)

const (
	fallbackTitle  = "New message"
	sendTimeout    = 10 * time.Second
	maxPreviewRune = 120
)

// ReadState reports which of the given message ids are still unread.
type ReadState interface {
	FilterUnread(ctx context.Context, ids []string) ([]string, error)
}

type Directory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

type Options struct {
	Delay    time.Duration
	Cooldown time.Duration
	Tick     time.Duration
}

type thread struct {
	conversationID string
	receiverID     string
}

type pending struct {
	thread   thread
	senderID string
	content  string
	seq      uint64
	timer    *time.Timer
}

type batch struct {
	ids      []string
	senderID string
	content  string
	seq      uint64
}

// dispatch tracks flushes of a thread that are between the read check and the
// gateway call. A cancel bumps gen so they drop their push.
type dispatch struct {
	active int
	gen    uint64
}

// Escalator turns messages that stay unread past Delay into one push per
// burst. Timers live in memory only and are lost on restart.
type Escalator struct {
	opts      Options
	gateway   Gateway
	readState ReadState
	directory Directory
	log       *slog.Logger

	mu       sync.Mutex
	timers   map[string]*pending
	byThread map[thread]map[string]struct{}
	batches  map[thread]*batch
	lastPush map[thread]time.Time
	flushing map[thread]*dispatch
	seq      uint64
	closed   bool
	inflight sync.WaitGroup
}

func NewEscalator(opts Options, gateway Gateway, readState ReadState, directory Directory, log *slog.Logger) *Escalator {
	if opts.Tick <= 0 {
		opts.Tick = 250 * time.Millisecond
	}
	return &Escalator{
		opts:      opts,
		gateway:   gateway,
		readState: readState,
		directory: directory,
		log:       log,
		timers:    make(map[string]*pending),
		byThread:  make(map[thread]map[string]struct{}),
		batches:   make(map[thread]*batch),
		lastPush:  make(map[thread]time.Time),
		flushing:  make(map[thread]*dispatch),
	}
}

// Arm starts the escalation timer of a freshly persisted message. Arming the
// same message twice keeps the first timer.
func (e *Escalator) Arm(msg *model.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	if _, ok := e.timers[msg.ID]; ok {
		return
	}

	e.seq++
	id := msg.ID
	p := &pending{
		seq:      e.seq,
		thread:   thread{conversationID: msg.ConversationID, receiverID: msg.ReceiverID},
		senderID: msg.SenderID,
		content:  msg.Content,
	}
	p.timer = time.AfterFunc(e.opts.Delay, func() { e.fire(id) })

	e.timers[id] = p
	ids, ok := e.byThread[p.thread]
	if !ok {
		ids = make(map[string]struct{})
		e.byThread[p.thread] = ids
	}
	ids[id] = struct{}{}
}

// CancelConversation drops every pending escalation of messages addressed to
// receiverID in the conversation, including a batch waiting for its tick and a
// flush that has not reached the gateway yet.
func (e *Escalator) CancelConversation(conversationID, receiverID string) int {
	key := thread{conversationID: conversationID, receiverID: receiverID}

	e.mu.Lock()
	defer e.mu.Unlock()

	cancelled := 0
	for id := range e.byThread[key] {
		if p, ok := e.timers[id]; ok {
			p.timer.Stop()
			delete(e.timers, id)
			cancelled++
		}
	}
	delete(e.byThread, key)
	if b, ok := e.batches[key]; ok {
		cancelled += len(b.ids)
		delete(e.batches, key)
	}
	if d, ok := e.flushing[key]; ok {
		d.gen++
	}
	return cancelled
}

// Cancel is a no-op for unknown or already fired messages.
func (e *Escalator) Cancel(messageID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.timers[messageID]
	if !ok {
		return false
	}
	p.timer.Stop()
	e.forget(messageID, p.thread)
	return true
}

func (e *Escalator) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.timers)
}

// Stop cancels every pending timer and waits for in-flight pushes.
func (e *Escalator) Stop() {
	e.mu.Lock()
	e.closed = true
	for id, p := range e.timers {
		p.timer.Stop()
		delete(e.timers, id)
	}
	e.byThread = make(map[thread]map[string]struct{})
	e.batches = make(map[thread]*batch)
	e.mu.Unlock()

	e.inflight.Wait()
}

func (e *Escalator) forget(id string, key thread) {
	delete(e.timers, id)
	if ids, ok := e.byThread[key]; ok {
		delete(ids, id)
		if len(ids) == 0 {
			delete(e.byThread, key)
		}
	}
}

// fire moves an expired timer into the batch of its thread. The first
// message of a batch schedules the flush one tick later.
func (e *Escalator) fire(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.timers[id]
	if !ok || e.closed {
		return
	}
	e.forget(id, p.thread)

	b, ok := e.batches[p.thread]
	if !ok {
		b = &batch{}
		e.batches[p.thread] = b
		key := p.thread
		e.inflight.Add(1)
		time.AfterFunc(e.opts.Tick, func() {
			defer e.inflight.Done()
			e.flush(key)
		})
	}
	b.ids = append(b.ids, id)
	// Timers with equal deadlines fire in any order; keep the latest message.
	if p.seq > b.seq {
		b.seq = p.seq
		b.senderID = p.senderID
		b.content = p.content
	}
}

func (e *Escalator) flush(key thread) {
	e.mu.Lock()
	b, ok := e.batches[key]
	delete(e.batches, key)
	if !ok || e.closed || len(b.ids) == 0 {
		e.mu.Unlock()
		return
	}
	d, ok := e.flushing[key]
	if !ok {
		d = &dispatch{}
		e.flushing[key] = d
	}
	d.active++
	gen := d.gen
	e.mu.Unlock()
	defer e.doneFlushing(key, d)

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	log := e.log.With("conversation", key.conversationID, "receiver", key.receiverID)

	unread, err := e.readState.FilterUnread(ctx, b.ids)
	if err != nil {
		log.Warn("Read state unavailable, escalating whole batch", "error", err)
		unread = b.ids
	}
	if len(unread) == 0 {
		return
	}

	title := e.title(ctx, b.senderID)
	body := Summary(len(unread), b.content)
	data := map[string]string{
		"conversationId": key.conversationID,
		"senderId":       b.senderID,
		"messageIds":     strings.Join(unread, ","),
	}

	// A read cancels before it updates the table, so a cancel seen here
	// covers every read that could have landed after FilterUnread.
	now := time.Now()
	e.mu.Lock()
	if d.gen != gen || e.closed {
		e.mu.Unlock()
		log.Debug("Escalation cancelled by a read", "messages", len(unread))
		return
	}
	for k, at := range e.lastPush {
		if now.Sub(at) >= e.opts.Cooldown {
			delete(e.lastPush, k)
		}
	}
	if _, cooling := e.lastPush[key]; cooling {
		e.mu.Unlock()
		log.Debug("Push coalesced into previous notification", "messages", len(unread))
		return
	}
	e.lastPush[key] = now
	e.mu.Unlock()

	if err := e.gateway.Send(ctx, key.receiverID, title, body, data); err != nil {
		log.Warn("Push notification failed", "error", err)
		return
	}
	log.Info("Escalated unread messages", "messages", len(unread))
}

func (e *Escalator) doneFlushing(key thread, d *dispatch) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d.active--
	if d.active == 0 && e.flushing[key] == d {
		delete(e.flushing, key)
	}
}

func (e *Escalator) title(ctx context.Context, senderID string) string {
	name, err := e.directory.DisplayName(ctx, senderID)
	if err != nil || name == "" {
		return fallbackTitle
	}
	return name
}

// Summary is the push body for n unread messages ending with latest.
func Summary(n int, latest string) string {
	preview := truncate(latest, maxPreviewRune)
	if n <= 1 {
		return preview
	}
	return fmt.Sprintf("%d new messages: %s", n, preview)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(lo.Subset(runes, 0, uint(max))) + "..."
}
