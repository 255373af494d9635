package engine

import (
	"context"
	"sync"
	"time"

	"github.com/unklstewy/flightmap/pkg/view"
)

// Default loop cadence.
const (
	DefaultTickInterval = 2 * time.Second
	DefaultTickStep     = time.Second
)

// LoopOptions configures a Loop.
type LoopOptions struct {
	// Interval is the wall-clock time between ticks.
	Interval time.Duration

	// Step is the virtual time one tick advances at speed 1.
	Step time.Duration
}

type request struct {
	ev     Event
	camera *view.State
	reply  chan Payload
}

// Loop hosts an Orchestrator in a single goroutine. Ticks from a wall-clock
// ticker and events from any number of callers are serialized through Run,
// and every rendered payload is published to subscribers.
type Loop struct {
	orch     *Orchestrator
	interval time.Duration
	step     time.Duration
	requests chan request

	mu     sync.Mutex
	subs   map[int]chan Payload
	nextID int
	last   Payload
	ready  bool
}

// NewLoop creates a loop around o. Zero options take the defaults.
func NewLoop(o *Orchestrator, opts LoopOptions) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultTickInterval
	}
	if opts.Step <= 0 {
		opts.Step = DefaultTickStep
	}
	return &Loop{
		orch:     o,
		interval: opts.Interval,
		step:     opts.Step,
		requests: make(chan request),
		subs:     make(map[int]chan Payload),
	}
}

// Run processes ticks and events until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	var prev *view.State
	cycle := func(ev Event) Payload {
		p := l.orch.Handle(ev, prev)
		v := p.View
		prev = &v
		l.publish(p)
		return p
	}

	cycle(nil)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cycle(Tick{Delta: l.step})
		case req := <-l.requests:
			if req.camera != nil {
				cam := view.Preserve(req.camera, l.orch.Style())
				prev = &cam
			}
			req.reply <- cycle(req.ev)
		}
	}
}

// Send delivers ev to the loop and waits for the resulting payload.
// A nil event re-renders.
func (l *Loop) Send(ctx context.Context, ev Event) (Payload, error) {
	return l.do(ctx, request{ev: ev})
}

// SetCamera replaces the carried zoom and center, then re-renders.
func (l *Loop) SetCamera(ctx context.Context, v view.State) (Payload, error) {
	return l.do(ctx, request{camera: &v})
}

func (l *Loop) do(ctx context.Context, req request) (Payload, error) {
	req.reply = make(chan Payload, 1)
	select {
	case l.requests <- req:
	case <-ctx.Done():
		return Payload{}, ctx.Err()
	}
	select {
	case p := <-req.reply:
		return p, nil
	case <-ctx.Done():
		return Payload{}, ctx.Err()
	}
}

// Latest returns the last published payload and whether one exists yet.
func (l *Loop) Latest() (Payload, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last, l.ready
}

// Subscribe returns a channel receiving every published payload and a
// function that cancels the subscription. Slow subscribers only see the
// newest payload.
func (l *Loop) Subscribe() (<-chan Payload, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	ch := make(chan Payload, 1)
	l.subs[id] = ch
	if l.ready {
		ch <- l.last
	}

	return ch, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(ch)
		}
	}
}

func (l *Loop) publish(p Payload) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.last = p
	l.ready = true
	for _, ch := range l.subs {
		select {
		case ch <- p:
		default:
			// Drop the stale payload.
			select {
			case <-ch:
			default:
			}
			ch <- p
		}
	}
}
