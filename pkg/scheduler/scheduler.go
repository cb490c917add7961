package scheduler

import (
    "fmt"
    "log"
    "sync"
    "time"

    "github.com/amirimatin/go-zonecoord/pkg/internal/logutil"
)

// Options configure a periodic background Timer.
type Options struct {
    // Interval between task invocations. Zero or negative means 5s.
    Interval time.Duration

    // Task is invoked once per tick. A returned error is handed to OnError;
    // the loop keeps ticking either way.
    Task func() error

    // OnError observes task errors and panics. Optional; when nil, errors
    // are logged through Logger.
    OnError func(error)

    // Logger is optional. If nil, log.Default() is used.
    Logger *log.Logger
}

// Timer runs Options.Task on a dedicated goroutine at a fixed cadence.
// Task errors and panics never stop the loop. Start and Shutdown are both
// idempotent; Shutdown waits for an in-flight task to complete.
type Timer struct {
    opts Options

    mu      sync.Mutex
    running bool
    stop    chan struct{}
    done    chan struct{}
}

// New constructs a Timer without starting it.
func New(opts Options) *Timer {
    if opts.Interval <= 0 { opts.Interval = 5 * time.Second }
    return &Timer{opts: opts}
}

// Interval returns the configured cadence.
func (t *Timer) Interval() time.Duration { return t.opts.Interval }

// Start launches the background loop. Calling Start on a running timer is
// a no-op. A timer may be restarted after Shutdown.
func (t *Timer) Start() {
    t.mu.Lock()
    defer t.mu.Unlock()
    if t.running || t.opts.Task == nil {
        return
    }
    t.running = true
    t.stop = make(chan struct{})
    t.done = make(chan struct{})
    go t.loop(t.stop, t.done)
}

// Running reports whether the background loop is scheduled.
func (t *Timer) Running() bool {
    t.mu.Lock()
    defer t.mu.Unlock()
    return t.running
}

// Shutdown stops the loop and waits for it to exit. An in-flight task is
// allowed to complete. Safe to call multiple times.
func (t *Timer) Shutdown() {
    t.mu.Lock()
    if !t.running {
        t.mu.Unlock()
        return
    }
    t.running = false
    stop, done := t.stop, t.done
    t.mu.Unlock()
    close(stop)
    <-done
}

func (t *Timer) loop(stop, done chan struct{}) {
    defer close(done)
    ticker := time.NewTicker(t.opts.Interval)
    defer ticker.Stop()
    for {
        select {
        case <-stop:
            return
        case <-ticker.C:
            t.tick()
        }
    }
}

func (t *Timer) tick() {
    defer func() {
        if r := recover(); r != nil {
            t.observe(fmt.Errorf("scheduler: task panic: %v", r))
        }
    }()
    if err := t.opts.Task(); err != nil {
        t.observe(err)
    }
}

// observe forwards an error to the configured observer. The observer itself
// must not be able to kill the loop.
func (t *Timer) observe(err error) {
    defer func() { _ = recover() }()
    if t.opts.OnError != nil {
        t.opts.OnError(err)
        return
    }
    logutil.Errorf(t.opts.Logger, "scheduler: task error: %v", err)
}
