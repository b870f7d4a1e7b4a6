// Package deadline implements DeadlineTimer: a per-task promise with a
// required response count and a timeout, usable concurrently from many
// producers. It plays the role the teacher's appendFSM pipeline plays
// inline (a ticker racing incoming chunks in broker/append_fsm.go's
// run()), generalised into a standalone, reusable primitive. In this
// repository the Data Manager's get pipeline is its one user: the
// first-wins fan-out to a chunk's holders.
package deadline

import (
	"sync"
	"time"
)

// TaskID identifies a pending task, typically derived from a message-id.
type TaskID uint64

// Functor is invoked at most once per task: either when RequiredCount
// responses have arrived, or when the timeout fires, whichever happens
// first; a task removed by Cancel never invokes it. It is always invoked
// off the Timer's internal lock.
type Functor func(responses []interface{})

type task struct {
	required  int
	functor   Functor
	responses []interface{}
	timer     *time.Timer
	done      bool
}

// Timer manages a set of concurrently pending tasks.
type Timer struct {
	mu    sync.Mutex
	tasks map[TaskID]*task
	pool  *workerPool
}

// workerPool runs functors off the internal lock, per spec.md §4.4's
// concurrency contract ("functors are invoked on a worker pool, never
// under the internal lock"). It mirrors the teacher's own small
// fixed-size asio_service idiom (original_source/service.cc's
// `asio_service_(2)`), reimplemented as a bounded goroutine pool rather
// than an ASIO io_service.
type workerPool struct {
	work chan func()
}

func newWorkerPool(size int) *workerPool {
	if size < 2 {
		size = 2
	}
	var p = &workerPool{work: make(chan func(), 256)}
	for i := 0; i < size; i++ {
		go func() {
			for fn := range p.work {
				fn()
			}
		}()
	}
	return p
}

func (p *workerPool) submit(fn func()) { p.work <- fn }

// NewTimer returns a Timer whose functors run on a worker pool of the
// given size (minimum 2, per spec.md §5's scheduling model).
func NewTimer(workers int) *Timer {
	return &Timer{
		tasks: make(map[TaskID]*task),
		pool:  newWorkerPool(workers),
	}
}

// AddTask starts a new task. If requiredCount responses are folded in via
// AddResponse before timeout elapses, functor is invoked immediately with
// them; otherwise functor is invoked with whatever was accumulated when
// timeout fires.
func (t *Timer) AddTask(id TaskID, timeout time.Duration, requiredCount int, functor Functor) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var tk = &task{required: requiredCount, functor: functor}
	tk.timer = time.AfterFunc(timeout, func() { t.fire(id, tk) })
	t.tasks[id] = tk
}

// AddResponse folds a response into task id. Late responses -- after the
// task has already fired -- are silently discarded, never an error, per
// spec.md §5 "Cancellation & timeouts".
func (t *Timer) AddResponse(id TaskID, response interface{}) {
	t.mu.Lock()

	var tk, ok = t.tasks[id]
	if !ok || tk.done {
		t.mu.Unlock()
		return
	}
	tk.responses = append(tk.responses, response)

	if len(tk.responses) >= tk.required {
		tk.done = true
		delete(t.tasks, id)
		tk.timer.Stop()
		var responses = tk.responses
		t.mu.Unlock()

		t.pool.submit(func() { tk.functor(responses) })
		return
	}
	t.mu.Unlock()
}

// fire is invoked by time.AfterFunc when a task's deadline elapses.
func (t *Timer) fire(id TaskID, tk *task) {
	t.mu.Lock()
	if tk.done {
		t.mu.Unlock()
		return
	}
	tk.done = true
	delete(t.tasks, id)
	var responses = tk.responses
	t.mu.Unlock()

	t.pool.submit(func() { tk.functor(responses) })
}

// Cancel aborts a pending task without invoking its functor. Used during
// service shutdown for tasks that should not fire at all (the caller is
// tearing down and no longer wants the reply).
func (t *Timer) Cancel(id TaskID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tk, ok := t.tasks[id]; ok {
		tk.done = true
		tk.timer.Stop()
		delete(t.tasks, id)
	}
}

// Shutdown fires every still-pending task immediately with whatever
// responses it has accumulated, per spec.md §5's shutdown ordering
// ("tears down timers first... firing pending tasks with whatever they
// have").
func (t *Timer) Shutdown() {
	t.mu.Lock()
	var pending = make(map[TaskID]*task, len(t.tasks))
	for id, tk := range t.tasks {
		pending[id] = tk
	}
	t.tasks = make(map[TaskID]*task)
	t.mu.Unlock()

	for id, tk := range pending {
		t.fire(id, tk)
	}
}

// Pending reports the number of tasks currently awaiting resolution.
func (t *Timer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tasks)
}
