package sharded

import (
    "sync"

    "github.com/ValikVad/dbsp/pkg/dbsptypes"
)

// worker is a per-shard task queue, the Go stand-in for the original's
// Worker class (examples/include/worker.h): AddTask either runs its task
// inline and returns an already-resolved future (single-threaded mode) or
// enqueues it for a dedicated goroutine to drain (threaded mode). Prefetch
// tasks are pushed to the front of the queue so they never queue behind an
// already-pending prefetch from a previous prediction round, matching the
// original's push_front/push_back split in AddTask.
type worker struct {
    threaded bool

    mu    sync.Mutex
    cond  *sync.Cond
    tasks []workerTask
    quit  bool
    wg    sync.WaitGroup
}

type workerTask struct {
    fn     func() (dbsptypes.Response, error)
    future *Future
}

func newWorker(threaded bool) *worker {
    w := &worker{threaded: threaded}
    w.cond = sync.NewCond(&w.mu)
    return w
}

// start launches the drain goroutine. A no-op in single-threaded mode.
func (w *worker) start() {
    if !w.threaded {
        return
    }
    w.wg.Add(1)
    go w.run()
}

// stop signals the drain goroutine to exit once its queue empties, and
// waits for it to return. A no-op in single-threaded mode.
func (w *worker) stop() {
    if !w.threaded {
        return
    }
    w.mu.Lock()
    w.quit = true
    w.cond.Broadcast()
    w.mu.Unlock()
    w.wg.Wait()
}

// addTask submits fn for execution and returns a Future for its result.
// pushToFront gives the task priority over already-queued work, used for
// prefetch dispatches triggered by a prediction.
func (w *worker) addTask(pushToFront bool, fn func() (dbsptypes.Response, error)) *Future {
    f := newFuture()
    if !w.threaded {
        f.resolve(fn())
        return f
    }

    w.mu.Lock()
    t := workerTask{fn: fn, future: f}
    if pushToFront {
        w.tasks = append([]workerTask{t}, w.tasks...)
    } else {
        w.tasks = append(w.tasks, t)
    }
    w.cond.Signal()
    w.mu.Unlock()
    return f
}

func (w *worker) run() {
    defer w.wg.Done()
    for {
        w.mu.Lock()
        for len(w.tasks) == 0 && !w.quit {
            w.cond.Wait()
        }
        if len(w.tasks) == 0 && w.quit {
            w.mu.Unlock()
            return
        }
        t := w.tasks[0]
        w.tasks = w.tasks[1:]
        w.mu.Unlock()

        t.future.resolve(t.fn())
    }
}
