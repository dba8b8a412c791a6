package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/99minutos/webinar-system/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// ErrStopped is returned for commands submitted after the workers exited.
var ErrStopped = errors.New("seat change dispatcher stopped")

// Job states. A worker runs a job only if it moves it from queued to running;
// a caller gives up only if it moves it from queued to abandoned.
const (
	jobQueued int32 = iota
	jobRunning
	jobAbandoned
)

type job struct {
	ctx   context.Context
	in    ports.ChangeSeatsInput
	state atomic.Int32
	done  chan error
}

// Dispatcher routes seat changes to a fixed set of workers using consistent
// hashing on the webinar id. Commands for one webinar run one at a time, in
// arrival order, which closes the read-then-write window inside this process.
// Dispatcher itself satisfies ports.ChangeSeats.
type Dispatcher struct {
	workers []chan *job
	next    ports.ChangeSeats
	stopped chan struct{}
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers in front
// of next. If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, next ports.ChangeSeats, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan *job, numWorkers),
		next:    next,
		stopped: make(chan struct{}),
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan *job, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
	go func() {
		<-ctx.Done()
		close(d.stopped)
	}()
}

// Execute enqueues the command on its webinar's worker and waits for the result.
// Cancelling ctx only abandons a command that has not started; once a worker
// picked it up, Execute reports the command's real outcome.
func (d *Dispatcher) Execute(ctx context.Context, in ports.ChangeSeatsInput) error {
	select {
	case <-d.stopped:
		return ErrStopped
	default:
	}

	j := &job{ctx: ctx, in: in, done: make(chan error, 1)}
	select {
	case d.workers[d.shardIndex(in.WebinarID)] <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stopped:
		return ErrStopped
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		if j.state.CompareAndSwap(jobQueued, jobAbandoned) {
			return ctx.Err()
		}
	case <-d.stopped:
		if j.state.CompareAndSwap(jobQueued, jobAbandoned) {
			return ErrStopped
		}
	}
	return <-j.done
}

// shardIndex maps a webinar id deterministically to a worker index.
func (d *Dispatcher) shardIndex(webinarID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(webinarID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan *job) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-ch:
			if !j.state.CompareAndSwap(jobQueued, jobRunning) {
				continue
			}
			if err := j.ctx.Err(); err != nil {
				j.done <- err
				continue
			}
			err := d.next.Execute(j.ctx, j.in)
			if err != nil {
				d.log.Debug().Err(err).
					Str("webinar_id", j.in.WebinarID).
					Int("worker_id", id).
					Msg("seat change failed")
			}
			j.done <- err
		}
	}
}
