// Package queue delivers outgoing mail off the request path.
package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
	sendTimeout    = 30 * time.Second
)

var (
	// ErrQueueFull is returned when the recipient's worker has no room left.
	ErrQueueFull = errors.New("queue: mail queue full")
	// ErrQueueStopped is returned once shutdown has begun.
	ErrQueueStopped = errors.New("queue: mail queue stopped")
)

type resetJob struct {
	to       string
	password string
}

// MailQueue implements ports.Mailer on top of another Mailer. Jobs are
// sharded by recipient so mails to one address leave in the order they were
// queued; only the newest temporary password is valid.
type MailQueue struct {
	workers []chan resetJob
	next    ports.Mailer
	log     zerolog.Logger
	wg      sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
	quit    chan struct{}
}

// NewMailQueue creates a MailQueue with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewMailQueue(numWorkers int, next ports.Mailer, log zerolog.Logger) *MailQueue {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	q := &MailQueue{
		workers: make([]chan resetJob, numWorkers),
		next:    next,
		log:     log,
		quit:    make(chan struct{}),
	}
	for i := range q.workers {
		q.workers[i] = make(chan resetJob, channelBuffer)
	}
	return q
}

// Start launches the workers. When ctx is cancelled the queue refuses new
// mail, then the workers drain what was accepted and exit. Wait blocks until
// they are gone.
func (q *MailQueue) Start(ctx context.Context) {
	for i, ch := range q.workers {
		q.wg.Add(1)
		go q.runWorker(i, ch)
	}
	go func() {
		<-ctx.Done()
		q.mu.Lock()
		q.stopped = true
		q.mu.Unlock()
		close(q.quit)
	}()
}

func (q *MailQueue) Wait() {
	q.wg.Wait()
}

// SendPasswordReset queues the mail and returns without waiting for SMTP.
func (q *MailQueue) SendPasswordReset(ctx context.Context, to, temporaryPassword string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return ErrQueueStopped
	}
	select {
	case q.workers[q.shardIndex(to)] <- resetJob{to: to, password: temporaryPassword}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *MailQueue) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(recipient)))
	return int(h.Sum32() % uint32(len(q.workers)))
}

func (q *MailQueue) runWorker(id int, ch <-chan resetJob) {
	defer q.wg.Done()
	for {
		select {
		case <-q.quit:
			q.drain(id, ch)
			return
		case job := <-ch:
			q.deliver(id, job)
		}
	}
}

// drain sends whatever was accepted before shutdown. No sender can enqueue
// once quit is closed.
func (q *MailQueue) drain(id int, ch <-chan resetJob) {
	for {
		select {
		case job := <-ch:
			q.deliver(id, job)
		default:
			return
		}
	}
}

func (q *MailQueue) deliver(id int, job resetJob) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := q.next.SendPasswordReset(ctx, job.to, job.password); err != nil {
		q.log.Error().Err(err).
			Str("email", job.to).
			Int("worker_id", id).
			Msg("password reset email failed")
	}
}
