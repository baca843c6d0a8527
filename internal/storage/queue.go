package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// URLWriter persists the mirrored URL back onto the user row.
type URLWriter interface {
	SetAvatarURL(ctx context.Context, clerkID, url string) error
}

type mirrorJob struct {
	clerkID   string
	sourceURL string
}

// MirrorQueue runs avatar mirroring off the webhook path. Jobs are retried
// a few times and then dropped; the row keeps the provider URL, so a lost
// mirror only costs us the local copy.
type MirrorQueue struct {
	log    *slog.Logger
	mirror Mirror
	urls   URLWriter

	jobs chan mirrorJob
	quit chan struct{}
	wg   sync.WaitGroup
}

const mirrorAttempts = 3

func NewMirrorQueue(log *slog.Logger, mirror Mirror, urls URLWriter) *MirrorQueue {
	return &MirrorQueue{
		log:    log,
		mirror: mirror,
		urls:   urls,
		jobs:   make(chan mirrorJob, 1024),
		quit:   make(chan struct{}),
	}
}

// Enqueue never blocks; when the queue is full the job is dropped with a
// warning and the user keeps the provider-hosted URL.
func (q *MirrorQueue) Enqueue(clerkID, sourceURL string) {
	select {
	case q.jobs <- mirrorJob{clerkID: clerkID, sourceURL: sourceURL}:
	default:
		q.log.Warn("avatar_mirror_queue_full", "clerk_id", clerkID)
	}
}

func (q *MirrorQueue) Start() {
	q.wg.Add(1)
	go q.run()
}

func (q *MirrorQueue) Stop() {
	close(q.quit)
	q.wg.Wait()
}

func (q *MirrorQueue) run() {
	defer q.wg.Done()

	for {
		select {
		case job := <-q.jobs:
			q.process(job)
		case <-q.quit:
			return
		}
	}
}

func (q *MirrorQueue) process(job mirrorJob) {
	for attempt := 1; attempt <= mirrorAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		url, err := q.mirror.MirrorAvatar(ctx, job.clerkID, job.sourceURL)
		if err == nil {
			err = q.urls.SetAvatarURL(ctx, job.clerkID, url)
		}
		cancel()

		if err == nil {
			q.log.Info("avatar_mirrored", "clerk_id", job.clerkID)
			return
		}

		q.log.Warn("avatar_mirror_failed",
			"clerk_id", job.clerkID,
			"attempt", attempt,
			"error", err,
		)

		select {
		case <-time.After(time.Duration(attempt) * 2 * time.Second):
		case <-q.quit:
			return
		}
	}
}
