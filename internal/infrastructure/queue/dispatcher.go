// Package queue hosts the rating-repair dispatcher. The in-request recompute
// keeps summaries fresh on the happy path; this worker pool re-derives them
// from the review collection when an admin suspects drift (a crash between a
// review write and its recompute).
package queue

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"

	"github.com/wandertrails/tours-api/internal/api/metrics"
	"github.com/wandertrails/tours-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Recomputer is the slice of the review service the dispatcher drives.
type Recomputer interface {
	RecomputeRating(ctx context.Context, tourID string) error
}

// Dispatcher routes recompute jobs to a fixed set of workers using consistent
// hashing on the tour id, so recomputes of the same tour never run
// concurrently with each other.
type Dispatcher struct {
	workers []chan string
	reviews ports.ReviewRepository
	svc     Recomputer
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, reviews ports.ReviewRepository, svc Recomputer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan string, numWorkers),
		reviews: reviews,
		svc:     svc,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue schedules one tour for recomputation. Non-blocking up to
// channelBuffer capacity per worker.
func (d *Dispatcher) Enqueue(tourID string) {
	d.workers[d.shardIndex(tourID)] <- tourID
}

// EnqueueAll schedules every tour that currently has reviews and returns how
// many were queued.
func (d *Dispatcher) EnqueueAll(ctx context.Context) (int, error) {
	ids, err := d.reviews.DistinctTourIDs(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		d.Enqueue(id)
	}
	return len(ids), nil
}

// shardIndex maps a tour id deterministically to a worker index.
func (d *Dispatcher) shardIndex(tourID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tourID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case tourID, ok := <-ch:
			if !ok {
				return
			}
			start := time.Now()
			if err := d.svc.RecomputeRating(ctx, tourID); err != nil {
				metrics.RatingRecomputeTotal.WithLabelValues("error").Inc()
				d.log.Error().Err(err).
					Str("tour_id", tourID).
					Int("worker_id", id).
					Msg("rating repair failed")
				continue
			}
			metrics.RatingRecomputeTotal.WithLabelValues("ok").Inc()
			metrics.RatingRecomputeDuration.Observe(time.Since(start).Seconds())
		}
	}
}
