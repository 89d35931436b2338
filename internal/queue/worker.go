package queue

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ahsanfayaz52/notesservice/internal/logger"
)

type taskList interface {
	pop(ctx context.Context, timeout time.Duration) (Task, bool, error)
	ack(ctx context.Context, task Task) error
	push(ctx context.Context, task Task) error
	bury(ctx context.Context, task Task) error
	reclaim(ctx context.Context) (int, error)
}

// Deliverer POSTs a task's params to its path on this service.
type Deliverer struct {
	client  *http.Client
	baseURL string
	secret  string
}

func NewDeliverer(baseURL, secret string) *Deliverer {
	return &Deliverer{
		client:  &http.Client{Timeout: 10 * time.Minute},
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
	}
}

func (d *Deliverer) Deliver(ctx context.Context, task Task) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+task.Path, strings.NewReader(task.Params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(HeaderTaskName, task.ID)
	req.Header.Set(HeaderRetryCount, strconv.Itoa(task.Attempts))
	if d.secret != "" {
		req.Header.Set(HeaderSecret, d.secret)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("task %s: %s returned %d", task.ID, task.Path, resp.StatusCode)
	}
	return nil
}

type Worker struct {
	log         *logger.Logger
	tasks       taskList
	deliverer   *Deliverer
	maxAttempts int
	pollTimeout time.Duration
}

func NewWorker(log *logger.Logger, q *Redis, d *Deliverer, maxAttempts int) *Worker {
	return &Worker{
		log:         log.With("service", "QueueWorker"),
		tasks:       q,
		deliverer:   d,
		maxAttempts: maxAttempts,
		pollTimeout: 5 * time.Second,
	}
}

// Run delivers tasks until ctx is cancelled. Tasks a previous run claimed
// but never acknowledged are delivered again first; one worker runs per
// queue key.
func (w *Worker) Run(ctx context.Context) {
	if n, err := w.tasks.reclaim(ctx); err != nil {
		w.log.Error("reclaiming unacknowledged tasks failed", "error", err)
	} else if n > 0 {
		w.log.Warn("reclaimed unacknowledged tasks", "count", n)
	}
	w.log.Info("queue worker started")
	for {
		if ctx.Err() != nil {
			w.log.Info("queue worker stopped")
			return
		}
		task, ok, err := w.tasks.pop(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() == nil {
				w.log.Error("queue pop failed", "error", err)
				time.Sleep(time.Second)
			}
			continue
		}
		if !ok {
			continue
		}
		w.process(ctx, task)
	}
}

// process delivers a claimed task. The claim is released only after the
// task is delivered, requeued or buried.
func (w *Worker) process(ctx context.Context, task Task) {
	bg := context.WithoutCancel(ctx)
	err := w.deliverer.Deliver(ctx, task)
	if err == nil {
		w.log.Debug("task delivered", "task", task.ID, "path", task.Path, "attempts", task.Attempts+1)
		w.release(bg, task)
		return
	}

	next := task
	next.Attempts++
	if next.Attempts >= w.maxAttempts {
		w.log.Error("task exhausted its attempts", "task", task.ID, "path", task.Path, "error", err)
		if err := w.tasks.bury(bg, next); err != nil {
			w.log.Error("dead-letter push failed", "task", task.ID, "error", err)
			return
		}
		w.release(bg, task)
		return
	}

	w.log.Warn("task failed, requeueing", "task", task.ID, "attempts", next.Attempts, "error", err)
	if err := w.tasks.push(bg, next); err != nil {
		w.log.Error("requeue failed", "task", task.ID, "error", err)
		return
	}
	w.release(bg, task)
}

func (w *Worker) release(ctx context.Context, task Task) {
	if err := w.tasks.ack(ctx, task); err != nil {
		w.log.Error("task ack failed", "task", task.ID, "error", err)
	}
}
