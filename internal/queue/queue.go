// Package queue is a durable push queue. Tasks are stored in a Redis list
// and delivered by a worker as form POSTs to this service. Delivery is at
// least once: a task is retried until its handler answers 2xx or it runs out
// of attempts. A task being delivered sits in <key>:processing until it is
// acknowledged, so a crash mid-delivery leaves it there to be reclaimed.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ahsanfayaz52/notesservice/internal/logger"
)

const (
	HeaderTaskName   = "X-Task-Name"
	HeaderRetryCount = "X-Task-Retry-Count"
	HeaderSecret     = "X-Task-Secret"
)

type Task struct {
	ID         string     `json:"id"`
	Path       string     `json:"path"`
	Params     url.Values `json:"params"`
	Attempts   int        `json:"attempts"`
	EnqueuedAt time.Time  `json:"enqueued_at"`

	// raw is the payload as claimed from the queue, used to acknowledge it.
	raw string
}

// NewTask names a task for delivery to path.
func NewTask(path string, params url.Values) Task {
	return Task{
		ID:         uuid.NewString(),
		Path:       path,
		Params:     params,
		EnqueuedAt: time.Now().UTC(),
	}
}

type Queue interface {
	Add(ctx context.Context, task Task) error
}

type Redis struct {
	log *logger.Logger
	rdb *goredis.Client
	key string
}

func NewRedis(log *logger.Logger, addr, key string) (*Redis, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if key == "" {
		key = "notes:tasks"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{
		log: log.With("service", "RedisQueue"),
		rdb: rdb,
		key: key,
	}, nil
}

func (q *Redis) Close() error {
	return q.rdb.Close()
}

func (q *Redis) Add(ctx context.Context, task Task) error {
	if err := q.push(ctx, task); err != nil {
		return err
	}
	q.log.Debug("task added", "task", task.ID, "path", task.Path)
	return nil
}

func (q *Redis) push(ctx context.Context, task Task) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.key, raw).Err()
}

func (q *Redis) bury(ctx context.Context, task Task) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.key+":dead", raw).Err()
}

func (q *Redis) processingKey() string { return q.key + ":processing" }

// pop claims the oldest task, moving it to the processing list. It blocks
// for up to timeout; ok is false when nothing arrived.
func (q *Redis) pop(ctx context.Context, timeout time.Duration) (Task, bool, error) {
	raw, err := q.rdb.BLMove(ctx, q.key, q.processingKey(), "RIGHT", "LEFT", timeout).Result()
	if errors.Is(err, goredis.Nil) {
		return Task{}, false, nil
	}
	if err != nil {
		return Task{}, false, err
	}
	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		q.log.Error("dropping undecodable task", "error", err)
		if err := q.rdb.LRem(ctx, q.processingKey(), 1, raw).Err(); err != nil {
			return Task{}, false, err
		}
		return Task{}, false, nil
	}
	task.raw = raw
	return task, true, nil
}

// ack removes a claimed task from the processing list.
func (q *Redis) ack(ctx context.Context, task Task) error {
	return q.rdb.LRem(ctx, q.processingKey(), 1, task.raw).Err()
}

// reclaim returns every task left in the processing list to the head of the
// queue. It must run before this worker claims anything.
func (q *Redis) reclaim(ctx context.Context) (int, error) {
	n := 0
	for {
		err := q.rdb.LMove(ctx, q.processingKey(), q.key, "LEFT", "RIGHT").Err()
		if errors.Is(err, goredis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}
