// Package scheduler fires the periodic GET triggers of this service.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/robfig/cron"

	"github.com/ahsanfayaz52/notesservice/internal/logger"
	"github.com/ahsanfayaz52/notesservice/internal/queue"
)

// HeaderCron marks a request as coming from the scheduler.
const HeaderCron = "X-Cron"

type Scheduler struct {
	log     *logger.Logger
	cron    *cron.Cron
	client  *http.Client
	baseURL string
	secret  string
}

func New(log *logger.Logger, baseURL, secret string) *Scheduler {
	return &Scheduler{
		log:     log.With("service", "Scheduler"),
		cron:    cron.New(),
		client:  &http.Client{Timeout: 30 * time.Minute},
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
	}
}

// Every registers a GET of path on the given six-field cron spec.
func (s *Scheduler) Every(spec, path string) error {
	if err := s.cron.AddFunc(spec, func() {
		if err := s.Trigger(context.Background(), path); err != nil {
			s.log.Error("scheduled trigger failed", "path", path, "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule %s: %w", path, err)
	}
	s.log.Info("scheduled trigger registered", "path", path, "spec", spec)
	return nil
}

func (s *Scheduler) Trigger(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set(HeaderCron, "true")
	if s.secret != "" {
		req.Header.Set(queue.HeaderSecret, s.secret)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }
func (s *Scheduler) Stop()  { s.cron.Stop() }
