/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package scheduler manages recurring scan runs on cron-style schedules,
// on top of github.com/go-co-op/gocron/v2.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/stratastor/logger"
	"github.com/stratastor/shareaudit/pkg/errors"
	"github.com/stratastor/shareaudit/pkg/scan"
)

// RunFunc performs one scheduled scan run.
type RunFunc func(ctx context.Context, cfg scan.Config) scan.Result

var (
	instance *Scheduler
	once     sync.Once
)

// Scheduler is a process-wide singleton wrapping one gocron.Scheduler,
// mirroring the autosnapshot manager's single-scheduler-per-process
// pattern.
type Scheduler struct {
	mu     sync.Mutex
	cron   gocron.Scheduler
	jobs   map[string]gocron.Job
	run    RunFunc
	logger logger.Logger
}

// Get returns the process-wide Scheduler, creating it on first use.
func Get(run RunFunc, l logger.Logger) (*Scheduler, error) {
	var err error
	once.Do(func() {
		var cron gocron.Scheduler
		cron, err = gocron.NewScheduler()
		if err != nil {
			return
		}
		instance = &Scheduler{cron: cron, jobs: make(map[string]gocron.Job), run: run, logger: l}
		instance.cron.Start()
	})
	return instance, err
}

// Schedule registers a recurring scan with the given cron expression and
// config, returning an id used to cancel it later.
func (s *Scheduler) Schedule(cronExpr string, cfg scan.Config) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	job, err := s.cron.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			res := s.run(context.Background(), cfg)
			if res.Err != nil {
				s.logger.Error("scheduled scan failed", "schedule_id", id, "err", res.Err)
			} else {
				s.logger.Info("scheduled scan completed", "schedule_id", id, "session_id", res.Session.ID)
			}
		}),
	)
	if err != nil {
		return "", errors.Wrap(err, errors.SchedulerInvalidCron).WithMetadata("cron", cronExpr)
	}

	s.jobs[id] = job
	return id, nil
}

// Cancel removes a previously scheduled job.
func (s *Scheduler) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("no schedule with id %s", id)
	}
	if err := s.cron.RemoveJob(job.ID()); err != nil {
		return errors.Wrap(err, errors.SchedulerJobFailed)
	}
	delete(s.jobs, id)
	return nil
}

// Shutdown stops the underlying gocron scheduler.
func (s *Scheduler) Shutdown() error {
	return s.cron.Shutdown()
}
