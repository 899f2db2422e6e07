// Package backup periodically exports the post collection to dated JSON files in
// the same format the import endpoint accepts.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"postboard/internal/post/model"
	"postboard/internal/post/transfer"
	"postboard/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Exporter is satisfied by service.PostService.
type Exporter interface {
	Export() ([]byte, error)
}

// Job writes one export into Dir. It implements cron.Job.
type Job struct {
	Source Exporter
	Dir    string
	now    func() time.Time
}

func NewJob(source Exporter, dir string) *Job {
	return &Job{Source: source, Dir: dir, now: time.Now}
}

// Run is called by the scheduler; failures are logged, never fatal.
func (j *Job) Run() {
	path, err := j.RunOnce()
	switch {
	case errors.Is(err, model.ErrNothingToExport):
		logger.Sugar.Info("Backup skipped: no posts to export")
	case err != nil:
		logger.Sugar.Errorf("Backup failed: %v", err)
	default:
		logger.Sugar.Infof("Backup written to %s", path)
	}
}

// RunOnce exports the collection and returns the file it wrote. Backups taken on
// the same day replace each other.
func (j *Job) RunOnce() (string, error) {
	data, err := j.Source.Export()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(j.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	path := filepath.Join(j.Dir, transfer.FileName(j.now()))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("replace backup: %w", err)
	}
	return path, nil
}

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler accepts standard five-field cron specs and descriptors such as
// "@daily" or "@every 6h".
func NewScheduler(spec string, job *Job) (*Scheduler, error) {
	c := cron.New(
		cron.WithLogger(cronLogger{}),
		cron.WithChain(
			cron.Recover(cronLogger{}),
			cron.SkipIfStillRunning(cronLogger{}),
		),
	)
	if _, err := c.AddJob(spec, job); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running backup, or ctx, to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Sugar.Debugw("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Sugar.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
