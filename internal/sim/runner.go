// Package sim replays synthetic pose scenarios against a running dojo
// service and checks what comes back.
package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/internal/domain/session"
	"github.com/okian/dojo/internal/domain/types"
	"github.com/okian/dojo/internal/synth"
	"github.com/okian/dojo/pkg/logger"
)

const directoryPermission = 0o750

// Result is the outcome of one replayed session.
type Result struct {
	Scenario    string                     `json:"scenario"`
	SessionID   string                     `json:"session_id"`
	Frames      int                        `json:"frames"`
	Accepted    int                        `json:"accepted"`
	Duplicates  int                        `json:"duplicates"`
	Retries     int                        `json:"retries"`
	Actions     map[model.ActionType]int   `json:"actions"`
	KeyFrames   map[model.KeyFrameType]int `json:"keyframes"`
	Diagnostics int                        `json:"diagnostics"`
	Report      session.Report             `json:"report"`
	Warnings    []string                   `json:"warnings,omitempty"`
	Err         string                     `json:"error,omitempty"`
	Duration    time.Duration              `json:"duration_ns"`
}

// Stats aggregates a run.
type Stats struct {
	Sessions   int
	Failed     int
	FramesSent int64
	Accepted   int64
	Duplicates int64
	Warnings   int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

type job struct {
	scenario synth.Scenario
	index    int
}

// Run replays every configured scenario and returns one Result per session
// in submission order.
func Run(ctx context.Context, config Config) ([]Result, Stats, error) {
	cfg := config.withDefaults()
	log := logger.Get().Named("sim")
	stats := Stats{StartTime: time.Now()}

	jobs, total, err := buildJobs(cfg)
	if err != nil {
		return nil, stats, err
	}

	log.Info(ctx, "starting dojo replay",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", len(jobs)),
		logger.Int("frames", total),
		logger.Int("workers", cfg.Workers),
		logger.Int("batch", cfg.BatchSize),
		logger.Bool("resend", cfg.Resend))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return nil, stats, err
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Replaying"),
		progressbar.OptionSetWriter(cfg.Progress),
		progressbar.OptionShowCount(),
	)

	results := make([]Result, len(jobs))
	var sent, accepted, duplicates atomic.Int64

	// Worker pool over sessions; frames within a session stay in order.
	jobCh := make(chan job)
	var wg sync.WaitGroup
	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				r := replay(ctx, client, cfg, j.scenario, func(n int) { _ = bar.Add(n) })
				sent.Add(int64(r.Frames))
				accepted.Add(int64(r.Accepted))
				duplicates.Add(int64(r.Duplicates))
				results[j.index] = r
			}
		}()
	}

feed:
	for _, j := range jobs {
		select {
		case <-ctx.Done():
			break feed
		case jobCh <- j:
		}
	}
	close(jobCh)
	wg.Wait()
	_ = bar.Finish()

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	stats.FramesSent = sent.Load()
	stats.Accepted = accepted.Load()
	stats.Duplicates = duplicates.Load()
	for _, r := range results {
		if r.Scenario == "" {
			continue
		}
		stats.Sessions++
		if r.Err != "" {
			stats.Failed++
		}
		stats.Warnings += len(r.Warnings)
	}

	if cfg.Output != "" {
		if err := saveResults(cfg.Output, results); err != nil {
			log.Warn(ctx, "failed to save results", logger.Error(err))
		}
	}

	log.Info(ctx, "replay finished",
		logger.Int("sessions", stats.Sessions),
		logger.Int("failed", stats.Failed),
		logger.Int64("framesSent", stats.FramesSent),
		logger.Int64("duplicates", stats.Duplicates),
		logger.Int("warnings", stats.Warnings),
		logger.Duration("duration", stats.Duration))

	if err := ctx.Err(); err != nil {
		return results, stats, err
	}
	if stats.Failed > 0 {
		return results, stats, fmt.Errorf("%d of %d sessions failed", stats.Failed, stats.Sessions)
	}
	if cfg.Strict && stats.Warnings > 0 {
		return results, stats, fmt.Errorf("%w: %d warnings", ErrVerification, stats.Warnings)
	}
	return results, stats, nil
}

// buildJobs expands scenarios by Repeat. Each repeat gets its own seed so
// jittered replays differ.
func buildJobs(cfg Config) ([]job, int, error) {
	names := cfg.Scenarios
	if len(names) == 0 {
		names = synth.Scenarios()
	}
	var jobs []job
	var total int
	for _, name := range names {
		for i := range cfg.Repeat {
			sc, err := synth.Build(name, cfg.Jitter, cfg.Seed+uint64(i))
			if err != nil {
				return nil, 0, err
			}
			frames := len(sc.Frames)
			if cfg.Resend {
				frames *= 2
			}
			total += frames
			jobs = append(jobs, job{scenario: sc, index: len(jobs)})
		}
	}
	return jobs, total, nil
}

// replay drives one session from creation to report.
func replay(ctx context.Context, client *Client, cfg Config, sc synth.Scenario, progress func(int)) Result {
	start := time.Now()
	r := Result{Scenario: sc.Name}
	fail := func(err error) Result {
		r.Err = err.Error()
		r.Duration = time.Since(start)
		return r
	}

	id, err := client.CreateSession(ctx, types.CreateSessionRequest{
		Defender: synth.DefenderID,
		Attacker: synth.AttackerID,
	})
	if err != nil {
		return fail(fmt.Errorf("create session: %w", err))
	}
	r.SessionID = id

	var pace <-chan time.Time
	if cfg.FPS > 0 {
		t := time.NewTicker(time.Duration(float64(cfg.BatchSize) / cfg.FPS * float64(time.Second)))
		defer t.Stop()
		pace = t.C
	}

	for lo := 0; lo < len(sc.Frames); lo += cfg.BatchSize {
		hi := min(lo+cfg.BatchSize, len(sc.Frames))
		batch := make([]types.FrameInput, 0, hi-lo)
		for _, f := range sc.Frames[lo:hi] {
			batch = append(batch, types.FromFrame(f))
		}

		sends := 1
		if cfg.Resend {
			sends = 2
		}
		for range sends {
			resp, err := submit(ctx, client, cfg, id, batch, &r)
			if err != nil {
				return fail(fmt.Errorf("submit frames %d-%d: %w", lo, hi, err))
			}
			r.Frames += len(batch)
			r.Accepted += resp.Accepted
			r.Duplicates += resp.Duplicates
			progress(len(batch))
		}

		if pace != nil && hi < len(sc.Frames) {
			select {
			case <-ctx.Done():
				return fail(ctx.Err())
			case <-pace:
			}
		}
	}

	report, err := client.End(ctx, id)
	if err != nil {
		return fail(fmt.Errorf("end session: %w", err))
	}
	r.Report = report

	records, err := client.Events(ctx, id, 0)
	if err != nil {
		return fail(fmt.Errorf("fetch events: %w", err))
	}
	tally(&r, records)
	r.Warnings = verify(sc, r, records)

	if err := client.DeleteSession(ctx, id); err != nil {
		r.Warnings = append(r.Warnings, "delete session: "+err.Error())
	}
	r.Duration = time.Since(start)
	return r
}

// submit posts a batch, backing off while the service reports backpressure.
// Frames accepted before a 429 come back as duplicates on the retry.
func submit(ctx context.Context, client *Client, cfg Config, id string, batch []types.FrameInput, r *Result) (types.FramesResponse, error) {
	backoff := retryBackoff
	for attempt := 1; ; attempt++ {
		resp, err := client.SubmitFrames(ctx, id, batch)
		if err == nil || !IsBackpressure(err) || attempt >= cfg.Retries {
			return resp, err
		}
		r.Retries++
		select {
		case <-ctx.Done():
			return resp, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// saveResults writes results as indented JSON, creating parent directories.
func saveResults(path string, results []Result) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return errors.Join(enc.Encode(results), f.Close())
}
