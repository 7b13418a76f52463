// Package insights loads records from the store, runs the activity engine
// over them and manages the weekly digest.
package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/devflow/internal/activity"
	"github.com/starford/devflow/internal/apperr"
	"github.com/starford/devflow/internal/models"
	"github.com/starford/devflow/internal/narrative"
)

// DefaultTimeout bounds a single digest generation.
const DefaultTimeout = 30 * time.Second

// EventDigestGenerated is emitted after a digest was saved.
const EventDigestGenerated = "digest.generated"

// Store is the persistence the service reads from and writes digests to.
type Store interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	ListNotes(ctx context.Context) ([]models.Note, error)
	ListSnippets(ctx context.Context) ([]models.Snippet, error)
	SaveDigest(ctx context.Context, d models.Digest) error
	GetDigest(ctx context.Context, userID string) (*models.Digest, error)
}

// EventFunc receives service events such as EventDigestGenerated.
type EventFunc func(event string, data any)

// Streaks is the streak summary of the activity set.
type Streaks struct {
	Current    int `json:"current"`
	Longest    int `json:"longest"`
	ActiveDays int `json:"active_days"`
}

// WeekPayload is the text sent to the generator for the current week.
type WeekPayload struct {
	WeekLabel string    `json:"week_label"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Payload   string    `json:"payload"`
}

// Service computes analytics and generates digests.
type Service struct {
	db           Store
	cal          activity.Calendar
	now          func() time.Time
	gen          narrative.Generator
	timeout      time.Duration
	timelineDays int
	onEvent      EventFunc
	logger       *slog.Logger

	inflight singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithCalendar sets the calendar used for day keys and week boundaries.
func WithCalendar(cal activity.Calendar) Option {
	return func(s *Service) { s.cal = cal }
}

// WithClock overrides the reference instant source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithGenerator enables digest generation. Without one, GenerateDigest
// returns apperr.ErrDigestDisabled.
func WithGenerator(g narrative.Generator) Option {
	return func(s *Service) { s.gen = g }
}

// WithTimeout bounds each digest generation.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithTimelineDays sets the trailing window used when callers pass days <= 0.
func WithTimelineDays(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.timelineDays = n
		}
	}
}

// WithEventFunc registers the event callback.
func WithEventFunc(fn EventFunc) Option {
	return func(s *Service) { s.onEvent = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates an insights service over db.
func NewService(db Store, opts ...Option) *Service {
	s := &Service{
		db:           db,
		cal:          activity.UTC,
		now:          time.Now,
		timeout:      DefaultTimeout,
		timelineDays: activity.DefaultTimelineDays,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DigestEnabled reports whether a generator is configured.
func (s *Service) DigestEnabled() bool { return s.gen != nil }

// Snapshot loads every record and projects it for the engine.
func (s *Service) Snapshot(ctx context.Context) (activity.Snapshot, error) {
	projects, err := s.db.ListProjects(ctx)
	if err != nil {
		return activity.Snapshot{}, fmt.Errorf("insights: load projects: %w", err)
	}
	notes, err := s.db.ListNotes(ctx)
	if err != nil {
		return activity.Snapshot{}, fmt.Errorf("insights: load notes: %w", err)
	}
	snippets, err := s.db.ListSnippets(ctx)
	if err != nil {
		return activity.Snapshot{}, fmt.Errorf("insights: load snippets: %w", err)
	}
	return models.Snapshot(projects, notes, snippets), nil
}

func (s *Service) days(n int) int {
	if n <= 0 {
		return s.timelineDays
	}
	return n
}

// Overview returns every dashboard metric with a days-long timeline.
func (s *Service) Overview(ctx context.Context, days int) (activity.Overview, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return activity.Overview{}, err
	}
	return activity.Summarize(s.cal, snap, s.now(), s.days(days)), nil
}

// Timeline returns the trailing per-day activity counts.
func (s *Service) Timeline(ctx context.Context, days int) ([]activity.TimelineEntry, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return activity.Timeline(s.cal, snap, s.now(), s.days(days)), nil
}

// Streaks returns the current and longest streak.
func (s *Service) Streaks(ctx context.Context) (Streaks, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Streaks{}, err
	}
	set := activity.ActiveDays(s.cal, snap)
	sorted := set.Sorted()
	return Streaks{
		Current:    activity.CurrentStreak(s.cal, sorted, s.now()),
		Longest:    activity.LongestStreak(s.cal, sorted),
		ActiveDays: set.Len(),
	}, nil
}

// TechStack returns the ranked technology and language labels.
func (s *Service) TechStack(ctx context.Context) ([]activity.LabelCount, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return activity.RankLabels(snap), nil
}

// WeekPayload renders the current week's narrative payload.
func (s *Service) WeekPayload(ctx context.Context) (WeekPayload, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return WeekPayload{}, err
	}
	return s.payload(snap, s.now()), nil
}

func (s *Service) payload(snap activity.Snapshot, now time.Time) WeekPayload {
	week := activity.WeekOf(s.cal, now)
	return WeekPayload{
		WeekLabel: week.Label(),
		Start:     week.Start,
		End:       week.End,
		Payload:   activity.BuildPayload(s.cal, snap, now),
	}
}

// Digest returns the user's last generated digest or apperr.ErrNotFound.
func (s *Service) Digest(ctx context.Context, userID string) (*models.Digest, error) {
	return s.db.GetDigest(ctx, userID)
}

// GenerateDigest builds the weekly payload, asks the generator for a summary
// and saves it as the user's digest. Concurrent calls for the same user share
// one generation.
func (s *Service) GenerateDigest(ctx context.Context, userID string) (*models.Digest, error) {
	if s.gen == nil {
		return nil, apperr.ErrDigestDisabled
	}

	ch := s.inflight.DoChan(userID, func() (any, error) {
		// Shared by every waiter, so it must outlive the first caller.
		return s.generate(context.WithoutCancel(ctx), userID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		d := *res.Val.(*models.Digest)
		return &d, nil
	}
}

func (s *Service) generate(ctx context.Context, userID string) (*models.Digest, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	wp := s.payload(snap, now)

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.gen.Generate(genCtx, wp.Payload)
	if err != nil {
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			s.logger.Warn("digest generation timed out",
				slog.String("user_id", userID),
				slog.Duration("timeout", s.timeout))
			return nil, fmt.Errorf("%w: digest generation exceeded %s", apperr.ErrTimeout, s.timeout)
		}
		s.logger.Warn("digest generation failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return nil, err
	}

	d := &models.Digest{
		UserID:      userID,
		WeekLabel:   wp.WeekLabel,
		Summary:     text,
		GeneratedAt: now,
	}
	if err := s.db.SaveDigest(ctx, *d); err != nil {
		return nil, err
	}
	s.logger.Info("digest generated",
		slog.String("user_id", userID),
		slog.String("week", d.WeekLabel),
		slog.Duration("took", time.Since(start)))

	if s.onEvent != nil {
		s.onEvent(EventDigestGenerated, d)
	}
	return d, nil
}
