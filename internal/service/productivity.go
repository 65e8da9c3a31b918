package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"productivity-service/internal/metrics"
	"productivity-service/internal/models"

	"go.uber.org/zap"
)

// VectorBuilder turns user metrics into a complete model input
type VectorBuilder interface {
	BuildInput(in models.MetricInput) ([]float64, error)
}

// Predictor scores a feature vector
type Predictor interface {
	Predict(ctx context.Context, vector []float64) (float64, error)
}

// RecordStore persists prediction records
type RecordStore interface {
	LoadAll() ([]models.PredictionRecord, error)
	Append(rec models.PredictionRecord) error
	DeleteUser(user string) error
}

// Productivity runs the quick, calendar and browse/delete flows.
// Every call is an independent request; nothing is cached between calls.
type Productivity struct {
	builder   VectorBuilder
	predictor Predictor
	store     RecordStore
	logger    *zap.Logger
	now       func() time.Time
}

// NewProductivity creates the workflow service
func NewProductivity(
	builder VectorBuilder,
	predictor Predictor,
	store RecordStore,
	logger *zap.Logger,
) *Productivity {
	return &Productivity{
		builder:   builder,
		predictor: predictor,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock replaces the source of "today" for the calendar flow
func (p *Productivity) SetClock(now func() time.Time) {
	p.now = now
}

// Today returns the current calendar date
func (p *Productivity) Today() time.Time {
	return truncateDay(p.now())
}

func (p *Productivity) score(ctx context.Context, flow string, in models.MetricInput) (float64, error) {
	vector, err := p.builder.BuildInput(in)
	if err != nil {
		metrics.RecordPrediction(flow, "error", 0)
		return 0, err
	}

	score, err := p.predictor.Predict(ctx, vector)
	if err != nil {
		metrics.RecordPrediction(flow, "error", 0)
		return 0, err
	}

	score = models.RoundScore(score)
	metrics.RecordPrediction(flow, "success", score)
	return score, nil
}

// QuickPredict scores the input without persisting anything
func (p *Productivity) QuickPredict(ctx context.Context, in models.MetricInput) (*models.QuickResult, error) {
	in = models.QuickForm.Clip(in)

	score, err := p.score(ctx, "quick", in)
	if err != nil {
		p.logger.Error("Quick prediction failed", zap.Error(err))
		return nil, fmt.Errorf("quick prediction failed: %w", err)
	}

	return &models.QuickResult{
		Score:    score,
		Fraction: score / models.MaxScore,
		Input:    in,
	}, nil
}

// SaveDaily scores the input and appends it to the store under user and date.
// A blank user is not an error: nothing is predicted or written and saved is false.
// A zero date means today.
func (p *Productivity) SaveDaily(ctx context.Context, user string, date time.Time, in models.MetricInput) (*models.PredictionRecord, bool, error) {
	const flow = "calendar"

	user = strings.TrimSpace(user)
	if user == "" {
		metrics.RecordPrediction(flow, "skipped", 0)
		return nil, false, nil
	}
	if date.IsZero() {
		date = p.now()
	}
	in = models.CalendarForm.Clip(in)

	score, err := p.score(ctx, flow, in)
	if err != nil {
		p.logger.Error("Calendar prediction failed", zap.String("user", user), zap.Error(err))
		return nil, false, fmt.Errorf("calendar prediction failed: %w", err)
	}

	rec := models.PredictionRecord{
		User:            user,
		Date:            truncateDay(date),
		Prediction:      score,
		SleepHours:      in.SleepHours,
		CaffeineMg:      in.CaffeineMg,
		ScreenMinutes:   in.ScreenMinutes,
		ExerciseMinutes: in.ExerciseMinutes,
	}

	start := time.Now()
	err = p.store.Append(rec)
	metrics.RecordStoreOperation("append", start, err)
	if err != nil {
		p.logger.Error("Failed to save prediction", zap.String("user", user), zap.Error(err))
		return nil, false, fmt.Errorf("failed to save prediction: %w", err)
	}

	p.logger.Info("Prediction saved",
		zap.String("user", rec.User),
		zap.String("date", rec.DateString()),
		zap.Float64("prediction", rec.Prediction))

	return &rec, true, nil
}

func (p *Productivity) loadAll() ([]models.PredictionRecord, error) {
	start := time.Now()
	records, err := p.store.LoadAll()
	metrics.RecordStoreOperation("load", start, err)
	if err != nil {
		p.logger.Error("Failed to load predictions", zap.Error(err))
		return nil, fmt.Errorf("failed to load predictions: %w", err)
	}
	return records, nil
}

// Browse lists the stored users in first-seen order and the selected user's
// records, newest date first. An empty or unknown selection picks the first user.
func (p *Productivity) Browse(ctx context.Context, selected string) (*models.BrowseView, error) {
	records, err := p.loadAll()
	if err != nil {
		return nil, err
	}

	return browse(records, selected), nil
}

func browse(records []models.PredictionRecord, selected string) *models.BrowseView {
	view := &models.BrowseView{
		Users: DistinctUsers(records),
		Total: len(records),
	}
	if len(view.Users) == 0 {
		return view
	}

	view.Selected = view.Users[0]
	for _, u := range view.Users {
		if u == selected {
			view.Selected = u
			break
		}
	}

	view.Records = SortByDateDesc(FilterUser(records, view.Selected))
	return view
}

// DeleteUser removes every record of user and returns a freshly loaded view
func (p *Productivity) DeleteUser(ctx context.Context, user string) (*models.BrowseView, error) {
	start := time.Now()
	err := p.store.DeleteUser(user)
	metrics.RecordStoreOperation("delete", start, err)
	if err != nil {
		p.logger.Error("Failed to delete predictions", zap.String("user", user), zap.Error(err))
		return nil, fmt.Errorf("failed to delete predictions for %s: %w", user, err)
	}

	p.logger.Info("User predictions deleted", zap.String("user", user))

	return p.Browse(ctx, "")
}

// Records returns stored records in file order, optionally for one user
func (p *Productivity) Records(ctx context.Context, user string) ([]models.PredictionRecord, error) {
	records, err := p.loadAll()
	if err != nil {
		return nil, err
	}
	if user == "" {
		return records, nil
	}
	return FilterUser(records, user), nil
}

// DistinctUsers returns user names in the order they first appear
func DistinctUsers(records []models.PredictionRecord) []string {
	seen := make(map[string]struct{})
	var users []string
	for _, r := range records {
		if _, ok := seen[r.User]; ok {
			continue
		}
		seen[r.User] = struct{}{}
		users = append(users, r.User)
	}
	return users
}

// FilterUser keeps the records of user, preserving order
func FilterUser(records []models.PredictionRecord, user string) []models.PredictionRecord {
	var out []models.PredictionRecord
	for _, r := range records {
		if r.User == user {
			out = append(out, r)
		}
	}
	return out
}

// SortByDateDesc orders records newest first; equal dates keep their order
func SortByDateDesc(records []models.PredictionRecord) []models.PredictionRecord {
	out := make([]models.PredictionRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
