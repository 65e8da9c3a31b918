package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO-8601 calendar date format used in storage and forms
const DateLayout = "2006-01-02"

// MetricInput holds the four lifestyle metrics a user controls
type MetricInput struct {
	SleepHours      float64 `json:"sleep_hours"`
	CaffeineMg      int     `json:"caffeine_mg"`
	ScreenMinutes   int     `json:"screen_minutes"`
	ExerciseMinutes int     `json:"exercise_minutes"`
}

// PredictionRecord is a persisted prediction for one user and date
type PredictionRecord struct {
	User            string    `json:"user"`
	Date            time.Time `json:"-"`
	Prediction      float64   `json:"prediction"`
	SleepHours      float64   `json:"sleep_hours"`
	CaffeineMg      int       `json:"caffeine_mg"`
	ScreenMinutes   int       `json:"screen_minutes"`
	ExerciseMinutes int       `json:"exercise_minutes"`
}

// DateString returns the record date as YYYY-MM-DD
func (r PredictionRecord) DateString() string {
	return r.Date.Format(DateLayout)
}

// Fraction returns the prediction as a share of the maximum score
func (r PredictionRecord) Fraction() float64 {
	return r.Prediction / MaxScore
}

// Input returns the metrics the prediction was made from
func (r PredictionRecord) Input() MetricInput {
	return MetricInput{
		SleepHours:      r.SleepHours,
		CaffeineMg:      r.CaffeineMg,
		ScreenMinutes:   r.ScreenMinutes,
		ExerciseMinutes: r.ExerciseMinutes,
	}
}

// RecordView is the JSON shape of a PredictionRecord
type RecordView struct {
	User            string  `json:"user"`
	Date            string  `json:"date"`
	Prediction      float64 `json:"prediction"`
	SleepHours      float64 `json:"sleep_hours"`
	CaffeineMg      int     `json:"caffeine_mg"`
	ScreenMinutes   int     `json:"screen_minutes"`
	ExerciseMinutes int     `json:"exercise_minutes"`
}

// View converts the record for JSON responses
func (r PredictionRecord) View() RecordView {
	return RecordView{
		User:            r.User,
		Date:            r.DateString(),
		Prediction:      r.Prediction,
		SleepHours:      r.SleepHours,
		CaffeineMg:      r.CaffeineMg,
		ScreenMinutes:   r.ScreenMinutes,
		ExerciseMinutes: r.ExerciseMinutes,
	}
}

// Score bounds of the productivity model
const (
	MinScore = 1.0
	MaxScore = 10.0
)

// RoundScore rounds a score to 2 decimals, half away from zero
func RoundScore(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// QuickResult is the outcome of a one-shot prediction
type QuickResult struct {
	Score    float64     `json:"score"`
	Fraction float64     `json:"fraction"`
	Input    MetricInput `json:"input"`
}

// BrowseView is the per-user listing of stored predictions
type BrowseView struct {
	Users    []string           `json:"users"`
	Selected string             `json:"selected"`
	Records  []PredictionRecord `json:"-"`
	Total    int                `json:"total"`
}

// Empty reports whether the store had no records at all
func (v *BrowseView) Empty() bool {
	return v == nil || len(v.Users) == 0
}

// MetricsRequest is the JSON body for prediction endpoints; omitted fields take form defaults
type MetricsRequest struct {
	SleepHours      *float64 `json:"sleep_hours"`
	CaffeineMg      *int     `json:"caffeine_mg"`
	ScreenMinutes   *int     `json:"screen_minutes"`
	ExerciseMinutes *int     `json:"exercise_minutes"`
}

// SaveRequest is the JSON body for a named, dated prediction
type SaveRequest struct {
	MetricsRequest
	User string `json:"user"`
	Date string `json:"date"`
}
