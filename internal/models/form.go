package models

import (
	"math"
	"strconv"
	"strings"
)

// FieldSpec describes one slider: its bounds, default and step
type FieldSpec struct {
	Key     string
	Label   string
	Min     float64
	Max     float64
	Default float64
	Step    float64
}

// Clip constrains v to [Min, Max]
func (f FieldSpec) Clip(v float64) float64 {
	if math.IsNaN(v) {
		return f.Default
	}
	return math.Max(f.Min, math.Min(f.Max, v))
}

// FormSpec is the shared shape of the quick and calendar input forms.
// Input names are prefixed with the form ID so the two forms never share state.
type FormSpec struct {
	ID       string
	Sleep    FieldSpec
	Caffeine FieldSpec
	Screen   FieldSpec
	Exercise FieldSpec
}

// NewFormSpec returns a form with the standard metric ranges, keyed by id
func NewFormSpec(id string) FormSpec {
	return FormSpec{
		ID:       id,
		Sleep:    FieldSpec{Key: id + "_sleep", Label: "Sleep (hours)", Min: 4.0, Max: 10.0, Default: 7.0, Step: 0.1},
		Caffeine: FieldSpec{Key: id + "_caffeine", Label: "Caffeine (mg)", Min: 0, Max: 300, Default: 150, Step: 10},
		Screen:   FieldSpec{Key: id + "_screen", Label: "Screen time before bed (min)", Min: 0, Max: 180, Default: 90, Step: 5},
		Exercise: FieldSpec{Key: id + "_exercise", Label: "Exercise (min)", Min: 0, Max: 120, Default: 30, Step: 5},
	}
}

var (
	QuickForm    = NewFormSpec("quick")
	CalendarForm = NewFormSpec("calendar")
)

// Fields returns the sliders in display order
func (f FormSpec) Fields() []FieldSpec {
	return []FieldSpec{f.Sleep, f.Caffeine, f.Screen, f.Exercise}
}

// Defaults returns the input with every field at its default
func (f FormSpec) Defaults() MetricInput {
	return MetricInput{
		SleepHours:      f.Sleep.Default,
		CaffeineMg:      int(f.Caffeine.Default),
		ScreenMinutes:   int(f.Screen.Default),
		ExerciseMinutes: int(f.Exercise.Default),
	}
}

// Clip constrains every field of in to its range
func (f FormSpec) Clip(in MetricInput) MetricInput {
	return MetricInput{
		SleepHours:      f.Sleep.Clip(in.SleepHours),
		CaffeineMg:      int(f.Caffeine.Clip(float64(in.CaffeineMg))),
		ScreenMinutes:   int(f.Screen.Clip(float64(in.ScreenMinutes))),
		ExerciseMinutes: int(f.Exercise.Clip(float64(in.ExerciseMinutes))),
	}
}

// FromValues reads the form's fields through get, defaulting missing or
// unparseable values and clipping the rest. Values are clipped before the
// integer fields are rounded so huge inputs land on the upper bound.
func (f FormSpec) FromValues(get func(key string) string) MetricInput {
	read := func(field FieldSpec) float64 {
		raw := strings.TrimSpace(get(field.Key))
		if raw == "" {
			return field.Default
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return field.Default
		}
		return field.Clip(v)
	}

	return f.Clip(MetricInput{
		SleepHours:      read(f.Sleep),
		CaffeineMg:      int(math.Round(read(f.Caffeine))),
		ScreenMinutes:   int(math.Round(read(f.Screen))),
		ExerciseMinutes: int(math.Round(read(f.Exercise))),
	})
}

// Resolve fills omitted request fields with defaults and clips the result
func (f FormSpec) Resolve(req MetricsRequest) MetricInput {
	in := f.Defaults()
	if req.SleepHours != nil {
		in.SleepHours = *req.SleepHours
	}
	if req.CaffeineMg != nil {
		in.CaffeineMg = *req.CaffeineMg
	}
	if req.ScreenMinutes != nil {
		in.ScreenMinutes = *req.ScreenMinutes
	}
	if req.ExerciseMinutes != nil {
		in.ExerciseMinutes = *req.ExerciseMinutes
	}
	return f.Clip(in)
}

// Values returns the input keyed by this form's field keys, formatted for display
func (f FormSpec) Values(in MetricInput) map[string]string {
	return map[string]string{
		f.Sleep.Key:    strconv.FormatFloat(in.SleepHours, 'f', 1, 64),
		f.Caffeine.Key: strconv.Itoa(in.CaffeineMg),
		f.Screen.Key:   strconv.Itoa(in.ScreenMinutes),
		f.Exercise.Key: strconv.Itoa(in.ExerciseMinutes),
	}
}
