package handler

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"productivity-service/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type fieldView struct {
	Key   string
	Label string
	Min   float64
	Max   float64
	Step  float64
	Value string
}

type formView struct {
	ID     string
	Fields []fieldView
}

func newFormView(spec models.FormSpec, in models.MetricInput) formView {
	values := spec.Values(in)
	view := formView{ID: spec.ID}
	for _, f := range spec.Fields() {
		view.Fields = append(view.Fields, fieldView{
			Key:   f.Key,
			Label: f.Label,
			Min:   f.Min,
			Max:   f.Max,
			Step:  f.Step,
			Value: values[f.Key],
		})
	}
	return view
}

// pageData is everything the single page renders
type pageData struct {
	Quick        formView
	Calendar     formView
	QuickResult  *models.QuickResult
	Saved        *models.PredictionRecord
	CalendarName string
	CalendarDate string
	Browse       *models.BrowseView
	Flash        string
	Error        string
}

func (h *Handler) newPage() *pageData {
	return &pageData{
		Quick:        newFormView(models.QuickForm, models.QuickForm.Defaults()),
		Calendar:     newFormView(models.CalendarForm, models.CalendarForm.Defaults()),
		CalendarDate: h.svc.Today().Format(models.DateLayout),
	}
}

// render fills the browse section (unless already set) and writes the page
func (h *Handler) render(c *gin.Context, status int, data *pageData, selected string) {
	if data.Browse == nil {
		view, err := h.svc.Browse(c.Request.Context(), selected)
		if err != nil {
			data.Error = failureMessage(err)
			status = http.StatusInternalServerError
		} else {
			data.Browse = view
		}
	}
	c.HTML(status, "page", data)
}

// Index renders the page; ?user= selects whose records are listed
func (h *Handler) Index(c *gin.Context) {
	h.render(c, http.StatusOK, h.newPage(), c.Query("user"))
}

// QuickSubmit handles the quick prediction form
func (h *Handler) QuickSubmit(c *gin.Context) {
	data := h.newPage()
	in := models.QuickForm.FromValues(c.PostForm)
	data.Quick = newFormView(models.QuickForm, in)

	result, err := h.svc.QuickPredict(c.Request.Context(), in)
	if err != nil {
		data.Error = failureMessage(err)
		h.render(c, http.StatusInternalServerError, data, "")
		return
	}

	data.QuickResult = result
	h.render(c, http.StatusOK, data, "")
}

// CalendarSubmit handles the named, dated prediction form.
// A blank name re-renders the page without saving or complaining.
func (h *Handler) CalendarSubmit(c *gin.Context) {
	data := h.newPage()
	in := models.CalendarForm.FromValues(c.PostForm)
	data.Calendar = newFormView(models.CalendarForm, in)
	data.CalendarName = c.PostForm("calendar_name")

	var date time.Time
	if raw := strings.TrimSpace(c.PostForm("calendar_date")); raw != "" {
		if d, err := time.Parse(models.DateLayout, raw); err == nil {
			date = d
			data.CalendarDate = raw
		}
	}

	rec, saved, err := h.svc.SaveDaily(c.Request.Context(), data.CalendarName, date, in)
	if err != nil {
		data.Error = failureMessage(err)
		h.render(c, http.StatusInternalServerError, data, "")
		return
	}

	selected := ""
	if saved {
		data.Saved = rec
		selected = rec.User
		h.logger.Debug("Calendar form saved", zap.String("user", rec.User))
	}
	h.render(c, http.StatusOK, data, selected)
}

// DeleteSubmit removes the selected user's records and shows the refreshed listing
func (h *Handler) DeleteSubmit(c *gin.Context) {
	data := h.newPage()
	user := c.PostForm("user")

	view, err := h.svc.DeleteUser(c.Request.Context(), user)
	if err != nil {
		data.Error = failureMessage(err)
		h.render(c, http.StatusInternalServerError, data, user)
		return
	}

	data.Browse = view
	data.Flash = "Records for " + user + " deleted."
	h.render(c, http.StatusOK, data, "")
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"percent": func(f float64) string {
		return strconv.FormatFloat(f*100, 'f', 1, 64)
	},
	"score": func(f float64) string {
		return strconv.FormatFloat(f, 'f', 2, 64)
	},
}).Parse(`<!DOCTYPE html>
<html lang="en"><head><meta charset="UTF-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>Productivity Prediction</title>
<style>
body{font-family:system-ui,sans-serif;max-width:900px;margin:2rem auto;padding:0 1rem;color:#222;background:#fafafa}
h1{font-size:1.6rem;border-bottom:2px solid #e0e0e0;padding-bottom:.5rem}
section{background:#fff;border:1px solid #e0e0e0;border-radius:6px;padding:1rem;margin-bottom:1rem}
label{display:block;margin:.5rem 0 .2rem}
input[type=range]{width:100%}
.bar{background:#eee;border-radius:4px;height:12px}
.bar div{background:#4caf50;height:12px;border-radius:4px}
.success{color:#2e7d32}
.error{background:#fdecea;border:1px solid #f5c6cb;color:#a12622;padding:.75rem;border-radius:6px}
.flash{background:#e8f5e9;border:1px solid #c8e6c9;padding:.75rem;border-radius:6px}
.empty{color:#999;font-style:italic}
table{border-collapse:collapse;width:100%}
th,td{border-bottom:1px solid #e0e0e0;padding:.4rem;text-align:left}
</style></head><body>
<h1>Productivity Prediction</h1>
<p>Estimates a daily productivity score (1&ndash;10) from sleep, caffeine, screen time and exercise using a pre-trained regression model.
Use <strong>Quick prediction</strong> for an instant score, or the <strong>Daily log</strong> to save a dated prediction under your name and follow it over time.</p>
{{- if .Error}}
<div class="error" id="error">{{.Error}}</div>
{{- end}}
{{- if .Flash}}
<div class="flash" id="flash">{{.Flash}} Refreshed listing below.</div>
{{- end}}

<section id="quick">
<h2>Quick prediction</h2>
<form method="post" action="/quick">
{{- range .Quick.Fields}}
<label for="{{.Key}}">{{.Label}}: <output>{{.Value}}</output></label>
<input type="range" id="{{.Key}}" name="{{.Key}}" min="{{.Min}}" max="{{.Max}}" step="{{.Step}}" value="{{.Value}}" oninput="this.previousElementSibling.lastElementChild.value=this.value">
{{- end}}
<p><button type="submit">Predict</button></p>
</form>
{{- with .QuickResult}}
<div class="result" id="quick-result">
<p class="success">Estimated productivity score: <strong class="score">{{score .Score}}</strong> / 10</p>
<div class="bar"><div style="width:{{percent .Fraction}}%"></div></div>
</div>
{{- end}}
</section>

<section id="calendar">
<h2>Daily log</h2>
<form method="post" action="/calendar">
<label for="calendar_name">Your name</label>
<input type="text" id="calendar_name" name="calendar_name" value="{{.CalendarName}}">
<label for="calendar_date">Date</label>
<input type="date" id="calendar_date" name="calendar_date" value="{{.CalendarDate}}">
{{- range .Calendar.Fields}}
<label for="{{.Key}}">{{.Label}}: <output>{{.Value}}</output></label>
<input type="range" id="{{.Key}}" name="{{.Key}}" min="{{.Min}}" max="{{.Max}}" step="{{.Step}}" value="{{.Value}}" oninput="this.previousElementSibling.lastElementChild.value=this.value">
{{- end}}
<p><button type="submit">Save</button></p>
</form>
{{- with .Saved}}
<div class="result" id="saved">
<p class="success">Prediction saved for <strong class="user">{{.User}}</strong> on <span class="date">{{.DateString}}</span>: <strong class="score">{{score .Prediction}}</strong> / 10</p>
<div class="bar"><div style="width:{{percent .Fraction}}%"></div></div>
</div>
{{- end}}
</section>

<section id="records">
<h2>Saved records</h2>
{{- with .Browse}}
{{- if .Empty}}
<p class="empty">No records yet.</p>
{{- else}}
<form method="get" action="/">
<label for="user">User</label>
<select id="user" name="user" onchange="this.form.submit()">
{{- $selected := .Selected}}
{{- range .Users}}
<option value="{{.}}"{{if eq . $selected}} selected{{end}}>{{.}}</option>
{{- end}}
</select>
<noscript><button type="submit">Show</button></noscript>
</form>
<table>
<thead><tr><th>Date</th><th>Prediction</th><th>Sleep (h)</th><th>Caffeine (mg)</th><th>Screen (min)</th><th>Exercise (min)</th></tr></thead>
<tbody>
{{- range .Records}}
<tr><td class="date">{{.DateString}}</td><td class="score">{{score .Prediction}}</td><td>{{.SleepHours}}</td><td>{{.CaffeineMg}}</td><td>{{.ScreenMinutes}}</td><td>{{.ExerciseMinutes}}</td></tr>
{{- end}}
</tbody>
</table>
<form method="post" action="/delete" onsubmit="return confirm('Delete all records of {{.Selected}}?')">
<input type="hidden" name="user" value="{{.Selected}}">
<p><button type="submit" id="delete">Delete this user's records</button></p>
</form>
{{- end}}
{{- end}}
</section>
</body></html>`))
