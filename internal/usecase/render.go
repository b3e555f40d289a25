package usecase

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
)

// Task card kinds.
const (
	TaskKindTechnical = "technical"
	TaskKindScenario  = "scenario"
)

// TaskCard is one assessment item.
type TaskCard struct {
	Kind   string
	Title  string
	Body   string
	Points []string
}

// TaskSet is the assessment rendered for a shortlisted candidate.
type TaskSet struct {
	Role  string
	Cards []TaskCard
}

const displayDateLayout = "02 Jan 2006"

var questionsTmpl = template.Must(template.New("questions").Parse(
	`<div class="interview-questions">` +
		`<p class="generated-on">Generated on {{.Date}}</p>` +
		`<h3>Technical Interview Questions</h3><ul>{{range .Set.Technical}}<li>{{.}}</li>{{end}}</ul>` +
		`<h3>Behavioural Interview Questions</h3><ul>{{range .Set.Behavioral}}<li>{{.}}</li>{{end}}</ul>` +
		`</div>`))

var tasksTmpl = template.Must(template.New("tasks").Parse(
	`<div class="task-questions">` +
		`<p class="generated-on">Generated on {{.Date}}{{with .Set.Role}} for {{.}}{{end}}</p>` +
		`{{range .Set.Cards}}<div class="task-card task-{{.Kind}}"><h4>{{.Title}}</h4><p>{{.Body}}</p>` +
		`{{with .Points}}<ul>{{range .}}<li>{{.}}</li>{{end}}</ul>{{end}}</div>{{end}}` +
		`</div>`))

// Renderer turns question and task sets into the stored HTML fragments.
type Renderer struct {
	Location *time.Location
	Now      func() time.Time
}

// Questions renders the technical list followed by the behavioural list.
func (r Renderer) Questions(set domain.QuestionSet) (string, error) {
	return r.render(questionsTmpl, set)
}

// Tasks renders the assessment cards.
func (r Renderer) Tasks(set TaskSet) (string, error) {
	return r.render(tasksTmpl, set)
}

func (r Renderer) render(t *template.Template, set any) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Date string
		Set  any
	}{Date: r.date(), Set: set}
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("op=render.%s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func (r Renderer) date() string {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc).Format(displayDateLayout)
}
