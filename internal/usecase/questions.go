package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/AbilashEG/smart-hr-intake/internal/config"
	"github.com/AbilashEG/smart-hr-intake/internal/domain"
)

// Padding questions for short categories.
const (
	DefaultTechnicalQuestion  = "Describe your experience with the technologies mentioned in your resume."
	DefaultBehavioralQuestion = "Tell me about a challenging situation you faced and how you handled it."
)

var reNumbered = regexp.MustCompile(`^\s*(\d+)\.\s+(.+)$`)

// ParseNumbered returns the text of lines numbered within [lo, hi], in line order.
func ParseNumbered(raw string, lo, hi int) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		m := reNumbered.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < lo || n > hi {
			continue
		}
		if q := strings.TrimSpace(m[2]); q != "" {
			out = append(out, q)
		}
	}
	return out
}

// Pad truncates items to n and fills any shortfall with def.
func Pad(items []string, n int, def string) []string {
	out := make([]string, 0, n)
	for _, it := range items {
		if len(out) == n {
			break
		}
		out = append(out, it)
	}
	for len(out) < n {
		out = append(out, def)
	}
	return out
}

// QuestionPolicy decides how much parsed AI output to keep.
type QuestionPolicy struct {
	// Mode is config.PolicyPerCategory or config.PolicyAny.
	Mode        string
	MinAccepted int
}

// Resolve merges parsed AI output with the fallback set and reports where the
// final questions came from. raw is ignored when empty.
//
// per_category judges each category alone: a category at or above MinAccepted
// keeps its AI items (padded), one below is replaced by the fallback category.
// any keeps both AI categories (padded) when either reaches MinAccepted and
// otherwise replaces both.
func (p QuestionPolicy) Resolve(raw string, fallback domain.QuestionSet) (domain.QuestionSet, string) {
	n := domain.QuestionsPerCategory
	fbTech := Pad(fallback.Technical, n, DefaultTechnicalQuestion)
	fbBehav := Pad(fallback.Behavioral, n, DefaultBehavioralQuestion)
	tech := ParseNumbered(raw, 1, 5)
	behav := ParseNumbered(raw, 6, 10)
	threshold := p.MinAccepted
	if threshold < 1 {
		threshold = 3
	}
	techOK, behavOK := len(tech) >= threshold, len(behav) >= threshold

	if p.Mode == config.PolicyAny {
		if techOK || behavOK {
			return domain.QuestionSet{
				Technical:  Pad(tech, n, DefaultTechnicalQuestion),
				Behavioral: Pad(behav, n, DefaultBehavioralQuestion),
			}, domain.SourceAI
		}
		return domain.QuestionSet{Technical: fbTech, Behavioral: fbBehav}, domain.SourceFallback
	}

	set := domain.QuestionSet{Technical: fbTech, Behavioral: fbBehav}
	if techOK {
		set.Technical = Pad(tech, n, DefaultTechnicalQuestion)
	}
	if behavOK {
		set.Behavioral = Pad(behav, n, DefaultBehavioralQuestion)
	}
	switch {
	case techOK && behavOK:
		return set, domain.SourceAI
	case techOK || behavOK:
		return set, domain.SourceMixed
	default:
		return set, domain.SourceFallback
	}
}

// ParseTasks reads AI task output: items 1-2 technical, 3-4 scenario.
// ok is false unless each range has at least one item.
func ParseTasks(raw string) (technical, scenario []string, ok bool) {
	technical = ParseNumbered(raw, 1, 2)
	scenario = ParseNumbered(raw, 3, 4)
	return technical, scenario, len(technical) > 0 && len(scenario) > 0
}
