package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	"github.com/AbilashEG/smart-hr-intake/pkg/textx"
)

// Defaults used when the resume has no labelled skill or tool section.
const (
	DefaultPrimarySkill = "Python"
	DefaultPrimaryTool  = "AWS"
)

var (
	reSkillSection = regexp.MustCompile(`(?im)^\s*(?:programming\s+)?(?:languages|technical\s+skills|skills)\s*:\s*([^\n]+)`)
	reToolSection  = regexp.MustCompile(`(?im)^\s*(?:tools|technologies|platforms|cloud)\s*:\s*([^\n]+)`)
)

// PrimarySkill returns the first labelled skill, then the first vocabulary
// match, then DefaultPrimarySkill.
func PrimarySkill(text string) string {
	if v := firstListItem(reSkillSection, text); v != "" {
		return v
	}
	if found := MatchVocabulary(text); len(found) > 0 {
		return found[0]
	}
	return DefaultPrimarySkill
}

// PrimaryTool returns the first labelled tool or DefaultPrimaryTool.
func PrimaryTool(text string) string {
	if v := firstListItem(reToolSection, text); v != "" {
		return v
	}
	return DefaultPrimaryTool
}

// FallbackQuestions builds the deterministic 5+5 set. A JD record switches to
// the role-aware templates.
func FallbackQuestions(text string, profile domain.AnalyzedProfile, jd *domain.JobDescriptionRecord) domain.QuestionSet {
	skill := PrimarySkill(text)
	tool := PrimaryTool(text)
	if jd != nil {
		return jdFallback(skill, tool, profile, *jd)
	}
	return domain.QuestionSet{
		Technical: []string{
			fmt.Sprintf("Explain your experience with %s and how you've used it in your projects.", skill),
			"How would you optimize a SQL query for better performance in a large database?",
			"Describe a challenging technical problem you solved recently and your approach.",
			fmt.Sprintf("What %s services have you worked with and how did you use them?", tool),
			"How do you ensure code quality and maintainability in your projects?",
		},
		Behavioral: []string{
			"Tell me about a time when you had to learn a new technology quickly. How did you approach it?",
			"How do you handle tight deadlines and pressure in your work?",
			"Describe a situation where you had to work with a difficult team member. How did you handle it?",
			"What motivates you in your career and what are your long-term goals?",
			"Tell me about a project you're particularly proud of and why.",
		},
	}
}

func jdFallback(skill, tool string, profile domain.AnalyzedProfile, jd domain.JobDescriptionRecord) domain.QuestionSet {
	role := jd.Title
	if role == "" || role == DefaultJDTitle {
		role = "this role"
	} else {
		role = "the " + role + " role"
	}
	required := firstOf(textx.SplitList(jd.Skills), skill)
	if jd.Skills == DefaultJDSkills {
		required = skill
	}
	return domain.QuestionSet{
		Technical: []string{
			fmt.Sprintf("%s calls for %s. Walk us through a project where you applied it.", capitalize(role), required),
			fmt.Sprintf("Explain your experience with %s and how it prepares you for %s.", skill, role),
			fmt.Sprintf("How would you design, test and deploy a new feature using %s?", tool),
			"Describe a challenging technical problem you solved recently and your approach.",
			fmt.Sprintf("How do you keep code maintainable in a %s environment with changing requirements?", profile.Industry),
		},
		Behavioral: []string{
			fmt.Sprintf("What interests you about %s at %s?", role, jd.Company),
			"Tell me about a time when you had to learn a new technology quickly. How did you approach it?",
			"How do you handle tight deadlines and pressure in your work?",
			"Describe a situation where you had to work with a difficult team member. How did you handle it?",
			fmt.Sprintf("The position asks for %s. Which parts of your background best match that expectation?", strings.ToLower(jd.Experience)),
		},
	}
}

// FallbackTasks builds the two deterministic assessment cards.
func FallbackTasks(text string, profile domain.AnalyzedProfile, role string) TaskSet {
	skill := PrimarySkill(text)
	tool := PrimaryTool(text)
	if role == DefaultJDTitle {
		role = ""
	}
	target := "your target role"
	if role != "" {
		target = "the " + role + " role"
	}
	lead := "Walk us through how you would organise the work on your own."
	if profile.HasLeadership {
		lead = "Explain how you would split the work across a small team you are leading."
	}
	return TaskSet{
		Role: role,
		Cards: []TaskCard{
			{
				Kind:  TaskKindTechnical,
				Title: fmt.Sprintf("Technical Challenge: Build a small service with %s", skill),
				Body: fmt.Sprintf("Design and implement a small REST service in %s that stores and lists records for a %s use case, "+
					"and describe how you would deploy it on %s.", skill, strings.ToLower(profile.Industry), tool),
				Points: []string{
					"Include input validation and meaningful error responses.",
					"Add automated tests for the main flows.",
					"Document how to run the service locally.",
				},
			},
			{
				Kind:  TaskKindScenario,
				Title: "Scenario Challenge: Production incident",
				Body: fmt.Sprintf("A release for %s causes intermittent failures for some users a few hours before an important demo. "+
					"Describe how you would investigate, communicate and resolve the issue. %s", target, lead),
				Points: []string{
					"List the first three things you would check.",
					"Explain how you would keep stakeholders informed.",
					"Describe what you would change to prevent a repeat.",
				},
			},
		},
	}
}

// AITasks turns parsed AI task items into cards.
func AITasks(technical, scenario []string, role string) TaskSet {
	if role == DefaultJDTitle {
		role = ""
	}
	set := TaskSet{Role: role}
	for i, t := range technical {
		set.Cards = append(set.Cards, TaskCard{Kind: TaskKindTechnical, Title: fmt.Sprintf("Technical Challenge %d", i+1), Body: t})
	}
	for i, s := range scenario {
		set.Cards = append(set.Cards, TaskCard{Kind: TaskKindScenario, Title: fmt.Sprintf("Scenario Challenge %d", i+1), Body: s})
	}
	return set
}

func firstListItem(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	items := textx.SplitList(m[1])
	if len(items) == 0 {
		return ""
	}
	return items[0]
}

func firstOf(items []string, def string) string {
	if len(items) > 0 {
		return items[0]
	}
	return def
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
