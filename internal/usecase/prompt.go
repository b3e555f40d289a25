package usecase

import (
	"fmt"
	"strings"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	"github.com/AbilashEG/smart-hr-intake/pkg/textx"
)

// PromptTask selects the prompt variant.
type PromptTask string

// Prompt variants.
const (
	TaskInitialQuestions      PromptTask = "initial"
	TaskPersonalizedQuestions PromptTask = "personalized"
	TaskAssessment            PromptTask = "task"
)

const jdExcerptChars = 1000

// resumeExcerptChars bounds the resume text per variant.
var resumeExcerptChars = map[PromptTask]int{
	TaskInitialQuestions:      1500,
	TaskPersonalizedQuestions: 2500,
	TaskAssessment:            2000,
}

// PromptInput is everything a prompt variant may embed.
type PromptInput struct {
	Task       PromptTask
	Candidate  domain.CandidateProfile
	Profile    domain.AnalyzedProfile
	JD         *domain.JobDescriptionRecord
	JDTitle    string
	ResumeText string
}

// QuestionTask picks the interview question variant for a profile.
func QuestionTask(p domain.AnalyzedProfile) PromptTask {
	if p.HasSignal() {
		return TaskPersonalizedQuestions
	}
	return TaskInitialQuestions
}

// BuildPrompt renders the prompt text. Each variant pins the numbered output
// layout that the question parser relies on.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder
	switch in.Task {
	case TaskAssessment:
		b.WriteString("You are a senior hiring manager preparing a take-home assessment for a shortlisted candidate.\n\n")
	case TaskPersonalizedQuestions:
		b.WriteString("You are an experienced technical interviewer. Tailor every question to this candidate's background.\n\n")
	default:
		b.WriteString("You are an experienced technical interviewer preparing for a first-round interview.\n\n")
	}

	p := in.Profile
	fmt.Fprintf(&b, "Candidate: %s\n", in.Candidate.Name)
	fmt.Fprintf(&b, "Career level: %s\n", p.CareerLevel)
	fmt.Fprintf(&b, "Industry: %s\n", p.Industry)
	fmt.Fprintf(&b, "Technical interests: %s\n", p.InterestsText())
	fmt.Fprintf(&b, "Projects: %s\n", p.Projects)
	fmt.Fprintf(&b, "Leadership: %s\n", p.Leadership)
	fmt.Fprintf(&b, "Education: %s\n", p.Education)
	fmt.Fprintf(&b, "Achievements: %s\n", p.Achievements)

	switch {
	case in.JD != nil:
		b.WriteString("\nJob description:\n")
		fmt.Fprintf(&b, "Title: %s\n", in.JD.Title)
		fmt.Fprintf(&b, "Company: %s\n", in.JD.Company)
		fmt.Fprintf(&b, "Required skills: %s\n", in.JD.Skills)
		fmt.Fprintf(&b, "Experience: %s\n", in.JD.Experience)
		fmt.Fprintf(&b, "Excerpt:\n%s\n", textx.Truncate(in.JD.Text, jdExcerptChars))
	case in.JDTitle != "":
		fmt.Fprintf(&b, "\nTarget role: %s\n", in.JDTitle)
	}

	limit := resumeExcerptChars[in.Task]
	if limit == 0 {
		limit = resumeExcerptChars[TaskInitialQuestions]
	}
	resume := strings.TrimSpace(in.ResumeText)
	if resume == "" {
		resume = "(resume text unavailable)"
	}
	fmt.Fprintf(&b, "\nResume excerpt:\n%s\n\n", textx.Truncate(resume, limit))

	b.WriteString(outputFormat(in.Task, in.JD != nil))
	return b.String()
}

func outputFormat(task PromptTask, withJD bool) string {
	if task == TaskAssessment {
		return "Write exactly 4 tasks as a numbered list, one per line, formatted as \"N. task\".\n" +
			"Items 1-2 are technical challenges the candidate can complete in a few hours.\n" +
			"Items 3-4 are realistic workplace scenario challenges.\n" +
			"Do not add headings, blank items or commentary."
	}
	focus := "the candidate's resume"
	if withJD {
		focus = "the candidate's resume and how it matches the job description"
	}
	return "Based on " + focus + ", write exactly 10 interview questions as a numbered list, one per line, formatted as \"N. question\".\n" +
		"Items 1-5 are technical questions.\n" +
		"Items 6-10 are behavioral questions.\n" +
		"Do not add headings, sub-items or commentary."
}
