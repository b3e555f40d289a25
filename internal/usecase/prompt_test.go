package usecase_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	"github.com/AbilashEG/smart-hr-intake/internal/usecase"
)

func TestQuestionTask(t *testing.T) {
	t.Parallel()
	assert.Equal(t, usecase.TaskInitialQuestions, usecase.QuestionTask(usecase.AnalyzeProfile("")))
	assert.Equal(t, usecase.TaskPersonalizedQuestions, usecase.QuestionTask(domain.AnalyzedProfile{SkillsMatched: true}))
}

func TestBuildPrompt_Variants(t *testing.T) {
	t.Parallel()
	profile := usecase.AnalyzeProfile("Senior Go developer. Built a payments ledger for banks.")
	cand := domain.CandidateProfile{Name: "Jane Doe"}

	sparse := usecase.AnalyzeProfile("resume")
	require.NotEmpty(t, sparse.CareerLevel)
	initial := usecase.BuildPrompt(usecase.PromptInput{Task: usecase.TaskInitialQuestions, Candidate: cand, Profile: sparse, ResumeText: "resume"})
	assert.Contains(t, initial, "Candidate: Jane Doe")
	assert.Contains(t, initial, "Career level: "+sparse.CareerLevel+"\n")
	assert.Contains(t, initial, "Education: "+sparse.Education+"\n")
	assert.Contains(t, initial, "Industry: "+usecase.DefaultIndustry+"\n")
	assert.Contains(t, initial, "Items 1-5 are technical questions.")
	assert.Contains(t, initial, "Items 6-10 are behavioral questions.")

	personal := usecase.BuildPrompt(usecase.PromptInput{Task: usecase.TaskPersonalizedQuestions, Candidate: cand, Profile: profile, ResumeText: "resume"})
	assert.Contains(t, personal, "Career level: Senior")
	assert.Contains(t, personal, "Technical interests: Go")
	assert.Contains(t, personal, "Tailor every question")

	task := usecase.BuildPrompt(usecase.PromptInput{Task: usecase.TaskAssessment, Candidate: cand, Profile: profile, JDTitle: "Backend Developer"})
	assert.Contains(t, task, "Target role: Backend Developer")
	assert.Contains(t, task, "Items 1-2 are technical challenges")
	assert.Contains(t, task, "Items 3-4 are realistic workplace scenario challenges.")
	assert.Contains(t, task, "(resume text unavailable)")
}

func TestBuildPrompt_JobDescription(t *testing.T) {
	t.Parallel()
	jd := &domain.JobDescriptionRecord{
		Text:       strings.Repeat("j", 1500),
		Title:      "Data Engineer",
		Skills:     "Python, AWS",
		Experience: "3-5 years",
		Company:    "Globex",
	}
	out := usecase.BuildPrompt(usecase.PromptInput{Task: usecase.TaskInitialQuestions, JD: jd, JDTitle: "ignored"})
	assert.Contains(t, out, "Title: Data Engineer")
	assert.Contains(t, out, "Required skills: Python, AWS")
	assert.Contains(t, out, strings.Repeat("j", 1000)+"\n")
	assert.NotContains(t, out, strings.Repeat("j", 1001))
	assert.NotContains(t, out, "Target role")
	assert.Contains(t, out, "how it matches the job description")
}

func TestBuildPrompt_ResumeExcerptBounds(t *testing.T) {
	t.Parallel()
	resume := strings.Repeat("r", 3000)
	tests := []struct {
		task usecase.PromptTask
		want int
	}{
		{usecase.TaskInitialQuestions, 1500},
		{usecase.TaskPersonalizedQuestions, 2500},
		{usecase.TaskAssessment, 2000},
		{usecase.PromptTask("unknown"), 1500},
	}
	for _, tt := range tests {
		out := usecase.BuildPrompt(usecase.PromptInput{Task: tt.task, ResumeText: resume})
		assert.Contains(t, out, strings.Repeat("r", tt.want), tt.task)
		assert.NotContains(t, out, strings.Repeat("r", tt.want+1), tt.task)
	}
}
