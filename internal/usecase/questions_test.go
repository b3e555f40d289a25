package usecase_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AbilashEG/smart-hr-intake/internal/config"
	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	"github.com/AbilashEG/smart-hr-intake/internal/usecase"
)

func numbered(from, to int, prefix string) string {
	var b strings.Builder
	for i := from; i <= to; i++ {
		fmt.Fprintf(&b, "%d. %s %d\n", i, prefix, i)
	}
	return b.String()
}

func fallbackSet() domain.QuestionSet {
	return domain.QuestionSet{
		Technical:  []string{"fb-t1", "fb-t2", "fb-t3", "fb-t4", "fb-t5"},
		Behavioral: []string{"fb-b1", "fb-b2", "fb-b3", "fb-b4", "fb-b5"},
	}
}

func TestParseNumbered(t *testing.T) {
	t.Parallel()
	raw := "Here you go:\n7. Seventh\n1. First\n  2.   Second  \n3.missing space\n11. Eleventh\n4. \n6. Sixth"
	assert.Equal(t, []string{"First", "Second"}, usecase.ParseNumbered(raw, 1, 5))
	assert.Equal(t, []string{"Seventh", "Sixth"}, usecase.ParseNumbered(raw, 6, 10))
	assert.Empty(t, usecase.ParseNumbered("", 1, 5))
}

func TestPad(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"a", "d", "d"}, usecase.Pad([]string{"a"}, 3, "d"))
	assert.Equal(t, []string{"a", "b"}, usecase.Pad([]string{"a", "b", "c"}, 2, "d"))
	assert.Equal(t, []string{"d", "d"}, usecase.Pad(nil, 2, "d"))
}

func TestQuestionPolicy_PerCategory(t *testing.T) {
	t.Parallel()
	p := usecase.QuestionPolicy{Mode: config.PolicyPerCategory, MinAccepted: 3}

	t.Run("both categories accepted", func(t *testing.T) {
		set, src := p.Resolve(numbered(1, 10, "q"), fallbackSet())
		assert.Equal(t, domain.SourceAI, src)
		assert.Equal(t, "q 1", set.Technical[0])
		assert.Equal(t, "q 10", set.Behavioral[4])
	})

	t.Run("short technical is replaced", func(t *testing.T) {
		raw := numbered(1, 2, "t") + numbered(6, 10, "b")
		set, src := p.Resolve(raw, fallbackSet())
		assert.Equal(t, domain.SourceMixed, src)
		assert.Equal(t, fallbackSet().Technical, set.Technical)
		assert.Equal(t, []string{"b 6", "b 7", "b 8", "b 9", "b 10"}, set.Behavioral)
	})

	t.Run("three is enough and is padded", func(t *testing.T) {
		raw := numbered(1, 3, "t") + numbered(6, 8, "b")
		set, src := p.Resolve(raw, fallbackSet())
		assert.Equal(t, domain.SourceAI, src)
		assert.Equal(t, []string{"t 1", "t 2", "t 3", usecase.DefaultTechnicalQuestion, usecase.DefaultTechnicalQuestion}, set.Technical)
		assert.Equal(t, []string{"b 6", "b 7", "b 8", usecase.DefaultBehavioralQuestion, usecase.DefaultBehavioralQuestion}, set.Behavioral)
	})

	t.Run("nothing parsed", func(t *testing.T) {
		set, src := p.Resolve("no numbered lines", fallbackSet())
		assert.Equal(t, domain.SourceFallback, src)
		assert.Equal(t, fallbackSet(), set)
	})
}

func TestQuestionPolicy_Any(t *testing.T) {
	t.Parallel()
	p := usecase.QuestionPolicy{Mode: config.PolicyAny, MinAccepted: 3}

	t.Run("one category carries both", func(t *testing.T) {
		raw := numbered(1, 2, "t") + numbered(6, 10, "b")
		set, src := p.Resolve(raw, fallbackSet())
		assert.Equal(t, domain.SourceAI, src)
		assert.Equal(t, []string{"t 1", "t 2", usecase.DefaultTechnicalQuestion, usecase.DefaultTechnicalQuestion, usecase.DefaultTechnicalQuestion}, set.Technical)
		assert.Len(t, set.Behavioral, domain.QuestionsPerCategory)
	})

	t.Run("neither reaches the threshold", func(t *testing.T) {
		raw := numbered(1, 2, "t") + numbered(6, 7, "b")
		set, src := p.Resolve(raw, fallbackSet())
		assert.Equal(t, domain.SourceFallback, src)
		assert.Equal(t, fallbackSet(), set)
	})
}

func TestQuestionPolicy_AlwaysFiveAndFive(t *testing.T) {
	t.Parallel()
	short := domain.QuestionSet{Technical: []string{"only"}}
	for _, mode := range []string{config.PolicyPerCategory, config.PolicyAny} {
		for _, raw := range []string{"", numbered(1, 12, "q"), numbered(4, 6, "q")} {
			set, _ := usecase.QuestionPolicy{Mode: mode}.Resolve(raw, short)
			assert.Len(t, set.Technical, domain.QuestionsPerCategory, mode)
			assert.Len(t, set.Behavioral, domain.QuestionsPerCategory, mode)
		}
	}
}

func TestParseTasks(t *testing.T) {
	t.Parallel()
	tech, scen, ok := usecase.ParseTasks("1. Build an API\n2. Write tests\n3. Outage drill\n4. Stakeholder conflict")
	assert.True(t, ok)
	assert.Equal(t, []string{"Build an API", "Write tests"}, tech)
	assert.Equal(t, []string{"Outage drill", "Stakeholder conflict"}, scen)

	_, _, ok = usecase.ParseTasks("1. Build an API\n2. Write tests")
	assert.False(t, ok)
	_, _, ok = usecase.ParseTasks("")
	assert.False(t, ok)
}

// Two technical and four behavioural lines: per_category replaces only the
// short category, any keeps both AI lists and pads them.
func TestQuestionPolicy_TwoTechnicalFourBehavioral(t *testing.T) {
	t.Parallel()
	raw := numbered(1, 2, "t") + numbered(6, 9, "b")

	set, src := usecase.QuestionPolicy{Mode: config.PolicyPerCategory, MinAccepted: 3}.Resolve(raw, fallbackSet())
	assert.Equal(t, domain.SourceMixed, src)
	assert.Equal(t, fallbackSet().Technical, set.Technical)
	assert.Equal(t, []string{"b 6", "b 7", "b 8", "b 9", usecase.DefaultBehavioralQuestion}, set.Behavioral)

	set, src = usecase.QuestionPolicy{Mode: config.PolicyAny, MinAccepted: 3}.Resolve(raw, fallbackSet())
	assert.Equal(t, domain.SourceAI, src)
	assert.Equal(t, []string{"t 1", "t 2", usecase.DefaultTechnicalQuestion, usecase.DefaultTechnicalQuestion, usecase.DefaultTechnicalQuestion}, set.Technical)
	assert.Equal(t, []string{"b 6", "b 7", "b 8", "b 9", usecase.DefaultBehavioralQuestion}, set.Behavioral)
}
