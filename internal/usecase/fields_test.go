package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	"github.com/AbilashEG/smart-hr-intake/internal/usecase"
)

func ruleByName(t *testing.T, rules []usecase.FieldRule, name string) usecase.FieldRule {
	t.Helper()
	for _, r := range rules {
		if r.Name == name {
			return r
		}
	}
	require.Failf(t, "rule not found", "%s", name)
	return usecase.FieldRule{}
}

func TestNameRules(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rule   string
		text   string
		want   string
		wantOK bool
	}{
		{"proper_case", "Jane Doe\nSoftware Engineer", "Jane Doe", true},
		{"proper_case", "Mary-Jane O'Neil", "Mary-Jane O'Neil", true},
		{"proper_case", "jane doe", "", false},
		{"proper_case", "Jane Doe 2024", "", false},
		{"proper_case", "Jane.Doe@example.com\nhttp://Jane Doe", "", false},
		{"proper_case", "Curriculum Vitae\nJohn Smith", "John Smith", true},
		{"all_caps", "JOHN SMITH", "JOHN SMITH", true},
		{"all_caps", "AL B", "", false},
		{"all_caps", "RESUME", "", false},
		{"honorific", "Dr. Priya Raman", "Priya Raman", true},
		{"honorific", "Ms Anne Lee", "Anne Lee", true},
		{"honorific", "Doctor Who", "", false},
		{"name_label", "Name: ravi kumar", "ravi kumar", true},
		{"name_label", "Full Name - A", "", false},
		{"name_label", "Name: R2D2", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.rule+"/"+tt.text, func(t *testing.T) {
			got, ok := ruleByName(t, usecase.NameRules, tt.rule).Apply(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNameRules_OnlyFirstTenLines(t *testing.T) {
	t.Parallel()
	text := "a1\nb2\nc3\nd4\ne5\nf6\ng7\nh8\ni9\nj10\nJane Doe"
	_, _, ok := usecase.FirstMatch(usecase.NameRules, text)
	assert.False(t, ok)
}

func TestNameRules_Order(t *testing.T) {
	t.Parallel()
	v, rule, ok := usecase.FirstMatch(usecase.NameRules, "Name: someone\nJANE DOE\nJane Doe")
	require.True(t, ok)
	assert.Equal(t, "proper_case", rule)
	assert.Equal(t, "Jane Doe", v)
}

func TestPhoneRules(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rule   string
		text   string
		want   string
		wantOK bool
	}{
		{"international", "Call +91 98765 43210 today", "+91 98765 43210", true},
		{"international", "+1 (555) 123-4567", "+1 (555) 123-4567", true},
		{"international", "555 123 4567", "", false},
		{"ten_digit", "Mobile: 9876543210", "9876543210", true},
		{"ten_digit", "91-9876543210", "91-9876543210", true},
		{"ten_digit", "12345", "", false},
		{"separated_groups", "(555) 123-4567", "(555) 123-4567", true},
		{"separated_groups", "555.123.4567", "555.123.4567", true},
		{"separated_groups", "2019 - 2023", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.rule+"/"+tt.text, func(t *testing.T) {
			got, ok := ruleByName(t, usecase.PhoneRules, tt.rule).Apply(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFieldExtractor_Extract(t *testing.T) {
	t.Parallel()
	e := usecase.FieldExtractor{Now: clock}
	text := "Jane Doe\nJane.Doe@Example.COM | +1 (555) 123-4567\nSenior Engineer"
	got := e.Extract(text)
	assert.Equal(t, domain.CandidateProfile{Name: "Jane Doe", Email: "jane.doe@example.com", Phone: "+1 (555) 123-4567"}, got)
}

func TestFieldExtractor_Defaults(t *testing.T) {
	t.Parallel()
	e := usecase.FieldExtractor{Now: clock}
	for _, text := range []string{"", "lorem ipsum dolor sit amet\nno contact here"} {
		got := e.Extract(text)
		assert.Equal(t, domain.DefaultName, got.Name)
		assert.Equal(t, domain.DefaultPhone, got.Phone)
		assert.Equal(t, usecase.PlaceholderEmail(fixedNow), got.Email)
		assert.Regexp(t, `^anonymous-\d+@example\.com$`, got.Email)
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a@b.com", usecase.NormalizeEmail("  A@B.com "))
}
