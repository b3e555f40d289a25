package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	"github.com/AbilashEG/smart-hr-intake/pkg/textx"
)

// FieldRule is a named best-effort extractor over resume text.
type FieldRule struct {
	Name  string
	Apply func(text string) (string, bool)
}

// nameScanLines is how far from the top of a resume a name is looked for.
const nameScanLines = 10

var (
	reProperCase = regexp.MustCompile(`^[A-Z][a-z'][a-zA-Z'-]*(?:\s+[A-Z][a-z'][a-zA-Z'-]*)+$`)
	reAllCaps    = regexp.MustCompile(`^[A-Z][A-Z'.-]*(?:\s+[A-Z][A-Z'.-]*)+$`)
	reHonorific  = regexp.MustCompile(`^(?:Mr|Mrs|Ms|Miss|Dr|Prof)\.?\s+([A-Z][a-zA-Z'-]+(?:\s+[A-Z][a-zA-Z'-]+)*)$`)
	reNameLabel  = regexp.MustCompile(`(?i)^(?:full\s+)?name\s*[:\-]\s*(.+)$`)
	reDigit      = regexp.MustCompile(`\d`)

	reEmail = regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)

	rePhoneIntl     = regexp.MustCompile(`\+\d{1,3}[\s.-]?\(?\d{1,4}\)?(?:[\s.-]?\d{2,5}){2,4}`)
	rePhoneTenDigit = regexp.MustCompile(`(?:\+?\d{1,3}[\s-]?)?\b\d{10}\b`)
	rePhoneGroups   = regexp.MustCompile(`(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
)

// NameRules are tried in order; the first rule to match any candidate line wins.
var NameRules = []FieldRule{
	{Name: "proper_case", Apply: lineRule(func(l string) (string, bool) {
		return l, reProperCase.MatchString(l)
	})},
	{Name: "all_caps", Apply: lineRule(func(l string) (string, bool) {
		n := len(l)
		return l, n >= 5 && n <= 40 && reAllCaps.MatchString(l)
	})},
	{Name: "honorific", Apply: lineRule(func(l string) (string, bool) {
		m := reHonorific.FindStringSubmatch(l)
		if m == nil {
			return "", false
		}
		return m[1], true
	})},
	{Name: "name_label", Apply: lineRule(func(l string) (string, bool) {
		m := reNameLabel.FindStringSubmatch(l)
		if m == nil {
			return "", false
		}
		v := strings.TrimSpace(m[1])
		return v, len(v) >= 2 && len(v) <= 60
	})},
}

// EmailRules holds the single address pattern.
var EmailRules = []FieldRule{
	{Name: "email", Apply: func(text string) (string, bool) {
		m := reEmail.FindString(text)
		return strings.ToLower(m), m != ""
	}},
}

// PhoneRules are tried in order over the whole text.
var PhoneRules = []FieldRule{
	{Name: "international", Apply: regexRule(rePhoneIntl)},
	{Name: "ten_digit", Apply: regexRule(rePhoneTenDigit)},
	{Name: "separated_groups", Apply: regexRule(rePhoneGroups)},
}

// FirstMatch returns the value and rule name of the first rule that matches.
func FirstMatch(rules []FieldRule, text string) (value, rule string, ok bool) {
	for _, r := range rules {
		if v, ok := r.Apply(text); ok {
			return strings.TrimSpace(v), r.Name, true
		}
	}
	return "", "", false
}

// FieldExtractor derives the candidate identity from resume text. It never fails.
type FieldExtractor struct {
	Now func() time.Time
}

// Extract applies the name, email and phone rules, falling back to defaults.
func (e FieldExtractor) Extract(text string) domain.CandidateProfile {
	p := domain.CandidateProfile{Name: domain.DefaultName, Phone: domain.DefaultPhone}
	if v, _, ok := FirstMatch(NameRules, text); ok {
		p.Name = v
	}
	if v, _, ok := FirstMatch(EmailRules, text); ok {
		p.Email = v
	} else {
		p.Email = PlaceholderEmail(e.now())
	}
	if v, _, ok := FirstMatch(PhoneRules, text); ok {
		p.Phone = v
	}
	return p
}

func (e FieldExtractor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// PlaceholderEmail is the synthetic key used when a resume has no address.
func PlaceholderEmail(t time.Time) string {
	return fmt.Sprintf("anonymous-%d@example.com", t.UnixMilli())
}

// NormalizeEmail canonicalizes a candidate key.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// headingWords mark section titles that look like names.
var headingWords = []string{"resume", "curriculum", "vitae", "profile", "summary", "objective", "contact", "experience", "education", "skills"}

// nameCandidate reports whether a line could hold a name at all.
func nameCandidate(l string) bool {
	lower := strings.ToLower(l)
	if strings.Contains(l, "@") || strings.Contains(lower, "http") || reDigit.MatchString(l) {
		return false
	}
	for _, w := range headingWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

func lineRule(match func(line string) (string, bool)) func(string) (string, bool) {
	return func(text string) (string, bool) {
		for _, l := range textx.FirstLines(text, nameScanLines) {
			if !nameCandidate(l) {
				continue
			}
			if v, ok := match(l); ok {
				return v, true
			}
		}
		return "", false
	}
}

func regexRule(re *regexp.Regexp) func(string) (string, bool) {
	return func(text string) (string, bool) {
		m := re.FindString(text)
		return m, m != ""
	}
}
