package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
)

// Analyzer defaults.
const (
	DefaultProjects     = "Various technical projects"
	DefaultInterest     = "Software Development"
	DefaultIndustry     = "Technology"
	DefaultAchievements = "Consistent delivery of quality work"

	LeadershipYes = "Has demonstrated leadership and mentoring experience"
	LeadershipNo  = "Individual contributor with collaborative team experience"
)

type vocabTerm struct {
	display string
	re      *regexp.Regexp
}

func term(display string, aliases ...string) vocabTerm {
	if len(aliases) == 0 {
		aliases = []string{strings.ToLower(display)}
	}
	quoted := make([]string, len(aliases))
	for i, a := range aliases {
		quoted[i] = regexp.QuoteMeta(a)
	}
	// boundaries exclude + and # so "c" never matches inside "c++"
	return vocabTerm{
		display: display,
		re:      regexp.MustCompile(`(?i)(?:^|[^a-z0-9+#])(?:` + strings.Join(quoted, "|") + `)(?:$|[^a-z0-9+#])`),
	}
}

// techVocabulary is matched case-insensitively on word boundaries.
var techVocabulary = []vocabTerm{
	term("Python"),
	term("Java"),
	term("JavaScript"),
	term("TypeScript"),
	{display: "Go", re: regexp.MustCompile(`(?:^|[^A-Za-z0-9+#])(?:Go|Golang|golang)(?:$|[^A-Za-z0-9+#])`)},
	term("C++"),
	term("C#"),
	term("Rust"),
	term("React", "react", "react.js", "reactjs"),
	term("Angular"),
	term("Node.js", "node.js", "nodejs"),
	term("SQL"),
	term("PostgreSQL", "postgresql", "postgres"),
	term("MongoDB"),
	term("AWS"),
	term("Azure"),
	term("GCP", "gcp", "google cloud"),
	term("Docker"),
	term("Kubernetes", "kubernetes", "k8s"),
	term("Terraform"),
	term("Linux"),
	term("Machine Learning", "machine learning", "ml"),
	term("Data Science"),
	term("DevOps"),
	term("HTML", "html", "html5"),
	term("CSS", "css", "css3"),
}

var industryVocabulary = []vocabTerm{
	term("Finance", "fintech", "finance", "banking", "financial"),
	term("Healthcare", "healthcare", "medical", "hospital", "pharma"),
	term("E-commerce", "e-commerce", "ecommerce", "retail"),
	term("Education", "education", "edtech", "e-learning"),
	term("Telecommunications", "telecom", "telecommunications"),
	term("Gaming", "gaming", "game development"),
	term("Automotive", "automotive"),
	term("Insurance", "insurance", "insurtech"),
	term("Logistics", "logistics", "supply chain"),
	term("Manufacturing", "manufacturing"),
	term("Media", "media", "entertainment", "publishing"),
	term("Energy", "energy", "oil and gas", "renewable"),
	term("Government", "government", "public sector"),
	term("Cybersecurity", "cybersecurity", "cyber security", "infosec"),
	term("Real Estate", "real estate", "proptech"),
	term("Travel", "travel", "hospitality"),
}

var (
	reProjectPhrase     = regexp.MustCompile(`(?i)\b(?:projects?|built|developed|created|implemented|designed)\b\s*[:\-]?\s*([^\n.;]+)`)
	reAchievementPhrase = regexp.MustCompile(`(?i)\b(?:achieved|awarded|award|won|recognized|improved|increased|reduced)\b\s*[:\-]?\s*([^\n.;]+)`)
	reYearsExperience   = regexp.MustCompile(`(?i)(\d{1,2})\+?\s*(?:years?|yrs?)\s+(?:of\s+)?(?:\w+\s+)?(?:experience|exp)\b`)
	reSeniorKeyword     = regexp.MustCompile(`(?i)\b(?:senior|sr|lead|principal|staff|architect|manager|head of)\b`)
	reJuniorKeyword     = regexp.MustCompile(`(?i)\b(?:junior|jr|intern|internship|fresher|graduate|trainee|entry[-\s]level)\b`)
	reYear              = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	reLeadership        = regexp.MustCompile(`(?i)\b(?:led|lead|leading|managed|mentor(?:ed|ing)?|supervised|team lead|head of|spearheaded|coordinated)\b`)
	reAdvancedDegree    = regexp.MustCompile(`(?i)\b(?:ph\.?d|doctorate|masters?|m\.?tech|m\.?sc|mba)\b`)
	reDegree            = regexp.MustCompile(`(?i)\b(?:bachelors?|b\.?tech|b\.e|b\.?sc|degree|university|college)\b`)
)

// AnalyzeProfile derives the secondary profile. Every field gets a default.
func AnalyzeProfile(text string) domain.AnalyzedProfile {
	p := domain.AnalyzedProfile{
		Projects:     DefaultProjects,
		Interests:    []string{DefaultInterest},
		CareerLevel:  careerLevel(text),
		Industry:     DefaultIndustry,
		Leadership:   LeadershipNo,
		Education:    educationTier(text),
		Achievements: DefaultAchievements,
	}
	if projects := phrases(reProjectPhrase, text, 10, 150, 3); len(projects) > 0 {
		p.Projects = strings.Join(projects, ", ")
		p.ProjectsMatched = true
	}
	if achievements := phrases(reAchievementPhrase, text, 10, 100, 2); len(achievements) > 0 {
		p.Achievements = strings.Join(achievements, ", ")
	}
	if interests := MatchVocabulary(text); len(interests) > 0 {
		p.Interests = interests
		p.SkillsMatched = true
	}
	for _, ind := range industryVocabulary {
		if ind.re.MatchString(text) {
			p.Industry = ind.display
			break
		}
	}
	if reLeadership.MatchString(text) {
		p.HasLeadership = true
		p.Leadership = LeadershipYes
	}
	return p
}

// MatchVocabulary returns every technology term present in text, in vocabulary order.
func MatchVocabulary(text string) []string {
	var out []string
	for _, t := range techVocabulary {
		if t.re.MatchString(text) {
			out = append(out, t.display)
		}
	}
	return out
}

func phrases(re *regexp.Regexp, text string, minLen, maxLen, limit int) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		v := strings.TrimSpace(m[1])
		if n := len(v); n < minLen || n > maxLen {
			continue
		}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}

func careerLevel(text string) string {
	if m := reYearsExperience.FindStringSubmatch(text); m != nil {
		years, _ := strconv.Atoi(m[1])
		switch {
		case years > 7:
			return domain.CareerSenior
		case years > 3:
			return domain.CareerMid
		default:
			return domain.CareerEntry
		}
	}
	if reSeniorKeyword.MatchString(text) {
		return domain.CareerSenior
	}
	if reJuniorKeyword.MatchString(text) {
		return domain.CareerEntry
	}
	if len(reYear.FindAllString(text, -1)) > 4 {
		return domain.CareerExperienced
	}
	return domain.CareerMid
}

func educationTier(text string) string {
	switch {
	case reAdvancedDegree.MatchString(text):
		return domain.EducationAdvanced
	case reDegree.MatchString(text):
		return domain.EducationBachelor
	default:
		return domain.EducationTechnical
	}
}
