package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	obsctx "github.com/AbilashEG/smart-hr-intake/internal/observability"
	"github.com/AbilashEG/smart-hr-intake/pkg/textx"
)

// Job description defaults.
const (
	DefaultJDTitle      = "Not specified"
	DefaultJDSkills     = "Skills as described in the job description"
	DefaultJDExperience = "Experience requirement not specified"

	jdSkillsMaxChars = 400
	jdTitleMinLen    = 5
	jdTitleMaxLen    = 100
)

// Blob categories.
const (
	CategoryResumes         = "resumes"
	CategoryJobDescriptions = "job-descriptions"
)

// knownTitles are checked longest first so the most specific title wins.
var knownTitles = []string{
	"Senior Software Engineer",
	"Software Engineer",
	"Full Stack Developer",
	"Backend Developer",
	"Frontend Developer",
	"Data Scientist",
	"Data Engineer",
	"Machine Learning Engineer",
	"DevOps Engineer",
	"Cloud Engineer",
	"QA Engineer",
	"Product Manager",
	"Business Analyst",
}

var titlesBySpecificity = func() []string {
	out := append([]string(nil), knownTitles...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}()

var (
	reTitleLabel  = regexp.MustCompile(`(?im)^\s*(?:job\s+title|position|role|designation)\s*[:\-]\s*(.+)$`)
	reLookingFor  = regexp.MustCompile(`(?i)we\s+are\s+(?:looking|hiring|seeking)\s+(?:for\s+)?(?:an?\s+)?([A-Za-z][A-Za-z /&+#-]{3,99}?)(?:\s+(?:to|who|with|that|for)\b|[.,\n]|$)`)
	reRoleSuffix  = regexp.MustCompile(`\b((?:[A-Z][a-zA-Z+#]*\s+){0,3}(?:Engineer|Developer|Manager|Analyst|Architect|Designer|Scientist|Consultant|Specialist|Lead))\b`)
	reSkillsLabel = regexp.MustCompile(`(?is)(?:required\s+skills|skills\s+required|technical\s+skills|key\s+skills|must\s+have|requirements|qualifications)\s*[:\-]?\s*(.+?)(?:\n\s*\n|$)`)
	reYearsReq    = regexp.MustCompile(`(?i)(\d{1,2}\s*(?:-|to|–)\s*\d{1,2}|\d{1,2}\+?)\s*(?:years?|yrs?)`)
	reFresher     = regexp.MustCompile(`(?i)\b(?:fresher|freshers|entry[-\s]level|graduates?\s+welcome|no\s+experience\s+required)\b`)
	reCompanyLbl  = regexp.MustCompile(`(?im)^\s*(?:company|organi[sz]ation|department|employer)(?:\s+name)?\s*[:\-]\s*(.+)$`)
	reAboutCo     = regexp.MustCompile(`(?m)^\s*About\s+([A-Z][\w&.\- ]{1,60}?)\s*:?\s*$`)
)

// TitleRules extract the job title, most specific first.
var TitleRules = []FieldRule{
	{Name: "known_title", Apply: func(text string) (string, bool) {
		lower := strings.ToLower(text)
		for _, t := range titlesBySpecificity {
			if strings.Contains(lower, strings.ToLower(t)) {
				return t, true
			}
		}
		return "", false
	}},
	{Name: "title_label", Apply: submatchRule(reTitleLabel, plausibleTitle)},
	{Name: "looking_for", Apply: submatchRule(reLookingFor, plausibleTitle)},
	{Name: "role_suffix", Apply: submatchRule(reRoleSuffix, plausibleTitle)},
}

// SkillsRules extract the required skills.
var SkillsRules = []FieldRule{
	{Name: "skills_section", Apply: submatchRule(reSkillsLabel, func(s string) bool { return len(s) >= 10 })},
	{Name: "technology_anchors", Apply: func(text string) (string, bool) {
		found := MatchVocabulary(text)
		return strings.Join(found, ", "), len(found) > 0
	}},
}

// ExperienceRules extract the experience requirement.
var ExperienceRules = []FieldRule{
	{Name: "years", Apply: func(text string) (string, bool) {
		m := reYearsReq.FindString(text)
		return m, m != ""
	}},
	{Name: "fresher", Apply: func(text string) (string, bool) {
		if reFresher.MatchString(text) {
			return "Entry-level / Freshers", true
		}
		return "", false
	}},
}

// JDProcessor stores a job description and turns it into a structured record.
type JDProcessor struct {
	Blobs          domain.BlobStore
	Normalizer     TextNormalizer
	MinChars       int
	KnownCompanies []string
	DefaultCompany string
	Now            func() time.Time
}

// Process returns nil without error when no text could be extracted.
// A blob store failure is returned as an error.
func (p JDProcessor) Process(ctx context.Context, doc domain.RawDocument) (*domain.JobDescriptionRecord, error) {
	lg := obsctx.LoggerFromContext(ctx)
	ref, err := p.Blobs.Put(ctx, BlobKey(CategoryJobDescriptions, doc.Filename, p.now()), doc.Content, ContentTypeFor(doc.MediaType, doc.Content))
	if err != nil {
		return nil, fmt.Errorf("op=jd.store: %w", err)
	}
	extracted, err := p.Normalizer.Normalize(ctx, NormalizeRequest{Doc: doc, Blob: ref, MinChars: p.MinChars})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("op=jd.normalize: %w", ctx.Err())
		}
		lg.Warn("job description yielded no text", slog.String("key", ref.Key), slog.Any("error", err))
		return nil, nil
	}
	rec := p.Extract(extracted.Text)
	rec.Location = ref
	lg.Info("job description processed",
		slog.String("title", rec.Title),
		slog.String("method", extracted.Method))
	return &rec, nil
}

// Extract applies the JD rules to already extracted text.
func (p JDProcessor) Extract(text string) domain.JobDescriptionRecord {
	rec := domain.JobDescriptionRecord{
		Text:       text,
		Title:      DefaultJDTitle,
		Skills:     DefaultJDSkills,
		Experience: DefaultJDExperience,
		Company:    p.defaultCompany(),
	}
	if v, _, ok := FirstMatch(TitleRules, text); ok {
		rec.Title = v
	}
	if v, _, ok := FirstMatch(SkillsRules, text); ok {
		rec.Skills = textx.Truncate(collapseSpace(v), jdSkillsMaxChars)
	}
	if v, _, ok := FirstMatch(ExperienceRules, text); ok {
		rec.Experience = v
	}
	if v, _, ok := FirstMatch(p.companyRules(), text); ok {
		rec.Company = v
	}
	return rec
}

func (p JDProcessor) companyRules() []FieldRule {
	return []FieldRule{
		{Name: "known_company", Apply: func(text string) (string, bool) {
			lower := strings.ToLower(text)
			for _, c := range p.KnownCompanies {
				if c = strings.TrimSpace(c); c != "" && strings.Contains(lower, strings.ToLower(c)) {
					return c, true
				}
			}
			return "", false
		}},
		{Name: "company_label", Apply: submatchRule(reCompanyLbl, func(s string) bool { return len(s) >= 2 && len(s) <= 80 })},
		{Name: "about_company", Apply: submatchRule(reAboutCo, func(s string) bool {
			return !strings.EqualFold(s, "us") && !strings.EqualFold(s, "the role")
		})},
	}
}

func (p JDProcessor) defaultCompany() string {
	if p.DefaultCompany != "" {
		return p.DefaultCompany
	}
	return "Our Organization"
}

func (p JDProcessor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func plausibleTitle(s string) bool {
	return len(s) >= jdTitleMinLen && len(s) <= jdTitleMaxLen
}

func submatchRule(re *regexp.Regexp, valid func(string) bool) func(string) (string, bool) {
	return func(text string) (string, bool) {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			v := strings.TrimSpace(m[1])
			if v != "" && valid(v) {
				return v, true
			}
		}
		return "", false
	}
}

func collapseSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
