package ontology

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

// Templates holds the parsed recommendation lookup tables
type Templates struct {
	gapRecommendations map[string]*template.Template
	titlePatterns      map[string][]*template.Template
	keyElements        map[string]map[string][]string
	linkContext        *template.Template
	brief              *template.Template
}

type templatesFile struct {
	GapRecommendations  map[string]string              `yaml:"gap_recommendations"`
	TitlePatterns       map[string][]string            `yaml:"title_patterns"`
	KeyElements         map[string]map[string][]string `yaml:"key_elements"`
	InternalLinkContext string                         `yaml:"internal_link_context"`
	Brief               string                         `yaml:"brief"`
}

// templateData is the data every lookup template is executed with
type templateData struct {
	Topic string
	Title string
	Brand string
}

// briefData is the data the brief text template is executed with
type briefData struct {
	templateData
	Type           string
	TypeTitle      string
	Stage          string
	Audience       string
	ExistingCount  int
	EntityNames    []string
	KnownAudiences []string
}

var templateFuncs = template.FuncMap{"join": strings.Join}

// LoadTemplates parses the embedded lookup tables
func LoadTemplates() (*Templates, error) {
	return ParseTemplates(templatesYAML)
}

// ParseTemplates parses lookup tables from YAML
func ParseTemplates(data []byte) (*Templates, error) {
	var f templatesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	if _, ok := f.TitlePatterns[ContentTypeArticle]; !ok {
		return nil, fmt.Errorf("templates must define article title patterns")
	}
	if len(f.KeyElements[ContentTypeArticle][StageConsideration]) == 0 {
		return nil, fmt.Errorf("templates must define article/consideration key elements")
	}

	t := &Templates{
		gapRecommendations: make(map[string]*template.Template),
		titlePatterns:      make(map[string][]*template.Template),
		keyElements:        f.KeyElements,
	}

	for stage, text := range f.GapRecommendations {
		tmpl, err := parse("gap_"+stage, text)
		if err != nil {
			return nil, err
		}
		t.gapRecommendations[stage] = tmpl
	}

	for contentType, patterns := range f.TitlePatterns {
		for i, text := range patterns {
			tmpl, err := parse(fmt.Sprintf("title_%s_%d", contentType, i), text)
			if err != nil {
				return nil, err
			}
			t.titlePatterns[contentType] = append(t.titlePatterns[contentType], tmpl)
		}
	}

	var err error
	if t.linkContext, err = parse("internal_link_context", f.InternalLinkContext); err != nil {
		return nil, err
	}
	if t.brief, err = parse("brief", f.Brief); err != nil {
		return nil, err
	}

	return t, nil
}

func parse(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return tmpl, nil
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}

// GapRecommendation joins the recommendation of every missing stage
func (t *Templates) GapRecommendation(topic, brand string, missing []string) (string, error) {
	data := newTemplateData(topic, brand)
	var recs []string
	for _, stage := range missing {
		tmpl, ok := t.gapRecommendations[stage]
		if !ok {
			continue
		}
		rec, err := render(tmpl, data)
		if err != nil {
			return "", err
		}
		recs = append(recs, rec)
	}
	return strings.Join(recs, ". "), nil
}

// TitlePatterns returns title suggestions for a content type
func (t *Templates) TitlePatterns(topic, contentType, brand string) ([]string, error) {
	patterns, ok := t.titlePatterns[contentType]
	if !ok {
		patterns = t.titlePatterns[ContentTypeArticle]
	}

	data := newTemplateData(topic, brand)
	titles := make([]string, 0, len(patterns))
	for _, tmpl := range patterns {
		title, err := render(tmpl, data)
		if err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	return titles, nil
}

// KeyElements returns the checklist for a content type and funnel stage
func (t *Templates) KeyElements(contentType, stage string) []string {
	if elements, ok := t.keyElements[contentType][stage]; ok {
		return slices.Clone(elements)
	}
	return slices.Clone(t.keyElements[ContentTypeArticle][StageConsideration])
}

// LinkContext describes why a page is suggested as an internal link
func (t *Templates) LinkContext(stage string) (string, error) {
	return render(t.linkContext, struct{ Stage string }{stage})
}

// BriefText renders the markdown brief
func (t *Templates) BriefText(d briefData) (string, error) {
	return render(t.brief, d)
}

func newTemplateData(topic, brand string) templateData {
	return templateData{Topic: topic, Title: capitalize(topic), Brand: brand}
}

// capitalize upper-cases the first letter of s
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
