package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"slices"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"content-ontology/internal/database"
	"content-ontology/internal/ontology"
)

// maxPromptText is how much page text the classifier sees
const maxPromptText = 4000

var textPolicy = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

// ExtractText strips markup from a page and collapses whitespace. Script
// and style contents are dropped.
func ExtractText(rawHTML string) string {
	if rawHTML == "" {
		return ""
	}
	text := html.UnescapeString(textPolicy.Sanitize(rawHTML))
	return strings.Join(strings.Fields(text), " ")
}

// Classification is the structured metadata the classifier returns
type Classification struct {
	Title           string            `json:"title"`
	ContentType     string            `json:"content_type"`
	PrimaryTopic    string            `json:"primary_topic"`
	SecondaryTopics []string          `json:"secondary_topics"`
	Entities        []database.Entity `json:"entities"`
	TargetAudience  []string          `json:"target_audience"`
	FunnelStage     string            `json:"funnel_stage"`
	KeyMessages     []string          `json:"key_messages"`
	WordCount       int               `json:"word_count"`
	Summary         string            `json:"summary"`
}

// Validate checks the enum fields and normalizes the topic
func (c *Classification) Validate() error {
	c.ContentType = strings.ToLower(strings.TrimSpace(c.ContentType))
	c.FunnelStage = strings.ToLower(strings.TrimSpace(c.FunnelStage))
	c.PrimaryTopic = strings.TrimSpace(c.PrimaryTopic)

	if !slices.Contains(ontology.ContentTypes, c.ContentType) {
		return fmt.Errorf("unknown content_type %q", c.ContentType)
	}
	if !slices.Contains(ontology.FunnelStages, c.FunnelStage) {
		return fmt.Errorf("unknown funnel_stage %q", c.FunnelStage)
	}
	if c.PrimaryTopic == "" {
		return fmt.Errorf("primary_topic is empty")
	}
	return nil
}

// Analysis converts the classification into the stored form
func (c *Classification) Analysis() *database.Analysis {
	entities := make([]database.Entity, 0, len(c.Entities))
	for _, e := range c.Entities {
		if strings.TrimSpace(e.Name) == "" {
			continue
		}
		entities = append(entities, e)
	}
	return &database.Analysis{
		Title:           c.Title,
		ContentType:     c.ContentType,
		PrimaryTopic:    c.PrimaryTopic,
		SecondaryTopics: c.SecondaryTopics,
		Entities:        entities,
		Audiences:       c.TargetAudience,
		FunnelStage:     c.FunnelStage,
		KeyMessages:     c.KeyMessages,
		WordCount:       c.WordCount,
		Summary:         c.Summary,
	}
}

// ParseClassification reads a classifier reply. Models sometimes wrap the
// JSON object in prose or code fences, so only the outermost object is
// decoded.
func ParseClassification(reply string) (*Classification, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in classifier reply")
	}

	var c Classification
	if err := json.Unmarshal([]byte(reply[start:end+1]), &c); err != nil {
		return nil, fmt.Errorf("failed to parse classifier reply: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var promptTemplate = template.Must(template.New("prompt").Parse(
	`Analyze this webpage from {{.Brand}}, {{.Domain}}, and extract structured metadata.

PATH: {{.Path}}

CONTENT:
{{.Text}}

Extract as JSON (no markdown, just valid JSON):
{
  "title": "page title",
  "content_type": "adventure|article|landing|listing|support",
  "primary_topic": "main topic",
  "secondary_topics": ["related topic 1", "related topic 2"],
  "entities": [
    {"name": "entity name", "type": "activity|location|feature|brand"}
  ],
  "target_audience": ["audience segment 1", "audience segment 2"],
  "funnel_stage": "awareness|consideration|decision",
  "key_messages": ["message 1", "message 2"],
  "word_count": <number>,
  "summary": "2-3 sentence summary"
}

Guidelines:
- content_type: "adventure" for bookable trips, "article" for magazine content, "landing" for index pages, "listing" for category pages, "support" for help pages
- funnel_stage: "awareness" for inspiration, "consideration" for trip details, "decision" for booking-ready pages
- Be specific with topics (e.g. "surf travel" not just "surfing")
- Extract locations mentioned as entities
`))

// Prompt builds the classification request for one page
func Prompt(brand, domain, path, text string) (string, error) {
	if len(text) > maxPromptText {
		// cut on a rune boundary
		n := maxPromptText
		for n > 0 && !utf8.RuneStart(text[n]) {
			n--
		}
		text = text[:n]
	}

	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, map[string]string{
		"Brand":  brand,
		"Domain": strings.ToLower(domain),
		"Path":   path,
		"Text":   text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
