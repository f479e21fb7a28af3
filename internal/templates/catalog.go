// Package templates holds the localized prompt templates for every
// workflow stage and the catalog that resolves and renders them.
package templates

import (
	"fmt"
	"strings"
)

// Stage template keys
const (
	KeyClarifier = "clarifier"
	KeyGenerator = "generator"
	KeyEvaluator = "evaluator"
	KeyJudge     = "judge"
	KeyRefiner   = "refiner"
)

// Supported interaction languages
const (
	LangSpanish = "spanish"
	LangEnglish = "english"
)

var stageKeys = []string{KeyClarifier, KeyGenerator, KeyEvaluator, KeyJudge, KeyRefiner}

// Catalog is a static lookup of stage templates per language
type Catalog struct {
	byLanguage map[string]map[string]string
}

// NewCatalog builds the catalog and verifies every stage key exists for
// every supported language; a gap here is a build defect, not a runtime
// condition
func NewCatalog() (*Catalog, error) {
	c := &Catalog{
		byLanguage: map[string]map[string]string{
			LangSpanish: {
				KeyClarifier: esClarifier,
				KeyGenerator: esGenerator,
				KeyEvaluator: esEvaluator,
				KeyJudge:     esJudge,
				KeyRefiner:   esRefiner,
			},
			LangEnglish: {
				KeyClarifier: enClarifier,
				KeyGenerator: enGenerator,
				KeyEvaluator: enEvaluator,
				KeyJudge:     enJudge,
				KeyRefiner:   enRefiner,
			},
		},
	}

	for lang, set := range c.byLanguage {
		for _, key := range stageKeys {
			if strings.TrimSpace(set[key]) == "" {
				return nil, fmt.Errorf("template catalog missing %s/%s", lang, key)
			}
		}
	}

	return c, nil
}

// IsValidLanguage reports whether the language code is supported
func IsValidLanguage(language string) bool {
	l := strings.ToLower(strings.TrimSpace(language))
	return l == LangSpanish || l == LangEnglish
}

// Normalize maps any language code to a supported one, defaulting to
// Spanish for absent or unknown codes
func Normalize(language string) string {
	if IsValidLanguage(language) {
		return strings.ToLower(strings.TrimSpace(language))
	}
	return LangSpanish
}

// DisplayName returns the name used inside prompts that reference the
// interaction language
func DisplayName(language string) string {
	if Normalize(language) == LangEnglish {
		return "English"
	}
	return "Spanish"
}

// Get returns the template for a language and stage key
func (c *Catalog) Get(language, key string) (string, error) {
	set, ok := c.byLanguage[Normalize(language)]
	if !ok {
		return "", fmt.Errorf("no templates for language %q", language)
	}
	tmpl, ok := set[key]
	if !ok {
		return "", fmt.Errorf("no template %q for language %q", key, language)
	}
	return tmpl, nil
}

// Render fills {name} slots in the template for a language and stage key
func (c *Catalog) Render(language, key string, vars map[string]string) (string, error) {
	tmpl, err := c.Get(language, key)
	if err != nil {
		return "", err
	}

	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}

	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}
