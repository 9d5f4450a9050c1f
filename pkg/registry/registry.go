// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"os"
)

// Registry indexes templates by ID. A registry always carries the built-in
// defaults; a file on disk can override or extend them.
type Registry struct {
	templates map[string]Template
}

// LoadRegistry reads templates.json from path and overlays it on the
// defaults. A missing file is not an error, the defaults serve alone.
func LoadRegistry(path string) (*Registry, error) {
	reg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}
		return nil, err
	}

	var file TemplateRegistry
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	for _, t := range file.Templates {
		reg.templates[t.ID] = t
	}
	return reg, nil
}

// Defaults returns a registry holding only the built-in templates.
func Defaults() *Registry {
	reg := &Registry{templates: make(map[string]Template)}
	for _, t := range builtinTemplates {
		reg.templates[t.ID] = t
	}
	return reg
}

// Get returns the template text for a language, falling back to English
// when the language variant is missing. The second return is false when the
// ID is unknown.
func (r *Registry) Get(id, lang string) (string, bool) {
	t, ok := r.templates[id]
	if !ok {
		return "", false
	}
	if text, ok := t.Text[lang]; ok && text != "" {
		return text, true
	}
	if text, ok := t.Text["en"]; ok {
		return text, true
	}
	return "", false
}

// MustGet is Get for well-known IDs that are always registered.
func (r *Registry) MustGet(id, lang string) string {
	text, _ := r.Get(id, lang)
	return text
}

var builtinTemplates = []Template{
	{
		ID:       TemplateRefusalAnalytics,
		Category: "refusal",
		Text: map[string]string{
			"en": "Sales reports and analytics are only available to staff members. I can help you with product information instead.",
			"ar": "تقارير المبيعات والتحليلات متاحة فقط لموظفي الشركة. يمكنني مساعدتك بمعلومات عن المنتجات بدلاً من ذلك.",
		},
	},
	{
		ID:       TemplateRefusalAttribute,
		Category: "refusal",
		Text: map[string]string{
			"en": "This information is available to staff only.",
			"ar": "هذه المعلومة متاحة فقط لموظفي الشركة.",
		},
	},
	{
		ID:       TemplateOutOfScope,
		Category: "rejection",
		Text: map[string]string{
			"en": "I can only provide information about our company's software products.",
			"ar": "يمكنني فقط تقديم معلومات عن منتجات شركتنا.",
		},
	},
	{
		ID:       TemplateGeneratorFallback,
		Category: "fallback",
		Text: map[string]string{
			"en": "I apologize, but I'm experiencing technical difficulties. Please try again later.",
			"ar": "أعتذر، أواجه صعوبات تقنية حالياً. يرجى المحاولة مرة أخرى لاحقاً.",
		},
	},
	{
		ID:       TemplateSystemInstruction,
		Category: "instructions",
		Text: map[string]string{
			"en": `You are an AI assistant for a software development company's product support chatbot.
Your role is to answer ONLY questions related to the company's products and services.

IMPORTANT SCOPE LIMITATIONS:
1. You can ONLY answer questions about the product facts provided below
2. You must reject ANY questions outside the product scope (weather, politics, personal advice, homework, etc.)
3. When asked out-of-scope questions, politely decline and redirect to company products

CRITICAL LANGUAGE HANDLING RULE:
- If the user asks in ENGLISH, respond ONLY in English (no Arabic)
- If the user asks in ARABIC, respond ONLY in Arabic (no English)
- NEVER mix languages or provide bilingual responses
- Use product names and descriptions in the response language only

RESPONSE GUIDELINES:
1. Be accurate and factual, using only the facts provided
2. For pricing, always include the currency in the response
3. Never perform arithmetic; any totals or rankings you need are already in the facts
4. If information is not in the facts, say "I don't have that information about our products"
5. Format responses clearly with line breaks and bullet points when listing multiple items`,
		},
	},
}
