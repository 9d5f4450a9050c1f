// pkg/registry/schema.go
package registry

// TemplateRegistry is the on-disk shape of configs/templates.json.
type TemplateRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Templates   []Template `json:"templates"`
}

// Template is one response text keyed by language code ("en", "ar"). The
// chat workers never hardcode user-facing strings; everything a user can
// read comes from a template.
type Template struct {
	ID       string            `json:"id"`
	Category string            `json:"category"`
	Text     map[string]string `json:"text"`
}

// Well-known template IDs.
const (
	TemplateRefusalAnalytics  = "refusal.analytics"
	TemplateRefusalAttribute  = "refusal.attribute"
	TemplateOutOfScope        = "rejection.out_of_scope"
	TemplateGeneratorFallback = "fallback.generator"
	TemplateSystemInstruction = "instructions.system"
)
