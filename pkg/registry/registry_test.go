// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsCoverBothLanguages(t *testing.T) {
	reg := Defaults()

	ids := []string{
		TemplateRefusalAnalytics,
		TemplateRefusalAttribute,
		TemplateOutOfScope,
		TemplateGeneratorFallback,
	}
	for _, id := range ids {
		en, ok := reg.Get(id, "en")
		require.True(t, ok, "missing template %s", id)
		assert.NotEmpty(t, en)

		ar, ok := reg.Get(id, "ar")
		require.True(t, ok)
		assert.NotEmpty(t, ar)
		assert.NotEqual(t, en, ar, "template %s has identical en/ar text", id)
	}
}

func TestGetFallsBackToEnglish(t *testing.T) {
	reg := Defaults()

	// The system instruction only ships in English.
	en, ok := reg.Get(TemplateSystemInstruction, "ar")
	require.True(t, ok)
	assert.Contains(t, en, "ONLY questions related to the company's products")
}

func TestGetUnknownID(t *testing.T) {
	_, ok := Defaults().Get("no.such.template", "en")
	assert.False(t, ok)
}

func TestLoadRegistryOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	content := `{
		"version": "1.0",
		"templates": [
			{"id": "refusal.analytics", "category": "refusal", "text": {"en": "Staff only, sorry.", "ar": "للموظفين فقط."}},
			{"id": "greeting.hello", "category": "misc", "text": {"en": "Hello!"}}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	overridden, _ := reg.Get(TemplateRefusalAnalytics, "en")
	assert.Equal(t, "Staff only, sorry.", overridden)

	added, ok := reg.Get("greeting.hello", "en")
	require.True(t, ok)
	assert.Equal(t, "Hello!", added)

	// Untouched defaults remain.
	fallback, ok := reg.Get(TemplateGeneratorFallback, "ar")
	require.True(t, ok)
	assert.NotEmpty(t, fallback)
}

func TestLoadRegistryMissingFileUsesDefaults(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	text, ok := reg.Get(TemplateRefusalAnalytics, "en")
	require.True(t, ok)
	assert.Contains(t, text, "staff members")
}
