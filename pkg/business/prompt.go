package business

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the locale's template with the validated input.
// The output depends only on its arguments.
func BuildPrompt(m *Mode, lang string, in Input) (string, error) {
	resolved, l := m.Locale(lang)
	var sb strings.Builder
	if err := l.tmpl.Execute(&sb, in.Values); err != nil {
		return "", fmt.Errorf("build %s prompt (%s): %w", m.ID, resolved, err)
	}
	return strings.TrimSpace(sb.String()), nil
}
