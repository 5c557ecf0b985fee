package vanilla

import (
	"strings"
)

// controlID builds a document-unique id for a field control. instance
// separates two widgets rendering the same form on one page.
func controlID(formID, instance, name string) string {
	parts := []string{"clientt"}
	for _, part := range []string{formID, instance, name} {
		if token := idToken(part); token != "" {
			parts = append(parts, token)
		}
	}
	return strings.Join(parts, "-")
}

func idToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

func joinIDs(ids ...string) string {
	keep := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			keep = append(keep, id)
		}
	}
	return strings.Join(keep, " ")
}
