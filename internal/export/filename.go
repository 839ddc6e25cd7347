package export

import "strings"

// SafeFilename converts a deck title into a filesystem and header safe
// filename stem. Anything outside letters, digits, dash, and underscore
// becomes an underscore; empty titles fall back to "deck".
func SafeFilename(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "deck"
	}
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		default:
			b.WriteByte('_')
		}
	}
	cleaned := strings.Trim(b.String(), "_")
	if cleaned == "" {
		return "deck"
	}
	const maxLen = 64
	if len(cleaned) > maxLen {
		cleaned = cleaned[:maxLen]
	}
	return cleaned
}
