package templates

import "strings"

// SafeFormat substitutes {name} placeholders in text with vars[name].
// Unknown names become "". {{ and }} are literal braces. A brace group whose
// content is not an identifier (JSON in a user template, say) is left as is.
func SafeFormat(text string, vars map[string]string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			b.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			b.WriteByte('}')
			i += 2
		case c == '{':
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				b.WriteString(text[i:])
				return b.String()
			}
			name := text[i+1 : i+1+end]
			if !isIdentifier(name) {
				b.WriteByte(c)
				i++
				continue
			}
			b.WriteString(vars[name])
			i += end + 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// Placeholders lists the distinct placeholder names in text, in order of appearance.
func Placeholders(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		if i+1 < len(text) && text[i+1] == '{' {
			i++
			continue
		}
		end := strings.IndexByte(text[i+1:], '}')
		if end < 0 {
			break
		}
		name := text[i+1 : i+1+end]
		if isIdentifier(name) && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
