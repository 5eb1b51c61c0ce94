package processor

import "strings"

const (
	placeholderOpen  = "{{"
	placeholderClose = "}}"
)

// ReplacePlaceholders substitutes every {{key}} token whose key is in values
// and reports how many tokens were replaced. Keys are matched exactly after
// trimming spaces inside the braces, so {{price}} never touches
// {{price_total}}. Replacement values are not scanned again.
func ReplacePlaceholders(text string, values map[string]string) (string, int) {
	if !strings.Contains(text, placeholderOpen) {
		return text, 0
	}

	var sb strings.Builder
	replaced := 0
	pos := 0
	for {
		start := strings.Index(text[pos:], placeholderOpen)
		if start == -1 {
			break
		}
		start += pos
		end := strings.Index(text[start+len(placeholderOpen):], placeholderClose)
		if end == -1 {
			break
		}
		end += start + len(placeholderOpen)

		key := strings.TrimSpace(text[start+len(placeholderOpen) : end])
		value, ok := values[key]
		if !ok || strings.Contains(key, placeholderOpen) {
			// keep the first brace and rescan from the next byte
			sb.WriteString(text[pos : start+1])
			pos = start + 1
			continue
		}
		sb.WriteString(text[pos:start])
		sb.WriteString(value)
		pos = end + len(placeholderClose)
		replaced++
	}
	if replaced == 0 {
		return text, 0
	}
	sb.WriteString(text[pos:])
	return sb.String(), replaced
}

// FindPlaceholders returns the distinct keys of well-formed {{key}} tokens
// in order of first appearance.
func FindPlaceholders(text string) []string {
	var keys []string
	seen := make(map[string]bool)
	pos := 0
	for {
		start := strings.Index(text[pos:], placeholderOpen)
		if start == -1 {
			break
		}
		start += pos
		end := strings.Index(text[start+len(placeholderOpen):], placeholderClose)
		if end == -1 {
			break
		}
		end += start + len(placeholderOpen)

		key := strings.TrimSpace(text[start+len(placeholderOpen) : end])
		if key == "" || strings.ContainsAny(key, "{}") {
			pos = start + 1
			continue
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		pos = end + len(placeholderClose)
	}
	return keys
}

// ApplyPlaceholders substitutes values into every paragraph and returns the
// number of tokens replaced. Paragraphs without matches are not rewritten.
func (d *Document) ApplyPlaceholders(values map[string]string) int {
	total := 0
	for _, p := range d.Paragraphs() {
		text, n := ReplacePlaceholders(p.Text(), values)
		if n == 0 {
			continue
		}
		p.SetText(text)
		total += n
	}
	return total
}

// Placeholders returns the distinct placeholder keys across all paragraphs.
func (d *Document) Placeholders() []string {
	var keys []string
	seen := make(map[string]bool)
	for _, p := range d.Paragraphs() {
		for _, key := range FindPlaceholders(p.Text()) {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	return keys
}
