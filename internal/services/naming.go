package services

import (
	"fmt"
	"strings"
	"time"
)

const dayLayout = "060102"

// DayKey is the YYMMDD calendar day a document is counted under.
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// DocumentFilename returns YYMMDD-N_TemplateName.docx.
func DocumentFilename(day string, sequence int, templateName string) string {
	return fmt.Sprintf("%s-%d_%s.docx", day, sequence, safeName(templateName))
}

func safeName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if mapped == "" {
		return "document"
	}
	return mapped
}
