package extractors

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	ellipsisRe    = regexp.MustCompile(`[.]{3,}`)
	quoteRunRe    = regexp.MustCompile(`["']{2,}`)
	alnumRe       = regexp.MustCompile(`[a-zA-Z0-9]`)
	minMeaningful = 50
)

// CleanText collapses whitespace and tidies punctuation runs so chunk
// boundaries land on clean sentence breaks.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = ellipsisRe.ReplaceAllString(text, "...")
	text = quoteRunRe.ReplaceAllString(text, `"`)
	return strings.TrimSpace(text)
}

// IsMeaningful reports whether text is worth indexing: long enough and at
// least 30% alphanumeric. Scanned-image PDFs and decorative files fail
// this gate and are skipped during ingestion.
func IsMeaningful(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minMeaningful {
		return false
	}
	alnum := len(alnumRe.FindAllString(trimmed, -1))
	return alnum*10 >= len(trimmed)*3
}

// TitleFromPath derives a human-readable title from a file path.
func TitleFromPath(path string) string {
	filename := filepath.Base(path)
	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
