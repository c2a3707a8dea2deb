package transcript

// TruncatedContent pairs a possibly shortened string with the length
// of the original, so callers can tell how much was cut.
type TruncatedContent struct {
	Content        string
	OriginalLength int
	Truncated      bool
}

// Truncate shortens content to at most limit runes, appending "..."
// when anything was cut. Lengths count runes, not bytes, so multi-byte
// text never splits mid-character.
func Truncate(content string, limit int) TruncatedContent {
	if limit < 0 {
		limit = 0
	}
	runes := []rune(content)
	n := len(runes)
	if n <= limit {
		return TruncatedContent{Content: content, OriginalLength: n}
	}
	return TruncatedContent{
		Content:        string(runes[:limit]) + "...",
		OriginalLength: n,
		Truncated:      true,
	}
}
