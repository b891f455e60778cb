package validation

import "strings"

// SanitizeString collapses runs of whitespace and cuts the result to maxLen
// runes. maxLen <= 0 disables the cut.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) > maxLen {
		return strings.TrimSpace(string(runes[:maxLen]))
	}
	return trimmed
}

// SanitizeOptional is SanitizeString for optional fields; blank input becomes nil.
func SanitizeOptional(input *string, maxLen int) *string {
	if input == nil {
		return nil
	}
	value := SanitizeString(*input, maxLen)
	if value == "" {
		return nil
	}
	return &value
}
