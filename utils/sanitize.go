package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips HTML from user-supplied free text before it is stored.
// Award descriptions are rendered verbatim by the UI.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
