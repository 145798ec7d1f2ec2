package utils

import "github.com/microcosm-cc/bluemonday"

var (
	strict = bluemonday.StrictPolicy()
	ugc    = bluemonday.UGCPolicy()
)

// SanitizeText strips all HTML. Post content and bios are plain text.
func SanitizeText(input string) string {
	return strict.Sanitize(input)
}

// SanitizeHTML keeps the user-generated-content subset of HTML.
func SanitizeHTML(input string) string {
	return ugc.Sanitize(input)
}
