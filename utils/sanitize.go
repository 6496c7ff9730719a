package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans HTML before it is persisted. Article descriptions carry
// rich text authored in the admin UI and are served verbatim to readers,
// so they go through the UGC policy on every write.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
