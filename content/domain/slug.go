package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Runs of anything that is not a word character, Thai script, or hyphen
// collapse into a single hyphen. Thai titles keep their original script in
// the slug rather than being stripped to nothing.
var slugStripRegex = regexp.MustCompile(`[^\w\p{Thai}-]+`)

var slugDedupeRegex = regexp.MustCompile(`-{2,}`)

// GenerateSlug derives a URL-safe identifier from a title, unique against
// existingSlugs. Collisions are resolved by appending -1, -2, ... to the
// base. A title with no usable characters falls back to a timestamped slug,
// so the result is always non-empty.
func GenerateSlug(title string, existingSlugs map[string]struct{}) string {
	base := strings.ToLower(title)
	base = slugStripRegex.ReplaceAllString(base, "-")
	base = slugDedupeRegex.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")

	if base == "" {
		base = fmt.Sprintf("post-%d", time.Now().UnixMilli())
	}

	if _, taken := existingSlugs[base]; !taken {
		return base
	}

	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if _, taken := existingSlugs[candidate]; !taken {
			return candidate
		}
	}
}
