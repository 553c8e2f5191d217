package configstore

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// maxSanitizePasses bounds nested entity encodings such as "&amp;lt;b&amp;gt;".
const maxSanitizePasses = 8

var (
	strictOnce   sync.Once
	strictPolicy *bluemonday.Policy
)

func policy() *bluemonday.Policy {
	strictOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// Sanitize strips markup from the display fields of c: the app name and
// every checkpoint title and description. URLs, the key prefix and the
// payload script are returned verbatim.
func Sanitize(c Configuration) Configuration {
	out := c.Clone()
	out.AppName = plainText(out.AppName)
	for i := range out.Checkpoints {
		out.Checkpoints[i].Title = plainText(out.Checkpoints[i].Title)
		out.Checkpoints[i].Description = plainText(out.Checkpoints[i].Description)
	}
	return out
}

// bluemonday escapes what it keeps; the API serves JSON, so entities are
// folded back into plain text. Unescaping can surface markup that was
// entity-encoded, so the pass repeats until the text is stable.
func plainText(s string) string {
	if s == "" {
		return s
	}
	for i := 0; i < maxSanitizePasses; i++ {
		next := strings.TrimSpace(html.UnescapeString(policy().Sanitize(s)))
		if next == s {
			break
		}
		s = next
	}
	return s
}
