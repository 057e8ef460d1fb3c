// Package sanitize strips markup from free-text review comments.
//
// The result keeps the human-readable text: tags, script and style bodies are
// removed and HTML entities are decoded. Sanitize is idempotent. It iterates
// strip-then-decode until the text stops changing, which also defeats
// entity-encoded markup such as "&lt;script&gt;". Escaped text that reads as a
// tag ("&lt;br&gt;") is removed like a real tag.
package sanitize

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// maxPasses bounds the HTML fixpoint loop; real input converges in two or
// three. Deeper entity nesting is finished by Fallback.
const maxPasses = 32

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy

	tagLike     = regexp.MustCompile(`<[^>]*>?`)
	scriptBlock = regexp.MustCompile(`(?is)<(script|style)\b[^>]*>.*?</(script|style)\s*>`)
)

func strictPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Sanitize returns text with all markup removed and surrounding whitespace
// trimmed. It never panics.
func Sanitize(text string) (clean string) {
	defer func() {
		if recover() != nil {
			clean = Fallback(text)
		}
	}()

	current := text
	for range maxPasses {
		next := html.UnescapeString(strictPolicy().Sanitize(current))
		if next == current {
			return strings.TrimSpace(next)
		}
		current = next
	}
	return Fallback(current)
}

// Fallback strips anything tag-like with regular expressions. It is used when
// the HTML pass panics or fails to converge. Every changing pass removes
// characters or shortens an entity, so the loop terminates, and its result
// contains no '<' and no decodable entity.
func Fallback(text string) string {
	current := text
	for {
		next := scriptBlock.ReplaceAllString(current, "")
		next = tagLike.ReplaceAllString(next, "")
		next = html.UnescapeString(next)
		if next == current {
			return strings.TrimSpace(current)
		}
		current = next
	}
}
