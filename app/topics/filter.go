package topics

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Semior001/yayopedia/app/store"
	"github.com/samber/lo"
)

const (
	minContentLen = 10
	maxContentLen = 500
)

var (
	stampRe    = regexp.MustCompile(`^\[スタンプ\]$`)
	urlRe      = regexp.MustCompile(`^https?://`)
	dateOnlyRe = regexp.MustCompile(`^[0-9]+月[0-9]+日`)
	timeOnlyRe = regexp.MustCompile(`^[0-9]+:[0-9]+$`)

	kanaRe = regexp.MustCompile(`[あ-ん]|[ア-ン]`)
	// matches strings without a single hiragana, katakana, kanji or CJK symbol
	noJapaneseRe = regexp.MustCompile(`^[^\x{3040}-\x{309F}\x{30A0}-\x{30FF}\x{4E00}-\x{9FAF}\x{3041}-\x{3096}\x{30A1}-\x{30FA}\x{30FC}\x{3000}-\x{303F}]+$`)
)

// Accept reports whether the message content is substantial enough to be
// shown as an article.
func Accept(content string) bool {
	content = strings.TrimSpace(content)

	if n := utf8.RuneCountInString(content); n < minContentLen || n > maxContentLen {
		return false
	}

	if stampRe.MatchString(content) ||
		urlRe.MatchString(content) ||
		dateOnlyRe.MatchString(content) ||
		timeOnlyRe.MatchString(content) {
		return false
	}

	hasSentence := strings.ContainsAny(content, "。！？")
	return hasSentence && kanaRe.MatchString(content) && !noJapaneseRe.MatchString(content)
}

// Filter keeps messages that pass Accept, preserving their order.
func Filter(msgs []store.RawMessage) []store.RawMessage {
	return lo.Filter(msgs, func(m store.RawMessage, _ int) bool { return Accept(m.Content) })
}
