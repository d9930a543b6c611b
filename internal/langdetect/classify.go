// Package langdetect guesses the language of a transcript from the scripts
// its characters belong to, and uses that signal to correct the language tag
// reported by a transcription engine.
package langdetect

import (
	"regexp"
	"strings"
)

// ScriptCounts holds the number of characters of a text falling into each
// script class. The Japanese and Chinese classes overlap on the common CJK
// ideograph block.
type ScriptCounts struct {
	Japanese   int
	Vietnamese int
	Korean     int
	Chinese    int
}

// vietnameseLetters are the letters that only appear with Vietnamese diacritics.
const vietnameseLetters = "àáảãạăắằẳẵặâấầẩẫậèéẻẽẹêếềểễệìíỉĩịòóỏõọôốồổỗộơớờởỡợùúủũụưứừửữựỳýỷỹỵđ" +
	"ÀÁẢÃẠĂẮẰẲẴẶÂẤẦẨẪẬÈÉẺẼẸÊẾỀỂỄỆÌÍỈĨỊÒÓỎÕỌÔỐỒỔỖỘƠỚỜỞỠỢÙÚỦŨỤƯỨỪỬỮỰỲÝỶỸỴĐ"

var vietnameseSet = func() map[rune]struct{} {
	m := make(map[rune]struct{}, len(vietnameseLetters)/2)
	for _, r := range vietnameseLetters {
		m[r] = struct{}{}
	}
	return m
}()

// plainASCII matches text made only of ASCII letters, digits, whitespace and
// basic punctuation.
var plainASCII = regexp.MustCompile(`^[a-zA-Z0-9\s.,!?'-]+$`)

func isJapanese(r rune) bool {
	return (r >= 0x3040 && r <= 0x309F) || // Hiragana
		(r >= 0x30A0 && r <= 0x30FF) || // Katakana
		(r >= 0x4E00 && r <= 0x9FAF) // common CJK ideographs
}

func isKorean(r rune) bool {
	return (r >= 0xAC00 && r <= 0xD7A3) || // Hangul syllables
		(r >= 0x1100 && r <= 0x11FF) || // Hangul Jamo
		(r >= 0x3130 && r <= 0x318F) // compatibility Jamo
}

func isChinese(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || (r >= 0x3400 && r <= 0x4DBF)
}

// CountScripts counts the characters of text in each script class.
func CountScripts(text string) ScriptCounts {
	var c ScriptCounts
	for _, r := range text {
		if isJapanese(r) {
			c.Japanese++
		}
		if _, ok := vietnameseSet[r]; ok {
			c.Vietnamese++
		}
		if isKorean(r) {
			c.Korean++
		}
		if isChinese(r) {
			c.Chinese++
		}
	}
	return c
}

// Dominant returns the language tag of the first non-empty script class in
// the order Japanese, Vietnamese, Korean, Chinese. The order is a tie-break,
// not a confidence ranking. ok is false when no class matched.
func (c ScriptCounts) Dominant() (lang string, ok bool) {
	switch {
	case c.Japanese > 0:
		return "ja", true
	case c.Vietnamese > 0:
		return "vi", true
	case c.Korean > 0:
		return "ko", true
	case c.Chinese > 0:
		return "zh", true
	}
	return "", false
}

// IsPlainASCII reports whether text consists solely of ASCII letters, digits,
// whitespace and basic punctuation.
func IsPlainASCII(text string) bool {
	return plainASCII.MatchString(text)
}

// Classify returns the best-guess language tag of text. When no script
// matches and the text is not plain ASCII, fallback is returned unchanged.
func Classify(text, fallback string) string {
	if strings.TrimSpace(text) == "" {
		return fallback
	}
	if lang, ok := CountScripts(text).Dominant(); ok {
		return lang
	}
	if IsPlainASCII(text) {
		return "en"
	}
	return fallback
}
