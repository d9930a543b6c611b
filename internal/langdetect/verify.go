package langdetect

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// NormalizeCode maps 3-letter ISO codes and English language names to the
// 2-letter tags used for routing. Unknown codes pass through lower-cased.
func NormalizeCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	switch code {
	case "jpn", "japanese":
		return "ja"
	case "vie", "vietnamese":
		return "vi"
	case "eng", "english":
		return "en"
	case "kor", "korean":
		return "ko"
	case "zho", "chi", "chinese":
		return "zh"
	}
	return code
}

// Verify corrects the language tag reported by a transcription engine.
//
// Script evidence in text overrides the engine tag, since engines often
// mislabel short or code-switched utterances. Without script evidence the
// normalized engine tag is kept. Blank text, or a missing engine tag, yields
// fallbackHint.
func Verify(text, engineLanguage, fallbackHint string) string {
	if strings.TrimSpace(text) == "" {
		return fallbackHint
	}

	if lang, ok := CountScripts(text).Dominant(); ok {
		return lang
	}

	normalized := NormalizeCode(engineLanguage)
	if normalized == "" {
		return fallbackHint
	}
	if IsPlainASCII(text) && normalized == "en" {
		return "en"
	}
	return normalized
}

// Name returns the English name of a language tag for use in prompts.
// Tags that cannot be parsed are returned unchanged.
func Name(code string) string {
	switch strings.ToLower(code) {
	case "ja":
		return "Japanese"
	case "vi":
		return "Vietnamese"
	case "en":
		return "English"
	case "ko":
		return "Korean"
	case "zh":
		return "Chinese"
	}

	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}
