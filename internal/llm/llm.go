package llm

import "context"

// Translator defines the interface for translation providers.
type Translator interface {
	// Translate translates text from sourceLang to targetLang.
	// When the provider fails, the original text is returned with ok=false so
	// that captioning never blocks on translation.
	Translate(ctx context.Context, text, sourceLang, targetLang string) (translated string, ok bool)
}
