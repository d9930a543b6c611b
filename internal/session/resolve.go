package session

import "strings"

// ResolveTarget picks the language to translate into.
//
// With a configured pair the target is always the other member: Second when
// verified equals First, otherwise First. A verified language matching
// neither member therefore resolves to First.
//
// Without a pair, a verified language equal to the hint is translated to
// OppositeLanguage(hint); any other verified language is translated to the
// hint itself.
func (s *Store) ResolveTarget(id, verified, hint string) string {
	if pair, ok := s.Pair(id); ok {
		if strings.EqualFold(verified, pair.First) {
			return pair.Second
		}
		return pair.First
	}

	if strings.EqualFold(verified, hint) {
		return OppositeLanguage(hint)
	}
	return hint
}

// OppositeLanguage is the default translation direction for a session without
// a configured pair.
func OppositeLanguage(lang string) string {
	switch strings.ToLower(lang) {
	case "vi":
		return "ja"
	case "ja":
		return "vi"
	case "en":
		return "vi"
	default:
		return "en"
	}
}
