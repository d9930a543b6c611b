package langdetect

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		fallback string
		want     string
	}{
		{"hiragana", "こんにちは", "vi", "ja"},
		{"katakana", "コーヒー", "en", "ja"},
		{"common kanji counts as japanese", "日本語", "en", "ja"},
		{"vietnamese diacritics", "Xin chào các bạn", "en", "vi"},
		{"vietnamese upper case d-stroke", "Đi đâu", "en", "vi"},
		{"hangul", "안녕하세요", "en", "ko"},
		{"rare cjk extension A is chinese", "㐀㐁", "en", "zh"},
		{"cjk beyond common block is chinese", "龰", "en", "zh"},
		{"plain english", "Hello, how are you?", "vi", "en"},
		{"digits and punctuation", "42 - it's fine!", "ja", "en"},
		{"japanese wins over vietnamese", "こんにちは chào", "en", "ja"},
		{"vietnamese wins over korean", "chào 안녕", "en", "vi"},
		{"korean wins over chinese extension", "안녕 㐀", "en", "ko"},
		{"unknown script declines", "Привет", "xx", "xx"},
		{"symbols decline", "hello @ world", "vi", "vi"},
		{"empty text", "", "ja", "ja"},
		{"blank text", "   ", "ja", "ja"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.text, tt.fallback); got != tt.want {
				t.Errorf("Classify(%q, %q) = %q, want %q", tt.text, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestCountScripts(t *testing.T) {
	c := CountScripts("こんにちは 안녕 chào")

	if c.Japanese != 5 {
		t.Errorf("Japanese = %d, want 5", c.Japanese)
	}
	if c.Korean != 2 {
		t.Errorf("Korean = %d, want 2", c.Korean)
	}
	if c.Vietnamese != 1 {
		t.Errorf("Vietnamese = %d, want 1", c.Vietnamese)
	}
	if c.Chinese != 0 {
		t.Errorf("Chinese = %d, want 0", c.Chinese)
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"jpn", "ja"},
		{"Japanese", "ja"},
		{"vie", "vi"},
		{"vietnamese", "vi"},
		{"ENG", "en"},
		{"english", "en"},
		{"kor", "ko"},
		{"korean", "ko"},
		{"zho", "zh"},
		{"chi", "zh"},
		{"chinese", "zh"},
		{"FR", "fr"},
		{"  de ", "de"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeCode(tt.in); got != tt.want {
				t.Errorf("NormalizeCode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestVerify_ScriptEvidenceWins(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		engine string
		want   string
	}{
		{"japanese mislabeled english", "こんにちは", "en", "ja"},
		{"japanese mislabeled vietnamese", "ありがとう", "vietnamese", "ja"},
		{"vietnamese mislabeled japanese", "Cảm ơn bạn", "jpn", "vi"},
		{"korean mislabeled english", "감사합니다", "english", "ko"},
		{"chinese extension mislabeled korean", "㐀", "ko", "zh"},
		{"agreeing engine", "こんにちは", "ja", "ja"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Verify(tt.text, tt.engine, "xx"); got != tt.want {
				t.Errorf("Verify(%q, %q) = %q, want %q", tt.text, tt.engine, got, tt.want)
			}
		})
	}
}

func TestVerify_NoScriptEvidence(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		engine string
		hint   string
		want   string
	}{
		{"ascii keeps english", "Good morning", "english", "vi", "en"},
		{"ascii trusts engine", "Bonjour", "fr", "vi", "fr"},
		{"ascii normalizes 3-letter", "Hallo", "deu", "vi", "deu"},
		{"non-ascii trusts engine", "Привет", "RU", "vi", "ru"},
		{"missing engine tag uses hint", "Hello", "", "vi", "vi"},
		{"empty text uses hint", "", "en", "ja", "ja"},
		{"blank text uses hint", " \t", "en", "ja", "ja"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Verify(tt.text, tt.engine, tt.hint); got != tt.want {
				t.Errorf("Verify(%q, %q, %q) = %q, want %q", tt.text, tt.engine, tt.hint, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"ja", "Japanese"},
		{"VI", "Vietnamese"},
		{"en", "English"},
		{"ko", "Korean"},
		{"zh", "Chinese"},
		{"fr", "French"},
		{"not a tag!", "not a tag!"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := Name(tt.code); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}
