package matcher

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// Tokenize 小写后按非单词字符切分
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
}

// vectorizerTokens 至少两个字符的词，并剔除停用词
func vectorizerTokens(text string, stop StopWords) []string {
	raw := Tokenize(text)
	out := raw[:0]
	for _, tok := range raw {
		if utf8.RuneCountInString(tok) < 2 || stop.Contains(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}
