package summarize

import (
	"strings"
	"unicode"
)

// SplitSentences splits text after '.', '!' or '?' runs followed by whitespace, and at
// blank lines. Decimal points such as "4.5" do not end a sentence.
func SplitSentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	flush := func(end int) {
		s := strings.Join(strings.Fields(string(runes[start:end])), " ")
		if s != "" {
			out = append(out, s)
		}
		start = end
	}
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\n' && i+1 < len(runes) && runes[i+1] == '\n' {
			flush(i)
			continue
		}
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		j := i
		for j+1 < len(runes) && strings.ContainsRune(".!?\"')", runes[j+1]) {
			j++
		}
		if j+1 == len(runes) || unicode.IsSpace(runes[j+1]) {
			flush(j + 1)
			i = j
		}
	}
	flush(len(runes))
	return out
}
