package classify

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

	pyTrue  = regexp.MustCompile(`\bTrue\b`)
	pyFalse = regexp.MustCompile(`\bFalse\b`)
	pyNone  = regexp.MustCompile(`\bNone\b`)

	keyPrefixPattern = regexp.MustCompile(`^\s*\w+\s*=\s*`)
)

// ExtractJSON pulls the JSON object out of a model reply. Models wrap
// payloads in prose, code fences, "key=" prefixes, and Python literals;
// all of that is stripped before the result is handed to the decoder.
func ExtractJSON(reply string) (string, error) {
	s := reply
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = keyPrefixPattern.ReplaceAllString(s, "")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in reply")
	}
	s = s[start : end+1]

	s = pyTrue.ReplaceAllString(s, "true")
	s = pyFalse.ReplaceAllString(s, "false")
	s = pyNone.ReplaceAllString(s, "null")

	return s, nil
}
