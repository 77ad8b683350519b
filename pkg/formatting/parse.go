package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const fence = "```"

// ErrParseFailed is returned when content cannot be parsed as JSON,
// either directly, after fence stripping, or from an embedded code fence.
var ErrParseFailed = errors.New("failed to parse response")

var jsonBlockRegex = regexp.MustCompile(`(?s)` + fence + `(?:json)?\s*\n?(.*?)\n?` + fence)

// StripFences removes one leading and one trailing code fence line from
// model output. The leading line is dropped whole, so a language tag such
// as "```json" goes with it. Content without fences is returned trimmed.
func StripFences(content string) string {
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, fence) {
		if _, rest, ok := strings.Cut(s, "\n"); ok {
			s = rest
		} else {
			s = strings.TrimPrefix(s, fence)
		}
	}

	if strings.HasSuffix(s, fence) {
		if i := strings.LastIndex(s, "\n"); i >= 0 {
			s = s[:i]
		} else {
			s = strings.TrimSuffix(s, fence)
		}
	}

	return strings.TrimSpace(s)
}

// Parse attempts to unmarshal content as JSON into T.
// It tries the content as-is, then with surrounding fence lines stripped,
// then the first fenced block found anywhere in the content.
// Returns ErrParseFailed if every attempt fails.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	if stripped := StripFences(content); stripped != content {
		if err := json.Unmarshal([]byte(stripped), &result); err == nil {
			return result, nil
		}
	}

	matches := jsonBlockRegex.FindStringSubmatch(content)
	if len(matches) >= 2 {
		cleaned := strings.TrimSpace(matches[1])
		if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
			return result, nil
		}
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, content)
}
