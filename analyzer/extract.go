package analyzer

import "github.com/mindtek/leadchat/domain"

// ExtractJSON locates the first top-level JSON object in free-form model
// text. Providers often wrap the structured payload in explanatory prose;
// only the first balanced {...} block is returned. Braces inside string
// literals are ignored.
func ExtractJSON(raw string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return raw[start : i+1], nil
				}
			}
		}
	}

	return "", &domain.MalformedOutputError{Raw: raw, Reason: "no JSON object found in response"}
}
