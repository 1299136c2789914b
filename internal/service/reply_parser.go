package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/avschaefer/cloudhire-ai-api/internal/domain/model"
)

// parseFailureRationale is the fixed rationale recorded when the oracle reply
// could not be parsed or carried no rationale.
const parseFailureRationale = "Grading failed - unable to parse AI response"

// maxRationaleLen bounds stored rationales, in runes.
const maxRationaleLen = 500

var scoreAliases = []string{"score", "grade", "rating"}

var rationaleAliases = []string{"rationale", "explanation", "feedback", "comment"}

// parsedReply is the defensive interpretation of one oracle reply.
type parsedReply struct {
	Score     float64
	Rationale string
}

// parseOracleReply interprets oracle output that should be a JSON object but
// may be malformed or wrapped in surrounding prose. Parse order: the full text
// as JSON, then the first brace-delimited substring, then give up with a
// zero score and the fixed parse-failure rationale. Score aliases and clamping
// follow the documented contract; rationales are truncated.
func parseOracleReply(text string) parsedReply {
	out := parsedReply{Score: 0, Rationale: parseFailureRationale}

	obj := decodeLooseJSON(text)
	if obj == nil {
		return out
	}

	for _, alias := range scoreAliases {
		value, ok := obj[alias]
		if !ok {
			continue
		}
		if score, scoreOK := toFloat(value); scoreOK {
			out.Score = model.ClampScore(score)
		}
		break
	}

	for _, alias := range rationaleAliases {
		value, ok := obj[alias]
		if !ok {
			continue
		}
		if rationale := toRationale(value); rationale != "" {
			out.Rationale = truncateRationale(rationale)
		}
		break
	}

	return out
}

// decodeLooseJSON parses text as a JSON object, falling back to the first
// brace-delimited substring. Returns nil when no object can be recovered.
func decodeLooseJSON(text string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		return obj
	}

	candidate := firstJSONObject(text)
	if candidate == "" {
		return nil
	}

	obj = nil
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil
	}
	return obj
}

// firstJSONObject extracts the first balanced brace-delimited substring of
// text. Braces inside string literals do not count toward the balance.
func firstJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString:
			if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toRationale(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func truncateRationale(rationale string) string {
	runes := []rune(rationale)
	if len(runes) <= maxRationaleLen {
		return rationale
	}
	return string(runes[:maxRationaleLen])
}
