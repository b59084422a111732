package grading

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// RawKind discriminates the shapes a model response can arrive in.
type RawKind int

const (
	// RawStructured is an already-built Correction value.
	RawStructured RawKind = iota + 1
	// RawText is free text, possibly fenced JSON, possibly prose.
	RawText
	// RawMapping is a decoded generic object.
	RawMapping
)

// RawOutput is the tagged variant handed to Normalize. Build one with
// RawFromCorrection, RawFromText, or RawFromMapping.
type RawOutput struct {
	kind       RawKind
	structured Correction
	text       string
	mapping    map[string]interface{}
	rationale  string
}

// RawFromCorrection wraps an already-structured correction.
func RawFromCorrection(c Correction) RawOutput {
	return RawOutput{kind: RawStructured, structured: c}
}

// RawFromText wraps a free-text model response.
func RawFromText(text string) RawOutput {
	return RawOutput{kind: RawText, text: text}
}

// RawFromMapping wraps a decoded generic object.
func RawFromMapping(m map[string]interface{}) RawOutput {
	return RawOutput{kind: RawMapping, mapping: m}
}

// WithRationale attaches an alternate rationale trace from the invocation,
// used when the parsed reasoning narrative is missing or too short.
func (r RawOutput) WithRationale(trace string) RawOutput {
	r.rationale = strings.TrimSpace(trace)
	return r
}

const (
	minReasoningLength = 24

	conversionFailureNote = "model output could not be converted into a structured correction"
)

const correctionSchemaJSON = `{
	"type": "object",
	"properties": {
		"reasoning": {
			"anyOf": [
				{"type": "string"},
				{"type": "array", "items": {"type": "string"}}
			]
		},
		"criteria_scores": {
			"type": "array",
			"items": {"type": "object"}
		},
		"total_score": {"type": "number"},
		"feedback": {"type": "string"}
	}
}`

var correctionSchema = jsonschema.MustCompileString("correction.schema.json", correctionSchemaJSON)

var scorePattern = regexp.MustCompile(`(?i)\b(?:total_score|total|score|nota|grade|pontua[cç][aã]o)\b\s*[:=]?\s*(\d+(?:[.,]\d+)?)`)

// Normalize converts any raw model response into a canonical Correction. It
// never fails: when no structured interpretation succeeds it falls back to a
// labeled-score extraction and finally to fallbackScore. The returned agent
// identifier is always the caller-supplied one, regardless of the payload.
func Normalize(raw RawOutput, agent AgentID, fallbackScore float64) Correction {
	var correction Correction

	switch raw.kind {
	case RawStructured:
		correction = raw.structured
	case RawText:
		correction = correctionFromText(raw.text, fallbackScore)
	case RawMapping:
		if c, ok := correctionFromMapping(raw.mapping); ok {
			correction = c
		} else {
			correction = Correction{
				Reasoning:  conversionFailureNote,
				TotalScore: fallbackScore,
			}
		}
	default:
		correction = Correction{
			Reasoning:  conversionFailureNote,
			TotalScore: fallbackScore,
		}
	}

	// Invariant: with per-criterion scores present, the total is their sum.
	if len(correction.CriteriaScores) > 0 {
		var sum float64
		for _, cs := range correction.CriteriaScores {
			sum += cs.Score
		}
		correction.TotalScore = sum
	}

	if len(strings.TrimSpace(correction.Reasoning)) < minReasoningLength && raw.rationale != "" {
		correction.Reasoning = raw.rationale
	}

	correction.AgentID = agent
	return correction
}

func correctionFromText(text string, fallbackScore float64) Correction {
	stripped := stripCodeFence(text)

	var decoded interface{}
	if err := json.Unmarshal([]byte(stripped), &decoded); err == nil {
		if mapping, ok := decoded.(map[string]interface{}); ok {
			if correction, ok := correctionFromMapping(mapping); ok {
				return correction
			}
		}
	}

	narrative := strings.TrimSpace(text)
	if narrative == "" {
		narrative = conversionFailureNote
	}

	if score, ok := extractLabeledScore(text); ok {
		return Correction{Reasoning: narrative, TotalScore: score}
	}

	return Correction{Reasoning: narrative, TotalScore: fallbackScore}
}

func correctionFromMapping(mapping map[string]interface{}) (Correction, bool) {
	if mapping == nil {
		return Correction{}, false
	}

	if err := correctionSchema.Validate(mapping); err != nil {
		return Correction{}, false
	}

	correction := Correction{
		Reasoning: coerceNarrative(firstValue(mapping, "reasoning", "rationale")),
		Feedback:  coerceString(firstValue(mapping, "feedback")),
	}

	total, hasTotal := toFloat(firstValue(mapping, "total_score", "total", "score", "nota"))
	if hasTotal {
		correction.TotalScore = total
	}

	rawCriteria, _ := firstValue(mapping, "criteria_scores", "criteria", "scores").([]interface{})
	for _, entry := range rawCriteria {
		entryMap, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		name := coerceString(firstValue(entryMap, "criterion", "name", "criteria"))
		score, scored := toFloat(firstValue(entryMap, "score", "points", "value"))
		if name == "" || !scored {
			continue
		}
		correction.CriteriaScores = append(correction.CriteriaScores, CriterionScore{Criterion: name, Score: score})
	}

	if !hasTotal && len(correction.CriteriaScores) == 0 {
		return Correction{}, false
	}

	return correction, true
}

// stripCodeFence removes surrounding markdown fences, including a leading
// language tag such as "json".
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 && !strings.HasPrefix(strings.TrimSpace(trimmed[:idx]), "{") {
		trimmed = trimmed[idx+1:]
	} else {
		trimmed = strings.TrimPrefix(trimmed, "json")
	}

	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func extractLabeledScore(text string) (float64, bool) {
	match := scorePattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}

	value := strings.ReplaceAll(match[1], ",", ".")
	score, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}

	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score, true
}

func firstValue(mapping map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if value, ok := mapping[key]; ok && value != nil {
			return value
		}
	}
	return nil
}

func coerceNarrative(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}

func coerceString(value interface{}) string {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", "."), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
