package model

import "math"

// Band is the coarse pass/fail classification derived from the overall score.
type Band string

const (
	// BandPass indicates the overall score met the pass threshold.
	BandPass Band = "Pass"
	// BandFail indicates the overall score fell below the pass threshold.
	BandFail Band = "Fail"
)

// PassThreshold is the minimum overall score classified as a pass.
const PassThreshold = 0.7

// BandForScore returns the band for an overall score.
func BandForScore(score float64) Band {
	if score >= PassThreshold {
		return BandPass
	}
	return BandFail
}

// Result tags marking degraded grading paths.
const (
	// TagAPIError marks a single answer whose oracle call failed.
	TagAPIError = "api_error"
	// TagLocalFallback marks answers graded by the local placeholder grader.
	TagLocalFallback = "local_fallback"
)

// GradeResult is the graded outcome for one answer. Immutable once persisted.
type GradeResult struct {
	QuestionType string   `json:"question_type"`
	QuestionID   int      `json:"question_id"`
	Section      *string  `json:"section"`
	Score        float64  `json:"score"`
	Rationale    string   `json:"rationale"`
	Tags         []string `json:"tags"`
}

// Tagged reports whether the result carries the given tag.
func (r *GradeResult) Tagged(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// OverallResult aggregates per-question scores for one job.
type OverallResult struct {
	Score float64 `json:"score"`
	Band  Band    `json:"band"`
	Notes string  `json:"notes"`
}

// CostRecord accumulates oracle token usage and its USD estimate for one job.
type CostRecord struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	USD          float64 `json:"usd"`
}

// Add accumulates another cost record into this one.
func (c *CostRecord) Add(other CostRecord) {
	c.InputTokens += other.InputTokens
	c.OutputTokens += other.OutputTokens
	c.USD = roundUSD(c.USD + other.USD)
}

// ClampScore forces a score into [0, 1].
func ClampScore(score float64) float64 {
	return math.Max(0, math.Min(1, score))
}

// MeanScore returns the arithmetic mean of per-question scores, 0 when empty.
func MeanScore(results []GradeResult) float64 {
	if len(results) == 0 {
		return 0
	}
	total := 0.0
	for i := range results {
		total += results[i].Score
	}
	return total / float64(len(results))
}

// roundUSD rounds a USD amount to 6 decimal places.
func roundUSD(usd float64) float64 {
	return math.Round(usd*1e6) / 1e6
}

// USDForTokens computes the USD estimate for a token count at a per-million price.
func USDForTokens(tokens int, pricePerMillion float64) float64 {
	return float64(tokens) / 1e6 * pricePerMillion
}

// CostForUsage builds a cost record for one oracle call.
func CostForUsage(inputTokens, outputTokens int, inputPrice, outputPrice float64) CostRecord {
	return CostRecord{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		USD:          roundUSD(USDForTokens(inputTokens, inputPrice) + USDForTokens(outputTokens, outputPrice)),
	}
}
