package budget

import (
    "math"
    "strings"
)

// MinOutputTokens is the smallest response ceiling handed to the model; below
// it a JSON roster for even a handful of people would be truncated.
const MinOutputTokens = 256

// EstimateTokensFromChars converts a character count into an estimated token
// count using a conservative heuristic (~4 chars per token in English). The
// result is always at least 1 when chars > 0.
func EstimateTokensFromChars(charCount int) int {
    if charCount <= 0 {
        return 0
    }
    return int(math.Ceil(float64(charCount) / 4.0))
}

// EstimateTokens returns the estimated token count of a string.
func EstimateTokens(s string) int {
    return EstimateTokensFromChars(len(s))
}

// EstimatePromptTokens estimates the tokens of a system plus user message.
func EstimatePromptTokens(system string, user string) int {
    return EstimateTokens(system) + EstimateTokens(user)
}

// ModelContextTokens returns an estimated maximum context window for a given
// model name. Unknown models fall back to a sensible default.
func ModelContextTokens(modelName string) int {
    name := strings.ToLower(strings.TrimSpace(modelName))
    if name == "" {
        return 8192
    }
    if v, ok := knownModelMax[name]; ok {
        return v
    }
    switch {
    case strings.HasSuffix(name, "1m"):
        return 1_000_000
    case strings.HasSuffix(name, "200k"):
        return 200_000
    case strings.HasSuffix(name, "128k"):
        return 128_000
    case strings.HasSuffix(name, "32k"):
        return 32_768
    case strings.Contains(name, "-mini"):
        // Many "mini" models expose large contexts nowadays, assume 128k.
        return 128_000
    }
    return 8192
}

// HeadroomTokens returns a conservative safety margin for tokenizer and
// message framing overheads: the larger of 5% of the context or 512 tokens.
func HeadroomTokens(modelName string) int {
    dyn := int(math.Ceil(float64(ModelContextTokens(modelName)) * 0.05))
    if dyn < 512 {
        return 512
    }
    return dyn
}

// OutputCeiling returns the max_tokens value for a call whose prompt is
// estimated at promptTokens: the wanted ceiling, reduced to what remains of
// the model context after headroom, and never below MinOutputTokens.
func OutputCeiling(modelName string, promptTokens int, want int) int {
    remaining := ModelContextTokens(modelName) - HeadroomTokens(modelName) - promptTokens
    out := want
    if out <= 0 || out > remaining {
        out = remaining
    }
    if out < MinOutputTokens {
        return MinOutputTokens
    }
    return out
}

// knownModelMax contains rough context sizes for common model identifiers.
// These are best-effort and do not need to be exhaustive.
var knownModelMax = map[string]int{
    "gpt-4o":            128_000,
    "gpt-4o-mini":       128_000,
    "gpt-4.1":           1_000_000,
    "gpt-4.1-mini":      1_000_000,
    "gpt-4-turbo":       128_000,
    "gpt-3.5-turbo":     16_384,
    "llama-3":           8_192,
    "llama-3.1":         128_000,
    "gpt-oss-20b":       4_096,
    "openai/gpt-oss-20b": 4_096,
}
