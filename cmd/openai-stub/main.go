// Command openai-stub is a deterministic OpenAI-compatible server for local
// runs and end-to-end checks. It "extracts" anyone listed as
// "<Name>, MD|DO|MBBS" in the prompt text.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/rosterscan/internal/heuristic"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type stubProvider struct {
	Name            string  `json:"name"`
	Specialty       string  `json:"specialty"`
	TrainingYear    string  `json:"trainingYear"`
	Confidence      float64 `json:"confidence"`
	EvidenceSnippet string  `json:"evidenceSnippet"`
}

var (
	credentialLineRe = regexp.MustCompile(`([A-Z][\p{L}'.-]+(?:\s+[A-Z][\p{L}'.-]+)+),\s*(?:M\.?D\.?|D\.?O\.?|MBBS)\b`)
	hintRe           = regexp.MustCompile(`(?m)^Specialty hint: (.+?) \(`)
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model)); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		var sys, user string
		for _, m := range req.Messages {
			switch m.Role {
			case "system":
				sys = m.Content
			case "user":
				user = m.Content
			}
		}
		if !strings.Contains(sys, "Respond with strict JSON only") {
			http.Error(w, "unexpected system", http.StatusBadRequest)
			return
		}
		b, _ := json.Marshal(map[string]any{"providers": scanProviders(user)})
		log.Debug().Int("prompt_len", len(user)).Msg("chat completion")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "stub",
			"object": "chat.completion",
			"model":  model,
			"choices": []map[string]any{
				{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": string(b)}},
			},
		})
	})
	return mux
}

// scanProviders finds credentialed names in the text part of a user prompt.
// The year comes from the matching line or the one after it.
func scanProviders(prompt string) []stubProvider {
	hint := ""
	if m := hintRe.FindStringSubmatch(prompt); m != nil {
		hint = m[1]
	}
	text := prompt
	if i := strings.Index(prompt, "\n\nText:\n"); i >= 0 {
		text = prompt[i+len("\n\nText:\n"):]
	}
	lines := strings.Split(text, "\n")
	out := []stubProvider{}
	for i, line := range lines {
		m := credentialLineRe.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		snippet := strings.TrimSpace(line)
		if len(snippet) > 120 {
			snippet = strings.TrimSpace(line[m[0]:m[1]])
		}
		near := line
		if i+1 < len(lines) {
			near += " " + lines[i+1]
		}
		out = append(out, stubProvider{
			Name:            line[m[2]:m[3]],
			Specialty:       hint,
			TrainingYear:    heuristic.InferTrainingYear(near),
			Confidence:      0.9,
			EvidenceSnippet: snippet,
		})
	}
	return out
}
