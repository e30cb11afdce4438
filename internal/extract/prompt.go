package extract

import (
	"fmt"
	"strings"
)

const systemMessage = "You extract medical trainees (residents and fellows) from roster pages. Respond with strict JSON only, no narration, no code fences. The JSON schema is {\"providers\": [{\"name\": string, \"specialty\": string, \"trainingYear\": string, \"confidence\": number, \"email\": string|null, \"phone\": string|null, \"location\": string|null, \"evidenceSnippet\": string}]}. Only include people whose names appear in the text. Never include program directors, coordinators, faculty, chiefs, attendings or professors. evidenceSnippet MUST be copied verbatim from the text and be at most 120 characters. Use trainingYear values like PGY-1. If nobody qualifies return {\"providers\": []}."

func buildUserPrompt(text string, opts Options, limit int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Return at most %d providers.", limit))
	if hint := strings.TrimSpace(opts.SpecialtyHint); hint != "" {
		sb.WriteString("\nSpecialty hint: ")
		sb.WriteString(hint)
		sb.WriteString(" (use it when the text does not name a specialty)")
	}
	if opts.RequireDegree {
		sb.WriteString("\nOnly include people listed with an MD, DO or MBBS degree.")
	}
	sb.WriteString("\n\nText:\n")
	sb.WriteString(text)
	return sb.String()
}
