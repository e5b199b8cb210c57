package llm

import (
	"strings"

	"github.com/PabloGalante/advocate/internal/domain"
)

const systemPrompt = `
You write short advocacy messages from a constituent to their members of Congress.

Rules:
- Write in the first person as the constituent.
- State the position clearly in the first sentence.
- Stay factual; use only the bill information provided.
- 120 to 250 words, plain text, no subject line, no placeholders in brackets.
- Weave in the personal details provided naturally; never invent others.
- Close with a polite request for the member's vote.
- Do not sign the message; the signature is added separately.
`

// DefaultTone is used when the request names none.
const DefaultTone = "respectful"

var tones = map[string]string{
	"respectful": "Courteous and measured.",
	"urgent":     "Direct and pressing, without being rude.",
	"personal":   "Warm, leaning on how the bill affects the writer.",
	"formal":     "Formal, as in a letter to an official.",
}

// Prompt represents the system prompt + the content to send as "user".
type Prompt struct {
	System string
	User   string
}

// BuildPrompt builds the system prompt and the user content from a
// generation request.
func BuildPrompt(req domain.GenerationRequest) Prompt {
	tone := strings.ToLower(strings.TrimSpace(req.Tone))
	guide, ok := tones[tone]
	if !ok {
		tone, guide = DefaultTone, tones[DefaultTone]
	}

	var b strings.Builder
	b.WriteString("Position: ")
	b.WriteString(stanceVerb(req.Stance))
	b.WriteString("\n")

	if req.BillTitle != "" {
		b.WriteString("Bill: ")
		b.WriteString(req.BillTitle)
		b.WriteString("\n")
	}
	if req.BillSummary != "" && req.BillSummary != domain.NoSummaryText {
		b.WriteString("Summary: ")
		b.WriteString(req.BillSummary)
		b.WriteString("\n")
	}
	if req.MemberName != "" {
		b.WriteString("Addressed to: ")
		b.WriteString(req.MemberName)
		b.WriteString("\n")
	}

	b.WriteString("Tone: ")
	b.WriteString(tone)
	b.WriteString(". ")
	b.WriteString(guide)
	b.WriteString("\n")

	var personal []string
	for _, k := range domain.FieldCatalog {
		// Name and address go in the signature block, not the body.
		if k == domain.FieldFullName || k == domain.FieldAddress {
			continue
		}
		if v := req.PersonalData[k]; v != "" {
			personal = append(personal, "- "+k.Label()+": "+v)
		}
	}
	if len(personal) > 0 {
		b.WriteString("About the writer:\n")
		b.WriteString(strings.Join(personal, "\n"))
		b.WriteString("\n")
	}

	return Prompt{
		System: systemPrompt,
		User:   b.String(),
	}
}

func stanceVerb(s domain.Stance) string {
	if s == domain.StanceOppose {
		return "oppose"
	}
	return "support"
}
