package chat

import (
	"regexp"
	"strings"

	"github.com/innovorex/campuskb/internal/domain"
)

const systemPrompt = `You are a helpful academic assistant for a school's knowledge base. ` +
	`Answer questions using the provided course materials. Be concise and factual. ` +
	`If the materials do not cover the question, say so instead of guessing.`

const noMaterialsPrompt = `You are a helpful academic assistant for a school's knowledge base. ` +
	`No course materials matched the student's question. Acknowledge that the ` +
	`materials do not cover it and suggest asking the course staff. Do not invent content.`

const casualPrompt = `You are a friendly academic assistant for a school's knowledge base. ` +
	`Respond naturally and briefly to the student's message.`

const contextDelimiter = "\n\n---\n\n"

// casualMaxLen bounds how long a message can be and still count as small talk.
const casualMaxLen = 25

// Anchored to the whole message: a greeting that leads into a real
// question ("hi, when is the exam?") must not count as small talk.
var casualPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(hi|hello|hey|yo|sup)(\s+there)?[\s!.]*$`),
	regexp.MustCompile(`(?i)^good\s+(morning|afternoon|evening|night)[\s!.]*$`),
	regexp.MustCompile(`(?i)^(thanks|thank\s+you|thx|ty)(\s+(so\s+much|a\s+lot))?[\s!.]*$`),
	regexp.MustCompile(`(?i)^(ok|okay|cool|nice|great|bye|goodbye|see\s+you)[\s!.]*$`),
	regexp.MustCompile(`(?i)^how\s+are\s+you[\s!.?]*$`),
}

// isCasual reports whether the message is small talk that should skip
// retrieval: a greeting/thanks pattern covering the whole message, or a
// short utterance with no question mark.
func isCasual(message string) bool {
	m := strings.TrimSpace(message)
	if m == "" {
		return true
	}
	for _, p := range casualPatterns {
		if p.MatchString(m) {
			return true
		}
	}
	return len(m) <= casualMaxLen && !strings.Contains(m, "?")
}

// buildPrompt assembles the message sequence for one completion attempt.
// Retrieved chunks, when present, form a context block injected before the
// question; history is already bounded by the caller.
func buildPrompt(message string, chunks []domain.Chunk, history []domain.ChatMessage, casual bool) []domain.PromptMessage {
	var msgs []domain.PromptMessage

	switch {
	case casual:
		msgs = append(msgs, domain.PromptMessage{Role: domain.RoleSystem, Content: casualPrompt})
	case len(chunks) == 0:
		msgs = append(msgs, domain.PromptMessage{Role: domain.RoleSystem, Content: noMaterialsPrompt})
	default:
		msgs = append(msgs, domain.PromptMessage{Role: domain.RoleSystem, Content: systemPrompt})
	}

	for _, h := range history {
		msgs = append(msgs, domain.PromptMessage{Role: h.Role, Content: h.Content})
	}

	if !casual && len(chunks) > 0 {
		parts := make([]string, len(chunks))
		for i, c := range chunks {
			parts[i] = c.Content
		}
		msgs = append(msgs, domain.PromptMessage{
			Role:    domain.RoleSystem,
			Content: "Course materials:\n\n" + strings.Join(parts, contextDelimiter),
		})
	}

	msgs = append(msgs, domain.PromptMessage{Role: domain.RoleUser, Content: message})
	return msgs
}

var sanitizers = []struct {
	re   *regexp.Regexp
	with string
}{
	{regexp.MustCompile("```[a-zA-Z]*\\n?"), ""},
	{regexp.MustCompile(`\*\*([^*]+)\*\*`), "$1"},
	{regexp.MustCompile(`(?m)^#{1,6}\s+`), ""},
	{regexp.MustCompile(`</?[a-zA-Z][^>]*>`), ""},
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
}

// sanitize strips residual markup artifacts from a model response.
func sanitize(answer string) string {
	out := answer
	for _, s := range sanitizers {
		out = s.re.ReplaceAllString(out, s.with)
	}
	return strings.TrimSpace(out)
}
