package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/innovorex/campuskb/internal/domain"
)

type mockRetriever struct {
	chunks []domain.Chunk
	err    error
	calls  int
}

func (m *mockRetriever) Retrieve(_ context.Context, _, _ string, _ int) ([]domain.Chunk, error) {
	m.calls++
	return m.chunks, m.err
}

// mockCompleter maps model name to a canned response or error.
type mockCompleter struct {
	responses map[string]string
	errs      map[string]error
	attempts  []string
	prompts   [][]domain.PromptMessage
}

func (m *mockCompleter) Complete(_ context.Context, model string, msgs []domain.PromptMessage) (string, error) {
	m.attempts = append(m.attempts, model)
	m.prompts = append(m.prompts, msgs)
	if err, ok := m.errs[model]; ok {
		return "", err
	}
	return m.responses[model], nil
}

type mockSessions struct {
	history  []domain.ChatMessage
	appended []domain.ChatMessage
}

func (m *mockSessions) History(_ string, n int) []domain.ChatMessage {
	if n > 0 && len(m.history) > n {
		return m.history[len(m.history)-n:]
	}
	return m.history
}

func (m *mockSessions) Append(_ string, msgs ...domain.ChatMessage) {
	m.appended = append(m.appended, msgs...)
}

func testConfig(models ...string) Config {
	return Config{
		Models:           models,
		AttemptTimeout:   time.Second,
		MinResponseChars: 5,
		HistoryMessages:  6,
		TopK:             3,
	}
}

func TestChat_GroundedAnswerWithSources(t *testing.T) {
	ret := &mockRetriever{chunks: []domain.Chunk{
		{DocumentID: "d1", DocumentTitle: "Syllabus", Content: "The exam is on June 3rd."},
		{DocumentID: "d1", DocumentTitle: "Syllabus", Content: "Bring a calculator."},
		{DocumentID: "d2", DocumentTitle: "Schedule", Content: "Room 204."},
	}}
	comp := &mockCompleter{responses: map[string]string{"model-a": "The exam is June 3rd in room 204."}}
	svc := New(ret, comp, &mockSessions{}, testConfig("model-a"), zap.NewNop())

	ans, err := svc.Chat(context.Background(), "s1", "p1", "c1", "when is the final exam?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if ans.Model != "model-a" {
		t.Errorf("model = %q, want model-a", ans.Model)
	}
	if len(ans.Sources) != 2 {
		t.Fatalf("sources = %+v, want 2 distinct documents", ans.Sources)
	}
	if ans.Sources[0].ID != "d1" || ans.Sources[1].ID != "d2" {
		t.Errorf("source order = %+v, want ranked [d1 d2]", ans.Sources)
	}

	// Context block precedes the user question.
	prompt := comp.prompts[0]
	last := prompt[len(prompt)-1]
	if last.Role != domain.RoleUser {
		t.Errorf("last prompt message role = %s, want user", last.Role)
	}
	ctxBlock := prompt[len(prompt)-2]
	if !strings.Contains(ctxBlock.Content, "June 3rd") || !strings.Contains(ctxBlock.Content, "Room 204") {
		t.Errorf("context block missing chunk content: %q", ctxBlock.Content)
	}
}

func TestChat_CasualSkipsRetrieval(t *testing.T) {
	ret := &mockRetriever{}
	comp := &mockCompleter{responses: map[string]string{"model-a": "Hello! How can I help?"}}
	svc := New(ret, comp, &mockSessions{}, testConfig("model-a"), zap.NewNop())

	ans, err := svc.Chat(context.Background(), "s1", "p1", "c1", "hi")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !ans.Casual {
		t.Error("message should classify as casual")
	}
	if ret.calls != 0 {
		t.Errorf("retriever called %d times for casual message", ret.calls)
	}
	if len(ans.Sources) != 0 {
		t.Errorf("casual answer has sources: %+v", ans.Sources)
	}
}

func TestChat_FallbackOrder(t *testing.T) {
	comp := &mockCompleter{
		errs:      map[string]error{"model-a": errors.New("timeout"), "model-b": errors.New("500")},
		responses: map[string]string{"model-c": "A complete answer from the last model."},
	}
	svc := New(&mockRetriever{}, comp, &mockSessions{}, testConfig("model-a", "model-b", "model-c"), zap.NewNop())

	ans, err := svc.Chat(context.Background(), "s1", "p1", "c1", "what is the grading policy?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if ans.Model != "model-c" {
		t.Errorf("model = %q, want model-c", ans.Model)
	}
	want := []string{"model-a", "model-b", "model-c"}
	if len(comp.attempts) != 3 {
		t.Fatalf("attempts = %v, want %v", comp.attempts, want)
	}
	for i, m := range want {
		if comp.attempts[i] != m {
			t.Errorf("attempt %d = %s, want %s", i, comp.attempts[i], m)
		}
	}
}

func TestChat_TooShortTriggersFallback(t *testing.T) {
	comp := &mockCompleter{responses: map[string]string{
		"model-a": "ok",
		"model-b": "A sufficiently long answer.",
	}}
	svc := New(&mockRetriever{}, comp, &mockSessions{}, testConfig("model-a", "model-b"), zap.NewNop())

	ans, err := svc.Chat(context.Background(), "s1", "p1", "c1", "explain the attendance rules?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if ans.Model != "model-b" {
		t.Errorf("model = %q, want model-b after short response", ans.Model)
	}
}

func TestChat_ExhaustionReturnsApology(t *testing.T) {
	comp := &mockCompleter{errs: map[string]error{
		"model-a": errors.New("down"),
		"model-b": errors.New("down"),
	}}
	sessions := &mockSessions{}
	svc := New(&mockRetriever{}, comp, sessions, testConfig("model-a", "model-b"), zap.NewNop())

	ans, err := svc.Chat(context.Background(), "s1", "p1", "c1", "when is the exam?")
	if err != nil {
		t.Fatalf("Chat must not fail on exhaustion: %v", err)
	}
	if ans.Text != FallbackAnswer {
		t.Errorf("text = %q, want fixed fallback", ans.Text)
	}
	if ans.Model != "" || len(ans.Sources) != 0 {
		t.Errorf("fallback answer should carry no model or sources: %+v", ans)
	}
	// The turn is still recorded.
	if len(sessions.appended) != 2 {
		t.Errorf("appended %d messages, want 2", len(sessions.appended))
	}
}

func TestChat_NoMaterialsMode(t *testing.T) {
	comp := &mockCompleter{responses: map[string]string{"model-a": "The materials do not cover that."}}
	svc := New(&mockRetriever{}, comp, &mockSessions{}, testConfig("model-a"), zap.NewNop())

	_, err := svc.Chat(context.Background(), "s1", "p1", "c1", "what does chapter 9 cover?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	system := comp.prompts[0][0]
	if !strings.Contains(system.Content, "No course materials matched") {
		t.Errorf("system prompt = %q, want no-materials mode", system.Content)
	}
}

func TestChat_RetrievalErrorDegrades(t *testing.T) {
	ret := &mockRetriever{err: errors.New("store down")}
	comp := &mockCompleter{responses: map[string]string{"model-a": "I could not find materials on that."}}
	svc := New(ret, comp, &mockSessions{}, testConfig("model-a"), zap.NewNop())

	ans, err := svc.Chat(context.Background(), "s1", "p1", "c1", "what is on the exam?")
	if err != nil {
		t.Fatalf("Chat must not fail when retrieval fails: %v", err)
	}
	if len(ans.Sources) != 0 {
		t.Errorf("sources = %+v, want none", ans.Sources)
	}
}

func TestChat_HistoryIncluded(t *testing.T) {
	sessions := &mockSessions{history: []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "earlier question"},
		{Role: domain.RoleAssistant, Content: "earlier answer"},
	}}
	comp := &mockCompleter{responses: map[string]string{"model-a": "Building on my earlier answer."}}
	svc := New(&mockRetriever{}, comp, sessions, testConfig("model-a"), zap.NewNop())

	if _, err := svc.Chat(context.Background(), "s1", "p1", "c1", "and what about labs?"); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	prompt := comp.prompts[0]
	var found bool
	for _, m := range prompt {
		if m.Content == "earlier question" {
			found = true
		}
	}
	if !found {
		t.Error("history not included in prompt")
	}
}

func TestChat_EmptyMessage(t *testing.T) {
	svc := New(&mockRetriever{}, &mockCompleter{}, &mockSessions{}, testConfig("model-a"), zap.NewNop())

	_, err := svc.Chat(context.Background(), "s1", "p1", "c1", "   ")
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestIsCasual(t *testing.T) {
	casual := []string{"hi", "Hello there", "thanks!", "good morning", "ok", "how are you"}
	for _, m := range casual {
		if !isCasual(m) {
			t.Errorf("%q should be casual", m)
		}
	}

	substantive := []string{
		"when is the final exam?",
		"explain the grading policy for the algebra course",
		"whatrooms?",
		"hi, when is the exam?",
		"hello, can you explain the attendance policy in detail please",
		"thanks, but what about the retake?",
	}
	for _, m := range substantive {
		if isCasual(m) {
			t.Errorf("%q should not be casual", m)
		}
	}
}

func TestSanitize(t *testing.T) {
	in := "## Answer\n**June 3rd** is the date.\n```text\nroom 204\n```\n<em>bring id</em>\n\n\n\nDone."
	got := sanitize(in)

	for _, artifact := range []string{"**", "##", "```", "<em>"} {
		if strings.Contains(got, artifact) {
			t.Errorf("sanitized output still contains %q: %q", artifact, got)
		}
	}
	if !strings.Contains(got, "June 3rd") || !strings.Contains(got, "room 204") {
		t.Errorf("sanitize dropped content: %q", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("blank-line runs not collapsed: %q", got)
	}
}
