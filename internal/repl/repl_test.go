package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/mwiater/jusbot/internal/models"
	"github.com/mwiater/jusbot/internal/session"
)

type stubProvider struct {
	text  string
	err   error
	calls []session.Request
}

func (p *stubProvider) Generate(_ context.Context, req session.Request) (string, error) {
	p.calls = append(p.calls, req)
	return p.text, p.err
}

func newSession(t *testing.T, p session.Provider) *session.Session {
	t.Helper()
	c := session.ConnectorFunc(func(context.Context, string) (session.Provider, error) { return p, nil })
	s, err := session.Initialize(context.Background(), "test-key", c)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return s
}

func runLoop(t *testing.T, p *stubProvider, input string) (string, *Loop) {
	t.Helper()
	var out bytes.Buffer
	l := New(newSession(t, p), Options{
		In:                strings.NewReader(input),
		Out:               &out,
		SystemInstruction: "You are Jusbot.",
	})
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String(), l
}

func TestRun_PromptAndQuit(t *testing.T) {
	p := &stubProvider{text: "Jus means law."}
	out, _ := runLoop(t, p, "what is law\nquit\n")

	if len(p.calls) != 1 {
		t.Fatalf("expected one request, got %d", len(p.calls))
	}
	call := p.calls[0]
	if call.Prompt != "what is law" || call.Model != models.DefaultFast || call.SystemInstruction != "You are Jusbot." {
		t.Fatalf("unexpected request: %+v", call)
	}
	if !strings.Contains(out, "Jus means law.") {
		t.Fatalf("expected reply in output, got:\n%s", out)
	}
	if !strings.Contains(out, FarewellQuit) {
		t.Fatalf("expected farewell in output, got:\n%s", out)
	}
}

func TestRun_ReservedWordsAreCaseInsensitive(t *testing.T) {
	for _, word := range []string{" QUIT ", "quit", "Quit", "exit", "q"} {
		p := &stubProvider{text: "unused"}
		out, _ := runLoop(t, p, word+"\nnever sent\n")
		if len(p.calls) != 0 {
			t.Fatalf("%q: expected no requests, got %d", word, len(p.calls))
		}
		if !strings.Contains(out, FarewellQuit) {
			t.Fatalf("%q: expected farewell, got:\n%s", word, out)
		}
	}
}

func TestRun_HelpAndEmptyNeverReachProvider(t *testing.T) {
	p := &stubProvider{text: "unused"}
	out, _ := runLoop(t, p, "help\n\n   \nq\n")

	if len(p.calls) != 0 {
		t.Fatalf("expected no requests, got %d", len(p.calls))
	}
	if strings.Count(out, "'model' to switch between models") < 2 {
		t.Fatalf("expected help text after banner, got:\n%s", out)
	}
	if strings.Count(out, EmptyReminder) != 2 {
		t.Fatalf("expected two empty-input reminders, got:\n%s", out)
	}
}

func TestRun_ModelSwitching(t *testing.T) {
	p := &stubProvider{text: "ok"}
	input := strings.Join([]string{
		"first",
		"model", "2",
		"second",
		"model", "7",
		"third",
		"MODEL", "1",
		"fourth",
		"quit",
	}, "\n") + "\n"
	out, l := runLoop(t, p, input)

	want := []models.Model{models.DefaultFast, models.DefaultCapable, models.DefaultCapable, models.DefaultFast}
	if len(p.calls) != len(want) {
		t.Fatalf("expected %d requests, got %d", len(want), len(p.calls))
	}
	for i, m := range want {
		if p.calls[i].Model != m {
			t.Errorf("request %d: model %q, want %q", i, p.calls[i].Model, m)
		}
	}
	if !strings.Contains(out, InvalidChoice) {
		t.Fatalf("expected invalid choice notice, got:\n%s", out)
	}
	if !strings.Contains(out, "Switched to "+string(models.DefaultCapable)) {
		t.Fatalf("expected switch confirmation, got:\n%s", out)
	}
	if l.Model() != models.DefaultFast {
		t.Fatalf("expected final model fast, got %q", l.Model())
	}
}

func TestRun_FailureDoesNotEndSession(t *testing.T) {
	p := &stubProvider{err: errors.New("401 unauthorized")}
	out, _ := runLoop(t, p, "hello\nagain\nquit\n")

	if len(p.calls) != 2 {
		t.Fatalf("expected both prompts to be sent, got %d", len(p.calls))
	}
	if strings.Count(out, "401 unauthorized") != 2 {
		t.Fatalf("expected failure reason printed twice, got:\n%s", out)
	}
	if !strings.Contains(out, FarewellQuit) {
		t.Fatalf("expected normal quit, got:\n%s", out)
	}
}

func TestRun_EmptyReplyPrintsGenericMessage(t *testing.T) {
	p := &stubProvider{text: ""}
	out, _ := runLoop(t, p, "hello\nquit\n")
	if !strings.Contains(out, session.NoResponseMessage) {
		t.Fatalf("expected generic message, got:\n%s", out)
	}
}

func TestRun_EOFEndsGracefully(t *testing.T) {
	p := &stubProvider{text: "ok"}
	out, _ := runLoop(t, p, "hello")
	if len(p.calls) != 1 {
		t.Fatalf("expected unterminated last line to be sent, got %d calls", len(p.calls))
	}
	if !strings.Contains(out, FarewellEOF) {
		t.Fatalf("expected EOF farewell, got:\n%s", out)
	}
}

func TestRun_EOFDuringModelChoice(t *testing.T) {
	p := &stubProvider{text: "ok"}
	out, l := runLoop(t, p, "model\n")
	if !strings.Contains(out, FarewellEOF) {
		t.Fatalf("expected EOF farewell, got:\n%s", out)
	}
	if l.Model() != models.DefaultFast {
		t.Fatalf("model should be unchanged, got %q", l.Model())
	}
}

func TestRun_InterruptWhileWaitingForInput(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	var out bytes.Buffer
	l := New(newSession(t, &stubProvider{text: "ok"}), Options{In: pr, Out: &out})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("expected graceful termination, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after interrupt")
	}
	if !strings.Contains(out.String(), FarewellInterrupt) {
		t.Fatalf("expected interrupt farewell, got:\n%s", out.String())
	}
}

// blockingProvider holds every request until its context ends.
type blockingProvider struct {
	started chan struct{}
}

func (p *blockingProvider) Generate(ctx context.Context, _ session.Request) (string, error) {
	select {
	case p.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return "", ctx.Err()
}

func TestRun_InterruptDuringRequest(t *testing.T) {
	p := &blockingProvider{started: make(chan struct{}, 1)}
	var out bytes.Buffer
	l := New(newSession(t, p), Options{In: strings.NewReader("what is law\nnever read\n"), Out: &out})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	select {
	case <-p.started:
	case <-time.After(2 * time.Second):
		t.Fatal("request never reached the provider")
	}
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("expected graceful termination, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after interrupt")
	}
	got := out.String()
	if !strings.Contains(got, FarewellInterrupt) {
		t.Fatalf("expected interrupt farewell, got:\n%s", got)
	}
	if strings.Contains(got, "JUSBOT:") {
		t.Fatalf("cancelled request must not print a reply, got:\n%s", got)
	}
}

func TestRun_ReleasesLineReader(t *testing.T) {
	before := runtime.NumGoroutine()
	for i := 0; i < 5; i++ {
		runLoop(t, &stubProvider{}, "quit\nleft\nover\n")
	}

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before {
		if time.Now().After(deadline) {
			t.Fatalf("line reader goroutines still running: before=%d now=%d", before, runtime.NumGoroutine())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device unplugged") }

func TestRun_ReadErrorIsReturned(t *testing.T) {
	var out bytes.Buffer
	l := New(newSession(t, &stubProvider{}), Options{In: failingReader{}, Out: &out})
	err := l.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "device unplugged") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestRun_UnexpectedPanicIsReported(t *testing.T) {
	// A loop without a session panics on the first prompt.
	var out bytes.Buffer
	l := New(nil, Options{In: strings.NewReader("hello\nhelp\nquit\n"), Out: &out, Model: models.DefaultFast})
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Unexpected error:") {
		t.Fatalf("expected unexpected error report, got:\n%s", got)
	}
	if !strings.Contains(got, FarewellQuit) {
		t.Fatalf("expected loop to continue to quit, got:\n%s", got)
	}
}

func TestAsk_JoinsWordsAndSendsOnce(t *testing.T) {
	p := &stubProvider{text: "Law is what the judge had for breakfast."}
	var out bytes.Buffer
	l := New(newSession(t, p), Options{In: strings.NewReader(""), Out: &out})

	resp := l.Ask(context.Background(), []string{"what", "is", "law"})
	if !resp.OK() {
		t.Fatalf("expected success, got %q", resp.Reason())
	}
	if len(p.calls) != 1 || p.calls[0].Prompt != "what is law" {
		t.Fatalf("expected one request for %q, got %+v", "what is law", p.calls)
	}
	if p.calls[0].Model != models.DefaultFast {
		t.Fatalf("expected default model, got %q", p.calls[0].Model)
	}
	if !strings.Contains(out.String(), "Query: what is law") || !strings.Contains(out.String(), "Response: Law is what") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestAsk_FailureIsPrinted(t *testing.T) {
	p := &stubProvider{err: errors.New("deadline exceeded")}
	var out bytes.Buffer
	l := New(newSession(t, p), Options{Out: &out})

	resp := l.Ask(context.Background(), []string{"hi"})
	if resp.OK() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(out.String(), "Response: Error generating response: deadline exceeded") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}
