package textgen

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// scripted returns replies in order and repeats the last one forever.
type scripted struct {
	replies []string
	err     error
	calls   int
	prompts []Prompt
}

func (s *scripted) Complete(_ context.Context, p Prompt) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, p)
	if s.err != nil {
		return "", s.err
	}
	idx := s.calls - 1
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	return s.replies[idx], nil
}

type score struct {
	Sentiment float64 `json:"sentiment_analysis"`
	Bias      string  `json:"bias_shown"`
}

func (s score) Validate() error {
	if s.Sentiment < -1 || s.Sentiment > 1 {
		return errors.New("out of range")
	}
	return nil
}

func TestGenerateJSON_SucceedsOnAttemptK(t *testing.T) {
	for k := 1; k <= MaxAttempts; k++ {
		t.Run(fmt.Sprintf("attempt_%d", k), func(t *testing.T) {
			replies := make([]string, 0, k)
			for i := 1; i < k; i++ {
				replies = append(replies, "Sure! Here is the analysis you asked for.")
			}
			replies = append(replies, `{"sentiment_analysis": -0.4, "bias_shown": "leans critical"}`)

			gen := &scripted{replies: replies}
			got, err := GenerateJSON[score](context.Background(), gen, Prompt{User: "analyze"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gen.calls != k {
				t.Errorf("expected exactly %d calls, got %d", k, gen.calls)
			}
			if got.Sentiment != -0.4 || got.Bias != "leans critical" {
				t.Errorf("unexpected result: %+v", got)
			}
		})
	}
}

func TestGenerateJSON_ExhaustsAfterSixCalls(t *testing.T) {
	gen := &scripted{replies: []string{"not json at all"}}

	_, err := GenerateJSON[score](context.Background(), gen, Prompt{User: "analyze"})
	if gen.calls != 6 {
		t.Errorf("expected 6 calls, got %d", gen.calls)
	}

	if !errors.Is(err, ErrUnparsable) {
		t.Fatalf("expected ErrUnparsable, got %v", err)
	}
	var uerr *UnparsableError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected *UnparsableError, got %T", err)
	}
	if uerr.Attempts != 6 || uerr.LastRaw != "not json at all" {
		t.Errorf("unexpected error fields: %+v", uerr)
	}
}

func TestGenerateJSON_SamePromptEveryAttempt(t *testing.T) {
	gen := &scripted{replies: []string{"nope", `{"sentiment_analysis":0.1,"bias_shown":"x"}`}}
	p := Prompt{System: "sys", User: "user"}

	if _, err := GenerateJSON[score](context.Background(), gen, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, got := range gen.prompts {
		if got != p {
			t.Errorf("attempt %d prompt changed: %+v", i+1, got)
		}
	}
}

func TestGenerateJSON_ValidationFailureRetries(t *testing.T) {
	gen := &scripted{replies: []string{
		`{"sentiment_analysis": 4, "bias_shown": "x"}`,
		`{"sentiment_analysis": 0.2, "bias_shown": "mild"}`,
	}}

	got, err := GenerateJSON[score](context.Background(), gen, Prompt{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.calls != 2 || got.Sentiment != 0.2 {
		t.Errorf("expected second reply after validation failure, got %+v after %d calls", got, gen.calls)
	}
}

func TestGenerateJSON_NullIsUnparsable(t *testing.T) {
	for _, reply := range []string{"null", "```json\nnull\n```"} {
		gen := &scripted{replies: []string{reply}}

		_, err := GenerateJSON[score](context.Background(), gen, Prompt{})
		var uerr *UnparsableError
		if !errors.As(err, &uerr) {
			t.Fatalf("reply %q: expected *UnparsableError, got %v", reply, err)
		}
		if gen.calls != MaxAttempts {
			t.Errorf("reply %q: expected %d calls, got %d", reply, MaxAttempts, gen.calls)
		}
	}
}

func TestGenerateJSON_NullThenValid(t *testing.T) {
	gen := &scripted{replies: []string{"null", `{"sentiment_analysis": 0.5, "bias_shown": "warm"}`}}

	got, err := GenerateJSON[score](context.Background(), gen, Prompt{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.calls != 2 || got.Sentiment != 0.5 {
		t.Errorf("expected second reply after null, got %+v after %d calls", got, gen.calls)
	}
}

func TestGenerateJSON_TransportErrorIsNotRetried(t *testing.T) {
	boom := errors.New("connection refused")
	gen := &scripted{err: boom}

	_, err := GenerateJSON[score](context.Background(), gen, Prompt{})
	if !errors.Is(err, boom) {
		t.Errorf("expected transport error, got %v", err)
	}
	if errors.Is(err, ErrUnparsable) {
		t.Errorf("transport error must not look unparsable")
	}
	if gen.calls != 1 {
		t.Errorf("expected a single call, got %d", gen.calls)
	}
}

func TestGenerateJSON_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &scripted{replies: []string{"{}"}}
	if _, err := GenerateJSON[score](ctx, gen, Prompt{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("expected no calls, got %d", gen.calls)
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"newlines inside", "{\"a\":\n\"line one\nline two\"\r\n}", `{"a":"line oneline two"}`},
		{"empty", "   ", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(Clean([]byte(tt.in))); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
