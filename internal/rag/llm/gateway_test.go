package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubProvider struct {
	onComplete func(ctx context.Context, prompt string) (string, error)
}

func (s *stubProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return s.onComplete(ctx, prompt)
}

func (s *stubProvider) Chat(ctx context.Context, query string, matches []string, history []string) (string, error) {
	return "", nil
}

func fastPolicy(attempts uint64) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, MinWait: time.Millisecond, MaxWait: 5 * time.Millisecond}
}

func TestGateway_SucceedsFirstTry(t *testing.T) {
	calls := 0
	g := NewGateway(&stubProvider{onComplete: func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "ok", nil
	}}, fastPolicy(3))

	out, err := g.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "ok" || calls != 1 {
		t.Errorf("got out=%q calls=%d, want ok/1", out, calls)
	}
}

func TestGateway_RetriesTransientFailures(t *testing.T) {
	calls := 0
	g := NewGateway(&stubProvider{onComplete: func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("rate limited")
		}
		return "recovered", nil
	}}, fastPolicy(3))

	out, err := g.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete should have recovered on the third try: %v", err)
	}
	if out != "recovered" || calls != 3 {
		t.Errorf("got out=%q calls=%d, want recovered/3", out, calls)
	}
}

func TestGateway_ExhaustsAttempts(t *testing.T) {
	calls := 0
	g := NewGateway(&stubProvider{onComplete: func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", errors.New("provider down")
	}}, fastPolicy(3))

	_, err := g.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatal("Expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("Provider called %d times, want 3", calls)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("Error should mention attempt count: %v", err)
	}
	if !strings.Contains(err.Error(), "provider down") {
		t.Errorf("Error should wrap the last provider error: %v", err)
	}
}

func TestGateway_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := NewGateway(&stubProvider{onComplete: func(ctx context.Context, prompt string) (string, error) {
		cancel()
		return "", errors.New("transient")
	}}, fastPolicy(5))

	if _, err := g.Complete(ctx, "prompt"); err == nil {
		t.Fatal("Expected error when context is cancelled mid-retry")
	}
}
