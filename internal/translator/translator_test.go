package translator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"linguaflow/internal/logging"
	"linguaflow/internal/translator"
)

func TestChainFallsBackToNextProvider(t *testing.T) {
	calls := []string{}
	failing := translator.Func{
		ProviderName: "primary",
		Fn: func(context.Context, translator.Request) (string, error) {
			calls = append(calls, "primary")
			return "", errors.New("rate limit exceeded")
		},
	}
	working := translator.Func{
		ProviderName: "secondary",
		Fn: func(_ context.Context, req translator.Request) (string, error) {
			calls = append(calls, "secondary")
			return "Hola", nil
		},
	}

	chain := translator.NewChain(time.Second, logging.NewNop(), failing, working)
	got, err := chain.Translate(context.Background(), translator.Request{
		SourceText:     "Hello",
		SourceLanguage: "en",
		TargetLanguage: "es",
	})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "Hola" {
		t.Fatalf("expected Hola, got %q", got)
	}
	if len(calls) != 2 || calls[0] != "primary" || calls[1] != "secondary" {
		t.Fatalf("unexpected call order %v", calls)
	}
}

func TestChainReturnsLastErrorWhenAllFail(t *testing.T) {
	boom := errors.New("connection refused")
	failing := translator.Func{
		ProviderName: "only",
		Fn: func(context.Context, translator.Request) (string, error) {
			return "", boom
		},
	}

	chain := translator.NewChain(time.Second, logging.NewNop(), failing)
	_, err := chain.Translate(context.Background(), translator.Request{SourceText: "Hello"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestChainAppliesPerCallTimeout(t *testing.T) {
	slow := translator.Func{
		ProviderName: "slow",
		Fn: func(ctx context.Context, _ translator.Request) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}

	chain := translator.NewChain(50*time.Millisecond, logging.NewNop(), slow)
	start := time.Now()
	_, err := chain.Translate(context.Background(), translator.Request{SourceText: "Hello"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout did not bound the call; took %v", elapsed)
	}
}

func TestChainWithoutProviders(t *testing.T) {
	chain := translator.NewChain(time.Second, logging.NewNop())
	_, err := chain.Translate(context.Background(), translator.Request{SourceText: "Hello"})
	if !errors.Is(err, translator.ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders, got %v", err)
	}
}
