package generative

import (
	"testing"

	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/api"
)

func TestModelFactory(t *testing.T) {
	if _, err := ModelFactory("unknown", Settings{APIKey: "k"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	model, err := ModelFactory("openai", Settings{APIKey: "k", MaxTokens: 100})
	if err != nil {
		t.Fatalf("ModelFactory failed: %v", err)
	}
	if _, ok := model.(*api.OpenAIAPI); !ok {
		t.Errorf("expected *api.OpenAIAPI, got %T", model)
	}

	model, err = ModelFactory("openrouter", Settings{APIKey: "k"})
	if err != nil {
		t.Fatalf("ModelFactory failed: %v", err)
	}
	if _, ok := model.(*api.OpenRouterAPI); !ok {
		t.Errorf("expected *api.OpenRouterAPI, got %T", model)
	}

	model, err = ModelFactory("openrouter", Settings{})
	if err == nil {
		t.Error("expected error without API key")
	}
	if model != nil {
		t.Errorf("expected nil model on error, got %T", model)
	}
}

func TestNames(t *testing.T) {
	names := Names()
	want := []string{"deepseek", "gemini", "openai", "openrouter"}
	if len(names) != len(want) {
		t.Fatalf("unexpected names %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("name %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}
