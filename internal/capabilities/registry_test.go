package capabilities

import (
	"testing"
)

func TestRegistryPreservesYAMLOrder(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	models, err := r.ListProviderModels("openai")
	if err != nil {
		t.Fatalf("ListProviderModels() error = %v", err)
	}
	if len(models) == 0 || models[0].ID != "gpt-3.5-turbo-0125" {
		t.Errorf("first openai model = %v, want gpt-3.5-turbo-0125", models)
	}

	all := r.ListAll()
	if len(all) != 3 || all[0].Provider != "anthropic" {
		t.Errorf("ListAll() providers = %v, want 3 sorted by name", all)
	}
}

func TestCheckMaxTokens(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	tests := []struct {
		name      string
		provider  string
		model     string
		maxTokens int
		wantErr   bool
	}{
		{"within limit", "openai", "gpt-3.5-turbo-0125", 4000, false},
		{"over limit", "openai", "gpt-3.5-turbo-0125", 8000, true},
		{"unknown model accepted", "openai", "gpt-9", 1_000_000, false},
		{"unknown provider accepted", "acme", "x", 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.CheckMaxTokens(tt.provider, tt.model, tt.maxTokens)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckMaxTokens() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
