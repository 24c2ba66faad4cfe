package normalize

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/everstacklabs/pricetracker/internal/feed"
)

func TestInferProvider(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"openai/gpt-4o", "openai"},
		{"Anthropic/claude-3-opus", "anthropic"},
		{"bedrock/us.anthropic.claude", "bedrock"},
		{"gpt-4", "openai"},
		{"GPT-4-turbo", "openai"},
		{"o1-mini", "openai"},
		{"davinci-002", "openai"},
		{"ada-002", "openai"},
		{"claude-3-5-sonnet-20240620", "anthropic"},
		{"gemini-1.5-pro", "google"},
		{"mistral-large", "mistral"},
		{"mixtral-8x7b", "mistral"},
		{"codestral-latest", "mistral"},
		{"llama-3-70b", "meta"},
		{"deepseek-chat", "deepseek"},
		{"command-r-plus", "cohere"},
		{"mystery-model", "unknown"},
		{"o1", "unknown"}, // prefix table needs "o1-"
		{"", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := InferProvider(tt.id); got != tt.want {
				t.Errorf("InferProvider(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"anthropic/claude-3-opus-20240229", "Claude 3 Opus"},
		{"claude-3-haiku:20240307", "Claude 3 Haiku"},
		{"openai/gpt-4o", "GPT 4o"},
		{"gpt-4o-mini", "GPT 4o Mini"},
		{"gpt4all_j", "GPT4all J"},
		{"GPT-3.5-turbo", "GPT 3.5 Turbo"},
		{"llm-ai-tool", "LLM AI Tool"},
		{"bedrock/amazon/titan_TEXT-express", "Titan Text Express"},
		{"command-r-2024", "Command R 2024"},
		{"mistral--large", "Mistral Large"},
		{"vendor/model-x:20240101-20240229", "Model X"},
		{"model-x-20240101:20240229", "Model X 20240101"},
		{"bedrock/", ""},
		{"-", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := DisplayName(tt.id); got != tt.want {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestTitleCase(t *testing.T) {
	if got := TitleCase("openai"); got != "Openai" {
		t.Errorf("TitleCase(openai) = %q", got)
	}
	if got := TitleCase("mistral ai"); got != "Mistral Ai" {
		t.Errorf("TitleCase(mistral ai) = %q", got)
	}
}

func number(t *testing.T, raw string) feed.Number {
	t.Helper()
	var n feed.Number
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return n
}

func TestPerMillion(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{`"0.000005"`, 5.0, false},
		{`0.000005`, 5.0, false},
		{`"0.000015"`, 15.0, false},
		{`1e-06`, 1.0, false},
		{`"0.00000000123456"`, 0.0012, false},
		{`"0.00000000005"`, 0.0001, false},
		{`"0"`, 0, false},
		{`null`, 0, false},
		{`""`, 0, false},
		{`"free"`, 0, true},
		{`"-1"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := PerMillion(number(t, tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("PerMillion(%s) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PerMillion(%s) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPerMillionNegativeSentinel(t *testing.T) {
	_, err := PerMillion(number(t, `"-1"`))
	if !errors.Is(err, ErrNegativePrice) {
		t.Errorf("expected ErrNegativePrice, got %v", err)
	}
}
