package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient wraps any OpenAI-compatible chat completion endpoint. With the
// default base URL it talks to OpenAI; pointed at the HuggingFace router it
// serves as the fallback provider for hosted open-weight models.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient() (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	model := os.Getenv("OPENAI_MODEL") // e.g., "gpt-4o"
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err == nil {
			apiKey = strings.TrimSpace(string(apiKeyBytes))
			slog.Info("Read the OpenAI API Key from container secrets")
		} else {
			slog.Error("OPENAI_API_KEY environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	if model == "" {
		model = "gpt-4o-mini"
		slog.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}
	slog.Info("Initializing OpenAI client", "model", model)
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// NewHuggingFaceClient builds an OpenAIClient against the HuggingFace
// inference router, which speaks the OpenAI chat completion protocol.
func NewHuggingFaceClient() (*OpenAIClient, error) {
	token := os.Getenv("HF_TOKEN")
	if token == "" {
		secretPath := "/run/secrets/hf_token"
		if content, err := os.ReadFile(secretPath); err == nil {
			token = strings.TrimSpace(string(content))
			slog.Info("Read the HuggingFace token from container secrets")
		}
	}
	if token == "" {
		return nil, fmt.Errorf("HF_TOKEN environment variable not set")
	}

	baseURL := os.Getenv("HF_BASE_URL")
	if baseURL == "" {
		baseURL = "https://router.huggingface.co/v1"
	}
	model := os.Getenv("HF_MODEL")
	if model == "" {
		model = "meta-llama/Llama-3.3-70B-Instruct:novita"
		slog.Warn("HF_MODEL not set, defaulting to", "model", model)
	}

	config := openai.DefaultConfig(token)
	config.BaseURL = baseURL
	slog.Info("Initializing HuggingFace router client", "model", model, "base_url", baseURL)
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Generate implements the LLMClient interface
func (o *OpenAIClient) Generate(ctx context.Context, system, prompt string, params GenerationParams) (string, error) {
	slog.Debug("Generating text via OpenAI-compatible endpoint", "model", o.model)
	if system == "" {
		system = "You are a helpful assistant."
	}
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("OpenAI-compatible API call failed", "error", err)
		return "", fmt.Errorf("chat completion call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.Warn("Endpoint returned no choices or empty content")
		return "", fmt.Errorf("endpoint returned no choices")
	}
	slog.Debug("Received chat completion response", "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}
