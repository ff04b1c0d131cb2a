package backend

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// embedViaOpenAIAPI runs one embedding request against an
// OpenAI-compatible endpoint and validates the payload shape.
func embedViaOpenAIAPI(
	ctx context.Context, client *openai.Client, model, text, provider string,
) ([]float32, error) {
	resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: embed: %w", provider, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%s: embed: no embedding data returned", provider)
	}
	return resp.Data[0].Embedding, nil
}

// generateViaOpenAIAPI runs one chat completion against an
// OpenAI-compatible endpoint with the fixed grounding instruction.
func generateViaOpenAIAPI(
	ctx context.Context, client *openai.Client, model, prompt, contextText, provider string,
) (string, error) {
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(contextText)},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: generate: %w", provider, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%s: generate: no response generated", provider)
	}
	return resp.Choices[0].Message.Content, nil
}
