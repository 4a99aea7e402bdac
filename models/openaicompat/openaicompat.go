package openaicompat

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aloneprofessor1-oss/MADDI/models"
)

// Gateway implements models.Gateway against any OpenAI-compatible endpoint.
// Grounding chunks are never returned; OpenAI-style APIs expose no web
// citation metadata on chat completions.
type Gateway struct {
	client *openai.Client

	ChatModel    string
	TTSModel     string
	TTSVoice     string
	ImageModel   string
	SystemPrompt string
}

func New(apiKey, baseURL string) *Gateway {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Gateway{client: openai.NewClientWithConfig(cfg)}
}

func (g *Gateway) chatModel() string {
	if g.ChatModel == "" {
		return openai.GPT4oMini
	}
	return g.ChatModel
}

func (g *Gateway) CompleteChat(ctx context.Context, history []models.ChatTurn, newUserText string) (models.ChatResult, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if g.SystemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: g.SystemPrompt,
		})
	}
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == models.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: newUserText,
	})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    g.chatModel(),
		Messages: msgs,
	})
	if err != nil {
		return models.ChatResult{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.ChatResult{}, fmt.Errorf("chat completion returned no choices")
	}
	return models.ChatResult{ReplyText: resp.Choices[0].Message.Content}, nil
}

// SynthesizeSpeech returns base64-encoded raw PCM from the speech endpoint.
// OpenAI's pcm response format is 24kHz s16le mono, matching the player.
func (g *Gateway) SynthesizeSpeech(ctx context.Context, text string) (string, error) {
	text = models.TruncateForSpeech(text)
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	model := openai.TTSModel1
	if g.TTSModel != "" {
		model = openai.SpeechModel(g.TTSModel)
	}
	voice := openai.VoiceAlloy
	if g.TTSVoice != "" {
		voice = openai.SpeechVoice(g.TTSVoice)
	}

	resp, err := g.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          model,
		Input:          text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatPcm,
	})
	if err != nil {
		return "", fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Close()

	raw, err := io.ReadAll(resp)
	if err != nil {
		return "", fmt.Errorf("failed to read speech payload: %w", err)
	}
	if len(raw) == 0 {
		return "", nil
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func (g *Gateway) SynthesizeImage(ctx context.Context, prompt string) (string, error) {
	model := openai.CreateImageModelDallE3
	if g.ImageModel != "" {
		model = g.ImageModel
	}

	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          model,
		N:              1,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", nil
	}
	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}
