package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"google.golang.org/genai"

	"github.com/aloneprofessor1-oss/MADDI/models"
)

func init() {
	// Load .env file if it exists (not present in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
}

// Gateway implements models.Gateway against the Gemini API.
type Gateway struct {
	client *genai.Client

	ChatModel    string
	TTSModel     string
	TTSVoice     string
	ImageModel   string
	SystemPrompt string
}

// New creates a Gemini gateway. An empty apiKey falls back to the
// GEMINI_API_KEY environment variable via the client library.
func New(ctx context.Context, apiKey string) (*Gateway, error) {
	var cc *genai.ClientConfig
	if apiKey != "" {
		cc = &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gateway{client: client}, nil
}

func (g *Gateway) chatModel() string {
	if g.ChatModel == "" {
		return "gemini-2.5-flash"
	}
	return g.ChatModel
}

func (g *Gateway) ttsModel() string {
	if g.TTSModel == "" {
		return "gemini-2.5-flash-preview-tts"
	}
	return g.TTSModel
}

func (g *Gateway) ttsVoice() string {
	if g.TTSVoice == "" {
		return "Kore"
	}
	return g.TTSVoice
}

func (g *Gateway) imageModel() string {
	if g.ImageModel == "" {
		return "gemini-2.0-flash-preview-image-generation"
	}
	return g.ImageModel
}

// CompleteChat sends the prior turns plus the new user text and returns the
// raw reply with grounding chunks from Google Search.
func (g *Gateway) CompleteChat(ctx context.Context, history []models.ChatTurn, newUserText string) (models.ChatResult, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.RoleUser
		if turn.Role == models.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, genai.Role(role)))
	}
	contents = append(contents, genai.NewContentFromText(newUserText, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	if g.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(g.SystemPrompt, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.chatModel(), contents, cfg)
	if err != nil {
		return models.ChatResult{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return models.ChatResult{}, fmt.Errorf("chat completion returned no candidates")
	}

	result := models.ChatResult{ReplyText: resp.Text()}
	if gm := resp.Candidates[0].GroundingMetadata; gm != nil {
		result.GroundingChunks = convertGroundingChunks(gm.GroundingChunks)
	}
	return result, nil
}

func convertGroundingChunks(chunks []*genai.GroundingChunk) []models.GroundingChunk {
	out := make([]models.GroundingChunk, 0, len(chunks))
	for _, c := range chunks {
		if c == nil {
			continue
		}
		chunk := models.GroundingChunk{}
		if c.Web != nil {
			chunk.Web = &models.WebSource{URI: c.Web.URI, Title: c.Web.Title}
		}
		out = append(out, chunk)
	}
	return out
}

// SynthesizeSpeech returns base64-encoded raw 24kHz s16le PCM, or "" when
// the model produced no audio payload.
func (g *Gateway) SynthesizeSpeech(ctx context.Context, text string) (string, error) {
	text = models.TruncateForSpeech(text)
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.ttsVoice()},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.ttsModel(), genai.Text(text), cfg)
	if err != nil {
		return "", fmt.Errorf("speech synthesis failed: %w", err)
	}

	for _, part := range candidateParts(resp) {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
		}
	}
	return "", nil
}

// SynthesizeImage returns the generated image as a data URI, or "" when the
// model produced no image.
func (g *Gateway) SynthesizeImage(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.imageModel(), genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}

	for _, part := range candidateParts(resp) {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(part.InlineData.Data)), nil
		}
	}
	return "", nil
}

func candidateParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}
