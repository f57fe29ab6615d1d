package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/zishinew/Hearth-AI/internal/domain"
)

const openAIDefaultModel = "gpt-4o-mini"

// OpenAIOptions configures the OpenAI vision auditor.
type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Org     string
}

// OpenAIAuditor audits photos through OpenAI multimodal chat
// completions, passing the image by URL and requesting a JSON object
// response.
type OpenAIAuditor struct {
	client *openai.Client
	model  string
}

// NewOpenAIAuditor constructs an OpenAI-backed auditor.
func NewOpenAIAuditor(opts OpenAIOptions) (*OpenAIAuditor, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.Org != "" {
		cfg.OrgID = opts.Org
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = openAIDefaultModel
	}
	return &OpenAIAuditor{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Audit asks the model for a strict-JSON accessibility audit of the
// image at the given URL.
func (o *OpenAIAuditor) Audit(ctx context.Context, req AuditRequest) (domain.AuditData, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: buildAuditPrompt(req.WheelchairAccessible),
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    req.ImageURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return domain.AuditData{}, fmt.Errorf("openai audit call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.AuditData{}, errors.New("openai returned no choices")
	}
	parsed, err := parseAuditPayload(resp.Choices[0].Message.Content)
	if err != nil {
		return domain.AuditData{}, fmt.Errorf("parse audit payload: %w", err)
	}
	return parsed.toDomain(), nil
}

var _ Auditor = (*OpenAIAuditor)(nil)
