package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/econtract/backend/internal/domain/shared"
	infraconfig "github.com/econtract/backend/internal/infrastructure/config"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const extractionMaxAttempts = 3

// chatCompleter is the slice of the OpenAI client the extractor uses.
// Tests substitute a fake.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIContractExtractor asks a completion model to pull contract fields
// out of raw document text. A successful call may return an empty map,
// missing fields are left for the reviewer to fill in.
type OpenAIContractExtractor struct {
	client  chatCompleter
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewOpenAIContractExtractor creates an extractor from configuration. A
// custom BaseURL points the client at any OpenAI-compatible endpoint.
func NewOpenAIContractExtractor(cfg *infraconfig.ExtractionConfig, logger *zap.Logger) (*OpenAIContractExtractor, error) {
	if cfg == nil {
		return nil, errors.New("extraction configuration is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("extraction API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIContractExtractor{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Extract returns the contract fields found in the raw text as a flat map.
// The model is retried on transport and parse errors before giving up with
// an external service error.
func (e *OpenAIContractExtractor) Extract(ctx context.Context, rawText string) (map[string]any, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return map[string]any{}, nil
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 1; attempt <= extractionMaxAttempts; attempt++ {
		resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       e.model,
			Temperature: 0.1,
			MaxTokens:   2000,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: buildUserPrompt(text),
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			lastErr = err
			e.logger.Warn("extraction request failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("no choices in completion response")
			continue
		}

		content := resp.Choices[0].Message.Content
		fields, err := parseFields(content)
		if err != nil {
			lastErr = err
			e.logger.Warn("extraction response was not valid JSON",
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		e.logger.Debug("extracted contract fields",
			zap.Int("field_count", len(fields)),
			zap.Int("attempt", attempt))
		return fields, nil
	}

	return nil, shared.NewDomainErrorf(shared.CodeExternalService,
		"Contract field extraction failed after %d attempts: %v", extractionMaxAttempts, lastErr)
}

// parseFields decodes the model output, dropping null values so the result
// only carries fields that were actually found.
func parseFields(content string) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		fields[k] = v
	}
	return fields, nil
}

const systemPrompt = `You extract structured data from contract documents for a contract management system. Read the document text carefully and return ONLY a valid JSON object. Use null for fields that are not present in the document. Never invent values.`

func buildUserPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Extract the following fields from this contract document:\n\n")
	sb.WriteString(`{
  "contract_number": "contract or agreement number, string",
  "title": "contract title or subject, string",
  "contract_type": "e.g. SERVICE, LICENSE, MAINTENANCE, LEASE, string",
  "partner_name": "name of the counterparty, string",
  "start_date": "YYYY-MM-DD",
  "end_date": "YYYY-MM-DD or null for open-ended contracts",
  "contract_value": "total contract value as a number without currency symbols",
  "currency": "ISO 4217 code such as EUR or USD",
  "billing_cycle": "MONTHLY, QUARTERLY, YEARLY or ONE_TIME",
  "billing_amount": "recurring amount per billing cycle as a number",
  "payment_term_days": "payment term in days as an integer",
  "notice_period_days": "termination notice period in days as an integer",
  "auto_renewal": "true or false",
  "department": "internal department mentioned, string"
}`)
	sb.WriteString("\n\nDocument text:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nReturn only the JSON object, no explanation.")
	return sb.String()
}
