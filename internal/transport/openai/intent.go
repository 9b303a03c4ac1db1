package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ruchi-search/ruchi/internal/domain"
	"github.com/ruchi-search/ruchi/internal/metrics"
)

// intentSystemPrompt encodes Indian food-culture vocabulary so free-form
// phrases map to concrete searchable terms.
const intentSystemPrompt = `You are a food search assistant for an Indian restaurant app with deep knowledge of Indian food culture and regional eating habits.

Parse the user's message and return a JSON object with two fields:
- "food_terms": concise food-focused search terms (cuisine type, specific dishes, mood). Max 15 words. No location.
- "location": the city or area mentioned, or null if none.

Indian cultural food context you must apply:
- Rainy/monsoon weather → hot deep-fried snacks: bajji, pakoda, bonda, vada, samosa, bhajiya, bread pakora. Pair with chai or filter coffee. NOT desserts or salads.
- Chennai rain/evening → South Indian snacks: bajji, bonda, vada, idli, filter coffee, masala chai
- Mumbai rain/evening → vada pav, pav bhaji, pakoda, chai
- Delhi/North India rain → pakoda, samosa, chai, maggi, momos
- Morning → idli, dosa, poha, upma, paratha, chai
- Late night → biryani, kebabs, rolls, street food
- Comfort food (India) → dal rice, khichdi, rasam rice, curd rice
- Hunger craving spicy → Briyani, Kebab, chicken
- Romantic/date → North Indian, Continental, rooftop restaurant, fine dining
- Quick/budget → chaat, street food, tiffin, darshini, fast food
- Healthy → salads, juices, multigrain, South Indian tiffin

Examples:
"It's raining in the evening and I want to eat something in Chennai" → {"food_terms": "bajji bonda vada pakoda hot fried snacks chai South Indian", "location": "Chennai"}
"rainy evening Mumbai" → {"food_terms": "vada pav pakoda chai hot street food fried snacks", "location": "Mumbai"}
"date night in Mumbai" → {"food_terms": "romantic fine dining upscale North Indian Continental", "location": "Mumbai"}
"something spicy" → {"food_terms": "spicy curry chilli tandoori hot", "location": null}
"quick lunch under 200 in Bangalore" → {"food_terms": "quick budget tiffin darshini affordable fast casual", "location": "Bangalore"}
"Sunday morning breakfast Delhi" → {"food_terms": "breakfast paratha poha chole bhature morning", "location": "Delhi"}

Return only valid JSON. No explanation.`

// IntentExtractor parses a free-form dining query into food terms and an
// optional city via an OpenAI-compatible chat completion.
type IntentExtractor struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

// IntentConfig holds the intent extraction settings.
type IntentConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Logger    *zap.Logger
}

// NewIntentExtractor creates an intent extraction adapter.
func NewIntentExtractor(cfg *IntentConfig) *IntentExtractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &IntentExtractor{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    cfg.Logger,
	}
}

// Extract implements domain.IntentExtractor.
func (e *IntentExtractor) Extract(ctx context.Context, query string) (domain.Intent, error) {
	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: intentSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		MaxTokens:   e.maxTokens,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()

	resp, err := retry.DoWithData(
		func() (openai.ChatCompletionResponse, error) {
			return e.client.CreateChatCompletion(ctx, req) //nolint:wrapcheck // wrapped below
		},
		transientRetryOpts(ctx)...,
	)

	duration := time.Since(start)

	if err != nil {
		metrics.InferenceRequestsTotal.WithLabelValues(metrics.KindIntent, e.model, "error").Inc()
		metrics.InferenceErrorsTotal.WithLabelValues(metrics.KindIntent, e.model, "api_error").Inc()
		return domain.Intent{}, parseAPIError("intent", err, domain.ErrIntentProvider)
	}

	if len(resp.Choices) == 0 {
		metrics.InferenceRequestsTotal.WithLabelValues(metrics.KindIntent, e.model, "error").Inc()
		metrics.InferenceErrorsTotal.WithLabelValues(metrics.KindIntent, e.model, "empty_response").Inc()
		return domain.Intent{}, fmt.Errorf("empty intent response: %w", domain.ErrIntentProvider)
	}

	intent, err := parseIntentPayload(resp.Choices[0].Message.Content)
	if err != nil {
		// Malformed payloads are not retried: the model would fail the same way.
		metrics.InferenceRequestsTotal.WithLabelValues(metrics.KindIntent, e.model, "error").Inc()
		metrics.InferenceErrorsTotal.WithLabelValues(metrics.KindIntent, e.model, "malformed_response").Inc()
		return domain.Intent{}, err
	}

	metrics.InferenceRequestsTotal.WithLabelValues(metrics.KindIntent, e.model, "success").Inc()
	metrics.InferenceRequestDuration.WithLabelValues(metrics.KindIntent, e.model).Observe(duration.Seconds())

	e.logger.Debug("query rewritten",
		zap.String("query", query),
		zap.String("food_terms", intent.FoodTerms),
		zap.String("location", intent.Location),
	)

	return intent, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *IntentExtractor) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseIntentPayload decodes the model's JSON answer. food_terms is required;
// location may be null or absent, which means no city filter.
func parseIntentPayload(content string) (domain.Intent, error) {
	var payload struct {
		FoodTerms string  `json:"food_terms"`
		Location  *string `json:"location"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return domain.Intent{}, fmt.Errorf("malformed intent payload: %v: %w", err, domain.ErrIntentProvider)
	}

	foodTerms := strings.TrimSpace(payload.FoodTerms)
	if foodTerms == "" {
		return domain.Intent{}, fmt.Errorf("intent payload missing food_terms: %w", domain.ErrIntentProvider)
	}

	intent := domain.Intent{FoodTerms: foodTerms}
	if payload.Location != nil {
		intent.Location = strings.TrimSpace(*payload.Location)
	}
	return intent, nil
}
