package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain/search/filter"
	"github.com/kailas-cloud/rankdex/internal/usecase/assist"
)

const classifySystemPrompt = `You are a query router for a product search service.
Classify the user's search query as "simple" or "complex".
A query is simple when it names a specific product, brand or short literal phrase to look up.
A query is complex when it describes desired properties, constraints or occasions instead of naming a product (for example "dry red wine under 20 euros for a steak dinner").
Respond with exactly one word: simple or complex.`

const extractSystemPrompt = `You extract structured filters from product search queries.
Respond with a JSON object of this exact shape:
{"category": string or null, "type": string or null, "price_min": number or null, "price_max": number or null, "soft_categories": [strings]}
Set "category" and "type" only when the query states them explicitly.
Set "price_min"/"price_max" from explicit price constraints; "under 20" means price_max 20.
Put categories the user implies but does not require into "soft_categories".
Use null for anything the query does not state. Never invent constraints.`

const rerankSystemPrompt = `You rerank product search results.
The user message contains a search query and a numbered candidate list, one product per line in the form "id | name | category | price".
Respond with a JSON object {"ids": [...]} listing the candidate ids ordered from best to worst match for the query.
Include every id exactly once and never add ids that are not in the list.`

// Assist drives the chat-completion side of search assistance: complexity
// classification, filter extraction and candidate reranking. Every method is
// expected to run behind the resilience governor, so errors are returned
// plain and failure policy lives upstream.
type Assist struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// AssistConfig holds the chat-completion provider settings.
type AssistConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewAssist creates an OpenAI-compatible chat assistant.
func NewAssist(cfg *AssistConfig) *Assist {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &Assist{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// ClassifyComplexity implements assist.Classifier. Returns true for
// descriptive queries that warrant reranking and discovery.
func (a *Assist) ClassifyComplexity(ctx context.Context, query string) (bool, error) {
	answer, err := a.chat(ctx, classifySystemPrompt, query, false)
	if err != nil {
		return false, err
	}

	verdict := strings.ToLower(strings.TrimSpace(answer))
	a.logger.Debug("query classified", zap.String("verdict", verdict))

	switch {
	case strings.HasPrefix(verdict, "complex"):
		return true, nil
	case strings.HasPrefix(verdict, "simple"):
		return false, nil
	}
	return false, fmt.Errorf("unexpected complexity verdict %q", answer)
}

// extractedFilters mirrors the JSON the extraction prompt asks for.
type extractedFilters struct {
	Category       *string  `json:"category"`
	Type           *string  `json:"type"`
	PriceMin       *float64 `json:"price_min"`
	PriceMax       *float64 `json:"price_max"`
	SoftCategories []string `json:"soft_categories"`
}

// ExtractFilters implements assist.FilterExtractor.
func (a *Assist) ExtractFilters(ctx context.Context, query string) (filter.Set, error) {
	answer, err := a.chat(ctx, extractSystemPrompt, query, true)
	if err != nil {
		return filter.Set{}, err
	}

	var parsed extractedFilters
	if err := json.Unmarshal([]byte(answer), &parsed); err != nil {
		return filter.Set{}, fmt.Errorf("malformed filter payload: %w", err)
	}
	return parsed.toSet()
}

func (f extractedFilters) toSet() (filter.Set, error) {
	var conds []filter.Condition

	if v := derefTrimmed(f.Category); v != "" {
		c, err := filter.NewMatch("category", strings.ToLower(v))
		if err != nil {
			return filter.Set{}, err
		}
		conds = append(conds, c)
	}
	if v := derefTrimmed(f.Type); v != "" {
		c, err := filter.NewMatch("type", strings.ToLower(v))
		if err != nil {
			return filter.Set{}, err
		}
		conds = append(conds, c)
	}
	if f.PriceMin != nil || f.PriceMax != nil {
		r, err := filter.NewRangeFilter(f.PriceMin, f.PriceMax)
		if err != nil {
			return filter.Set{}, fmt.Errorf("price range: %w", err)
		}
		c, err := filter.NewRange("price", r)
		if err != nil {
			return filter.Set{}, err
		}
		conds = append(conds, c)
	}

	return filter.NewSet(conds, f.SoftCategories)
}

func derefTrimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// Rerank implements assist.Reranker. The returned ids are best-first;
// validation against the candidate set happens upstream.
func (a *Assist) Rerank(ctx context.Context, query string, candidates []assist.Candidate) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	answer, err := a.chat(ctx, rerankSystemPrompt, rerankUserPrompt(query, candidates), true)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal([]byte(answer), &parsed); err != nil {
		return nil, fmt.Errorf("malformed rerank payload: %w", err)
	}
	if len(parsed.IDs) == 0 {
		return nil, fmt.Errorf("rerank returned no ids")
	}
	return parsed.IDs, nil
}

func rerankUserPrompt(query string, candidates []assist.Candidate) string {
	var b strings.Builder
	b.WriteString("Query: ")
	b.WriteString(query)
	b.WriteString("\n\nCandidates:\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s | %s | %s | %.2f\n", i+1, c.ID, c.Name, c.Category, c.Price)
	}
	return b.String()
}

func (a *Assist) chat(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", parseChatError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty chat response")
	}
	return resp.Choices[0].Message.Content, nil
}

// parseChatError keeps the provider's status and message visible in logs.
func parseChatError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("chat API error %d: %s", reqErr.HTTPStatusCode, detail)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("chat request failed: %w", err)
}
