// Package openrouter is a thin chat-completion client over the OpenAI SDK,
// pointed at an OpenRouter-compatible endpoint.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
}

// Message is one chat turn on the wire.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Client struct {
	api         openaisdk.Client
	model       string
	maxTokens   int64
	temperature float64
}

func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openrouter api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("openrouter model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.SiteURL != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.SiteURL))
	}
	if cfg.SiteName != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.SiteName))
	}

	return &Client{
		api:         openaisdk.NewClient(opts...),
		model:       model,
		maxTokens:   int64(cfg.MaxCompletionToken),
		temperature: cfg.Temperature,
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// Complete sends the ordered message history and returns the first choice's
// text.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(c.model),
		Messages: make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(c.maxTokens)
	}
	params.Temperature = openaisdk.Float(c.temperature)

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openaisdk.SystemMessage(msg.Content))
		case RoleAssistant:
			params.Messages = append(params.Messages, openaisdk.AssistantMessage(msg.Content))
		case RoleUser:
			params.Messages = append(params.Messages, openaisdk.UserMessage(msg.Content))
		default:
			return "", fmt.Errorf("unsupported message role: %q", msg.Role)
		}
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openrouter: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openrouter: empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
