package provider

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"questforge/internal/config"
)

// ArkBackend drives an ark-compatible chat completion endpoint through an
// eino prompt-template + chat-model chain.
type ArkBackend struct {
	name  string
	chain compose.Runnable[map[string]any, *schema.Message]
}

func NewArkBackend(ctx context.Context, cfg config.BackendConfig) (*ArkBackend, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("backend %s: missing API key or model", cfg.Name)
	}
	var temperature *float32
	if cfg.Temperature != nil {
		v := float32(*cfg.Temperature)
		temperature = &v
	}
	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		Region:      cfg.Region,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", cfg.Name, err)
	}

	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)
	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)
	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("backend %s: compile chain: %w", cfg.Name, err)
	}
	return &ArkBackend{name: cfg.Name, chain: runnable}, nil
}

func (b *ArkBackend) Name() string { return b.name }

func (b *ArkBackend) Available() bool { return b.chain != nil }

func (b *ArkBackend) Generate(ctx context.Context, req Request) (string, error) {
	out, err := b.chain.Invoke(ctx, map[string]any{
		"system":  req.System,
		"history": historyMessages(req.History),
		"query":   req.Player,
	})
	if err != nil {
		return "", err
	}
	return out.Content, nil
}

func historyMessages(history []Message) []*schema.Message {
	// Recent context matters more than a complete transcript; cap the window
	// the way long chats are windowed before generation.
	const historyLimit = 40
	start := 0
	if len(history) > historyLimit {
		start = len(history) - historyLimit
	}
	out := make([]*schema.Message, 0, len(history)-start)
	for _, m := range history[start:] {
		switch m.Role {
		case "player":
			out = append(out, schema.UserMessage(m.Text))
		case "narrator":
			out = append(out, schema.AssistantMessage(m.Text, nil))
		case "system":
			out = append(out, schema.SystemMessage(m.Text))
		}
	}
	return out
}
