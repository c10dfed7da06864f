package llm

import "context"

// nebiusProvider implements Provider for Nebius AI Studio, which serves
// open-weight vision models (gemma, qwen-vl) behind an OpenAI-compatible API.
type nebiusProvider struct {
	base openAICompatClient
}

// NewNebius creates a provider for Nebius AI Studio.
func NewNebius(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.studio.nebius.com"
	}
	if cfg.Model == "" {
		cfg.Model = "google/gemma-3-27b-it"
	}
	return &nebiusProvider{base: newOpenAICompatClient(cfg)}
}

func (p *nebiusProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return p.base.chat(ctx, req)
}

func (p *nebiusProvider) ChatWithImages(ctx context.Context, req VisionChatRequest) (*ChatResponse, error) {
	return p.base.chatWithImages(ctx, req)
}
