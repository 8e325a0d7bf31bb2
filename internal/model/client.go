// Package model wraps the chat-model API used to generate candidate LaTeX
// markup from a prompt. Responses are cached on disk keyed by the request
// parameters, so re-running a benchmark does not re-bill identical requests.
package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"

	"tex2img/internal/logger"
	"tex2img/internal/types"
)

const systemPrompt = "You are a LaTeX generator. Reply with LaTeX source only, " +
	"no surrounding prose and no markdown code fences."

// Client generates LaTeX markup via an OpenAI-compatible chat model.
type Client struct {
	apiKey   string
	baseURL  string
	model    string
	cacheDir string // empty disables the cache
}

// NewClient creates a Client. cacheDir may be empty to disable caching.
func NewClient(apiKey, baseURL, modelName, cacheDir string) *Client {
	if modelName == "" {
		modelName = "gpt-4o"
	}
	return &Client{
		apiKey:   apiKey,
		baseURL:  baseURL,
		model:    modelName,
		cacheDir: cacheDir,
	}
}

// Generate produces LaTeX markup for the prompt, consulting the cache first.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", types.NewAppError(types.ErrConfig,
			"no API key configured for markup generation", nil)
	}

	key := c.cacheKey(prompt)
	if cached, ok := c.cacheGet(key); ok {
		logger.Debug("model cache hit", logger.String("key", key[:12]))
		return cached, nil
	}

	cfg := &openai.ChatModelConfig{
		Model:  c.model,
		APIKey: c.apiKey,
	}
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}

	chatModel, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return "", types.NewAppError(types.ErrAPICall, "failed to create chat model", err)
	}

	msg, err := chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", types.NewAppError(types.ErrAPICall, "markup generation request failed", err)
	}

	content := stripCodeFences(msg.Content)
	c.cachePut(key, content)

	logger.Info("generated markup",
		logger.String("model", c.model),
		logger.Int("chars", len(content)))
	return content, nil
}

// cacheKey hashes everything that affects the response.
func (c *Client) cacheKey(prompt string) string {
	payload, _ := json.Marshal(map[string]string{
		"model":   c.model,
		"baseURL": c.baseURL,
		"system":  systemPrompt,
		"prompt":  prompt,
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (c *Client) cacheGet(key string) (string, bool) {
	if c.cacheDir == "" {
		return "", false
	}
	data, err := os.ReadFile(filepath.Join(c.cacheDir, key+".tex"))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (c *Client) cachePut(key, content string) {
	if c.cacheDir == "" {
		return
	}
	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		logger.Warn("failed to create cache directory", logger.Err(err))
		return
	}
	path := filepath.Join(c.cacheDir, key+".tex")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		logger.Warn("failed to write cache entry", logger.Err(err))
	}
}

// stripCodeFences removes a surrounding markdown code fence, which chat
// models add despite instructions.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line, e.g. ```latex
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
