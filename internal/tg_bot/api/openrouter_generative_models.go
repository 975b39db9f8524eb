package api

import (
	"time"
)

// OpenRouterBaseURL is the OpenAI-compatible API root of OpenRouter.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterDefaultModel is used when no model name is configured.
const OpenRouterDefaultModel = "openai/gpt-4o-mini"

// OpenRouterAPI работает с моделями OpenRouter через OpenAI-совместимый протокол,
// поэтому фотографии передаются в модель так же, как для OpenAI
type OpenRouterAPI struct {
	*OpenAIAPI
}

// NewOpenRouterAPI создает новый экземпляр OpenRouterAPI. Пустой baseURL означает OpenRouterBaseURL
func NewOpenRouterAPI(apiKey, baseURL, modelName string, maxTokens int, temperature float32, timeout time.Duration) (*OpenRouterAPI, error) {
	if baseURL == "" {
		baseURL = OpenRouterBaseURL
	}
	if modelName == "" {
		modelName = OpenRouterDefaultModel
	}
	client, err := NewOpenAIAPI(apiKey, baseURL, modelName, maxTokens, temperature, timeout)
	if err != nil {
		return nil, err
	}
	return &OpenRouterAPI{OpenAIAPI: client}, nil
}
