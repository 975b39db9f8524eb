package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/models"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const (
	OpenAIBaseURL      = "https://api.openai.com/v1"
	OpenAIDefaultModel = openai.GPT4oMini
)

// OpenAIAPI is a multimodal client for OpenAI-compatible chat completion APIs.
// Images are sent inline as base64 data URLs.
type OpenAIAPI struct {
	client      *openai.Client // Клиент для взаимодействия с API
	modelName   string         // Model used for generation
	maxTokens   int            // Upper bound for the answer, 0 means provider default
	temperature float32        // Sampling temperature, non-positive means provider default
	mu          sync.RWMutex   // Protects modelName
}

// NewOpenAIAPI creates a client for the chat completions API under baseURL.
// Empty baseURL and model fall back to the OpenAI defaults.
func NewOpenAIAPI(apiKey, baseURL, modelName string, maxTokens int, temperature float32, timeout time.Duration) (*OpenAIAPI, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}
	if baseURL == "" {
		baseURL = OpenAIBaseURL
	}
	if modelName == "" {
		modelName = OpenAIDefaultModel
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	config.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIAPI{
		client:      openai.NewClientWithConfig(config),
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

// GenerateDescription sends all parts as the content of a single user message.
func (o *OpenAIAPI) GenerateDescription(ctx context.Context, parts []models.PromptPart) (string, error) {
	content := make([]openai.ChatMessagePart, 0, len(parts))
	for _, part := range parts {
		if part.IsImage() {
			dataURL := fmt.Sprintf("data:%s;base64,%s", part.ImageMIME, base64.StdEncoding.EncodeToString(part.Image))
			content = append(content, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
			})
			continue
		}
		content = append(content, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: part.Text})
	}

	o.mu.RLock()
	modelName := o.modelName
	o.mu.RUnlock()

	request := openai.ChatCompletionRequest{
		Model:     modelName,
		Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, MultiContent: content}},
		MaxTokens: o.maxTokens,
	}
	if o.temperature > 0 {
		request.Temperature = o.temperature
	}
	return o.complete(ctx, request)
}

// ChangeGenerativeModelName switches the model after checking that it answers.
func (o *OpenAIAPI) ChangeGenerativeModelName(modelName string) error {
	if modelName == "" {
		return errors.New("model name can't be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logrus.WithField("model", modelName).Info("Checking if model is working")
	_, err := o.complete(ctx, openai.ChatCompletionRequest{
		Model:     modelName,
		Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "Hello, are you working?"}},
		MaxTokens: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to check model %s: %w", modelName, err)
	}

	o.mu.Lock()
	o.modelName = modelName
	o.mu.Unlock()
	logrus.WithField("model", modelName).Info("Model is changed and working")
	return nil
}

// complete performs one chat completion request and returns the first choice.
func (o *OpenAIAPI) complete(ctx context.Context, request openai.ChatCompletionRequest) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, request)
	if err != nil {
		err = fmt.Errorf("chat completion failed: %w", err)
		logrus.WithError(err).Errorf("Error creating %s request", request.Model)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned from chat completion API")
	}

	logrus.Debugf("Chat completion %s used %d tokens", resp.ID, resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}
