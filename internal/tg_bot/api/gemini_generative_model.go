package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/models"
	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// GeminiAPI представляет структуру для работы с Gemini API
type GeminiAPI struct {
	client      *genai.Client          // Клиент для взаимодействия с API
	model       *genai.GenerativeModel // Модель для генерации контента
	maxTokens   int                    // Максимальное количество токенов (опционально)
	temperature float32                // Температура для управления креативностью (опционально)
	mu          sync.RWMutex           // Защищает model при смене модели
}

// GeminiDefaultModel is used when no model name is configured.
const GeminiDefaultModel = "gemini-1.5-flash"

// NewGeminiAPI создает новый экземпляр GeminiAPI
func NewGeminiAPI(apiKey string, modelName string, maxTokens int, temperature float32) (*GeminiAPI, error) {
	if modelName == "" {
		modelName = GeminiDefaultModel
	}
	// Инициализируем клиент
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	g := &GeminiAPI{
		client:      client,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
	g.model = g.newModel(modelName)
	return g, nil
}

// newModel создает модель и настраивает параметры генерации
func (g *GeminiAPI) newModel(modelName string) *genai.GenerativeModel {
	model := g.client.GenerativeModel(modelName)
	if g.maxTokens > 0 {
		maxToken := int32(g.maxTokens)
		model.MaxOutputTokens = &maxToken
	}
	if g.temperature >= 0 && g.temperature <= 1 {
		temperature := g.temperature
		model.Temperature = &temperature
	}
	return model
}

// GenerateDescription отправляет текст и изображения одним запросом
func (g *GeminiAPI) GenerateDescription(ctx context.Context, parts []models.PromptPart) (string, error) {
	request := make([]genai.Part, 0, len(parts))
	for _, part := range parts {
		if part.IsImage() {
			// genai ожидает формат без префикса "image/"
			request = append(request, genai.ImageData(strings.TrimPrefix(part.ImageMIME, "image/"), part.Image))
			continue
		}
		request = append(request, genai.Text(part.Text))
	}

	g.mu.RLock()
	model := g.model
	g.mu.RUnlock()

	resp, err := model.GenerateContent(ctx, request...)
	if err != nil {
		err = fmt.Errorf("failed to generate content: %w", err)
		logrus.WithError(err).Error("Error creating Gemini request")
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no candidates returned from Gemini API")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// ChangeGenerativeModelName меняет модель генерации
func (g *GeminiAPI) ChangeGenerativeModelName(modelName string) error {
	if modelName == "" {
		return errors.New("model name can't be empty")
	}
	g.mu.Lock()
	g.model = g.newModel(modelName)
	g.mu.Unlock()
	return nil
}

// Close закрывает клиент Gemini
func (g *GeminiAPI) Close() error {
	return g.client.Close()
}
