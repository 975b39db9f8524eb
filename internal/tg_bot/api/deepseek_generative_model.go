package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/models"
	"github.com/go-deepseek/deepseek"
	"github.com/go-deepseek/deepseek/request"
	"github.com/sirupsen/logrus"
)

// DeepSeekAPI работает с DeepSeek chat completions. Модель принимает только текст,
// изображения из запроса пропускаются.
type DeepSeekAPI struct {
	client      deepseek.Client // Клиент для взаимодействия с API
	modelName   string          // Версия генеративной модели
	maxTokens   int             // Максимальное количество токенов (опционально)
	temperature float32         // Температура для управления креативностью (опционально)
	mu          sync.RWMutex    // Защищает modelName
}

// NewDeepSeekAPI создает новый экземпляр DeepSeekAPI
func NewDeepSeekAPI(apiKey string, modelName string, maxTokens int, temperature float32) (*DeepSeekAPI, error) {
	// Инициализируем клиент
	client, err := deepseek.NewClient(apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create DeepSeek client: %w", err)
	}
	if modelName == "" {
		modelName = deepseek.DEEPSEEK_CHAT_MODEL
	}

	return &DeepSeekAPI{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

// GenerateDescription генерирует описание по текстовым частям запроса
func (d *DeepSeekAPI) GenerateDescription(ctx context.Context, parts []models.PromptPart) (string, error) {
	text, skipped := joinTextParts(parts)
	if skipped > 0 {
		logrus.Warnf("DeepSeek doesn't accept images, %d skipped", skipped)
	}

	d.mu.RLock()
	modelName := d.modelName
	d.mu.RUnlock()

	return d.complete(ctx, modelName, text, d.maxTokens)
}

// complete отправляет один запрос к DeepSeek API
func (d *DeepSeekAPI) complete(ctx context.Context, modelName, text string, maxTokens int) (string, error) {
	chatReq := &request.ChatCompletionsRequest{
		Model:  modelName,
		Stream: false, // Отключаем стриминг
		Messages: []*request.Message{
			{Role: "user", Content: text},
		},
		MaxTokens: maxTokens,
	}
	// Отрицательная температура означает значение по умолчанию
	if d.temperature >= 0 {
		temperature := d.temperature
		chatReq.Temperature = &temperature
	}

	// Клиент проверяет имя модели, reasoner вызывается отдельным методом
	call := d.client.CallChatCompletionsChat
	if modelName == deepseek.DEEPSEEK_REASONER_MODEL {
		call = d.client.CallChatCompletionsReasoner
	}
	resp, err := call(ctx, chatReq)
	if err != nil {
		err = fmt.Errorf("failed to create request: %w", err)
		logrus.WithError(err).Error("Error creating DeepSeek request")
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return "", fmt.Errorf("no choices returned from DeepSeek API")
	}
	return resp.Choices[0].Message.Content, nil
}

// ChangeGenerativeModelName меняет модель после проверочного запроса
func (d *DeepSeekAPI) ChangeGenerativeModelName(modelName string) error {
	if modelName == "" {
		return errors.New("model name can't be empty")
	}
	if modelName != deepseek.DEEPSEEK_CHAT_MODEL && modelName != deepseek.DEEPSEEK_REASONER_MODEL {
		return fmt.Errorf("unsupported DeepSeek model %s", modelName)
	}
	logrus.WithField("model", modelName).Info("Checking if model is working")
	if _, err := d.complete(context.Background(), modelName, "Hello, are you working?", 10); err != nil {
		return fmt.Errorf("failed to check model %s: %w", modelName, err)
	}

	d.mu.Lock()
	d.modelName = modelName
	d.mu.Unlock()
	logrus.WithField("model", modelName).Info("Model is changed and working")
	return nil
}

// joinTextParts склеивает текстовые части и возвращает количество пропущенных изображений
func joinTextParts(parts []models.PromptPart) (string, int) {
	texts := make([]string, 0, len(parts))
	skipped := 0
	for _, part := range parts {
		if part.IsImage() {
			skipped++
			continue
		}
		texts = append(texts, part.Text)
	}
	return strings.Join(texts, "\n"), skipped
}
