package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

// DefaultSystemPrompt is the generation preamble used when no prompt file is available.
const DefaultSystemPrompt = "Ты — опытный риелтор-маркетолог. Твоя задача — создать привлекательное продающее описание для объявления о продаже квартиры. " +
	"Сначала внимательно проанализируй все входные данные: текст от пользователя, список объектов инфраструктуры и, что особенно важно, фотографии квартиры. " +
	"Подумай, какие сильные стороны и уникальные особенности можно выделить. На основе этого анализа напиши целостный, яркий и убедительный текст. " +
	"Ни в коем случае не ври, иначе уволят."

const (
	infrastructureHeader = "ИНФРАСТРУКТУРА ПОБЛИЗОСТИ:"
	noInfrastructureText = "Инфраструктура поблизости не найдена."
	addressPrefix        = "АДРЕС ОБЪЕКТА: "
	userDetailsPrefix    = "ДЕТАЛИ ОТ ПОЛЬЗОВАТЕЛЯ:\n"
	answerMarker         = "\nТВОЕ ОПИСАНИЕ:"
	analyzePrefix        = "Проверь текст "
)

// GenerativeModel is a generation backend accepting an ordered list of text and image parts.
type GenerativeModel interface {
	GenerateDescription(ctx context.Context, parts []models.PromptPart) (string, error)
	ChangeGenerativeModelName(modelName string) error
}

// DescriptionComposer turns collected listing data into one generation request.
type DescriptionComposer struct {
	model        GenerativeModel
	systemPrompt string
}

// NewDescriptionComposer creates a composer; an empty systemPrompt means DefaultSystemPrompt.
func NewDescriptionComposer(model GenerativeModel, systemPrompt string) *DescriptionComposer {
	systemPrompt = strings.TrimSpace(systemPrompt)
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &DescriptionComposer{model: model, systemPrompt: systemPrompt}
}

// LoadSystemPrompt reads the preamble from path, falling back to DefaultSystemPrompt
// when the path is empty or the file does not exist.
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return DefaultSystemPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logrus.Warnf("Prompt file %s not found, using built-in prompt", path)
			return DefaultSystemPrompt, nil
		}
		return "", fmt.Errorf("read prompt file: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return DefaultSystemPrompt, nil
	}
	return prompt, nil
}

// RenderInfrastructure formats a summary for the prompt: a header, then each category
// with its places as "name (distance m)".
func RenderInfrastructure(summary models.InfrastructureSummary) string {
	if summary.IsEmpty() {
		return noInfrastructureText
	}

	var sb strings.Builder
	sb.WriteString(infrastructureHeader)
	for _, category := range summary {
		if len(category.Places) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n\n- %s:", category.Category)
		for _, place := range category.Places {
			fmt.Fprintf(&sb, "\n  - %s (%dм)", place.Name, place.DistanceMeters)
		}
	}
	return sb.String()
}

// BuildPrompt assembles the ordered prompt parts: preamble, address, user details,
// infrastructure and answer marker, followed by the photos.
func (c *DescriptionComposer) BuildPrompt(userText string, summary models.InfrastructureSummary, photos []models.Photo, address string) []models.PromptPart {
	parts := []models.PromptPart{
		models.TextPart(c.systemPrompt),
		models.TextPart(addressPrefix + address),
		models.TextPart(userDetailsPrefix + userText),
		models.TextPart(RenderInfrastructure(summary)),
		models.TextPart(answerMarker),
	}
	for _, photo := range photos {
		if len(photo.Data) == 0 {
			continue
		}
		parts = append(parts, models.ImagePart(photo.Data, photo.MIMEType))
	}
	return parts
}

// Compose sends the assembled prompt to the backend and returns the trimmed description.
// Any backend failure or an empty answer is reported as ErrGenerationFailed.
func (c *DescriptionComposer) Compose(ctx context.Context, userText string, summary models.InfrastructureSummary, photos []models.Photo, address string) (string, error) {
	return c.generate(ctx, c.BuildPrompt(userText, summary, photos, address))
}

// ComposeFromContext generates a description from the user's stored background only.
func (c *DescriptionComposer) ComposeFromContext(ctx context.Context, userContext string) (string, error) {
	return c.generate(ctx, []models.PromptPart{
		models.TextPart(c.systemPrompt),
		models.TextPart(userDetailsPrefix + userContext),
		models.TextPart(answerMarker),
	})
}

// Analyze asks the backend to review a user's text. A non-empty userContext goes first.
func (c *DescriptionComposer) Analyze(ctx context.Context, post, userContext string) (string, error) {
	var parts []models.PromptPart
	if userContext = strings.TrimSpace(userContext); userContext != "" {
		parts = append(parts, models.TextPart(userContext))
	}
	parts = append(parts, models.TextPart(analyzePrefix+post))
	return c.generate(ctx, parts)
}

func (c *DescriptionComposer) generate(ctx context.Context, parts []models.PromptPart) (string, error) {
	text, err := c.model.GenerateDescription(ctx, parts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}
	return text, nil
}

// ChangeModel switches the backend to another model name.
func (c *DescriptionComposer) ChangeModel(modelName string) error {
	return c.model.ChangeGenerativeModelName(modelName)
}

// ListingDetails renders the free-form fields of a session as the user-details block of the prompt.
func ListingDetails(session models.Session) string {
	return fmt.Sprintf("Адрес: %s\nОписание квартиры: %s\nОписание дома: %s\nУсловия сделки: %s",
		session.Address, session.FlatDescription, session.HouseOptions, session.DealDetails)
}
