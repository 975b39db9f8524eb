// Package generative selects the generation backend by name.
package generative

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/api"
	botServ "github.com/DenisKhanov/DescGenBOT/internal/tg_bot/service"
)

// Settings configures a generation backend.
type Settings struct {
	APIKey      string
	ModelName   string
	Endpoint    string // API base URL, OpenAI and OpenRouter only
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// generativeCreator defines a function to create GenerativeModel
type generativeCreator func(s Settings) (botServ.GenerativeModel, error)

// generativeRegistry stores registered implementations
var generativeRegistry = map[string]generativeCreator{
	"openai": func(s Settings) (botServ.GenerativeModel, error) {
		model, err := api.NewOpenAIAPI(s.APIKey, s.Endpoint, s.ModelName, s.MaxTokens, s.Temperature, s.Timeout)
		if err != nil {
			return nil, err
		}
		return model, nil
	},
	"openrouter": func(s Settings) (botServ.GenerativeModel, error) {
		model, err := api.NewOpenRouterAPI(s.APIKey, s.Endpoint, s.ModelName, s.MaxTokens, s.Temperature, s.Timeout)
		if err != nil {
			return nil, err
		}
		return model, nil
	},
	"gemini": func(s Settings) (botServ.GenerativeModel, error) {
		model, err := api.NewGeminiAPI(s.APIKey, s.ModelName, s.MaxTokens, s.Temperature)
		if err != nil {
			return nil, err
		}
		return model, nil
	},
	"deepseek": func(s Settings) (botServ.GenerativeModel, error) {
		model, err := api.NewDeepSeekAPI(s.APIKey, s.ModelName, s.MaxTokens, s.Temperature)
		if err != nil {
			return nil, err
		}
		return model, nil
	},
}

// ModelFactory creates a GenerativeModel implementation registered under generativeName.
func ModelFactory(generativeName string, s Settings) (botServ.GenerativeModel, error) {
	creator, exists := generativeRegistry[generativeName]
	if !exists {
		return nil, fmt.Errorf("unsupported GENERATIVE_NAME: %s (expected one of %s)", generativeName, strings.Join(Names(), ", "))
	}
	return creator(s)
}

// Names returns the registered backend names in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(generativeRegistry))
	for name := range generativeRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
