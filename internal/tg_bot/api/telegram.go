package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const (
	telegramMaxMessageLen = 4096 // Message length limit in characters
	telegramMaxMediaGroup = 10   // Media group size limit
)

// TelegramMessenger sends replies and downloads uploads through the Telegram Bot API.
type TelegramMessenger struct {
	bot    *tgbotapi.BotAPI
	client *http.Client // Used for file downloads
}

// NewTelegramMessenger wraps a Bot API instance.
func NewTelegramMessenger(bot *tgbotapi.BotAPI) *TelegramMessenger {
	return &TelegramMessenger{
		bot: bot,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendText sends plain text, split into several messages if it is too long.
func (t *TelegramMessenger) SendText(chatID int64, text string) error {
	return t.send(chatID, text, "")
}

// SendMarkdown sends text with Markdown formatting. A chunk Telegram refuses to
// parse is resent as plain text, so chunks already delivered are not repeated.
func (t *TelegramMessenger) SendMarkdown(chatID int64, text string) error {
	return t.send(chatID, text, tgbotapi.ModeMarkdown)
}

func (t *TelegramMessenger) send(chatID int64, text, parseMode string) error {
	for i, chunk := range SplitMessage(text, telegramMaxMessageLen) {
		err := t.sendChunk(chatID, chunk, parseMode)
		if err != nil && parseMode != "" {
			logrus.WithError(err).Warnf("Chunk %d rejected with %s, sending as plain text", i+1, parseMode)
			err = t.sendChunk(chatID, chunk, "")
		}
		if err != nil {
			return fmt.Errorf("send message to chat %d: %w", chatID, err)
		}
	}
	return nil
}

func (t *TelegramMessenger) sendChunk(chatID int64, chunk, parseMode string) error {
	msg := tgbotapi.NewMessage(chatID, chunk)
	msg.ParseMode = parseMode
	_, err := t.bot.Send(msg)
	return err
}

// SendPhotos sends previously uploaded photos by file ID, grouped into albums of at most 10.
func (t *TelegramMessenger) SendPhotos(chatID int64, fileIDs []string) error {
	if len(fileIDs) == 1 {
		if _, err := t.bot.Send(tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileIDs[0]))); err != nil {
			return fmt.Errorf("send photo to chat %d: %w", chatID, err)
		}
		return nil
	}

	for start := 0; start < len(fileIDs); start += telegramMaxMediaGroup {
		end := start + telegramMaxMediaGroup
		if end > len(fileIDs) {
			end = len(fileIDs)
		}
		media := make([]interface{}, 0, end-start)
		for _, id := range fileIDs[start:end] {
			media = append(media, tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(id)))
		}
		if _, err := t.bot.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, media)); err != nil {
			return fmt.Errorf("send media group to chat %d: %w", chatID, err)
		}
	}
	return nil
}

// DownloadFile fetches the content of an uploaded file.
func (t *TelegramMessenger) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := t.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	res, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer func() {
		if err = res.Body.Close(); err != nil {
			logrus.WithError(err).Errorf("Failed to close response body: %v", err)
		}
	}()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status code %d", res.StatusCode)
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	logrus.Debugf("Downloaded file %s, %d bytes", fileID, len(data))
	return data, nil
}

// BotCommand is a command shown in the Telegram client menu.
type BotCommand struct {
	Command     string
	Description string
}

// RegisterCommands publishes the bot command menu.
func (t *TelegramMessenger) RegisterCommands(commands []BotCommand) error {
	botCommands := make([]tgbotapi.BotCommand, 0, len(commands))
	for _, c := range commands {
		botCommands = append(botCommands, tgbotapi.BotCommand{Command: c.Command, Description: c.Description})
	}
	if _, err := t.bot.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		return fmt.Errorf("set bot commands: %w", err)
	}
	return nil
}

// SplitMessage cuts text into chunks of at most limit characters, preferring line breaks.
func SplitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		if i := strings.LastIndex(string(runes[:limit]), "\n"); i > 0 {
			cut = len([]rune(string(runes[:limit])[:i]))
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
		// Перенос строки на границе не переносим в следующий кусок
		if len(runes) > 0 && runes[0] == '\n' {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
