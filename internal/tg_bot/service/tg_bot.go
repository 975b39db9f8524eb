// Package service provides the core logic of the description bot: the step-by-step
// collection of listing data, infrastructure enrichment, rate limiting and generation.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/constant"
	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultGenerationTimeout bounds one detached generation job.
const DefaultGenerationTimeout = 3 * time.Minute

// MaxAnalyzeLength is the longest text /analyze accepts, in characters.
const MaxAnalyzeLength = 1000

// Messenger delivers replies to a chat and fetches user uploads.
type Messenger interface {
	SendText(chatID int64, text string) error
	// SendMarkdown sends Markdown text; a part Telegram rejects is resent as plain text.
	SendMarkdown(chatID int64, text string) error
	SendPhotos(chatID int64, fileIDs []string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// SessionRepository stores per-user sessions.
type SessionRepository interface {
	GetStep(userID int64) models.Step
	GetSession(userID int64) models.Session
	Update(userID int64, patch models.SessionPatch)
	AdvanceStep(userID int64) models.Step
	ClearCycle(userID int64)
	ClearCycleIf(userID int64, cycle uint64) bool
	Reset(userID int64)
	Count() int
}

// Limiter gates generation requests.
type Limiter interface {
	Allow(ctx context.Context, userID int64) error
}

// Aggregator builds the infrastructure summary of an address.
type Aggregator interface {
	Summarize(ctx context.Context, address string, radius int) models.InfrastructureSummary
}

// Composer generates a description from the collected data.
type Composer interface {
	Compose(ctx context.Context, userText string, summary models.InfrastructureSummary, photos []models.Photo, address string) (string, error)
	ComposeFromContext(ctx context.Context, userContext string) (string, error)
	Analyze(ctx context.Context, post, userContext string) (string, error)
	ChangeModel(modelName string) error
}

// PostJournal records the texts users submit for analysis.
type PostJournal interface {
	Record(userID int64, post string) error
}

// UserContextRepository returns the stored background of a user, empty if there is none.
type UserContextRepository interface {
	Load(userID int64) (string, error)
}

// DriverOptions tunes the conversation driver.
type DriverOptions struct {
	OwnerID           int64         // Telegram ID allowed to run /model and /chats
	SearchRadius      int           // Nominal infrastructure radius in meters
	KeepDataOnFailure bool          // Keep the listing after a failed generation so /retry can reuse it
	GenerationTimeout time.Duration // Upper bound for one generation job
}

// DriverStats is a point-in-time view of the driver for the status endpoint.
type DriverStats struct {
	Sessions     int           `json:"sessions"`
	JobsInFlight int64         `json:"jobs_in_flight"`
	Chats        ChatsSnapshot `json:"chats"`
}

// DescBotServices drives the data-collection state machine for every user.
//
// Inbound messages are handled one at a time by the caller's update loop. Generation
// runs as a detached job per request: the update loop does not wait for it, and the
// job reports its result or failure back to the originating chat on its own.
type DescBotServices struct {
	Messenger  Messenger
	Sessions   SessionRepository
	Limiter    Limiter
	Aggregator Aggregator
	Composer   Composer
	Chats      *ChatTracker
	Journal    PostJournal
	Contexts   UserContextRepository
	opts       DriverOptions

	jobs     sync.WaitGroup
	inFlight atomic.Int64
}

// nopJournal drops every post.
type nopJournal struct{}

func (nopJournal) Record(int64, string) error { return nil }

// noContexts has no stored background for anyone.
type noContexts struct{}

func (noContexts) Load(int64) (string, error) { return "", nil }

// NewDescBot creates the conversation driver with its collaborators.
// A nil chats, journal or contexts gets an in-memory or empty default.
func NewDescBot(messenger Messenger, sessions SessionRepository, limiter Limiter, aggregator Aggregator, composer Composer,
	chats *ChatTracker, journal PostJournal, contexts UserContextRepository, opts DriverOptions) *DescBotServices {
	if opts.SearchRadius <= 0 {
		opts.SearchRadius = DefaultSearchRadius
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = DefaultGenerationTimeout
	}
	if chats == nil {
		chats = NewChatTracker(nil)
	}
	if journal == nil {
		journal = nopJournal{}
	}
	if contexts == nil {
		contexts = noContexts{}
	}
	return &DescBotServices{
		Messenger:  messenger,
		Sessions:   sessions,
		Limiter:    limiter,
		Aggregator: aggregator,
		Composer:   composer,
		Chats:      chats,
		Journal:    journal,
		Contexts:   contexts,
		opts:       opts,
	}
}

// sendMessage sends a plain text reply and logs a delivery failure.
func (b *DescBotServices) sendMessage(chatID int64, text string) {
	if err := b.Messenger.SendText(chatID, text); err != nil {
		logrus.WithError(err).Errorf("Failed to send message to chat %d", chatID)
	}
}

// sendMarkdown sends generated text with Markdown formatting. Models answer with
// "**bold**" while Telegram Markdown expects "*bold*".
func (b *DescBotServices) sendMarkdown(chatID int64, text string) {
	if err := b.Messenger.SendMarkdown(chatID, strings.ReplaceAll(text, "**", "*")); err != nil {
		logrus.WithError(err).Errorf("Failed to send formatted message to chat %d", chatID)
	}
}

// UpdateProcessing converts a Telegram update and dispatches it.
func (b *DescBotServices) UpdateProcessing(ctx context.Context, update *tgbotapi.Update) {
	if update.MyChatMember != nil {
		b.Chats.Track(membershipFromTelegram(update.MyChatMember))
		return
	}
	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		return
	}
	b.HandleMessage(ctx, inboundFromTelegram(update.Message))
}

// HandleMessage processes one inbound message of the current step.
//
// Input of the wrong type for the step leaves the session untouched. After a
// step's field is stored the user gets the prompt for the next step and the step
// advances. The deal-details step wraps back to the address step whether or not
// the generation it triggers succeeds.
func (b *DescBotServices) HandleMessage(ctx context.Context, msg models.InboundMessage) {
	if !msg.IsPrivate() {
		logrus.WithField("chat_id", msg.ChatID).Debug("Non-private message ignored")
		return
	}
	b.Chats.TrackUser(msg.ChatID)

	if command, args, ok := parseCommand(msg.Text); ok {
		logrus.WithField("user_id", msg.UserID).Infof("Command /%s from %s", command, msg.UserName)
		b.handleCommand(ctx, msg, command, args)
		return
	}

	text := strings.TrimSpace(msg.Text)
	step := b.Sessions.GetStep(msg.UserID)
	log := logrus.WithFields(logrus.Fields{"user_id": msg.UserID, "step": int(step)})

	var reply string
	switch step {
	case models.StepAwaitAddress:
		if text == "" {
			if msg.Photo == nil {
				b.sendMessage(msg.ChatID, constant.TEXT_EMPTY_INPUT)
			}
			log.Debug("Address expected, message ignored")
			return
		}
		// Новый цикл: данные прошлого объявления не должны попасть в новое
		b.Sessions.ClearCycle(msg.UserID)
		b.sendMessage(msg.ChatID, constant.TEXT_SEARCHING_INFRASTRUCTURE)
		summary := b.Aggregator.Summarize(ctx, text, b.opts.SearchRadius)
		b.Sessions.Update(msg.UserID, models.SessionPatch{
			Address:        models.PatchString(text),
			Infrastructure: &summary,
		})
		if summary.IsEmpty() {
			b.sendMessage(msg.ChatID, constant.TEXT_NO_INFRASTRUCTURE)
		}
		reply = constant.TEXT_AFTER_ADDRESS

	case models.StepAwaitPhoto:
		if msg.Photo == nil {
			b.sendMessage(msg.ChatID, constant.TEXT_PHOTO_EXPECTED)
			log.Debug("Photo expected, message ignored")
			return
		}
		data, err := b.Messenger.DownloadFile(ctx, msg.Photo.FileID)
		if err != nil {
			log.WithError(err).Error("Photo download failed")
			b.sendMessage(msg.ChatID, constant.TEXT_PHOTO_DOWNLOAD_FAILED)
			return
		}
		b.Sessions.Update(msg.UserID, models.SessionPatch{Photo: &models.Photo{
			FileID:   msg.Photo.FileID,
			MIMEType: msg.Photo.MIMEType,
			Data:     data,
		}})
		reply = constant.TEXT_AFTER_PHOTO

	case models.StepAwaitFlatDescription:
		if text == "" {
			log.Debug("Flat description expected, message ignored")
			return
		}
		b.Sessions.Update(msg.UserID, models.SessionPatch{FlatDescription: models.PatchString(text)})
		reply = constant.TEXT_AFTER_FLAT

	case models.StepAwaitHouseOptions:
		if text == "" {
			log.Debug("House options expected, message ignored")
			return
		}
		b.Sessions.Update(msg.UserID, models.SessionPatch{HouseOptions: models.PatchString(text)})
		reply = constant.TEXT_AFTER_HOUSE

	case models.StepAwaitDealDetails:
		if text == "" {
			log.Debug("Deal details expected, message ignored")
			return
		}
		b.Sessions.Update(msg.UserID, models.SessionPatch{DealDetails: models.PatchString(text)})
		b.Sessions.AdvanceStep(msg.UserID)
		b.requestGeneration(ctx, msg)
		return
	}

	b.Sessions.AdvanceStep(msg.UserID)
	b.sendMessage(msg.ChatID, reply)
}

// allow checks the daily quota and tells the user when it is exhausted.
// A failing quota store does not block the user.
func (b *DescBotServices) allow(ctx context.Context, msg models.InboundMessage) bool {
	err := b.Limiter.Allow(ctx, msg.UserID)
	if err == nil {
		return true
	}
	if errors.Is(err, ErrQuotaExceeded) {
		b.sendMessage(msg.ChatID, constant.TEXT_QUOTA_EXCEEDED)
		return false
	}
	logrus.WithError(err).WithField("user_id", msg.UserID).Error("Rate limit check failed")
	return true
}

// requestGeneration checks the quota and starts a generation job over the user's current session.
func (b *DescBotServices) requestGeneration(ctx context.Context, msg models.InboundMessage) {
	if !b.allow(ctx, msg) {
		return
	}
	b.sendMessage(msg.ChatID, constant.TEXT_GENERATING)
	b.startGeneration(ctx, msg.ChatID, b.Sessions.GetSession(msg.UserID))
}

// spawnJob runs fn as a detached job. The job survives cancellation of ctx and is
// bounded by the generation timeout. A panic in fn is logged and handed to onPanic.
func (b *DescBotServices) spawnJob(ctx context.Context, userID int64, fn func(ctx context.Context, log *logrus.Entry), onPanic func()) {
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "job_id": uuid.NewString()})

	b.jobs.Add(1)
	b.inFlight.Add(1)
	go func() {
		defer b.jobs.Done()
		defer b.inFlight.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("Job panicked: %v", r)
				onPanic()
			}
		}()

		jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.opts.GenerationTimeout)
		defer cancel()
		fn(jobCtx, log)
	}()
}

// startGeneration runs the generation for a session snapshot as a detached job.
func (b *DescBotServices) startGeneration(ctx context.Context, chatID int64, session models.Session) {
	b.spawnJob(ctx, session.UserID, func(ctx context.Context, log *logrus.Entry) {
		start := time.Now()
		var photos []models.Photo
		if session.Photo != nil {
			photos = append(photos, *session.Photo)
		}
		description, err := b.Composer.Compose(ctx, ListingDetails(session), session.Infrastructure, photos, session.Address)
		if err != nil {
			log.WithError(err).Error("Generation failed")
			b.deliverFailure(chatID, session, err)
			return
		}
		log.Infof("Description generated in %v", time.Since(start))
		b.deliverDescription(chatID, session, description)
	}, func() {
		b.deliverFailure(chatID, session, fmt.Errorf("%w: internal error", ErrGenerationFailed))
	})
}

// deliverDescription sends the uploaded photo back followed by the generated description.
func (b *DescBotServices) deliverDescription(chatID int64, session models.Session, description string) {
	if session.Photo != nil && session.Photo.FileID != "" {
		if err := b.Messenger.SendPhotos(chatID, []string{session.Photo.FileID}); err != nil {
			logrus.WithError(err).Errorf("Failed to send photos to chat %d", chatID)
		}
	}
	b.sendMessage(chatID, constant.TEXT_DESCRIPTION_READY)
	b.sendMarkdown(chatID, description)
	b.sendMessage(chatID, constant.TEXT_TRY_AGAIN)
}

// deliverFailure reports a failed generation and applies the data retention policy
// to the cycle the job was started from.
func (b *DescBotServices) deliverFailure(chatID int64, session models.Session, err error) {
	b.sendMessage(chatID, fmt.Sprintf(constant.TEXT_GENERATION_FAILED, err))

	if b.opts.KeepDataOnFailure {
		b.sendMessage(chatID, constant.TEXT_RETRY_AVAILABLE)
		return
	}
	// Если пользователь уже начал новый цикл, его данные не трогаем
	if !b.Sessions.ClearCycleIf(session.UserID, session.Cycle) {
		logrus.WithField("user_id", session.UserID).Debug("New cycle already started, data kept")
	}
}

// analyzeText journals a user's text and sends the model's review of it.
func (b *DescBotServices) analyzeText(ctx context.Context, msg models.InboundMessage, post string) {
	if post == "" {
		b.sendMessage(msg.ChatID, constant.TEXT_ANALYZE_EMPTY)
		return
	}
	if utf8.RuneCountInString(post) > MaxAnalyzeLength {
		b.sendMessage(msg.ChatID, constant.TEXT_ANALYZE_TOO_LONG)
		return
	}
	if err := b.Journal.Record(msg.UserID, post); err != nil {
		logrus.WithError(err).WithField("user_id", msg.UserID).Error("Failed to journal post")
	}
	if !b.allow(ctx, msg) {
		return
	}

	b.sendMessage(msg.ChatID, constant.TEXT_ANALYZING)
	userContext := b.userContext(msg.UserID)
	b.spawnJob(ctx, msg.UserID, func(ctx context.Context, log *logrus.Entry) {
		analysis, err := b.Composer.Analyze(ctx, post, userContext)
		if err != nil {
			log.WithError(err).Error("Analysis failed")
			b.sendMessage(msg.ChatID, fmt.Sprintf(constant.TEXT_ANALYZE_FAILED, err))
			return
		}
		b.sendMarkdown(msg.ChatID, analysis)
	}, func() {
		b.sendMessage(msg.ChatID, fmt.Sprintf(constant.TEXT_ANALYZE_FAILED, ErrGenerationFailed))
	})
}

// generateFromContext generates a description from the user's stored background
// alone. The data-collection cycle is not touched.
func (b *DescBotServices) generateFromContext(ctx context.Context, msg models.InboundMessage) {
	userContext := b.userContext(msg.UserID)
	if userContext == "" {
		b.sendMessage(msg.ChatID, constant.TEXT_GENERATE_NO_CONTEXT)
		return
	}
	if !b.allow(ctx, msg) {
		return
	}

	b.sendMessage(msg.ChatID, constant.TEXT_GENERATING)
	b.spawnJob(ctx, msg.UserID, func(ctx context.Context, log *logrus.Entry) {
		description, err := b.Composer.ComposeFromContext(ctx, userContext)
		if err != nil {
			log.WithError(err).Error("Generation from context failed")
			b.sendMessage(msg.ChatID, fmt.Sprintf(constant.TEXT_GENERATION_FAILED, err))
			return
		}
		b.sendMessage(msg.ChatID, constant.TEXT_DESCRIPTION_READY)
		b.sendMarkdown(msg.ChatID, description)
	}, func() {
		b.sendMessage(msg.ChatID, fmt.Sprintf(constant.TEXT_GENERATION_FAILED, ErrGenerationFailed))
	})
}

// userContext loads the stored background of a user; a read failure counts as none.
func (b *DescBotServices) userContext(userID int64) string {
	userContext, err := b.Contexts.Load(userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to load user context")
		return ""
	}
	return strings.TrimSpace(userContext)
}

// handleCommand executes a bot command.
func (b *DescBotServices) handleCommand(ctx context.Context, msg models.InboundMessage, command, args string) {
	switch command {
	case constant.COMMAND_START:
		b.Sessions.Reset(msg.UserID)
		b.sendMessage(msg.ChatID, constant.TEXT_WELCOME)
	case constant.COMMAND_HELP:
		b.sendMessage(msg.ChatID, constant.TEXT_HELP)
	case constant.COMMAND_RETRY:
		b.retryGeneration(ctx, msg)
	case constant.COMMAND_ANALYZE:
		b.analyzeText(ctx, msg, args)
	case constant.COMMAND_GENERATE:
		b.generateFromContext(ctx, msg)
	case constant.COMMAND_MODEL:
		if !b.isOwner(msg) {
			return
		}
		if args == "" {
			b.sendMessage(msg.ChatID, constant.TEXT_MODEL_USAGE)
			return
		}
		if err := b.Composer.ChangeModel(args); err != nil {
			logrus.WithError(err).Errorf("Failed to change model to %s", args)
			b.sendMessage(msg.ChatID, fmt.Sprintf(constant.TEXT_MODEL_NOT_CHANGE, err))
			return
		}
		logrus.Infof("Generative model changed to %s", args)
		b.sendMessage(msg.ChatID, fmt.Sprintf(constant.TEXT_MODEL_CHANGED, args))
	case constant.COMMAND_CHATS:
		if !b.isOwner(msg) {
			return
		}
		chats := b.Chats.Snapshot()
		b.sendMessage(msg.ChatID, fmt.Sprintf(constant.TEXT_CHATS,
			JoinIDs(chats.Users), JoinIDs(chats.Groups), JoinIDs(chats.Channels)))
	default:
		logrus.WithField("user_id", msg.UserID).Debugf("Unknown command /%s ignored", command)
	}
}

// retryGeneration regenerates the description from the data of the last finished cycle.
func (b *DescBotServices) retryGeneration(ctx context.Context, msg models.InboundMessage) {
	if b.Sessions.GetStep(msg.UserID) != models.StepAwaitAddress {
		b.sendMessage(msg.ChatID, constant.TEXT_RETRY_ONLY_AT_START)
		return
	}
	if !b.Sessions.GetSession(msg.UserID).HasListing() {
		b.sendMessage(msg.ChatID, constant.TEXT_NOTHING_TO_RETRY)
		return
	}
	b.requestGeneration(ctx, msg)
}

func (b *DescBotServices) isOwner(msg models.InboundMessage) bool {
	if b.opts.OwnerID != 0 && msg.UserID == b.opts.OwnerID {
		return true
	}
	b.sendMessage(msg.ChatID, constant.TEXT_OWNER_ONLY)
	return false
}

// Wait blocks until every generation job has finished or ctx is done.
func (b *DescBotServices) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for generation jobs: %w", ctx.Err())
	}
}

// Stats returns the current driver counters.
func (b *DescBotServices) Stats() DriverStats {
	return DriverStats{
		Sessions:     b.Sessions.Count(),
		JobsInFlight: b.inFlight.Load(),
		Chats:        b.Chats.Snapshot(),
	}
}

// parseCommand splits "/cmd@bot args" into its command and arguments.
func parseCommand(text string) (command, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") || len(text) < 2 {
		return "", "", false
	}
	head, rest := text[1:], ""
	if i := strings.IndexFunc(head, unicode.IsSpace); i >= 0 {
		head, rest = head[:i], head[i:]
	}
	command, _, _ = strings.Cut(head, "@")
	if command == "" {
		return "", "", false
	}
	return strings.ToLower(command), strings.TrimSpace(rest), true
}

// inboundFromTelegram converts a Telegram message, picking the largest photo size
// or an uncompressed image document as the attachment.
func inboundFromTelegram(message *tgbotapi.Message) models.InboundMessage {
	msg := models.InboundMessage{
		UserID:    message.From.ID,
		ChatID:    message.Chat.ID,
		ChatType:  message.Chat.Type,
		UserName:  message.From.UserName,
		MessageID: message.MessageID,
		Text:      message.Text,
	}

	if len(message.Photo) > 0 {
		largest := message.Photo[0]
		for _, size := range message.Photo[1:] {
			if size.Width*size.Height > largest.Width*largest.Height {
				largest = size
			}
		}
		msg.Photo = &models.PhotoRef{FileID: largest.FileID, MIMEType: "image/jpeg"}
	} else if message.Document != nil && strings.HasPrefix(message.Document.MimeType, "image/") {
		msg.Photo = &models.PhotoRef{FileID: message.Document.FileID, MIMEType: message.Document.MimeType}
	}
	return msg
}

// membershipFromTelegram converts a my_chat_member update.
func membershipFromTelegram(update *tgbotapi.ChatMemberUpdated) models.MembershipChange {
	cause := strings.TrimSpace(update.From.FirstName + " " + update.From.LastName)
	if cause == "" {
		cause = update.From.UserName
	}
	return models.MembershipChange{
		ChatID:      update.Chat.ID,
		ChatType:    update.Chat.Type,
		ChatTitle:   update.Chat.Title,
		CauseName:   cause,
		OldStatus:   update.OldChatMember.Status,
		NewStatus:   update.NewChatMember.Status,
		OldIsMember: update.OldChatMember.IsMember,
		NewIsMember: update.NewChatMember.IsMember,
	}
}
