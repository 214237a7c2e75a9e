// Package bot is the command orchestrator: it parses a paint command,
// compiles and translates the prompt, admits the job against the
// concurrency limits, drives the backend call, and assembles the reply.
// The chat host stays behind the Channel interface.
package bot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paintbot/admission"
	"paintbot/db"
	"paintbot/imagefetch"
	"paintbot/locale"
	"paintbot/logging"
	"paintbot/metrics"
	"paintbot/prompt"
	"paintbot/reply"
	"paintbot/sdapi"
)

// Channel sends reply segments into a conversation and deletes previously
// sent messages. Implemented by the chat-host integration.
type Channel interface {
	// Send delivers the segments as one or more messages and returns
	// their message ids in send order.
	Send(ctx context.Context, channelID string, segments []reply.Segment) ([]string, error)

	// DeleteMessage removes one previously sent message.
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// Fetcher downloads the init image referenced by an image-to-image command.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*imagefetch.Image, error)
}

// Rewriter rewrites CJK prompt text before compilation. Best-effort: it
// returns the input unchanged on any failure.
type Rewriter interface {
	Rewrite(ctx context.Context, text string) string
}

// Generator performs one backend generation call.
type Generator interface {
	Generate(ctx context.Context, req sdapi.GenerationRequest) ([][]byte, error)
}

// Config holds the per-command settings the orchestrator reads.
type Config struct {
	MaxConcurrency int
	Language       string
	BasePrompt     string
	BaseNegative   string
	DefaultWidth   int
	DefaultHeight  int
	Scale          float64
	Strength       float64
	ModelLabel     string

	// RecallDelay deletes delivered replies after this delay; zero
	// disables recall.
	RecallDelay time.Duration
}

// Deps are the orchestrator's collaborators. Rewriter and History may be
// nil when the corresponding feature is disabled.
type Deps struct {
	Rules     *prompt.RuleSet
	Registry  *admission.Registry
	Rewriter  Rewriter
	Fetcher   Fetcher
	Generator Generator
	Assembler *reply.Assembler
	Metrics   *metrics.Store
	History   *db.Repository
	Logger    *logging.Logger
}

// Bot drives one paint command end to end.
type Bot struct {
	cfg  Config
	deps Deps
	log  *logging.Logger
}

// New creates the orchestrator.
func New(cfg Config, deps Deps) *Bot {
	return &Bot{cfg: cfg, deps: deps, log: deps.Logger.Named("bot")}
}

// Request is one incoming paint command.
type Request struct {
	// ConversationID scopes the per-conversation concurrency limit.
	ConversationID string

	// ChannelID addresses outgoing messages.
	ChannelID string

	// Text is the raw command text (options plus prompt).
	Text string
}

// HandleCommand runs the full pipeline for one command. All failures are
// reported to the user through ch; the returned error is for the caller's
// logging only and mirrors what the user was told.
func (b *Bot) HandleCommand(ctx context.Context, req Request, ch Channel) error {
	start := time.Now()
	correlationID := uuid.NewString()
	log := b.log.With(
		zap.String("correlationId", correlationID),
		zap.String("conversationId", req.ConversationID),
	)

	opts, err := ParseCommand(req.Text)
	if err != nil {
		b.sendText(ctx, ch, req.ChannelID, b.userMessage(err))
		return err
	}

	imageURL, text := prompt.ExtractImageRef(opts.Text)

	compiled, err := prompt.Compile(text, opts.Undesired, opts.Override,
		prompt.Defaults{BasePrompt: b.cfg.BasePrompt, BaseNegative: b.cfg.BaseNegative},
		b.deps.Rules.Active())
	if err != nil {
		b.sendText(ctx, ch, req.ChannelID, b.userMessage(err))
		return err
	}

	// Translation rewrites the compiled positive terms only: rule matching
	// has already run against the user's original wording, and negative
	// terms are never translated.
	promptText := compiled.Prompt()
	if b.deps.Rewriter != nil {
		promptText = b.deps.Rewriter.Rewrite(ctx, promptText)
	}

	// Queue position is read before this job joins the global set, so the
	// count never includes the job being announced.
	pending := b.deps.Registry.GlobalPending()
	jobID, err := b.deps.Registry.TryAdmit(req.ConversationID, b.cfg.MaxConcurrency)
	if err != nil {
		b.deps.Metrics.RecordRejection()
		b.sendText(ctx, ch, req.ChannelID, b.userMessage(err))
		return err
	}
	defer b.deps.Registry.Release(req.ConversationID, jobID)

	noticeIDs := b.sendNotice(ctx, ch, req.ChannelID, pending)

	var initImage *sdapi.InitImage
	if imageURL != "" {
		img, err := b.deps.Fetcher.Fetch(ctx, imageURL)
		if err != nil {
			b.finishError(ctx, ch, req, correlationID, nil, err, time.Since(start), noticeIDs, log)
			return err
		}
		initImage = &sdapi.InitImage{DataURL: img.DataURL, Width: img.Width, Height: img.Height}
	}

	genReq := sdapi.BuildRequest(promptText, compiled.NegativePrompt(),
		sdapi.Options{
			Width:    opts.Width,
			Height:   opts.Height,
			Seed:     opts.Seed,
			Scale:    opts.Scale,
			Strength: opts.Strength,
		},
		initImage,
		sdapi.BuilderDefaults{
			Width:    b.cfg.DefaultWidth,
			Height:   b.cfg.DefaultHeight,
			Scale:    b.cfg.Scale,
			Strength: b.cfg.Strength,
		})

	images, err := b.deps.Generator.Generate(ctx, genReq)
	duration := time.Since(start)
	if err != nil {
		b.finishError(ctx, ch, req, correlationID, &genReq, err, duration, noticeIDs, log)
		return err
	}

	b.deps.Metrics.RecordSuccess(duration)
	b.record(ctx, correlationID, req.ConversationID, &genReq, db.StatusSuccess, "", duration, log)

	params := reply.Params{
		Seed:           genReq.Seed,
		Prompt:         genReq.Prompt,
		NegativePrompt: genReq.NegativePrompt,
		CFGScale:       genReq.CFGScale,
		Strength:       genReq.DenoisingStrength,
		ModelLabel:     b.cfg.ModelLabel,
		Image:          images[0],
	}
	messageIDs, err := ch.Send(ctx, req.ChannelID, b.deps.Assembler.Build(params))
	if err != nil {
		log.Warnw("Failed to deliver reply", "error", err)
	}
	b.deleteMessages(ctx, ch, req.ChannelID, noticeIDs, log)

	if b.cfg.RecallDelay > 0 {
		reply.NewRecaller(b.cfg.RecallDelay, ch, log).Schedule(req.ChannelID, messageIDs)
	}

	log.Infow("Generation completed",
		"seed", genReq.Seed,
		"durationMs", duration.Milliseconds(),
		"imageToImage", genReq.IsImageToImage(),
	)
	return nil
}

// finishError records, reports, and cleans up after a failed job.
func (b *Bot) finishError(ctx context.Context, ch Channel, req Request, correlationID string,
	genReq *sdapi.GenerationRequest, cause error, duration time.Duration,
	noticeIDs []string, log *logging.Logger) {

	kind := errorKind(cause)
	b.deps.Metrics.RecordFailure(kind, duration)
	b.record(ctx, correlationID, req.ConversationID, genReq, db.StatusError, kind, duration, log)

	log.Warnw("Generation failed", "kind", kind, "error", cause)
	b.sendText(ctx, ch, req.ChannelID, b.userMessage(cause))
	b.deleteMessages(ctx, ch, req.ChannelID, noticeIDs, log)
}

// sendNotice posts the queued/painting progress message and returns its ids
// so it can be removed once the result is ready.
func (b *Bot) sendNotice(ctx context.Context, ch Channel, channelID string, pending int) []string {
	var msg string
	if pending > 0 {
		msg = locale.Text(b.cfg.Language, "pending", pending)
	} else {
		msg = locale.Text(b.cfg.Language, "waiting")
	}
	ids, err := ch.Send(ctx, channelID, []reply.Segment{{Type: reply.SegmentText, Text: msg}})
	if err != nil {
		b.log.Warnw("Failed to send progress notice", "error", err)
		return nil
	}
	return ids
}

func (b *Bot) sendText(ctx context.Context, ch Channel, channelID, text string) {
	if _, err := ch.Send(ctx, channelID, []reply.Segment{{Type: reply.SegmentText, Text: text}}); err != nil {
		b.log.Warnw("Failed to send message", "error", err)
	}
}

func (b *Bot) deleteMessages(ctx context.Context, ch Channel, channelID string, ids []string, log *logging.Logger) {
	for _, id := range ids {
		if err := ch.DeleteMessage(ctx, channelID, id); err != nil {
			log.Warnw("Failed to delete progress notice", "messageId", id, "error", err)
		}
	}
}

func (b *Bot) record(ctx context.Context, correlationID, conversationID string,
	genReq *sdapi.GenerationRequest, status, errKind string, duration time.Duration,
	log *logging.Logger) {

	if b.deps.History == nil {
		return
	}
	rec := db.GenerationRecord{
		CorrelationID:  correlationID,
		ConversationID: conversationID,
		Status:         status,
		ErrorKind:      errKind,
		DurationMS:     duration.Milliseconds(),
		CreatedAt:      time.Now(),
	}
	if genReq != nil {
		rec.Prompt = genReq.Prompt
		rec.NegativePrompt = genReq.NegativePrompt
		rec.Seed = genReq.Seed
		rec.Width = genReq.Width
		rec.Height = genReq.Height
		rec.Steps = genReq.Steps
	}
	if _, err := b.deps.History.InsertGeneration(ctx, rec); err != nil {
		log.Warnw("Failed to record generation history", "error", err)
	}
}

// localeKeyed is the contract every pipeline error satisfies: a stable key
// into the locale tables.
type localeKeyed interface {
	LocaleKey() string
}

// userMessage maps a pipeline error to the localized user-facing string.
func (b *Bot) userMessage(err error) string {
	var backendErr *sdapi.Error
	if errors.As(err, &backendErr) {
		switch backendErr.Kind {
		case sdapi.KindBackendMessage:
			return locale.Text(b.cfg.Language, backendErr.LocaleKey(), backendErr.Message)
		case sdapi.KindBackendStatus:
			return locale.Text(b.cfg.Language, backendErr.LocaleKey(), backendErr.Status)
		default:
			return locale.Text(b.cfg.Language, backendErr.LocaleKey())
		}
	}
	var optErr *InvalidOptionError
	if errors.As(err, &optErr) {
		return locale.Text(b.cfg.Language, optErr.LocaleKey(), optErr.Flag)
	}
	var keyed localeKeyed
	if errors.As(err, &keyed) {
		return locale.Text(b.cfg.Language, keyed.LocaleKey())
	}
	return locale.Text(b.cfg.Language, "unknown-error")
}

// errorKind reduces a pipeline error to a stable label for metrics and
// history rows.
func errorKind(err error) string {
	var backendErr *sdapi.Error
	if errors.As(err, &backendErr) {
		return string(backendErr.Kind)
	}
	var netErr *imagefetch.NetworkError
	if errors.As(err, &netErr) {
		return "download"
	}
	return "unknown"
}
