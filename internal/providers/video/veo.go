package video

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"animator/internal/domain"
	"animator/internal/infra"
	"animator/internal/metrics"
	"animator/internal/providers/genai"
)

// DefaultPollInterval is the fixed delay between status queries.
const DefaultPollInterval = 10 * time.Second

const historyTimeout = 5 * time.Second

// Options wires an Animator.
type Options struct {
	Backend      Backend
	Publisher    ArtifactPublisher
	PollInterval time.Duration
	// MaxWait bounds AwaitResult. Zero polls until the operation is done.
	MaxWait time.Duration
	Logger  *infra.Logger
	Metrics *metrics.Recorder
	History domain.GenerationRepository
}

// Animator submits one generation, polls it to completion and downloads the
// first generated video.
type Animator struct {
	backend   Backend
	publisher ArtifactPublisher
	interval  time.Duration
	maxWait   time.Duration
	logger    *infra.Logger
	metrics   *metrics.Recorder
	history   domain.GenerationRepository

	wait func(ctx context.Context, d time.Duration) error
	now  func() time.Time
}

// NewAnimator validates opts and fills in defaults.
func NewAnimator(opts Options) (*Animator, error) {
	if opts.Backend == nil {
		return nil, errors.New("video: backend is required")
	}
	if opts.Publisher == nil {
		return nil, errors.New("video: publisher is required")
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Animator{
		backend:   opts.Backend,
		publisher: opts.Publisher,
		interval:  interval,
		maxWait:   opts.MaxWait,
		logger:    logger,
		metrics:   opts.Metrics,
		history:   opts.History,
		wait:      sleepContext,
		now:       time.Now,
	}, nil
}

// Submit issues exactly one creation request. Credentials are checked before
// anything touches the network.
func (a *Animator) Submit(ctx context.Context, req domain.GenerationRequest) (*domain.OperationHandle, error) {
	if !a.backend.HasCredentials() {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, genai.ErrMissingAPIKey)
	}
	if len(req.ImageBytes) == 0 {
		return nil, fmt.Errorf("%w: image is empty", domain.ErrEncoding)
	}
	encoded := base64.StdEncoding.EncodeToString(req.ImageBytes)

	a.logger.Info().
		Str("model", a.backend.Model()).
		Str("mime", req.MIMEType).
		Int("image_bytes", len(req.ImageBytes)).
		Msg("video: starting video generation")

	op, err := a.backend.GenerateVideos(ctx, genai.VideoRequest{
		Prompt:         req.Prompt,
		ImageBase64:    encoded,
		MIMEType:       req.MIMEType,
		NumberOfVideos: 1,
	})
	if err != nil {
		if errors.Is(err, genai.ErrMissingAPIKey) {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		return nil, fmt.Errorf("%w: create operation: %w", domain.ErrTransport, err)
	}

	status := statusFrom(op, "")
	a.logger.Debug().
		Str("operation", status.Name).
		Str("state", string(domain.StateSubmitted)).
		Msg("video: operation submitted")
	return &domain.OperationHandle{
		Name:   status.Name,
		Model:  a.backend.Model(),
		Status: status,
	}, nil
}

// AwaitResult polls the operation every interval until it is done, then
// downloads the first video exactly once.
func (a *Animator) AwaitResult(ctx context.Context, handle *domain.OperationHandle) (*domain.VideoArtifact, error) {
	if handle == nil {
		return nil, errors.New("video: operation handle is required")
	}
	if a.maxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.maxWait)
		defer cancel()
	}

	name := handle.Name
	status := handle.Status
	log := a.logger.With().Str("operation", name).Logger()

	for {
		if status.Error != nil {
			log.Warn().Str("state", string(domain.StateDoneError)).Msg("video: operation failed")
			return nil, fmt.Errorf("%w: %s", domain.ErrGeneration, describe(status.Error))
		}
		if status.Done {
			break
		}
		if err := a.wait(ctx, a.interval); err != nil {
			return nil, fmt.Errorf("video: await operation %s: %w", name, err)
		}
		op, err := a.backend.GetOperation(ctx, name)
		a.metrics.ObservePoll()
		if err != nil {
			return nil, fmt.Errorf("%w: query operation %s: %w", domain.ErrTransport, name, err)
		}
		status = statusFrom(op, name)
		log.Debug().
			Str("state", string(domain.StatePolling)).
			Bool("done", status.Done).
			Msg("video: operation status")
	}

	if status.ResultURI == "" {
		log.Warn().Msg("video: operation finished without a video")
		return nil, domain.ErrMissingResult
	}

	data, mime, err := a.backend.Download(ctx, status.ResultURI)
	if err != nil {
		if errors.Is(err, genai.ErrMissingAPIKey) {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		return nil, fmt.Errorf("%w: download video: %w", domain.ErrTransport, err)
	}
	a.metrics.ObserveDownload(int64(len(data)))
	if mime == "" || strings.HasPrefix(mime, "application/octet-stream") {
		mime = "video/mp4"
	}

	artifact, err := a.publisher.Publish(data, mime)
	if err != nil {
		return nil, fmt.Errorf("video: publish artifact: %w", err)
	}
	artifact.SourceURI = status.ResultURI
	log.Info().
		Str("state", string(domain.StateDoneOK)).
		Str("artifact_id", artifact.ID).
		Int64("bytes", artifact.Size()).
		Msg("video: video ready")
	return artifact, nil
}

// Generate runs Submit and AwaitResult. The original error is logged and the
// caller receives a *ClassifiedError.
func (a *Animator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.VideoArtifact, error) {
	started := a.now()
	handle, err := a.Submit(ctx, req)
	var artifact *domain.VideoArtifact
	if err == nil {
		artifact, err = a.AwaitResult(ctx, handle)
	}
	elapsed := a.now().Sub(started)

	var classified *ClassifiedError
	outcome := domain.OutcomeSucceeded
	if err != nil {
		outcome = domain.OutcomeFailed
		classified = Classify(err)
		a.logger.Error().Err(err).Str("kind", string(classified.Kind)).Msg("video: error generating video")
	}
	a.metrics.ObserveGeneration(string(outcome), elapsed)
	a.record(ctx, req, handle, artifact, classified, elapsed)

	if classified != nil {
		return nil, classified
	}
	return artifact, nil
}

func (a *Animator) record(ctx context.Context, req domain.GenerationRequest, handle *domain.OperationHandle, artifact *domain.VideoArtifact, failure *ClassifiedError, elapsed time.Duration) {
	if a.history == nil {
		return
	}
	rec := &domain.GenerationRecord{
		Model:     a.backend.Model(),
		Prompt:    req.Prompt,
		MIMEType:  req.MIMEType,
		Outcome:   domain.OutcomeSucceeded,
		Duration:  elapsed,
		CreatedAt: a.now().UTC(),
	}
	if handle != nil {
		rec.OperationName = handle.Name
	}
	if artifact != nil {
		rec.ID = artifact.ID
		rec.VideoBytes = artifact.Size()
	}
	if failure != nil {
		rec.Outcome = domain.OutcomeFailed
		rec.ErrorKind = string(failure.Kind)
		rec.ErrorMessage = failure.Err.Error()
	}

	// The caller may already be gone; the audit row is written regardless.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()
	if err := a.history.Record(ctx, rec); err != nil {
		a.logger.Warn().Err(err).Msg("video: record generation history")
	}
}

func statusFrom(op *genai.Operation, fallbackName string) domain.OperationStatus {
	if op == nil {
		return domain.OperationStatus{Name: fallbackName}
	}
	status := domain.OperationStatus{
		Name:      op.Name,
		Done:      op.Done,
		ResultURI: op.FirstVideoURI(),
	}
	if status.Name == "" {
		status.Name = fallbackName
	}
	if op.Error != nil {
		status.Error = &domain.OperationError{
			Code:    op.Error.Code,
			Status:  op.Error.Status,
			Message: op.Error.Message,
		}
	}
	return status
}

func describe(e *domain.OperationError) string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "operation reported an error"
	}
	if e.Status != "" && !strings.Contains(msg, e.Status) {
		msg = fmt.Sprintf("%s (%s)", msg, e.Status)
	}
	return msg
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
