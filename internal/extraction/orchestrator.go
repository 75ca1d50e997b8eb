package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelbites/recipe-extractor/constants"
	"github.com/reelbites/recipe-extractor/internal/common"
	"github.com/reelbites/recipe-extractor/internal/llm"
	"github.com/reelbites/recipe-extractor/internal/provider"
)

// Pipeline is the job-level API. Start streams the event log; StartBatch
// folds it and returns only the terminal outcome. Both are implemented by
// the in-process Orchestrator and by the HTTP stream client, so callers and
// the retry layer cannot tell local from remote.
type Pipeline interface {
	Start(ctx context.Context, sourceURL string, opts Options) (uuid.UUID, <-chan ExtractionEvent, error)
	StartBatch(ctx context.Context, sourceURL string, opts Options) (*ExtractionResult, error)
}

const (
	defaultMaxProcessing = 30 * time.Second
	eventBuffer          = 64
)

// Orchestrator coordinates the five-phase extraction pipeline: fan-out of
// the signal phases, the fusion barrier, final structuring, and the
// per-job watchdog. It holds no job state beyond cancellation handles;
// everything observable is in the event log.
type Orchestrator struct {
	log        *slog.Logger
	fetcher    provider.ContentFetcher
	text       PhaseExecutor
	visual     PhaseExecutor
	audio      PhaseExecutor
	fuser      *Fuser
	structurer llm.RecipeStructurer

	watchdogTimeout    time.Duration
	structuringTimeout time.Duration
	fetchTimeout       time.Duration

	jobs sync.Map // uuid.UUID -> *jobHandle
}

type jobHandle struct {
	cancel  context.CancelFunc
	emitter *emitter
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

func WithWatchdogTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.watchdogTimeout = d }
}

func WithStructuringTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.structuringTimeout = d }
}

func WithFetchTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.fetchTimeout = d }
}

func NewOrchestrator(fetcher provider.ContentFetcher, text, visual, audio PhaseExecutor, fuser *Fuser, structurer llm.RecipeStructurer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		log:                slog.Default(),
		fetcher:            fetcher,
		text:               text,
		visual:             visual,
		audio:              audio,
		fuser:              fuser,
		structurer:         structurer,
		watchdogTimeout:    5 * time.Minute,
		structuringTimeout: 15 * time.Second,
		fetchTimeout:       10 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.fuser == nil {
		o.fuser = NewFuser(DefaultWeights())
	}
	return o
}

// Start validates the request, registers the job and launches it. The
// returned channel carries the job's event log and is closed after the
// terminal event. Validation failures return an error before any event
// exists.
func (o *Orchestrator) Start(ctx context.Context, sourceURL string, opts Options) (uuid.UUID, <-chan ExtractionEvent, error) {
	v := common.NewValidator().
		Field("source_url", sourceURL, common.Required, common.SourceURL)
	if opts.MaxProcessingTime != 0 {
		v.Field("max_processing_time", opts.MaxProcessingTime, common.PositiveSeconds)
	}
	if err := v.Error(); err != nil {
		return uuid.Nil, nil, err
	}

	jobID := uuid.New()
	jobCtx, cancel := context.WithCancel(common.WithJobID(context.WithoutCancel(ctx), jobID))
	ch := make(chan ExtractionEvent, eventBuffer)
	em := newEmitter(jobID, ch, jobCtx.Done())
	o.jobs.Store(jobID, &jobHandle{cancel: cancel, emitter: em})

	log := o.log.With(slog.String("job_id", jobID.String()), slog.String("source_url", sourceURL))
	log.Info("extraction.start",
		slog.Bool("visual", opts.EnableVisual),
		slog.Bool("audio", opts.EnableAudio))

	go func() {
		defer func() {
			cancel()
			o.jobs.Delete(jobID)
			em.close()
		}()
		o.run(jobCtx, log, em, sourceURL, opts)
	}()

	return jobID, ch, nil
}

// StartBatch runs a job to completion and returns only the terminal
// outcome.
func (o *Orchestrator) StartBatch(ctx context.Context, sourceURL string, opts Options) (*ExtractionResult, error) {
	jobID, ch, err := o.Start(ctx, sourceURL, opts)
	if err != nil {
		return nil, err
	}
	for {
		select {
		case <-ctx.Done():
			o.Cancel(jobID)
			return nil, common.NewAppError(common.CodeTransport, "batch caller gone", errors.Join(common.ErrCancelled, ctx.Err()))
		case ev, ok := <-ch:
			if !ok {
				return nil, common.TransportError("event stream closed without terminal event", nil)
			}
			switch ev.Event {
			case EventCompleted:
				return ev.Result, nil
			case EventError:
				return nil, common.ErrorFromCode(ev.ErrorCode, ev.ErrorMessage)
			}
		}
	}
}

// Cancel stops a running job. The job's context is cancelled and its
// emitter muted, so no further events of any kind reach the channel. It
// reports whether the job existed and was still running.
func (o *Orchestrator) Cancel(jobID uuid.UUID) bool {
	v, ok := o.jobs.Load(jobID)
	if !ok {
		return false
	}
	h := v.(*jobHandle)
	h.emitter.mute()
	h.cancel()
	o.log.Info("extraction.cancelled", slog.String("job_id", jobID.String()))
	return true
}

func (o *Orchestrator) run(ctx context.Context, log *slog.Logger, em *emitter, sourceURL string, opts Options) {
	started := time.Now()

	// Watchdog: the one failure mode where the terminal event is emitted
	// from outside the main flow. The emitter's terminal latch keeps this
	// race safe.
	wd := time.AfterFunc(o.watchdogTimeout, func() {
		log.Error("extraction.watchdog_fired", slog.Duration("timeout", o.watchdogTimeout))
		em.terminalError(common.CodeWatchdog, fmt.Sprintf("job exceeded %s without completing", o.watchdogTimeout))
		v, ok := o.jobs.Load(em.jobID)
		if ok {
			v.(*jobHandle).cancel()
		}
	})
	defer wd.Stop()

	fetchCtx, cancelFetch := context.WithTimeout(ctx, o.fetchTimeout)
	content, err := o.fetcher.Fetch(fetchCtx, sourceURL)
	cancelFetch()
	if err != nil {
		log.Error("extraction.fetch_failed", slog.String("error", err.Error()))
		em.terminalError(errCode(err), userMessage(err, "could not fetch post content"))
		return
	}

	outputs := o.fanOut(ctx, log, em, content, opts)
	if ctx.Err() != nil {
		return
	}

	if _, ok := outputByPhase(outputs, constants.PhaseText); !ok {
		em.terminalError(common.CodeProvider, "text analysis failed, cannot continue without the caption signal")
		return
	}

	em.phase(constants.PhaseFusion, constants.PhaseProcessing, 90, "Fusing results from all sources...", 0, nil)
	fused := o.fuser.Fuse(outputs)
	fusedJSON, _ := json.Marshal(fused)
	em.phase(constants.PhaseFusion, constants.PhaseCompleted, 100, "Fusion complete", fused.Confidence, fusedJSON)
	log.Info("extraction.fusion_complete",
		slog.Int("sources", len(outputs)),
		slog.Float64("confidence", fused.Confidence))

	result := o.structure(ctx, log, em, sourceURL, content, outputs, fused)
	if ctx.Err() != nil {
		return
	}
	result.JobID = em.jobID
	result.SourceURL = sourceURL
	result.DataSources = fused.DataSources()

	wd.Stop()
	em.terminalCompleted(result)
	log.Info("extraction.completed",
		slog.Bool("structured", result.Structured),
		slog.Float64("confidence", result.Confidence),
		slog.Duration("elapsed", time.Since(started)))
}

// fanOut runs phases 1-3 concurrently and blocks until all enabled phases
// reach a terminal status. Disabled phases are marked skipped immediately.
func (o *Orchestrator) fanOut(ctx context.Context, log *slog.Logger, em *emitter, content provider.SourceContent, opts Options) []PhaseOutput {
	maxProcessing := defaultMaxProcessing
	if opts.MaxProcessingTime > 0 {
		maxProcessing = time.Duration(opts.MaxProcessingTime) * time.Second
	}

	type launch struct {
		exec     PhaseExecutor
		enabled  bool
		progress int
		message  string
	}
	launches := []launch{
		{o.text, true, 25, "Reading caption and description..."},
		{o.visual, opts.EnableVisual, 40, "Downloading and analyzing video frames..."},
		{o.audio, opts.EnableAudio, 75, "Extracting and transcribing audio..."},
	}

	results := make(chan PhaseOutput, len(launches))
	var wg sync.WaitGroup
	for _, l := range launches {
		phase := l.exec.Phase()
		if !l.enabled {
			em.phase(phase, constants.PhaseSkipped, 100, phase.Name()+" disabled", 0, nil)
			continue
		}
		wg.Add(1)
		go func(l launch, phase constants.PhaseNumber) {
			defer wg.Done()
			em.phase(phase, constants.PhaseProcessing, l.progress, l.message, 0, nil)

			phaseCtx, cancel := context.WithTimeout(ctx, phaseBudget(phase, maxProcessing))
			defer cancel()
			out, err := l.exec.Run(phaseCtx, content)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				msg := userMessage(err, phase.Name()+" failed")
				if errors.Is(phaseCtx.Err(), context.DeadlineExceeded) {
					msg = phase.Name() + " timed out"
					err = common.NewAppError(common.CodePhaseTimeout, msg, common.ErrPhaseTimeout)
				}
				log.Warn("extraction.phase_failed",
					slog.Int("phase", int(phase)),
					slog.String("error", err.Error()))
				em.phase(phase, constants.PhaseFailed, 100, msg, 0, nil)
				return
			}
			data, _ := json.Marshal(out)
			em.phase(phase, constants.PhaseCompleted, 100, phase.Name()+" complete", out.Confidence, data)
			results <- out
		}(l, phase)
	}
	wg.Wait()
	close(results)

	var outputs []PhaseOutput
	for out := range results {
		outputs = append(outputs, out)
	}
	return outputs
}

// structure runs phase 5. When the LLM call fails the job still completes:
// the fusion draft is the result, the phase is marked failed, and the
// degradation is visible through Structured=false.
func (o *Orchestrator) structure(ctx context.Context, log *slog.Logger, em *emitter, sourceURL string, content provider.SourceContent, outputs []PhaseOutput, fused FusionResult) *ExtractionResult {
	em.phase(constants.PhaseFinalStructure, constants.PhaseProcessing, 95, "Structuring the final recipe...", 0, nil)

	draft, _ := json.Marshal(fused)
	req := llm.StructureRequest{
		SourceURL:         sourceURL,
		Caption:           content.Caption,
		FusionDraft:       draft,
		AllowedCategories: constants.AsStringSlice(),
	}
	if audioOut, ok := outputByPhase(outputs, constants.PhaseAudio); ok {
		req.Transcription = audioOut.Transcription
	}
	if visualOut, ok := outputByPhase(outputs, constants.PhaseVisual); ok {
		req.OCRText = visualOut.OCRText
	}

	sctx, cancel := context.WithTimeout(ctx, o.structuringTimeout)
	defer cancel()
	recipe, raw, err := o.structurer.Structure(sctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return &ExtractionResult{Fusion: &fused, Confidence: fused.Confidence}
		}
		log.Warn("extraction.structuring_failed", slog.String("error", err.Error()))
		em.phase(constants.PhaseFinalStructure, constants.PhaseFailed, 100, userMessage(err, "Final structuring failed, returning fused draft"), 0, nil)
		return &ExtractionResult{
			Fusion:     &fused,
			Structured: false,
			Confidence: fused.Confidence,
		}
	}

	em.phase(constants.PhaseFinalStructure, constants.PhaseCompleted, 100, "Recipe ready", recipe.Confidence, raw)
	confidence := recipe.Confidence
	if confidence == 0 {
		confidence = fused.Confidence
	}
	return &ExtractionResult{
		Recipe:     &recipe,
		Fusion:     &fused,
		Structured: true,
		Confidence: confidence,
	}
}

// phaseBudget derives a per-phase deadline from the requested processing
// budget. Visual work is the slowest phase, text the fastest.
func phaseBudget(p constants.PhaseNumber, maxProcessing time.Duration) time.Duration {
	var frac float64
	switch p {
	case constants.PhaseText:
		frac = 0.3
	case constants.PhaseVisual:
		frac = 0.8
	case constants.PhaseAudio:
		frac = 0.6
	default:
		frac = 1.0
	}
	d := time.Duration(float64(maxProcessing) * frac)
	if d < 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func outputByPhase(outputs []PhaseOutput, p constants.PhaseNumber) (PhaseOutput, bool) {
	for _, o := range outputs {
		if o.Phase == p {
			return o, true
		}
	}
	return PhaseOutput{}, false
}

func errCode(err error) string {
	if code := common.Code(err); code != "" {
		return code
	}
	return common.CodeProvider
}

// userMessage prefers the AppError message over raw wrapped chains, which
// can leak provider internals.
func userMessage(err error, fallback string) string {
	var ae *common.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	if fallback != "" {
		return fallback
	}
	return err.Error()
}

// emitter serializes event emission for one job. It enforces the two
// wire-level invariants: nothing is emitted after a terminal event, and
// nothing at all is emitted after a user cancel. The send happens under the
// mutex so a concurrent close can never race an in-flight send; the done
// channel keeps a send from blocking forever once the job is cancelled.
type emitter struct {
	mu       sync.Mutex
	jobID    uuid.UUID
	ch       chan<- ExtractionEvent
	done     <-chan struct{}
	muted    bool
	terminal bool
	closed   bool
}

func newEmitter(jobID uuid.UUID, ch chan<- ExtractionEvent, done <-chan struct{}) *emitter {
	return &emitter{jobID: jobID, ch: ch, done: done}
}

func (e *emitter) mute() {
	e.mu.Lock()
	e.muted = true
	e.terminal = true
	e.mu.Unlock()
}

func (e *emitter) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.ch)
}

func (e *emitter) phase(p constants.PhaseNumber, status constants.PhaseStatus, progress int, message string, confidence float64, data json.RawMessage) {
	e.emit(ExtractionEvent{
		Event:      EventPhaseUpdate,
		Phase:      p,
		Status:     status,
		Progress:   progress,
		Message:    message,
		Confidence: confidence,
		Data:       data,
	}, false)
}

func (e *emitter) terminalCompleted(result *ExtractionResult) {
	e.emit(ExtractionEvent{Event: EventCompleted, Result: result}, true)
}

func (e *emitter) terminalError(code, message string) {
	e.emit(ExtractionEvent{Event: EventError, ErrorCode: code, ErrorMessage: message}, true)
}

func (e *emitter) emit(ev ExtractionEvent, terminal bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.muted || e.terminal || e.closed {
		return
	}
	if terminal {
		e.terminal = true
	}
	ev.JobID = e.jobID
	ev.Timestamp = time.Now().UTC()

	select {
	case e.ch <- ev:
	case <-e.done:
	}
}

var _ Pipeline = (*Orchestrator)(nil)
