package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/mahirjain10/image-ingest/internal/types"
	"github.com/mahirjain10/image-ingest/internal/utils"
)

// FailurePolicy decides what one failed item does to its batch.
type FailurePolicy string

const (
	// IsolateFailures records the failure on the item and keeps going.
	IsolateFailures FailurePolicy = "isolate"
	// AbortOnFailure fails the whole batch on the first failed item.
	AbortOnFailure FailurePolicy = "abort"
)

// Thumbnailer derives a preview for a stored full-resolution file.
type Thumbnailer interface {
	Generate(filename string) error
	PreviewPath(filename string) string
}

// AssetRecorder keeps a record of stored assets.
type AssetRecorder interface {
	Record(rec types.AssetRecord) error
}

// EventPublisher announces stored assets.
type EventPublisher interface {
	PublishAsset(ctx context.Context, event *types.AssetEvent) error
}

type Options struct {
	Writer      *Writer
	Thumbnailer Thumbnailer
	Allocator   Allocator
	Classifier  *Classifier
	HTTPClient  *http.Client
	S3          ObjectGetter
	Recorder    AssetRecorder
	Publisher   EventPublisher
	Workers     int
	Policy      FailurePolicy
	Logger      *slog.Logger
}

// Pipeline runs items through classify, allocate, write, thumbnail. Blocking
// work of all requests shares one weighted semaphore of size Workers.
type Pipeline struct {
	writer      *Writer
	thumbnailer Thumbnailer
	allocator   Allocator
	classifier  *Classifier
	client      *http.Client
	s3          ObjectGetter
	recorder    AssetRecorder
	publisher   EventPublisher
	workers     int
	policy      FailurePolicy
	logger      *slog.Logger
	sem         *semaphore.Weighted
}

func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Writer == nil {
		return nil, fmt.Errorf("writer is required")
	}
	if opts.Thumbnailer == nil {
		return nil, fmt.Errorf("thumbnailer is required")
	}
	if opts.Classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if opts.Allocator == nil {
		opts.Allocator = NewUUIDAllocator()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Policy == "" {
		opts.Policy = IsolateFailures
	}
	if opts.Policy != IsolateFailures && opts.Policy != AbortOnFailure {
		return nil, fmt.Errorf("unknown failure policy %q", opts.Policy)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Pipeline{
		writer:      opts.Writer,
		thumbnailer: opts.Thumbnailer,
		allocator:   opts.Allocator,
		classifier:  opts.Classifier,
		client:      opts.HTTPClient,
		s3:          opts.S3,
		recorder:    opts.Recorder,
		publisher:   opts.Publisher,
		workers:     opts.Workers,
		policy:      opts.Policy,
		logger:      opts.Logger,
		sem:         semaphore.NewWeighted(int64(opts.Workers)),
	}, nil
}

func (p *Pipeline) Policy() FailurePolicy {
	return p.policy
}

// Batch holds one outcome per input item, in input order.
type Batch struct {
	Outcomes []types.Outcome
}

// Filenames lists the stored items in input order.
func (b *Batch) Filenames() []string {
	names := make([]string, 0, len(b.Outcomes))
	for _, o := range b.Outcomes {
		if o.Stored() {
			names = append(names, o.Filename)
		}
	}
	return names
}

func (b *Batch) Failures() []types.Outcome {
	var failed []types.Outcome
	for _, o := range b.Outcomes {
		if o.Status == types.FAILED {
			failed = append(failed, o)
		}
	}
	return failed
}

// written is an item that reached the Written state.
type written struct {
	outcome  types.Outcome
	filename string
}

// IngestImages processes a decoded JSON request. Items run concurrently, at
// most Workers at a time. Under AbortOnFailure the first failure cancels the
// rest and is returned.
func (p *Pipeline) IngestImages(ctx context.Context, images []types.Image) (*Batch, error) {
	batch := &Batch{Outcomes: make([]types.Outcome, len(images))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, img := range images {
		batch.Outcomes[i] = types.Outcome{Index: i, Kind: img.Kind()}
	}
	for i, img := range images {
		if gctx.Err() != nil {
			break
		}
		src := p.sourceFor(img)
		g.Go(func() error {
			out := p.run(gctx, i, src)
			batch.Outcomes[i] = out
			return p.policyErr(out)
		})
	}

	err := g.Wait()
	p.markUnfinished(batch, err)
	return batch, err
}

// IngestMultipart streams the parts of a multipart body. Parts are read and
// written one after another since they share the request stream; previews
// are generated concurrently.
func (p *Pipeline) IngestMultipart(ctx context.Context, mr *multipart.Reader) (*Batch, error) {
	batch := &Batch{}
	results := make(chan types.Outcome, p.workers)
	collected := make(chan struct{})

	var outcomes []types.Outcome
	go func() {
		defer close(collected)
		for o := range results {
			outcomes = append(outcomes, o)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	var streamErr error
	index := 0
	for gctx.Err() == nil {
		part, err := mr.NextPart()
		// only a bare io.EOF marks the closing boundary; a wrapped one is a
		// body that ended mid-part
		if err == io.EOF {
			break
		}
		if err != nil {
			streamErr = fmt.Errorf("%w: %v", ErrMalformedMultipart, err)
			break
		}

		i := index
		index++
		w, out, ok := p.receive(gctx, i, multipartSource{part: part})
		if !ok {
			// drain what is left of a failed part so the next one can be read
			_, _ = io.Copy(io.Discard, part)
			results <- out
			if perr := p.policyErr(out); perr != nil {
				streamErr = perr
				break
			}
			continue
		}
		g.Go(func() error {
			done := p.finish(gctx, w)
			results <- done
			return p.policyErr(done)
		})
	}

	waitErr := g.Wait()
	close(results)
	<-collected

	batch.Outcomes = make([]types.Outcome, index)
	for _, o := range outcomes {
		batch.Outcomes[o.Index] = o
	}

	// a part cancelled by a failed preview reports the preview's error
	err := waitErr
	if streamErr != nil && (err == nil || !errors.Is(streamErr, context.Canceled)) {
		err = streamErr
	}
	if err == nil {
		err = ctx.Err()
	}
	p.markUnfinished(batch, err)
	return batch, err
}

func (p *Pipeline) sourceFor(img types.Image) source {
	switch img.Kind() {
	case types.SourceURL:
		return urlSource{url: img.URL, client: p.client}
	case types.SourceBase64:
		return base64Source{value: img.Base64, maxBytes: p.writer.maxBytes}
	default:
		return s3Source{key: img.S3Key, getter: p.s3}
	}
}

func (p *Pipeline) run(ctx context.Context, index int, src source) types.Outcome {
	w, out, ok := p.receive(ctx, index, src)
	if !ok {
		return out
	}
	return p.finish(ctx, w)
}

// receive takes an item from Received through Classified to Written. ok is
// false when the item ended as skipped or failed.
func (p *Pipeline) receive(ctx context.Context, index int, src source) (*written, types.Outcome, bool) {
	out := types.Outcome{Index: index, Kind: src.kind()}
	logger := p.logger.With("index", index, "kind", out.Kind)
	logger.Debug("item received")

	pl, err := src.fetch(ctx)
	if err != nil {
		if isSkip(err) {
			return nil, p.skip(logger, out, err), false
		}
		return nil, p.fail(logger, out, StageFetch, err), false
	}
	defer pl.release()

	mt, err := p.classifier.Classify(pl.mediaType)
	if err != nil {
		return nil, p.skip(logger, out, err), false
	}
	out.MediaType = mt.String()

	filename := p.allocator.Allocate(mt.Subtype)
	logger = logger.With("filename", filename)
	logger.Debug("item classified", "media_type", out.MediaType)

	r, err := pl.open()
	if err != nil {
		return nil, p.fail(logger, out, StageDecode, err), false
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, p.fail(logger, out, StageWrite, err), false
	}
	n, err := p.writer.Write(ctx, filename, r)
	p.sem.Release(1)
	if err != nil {
		return nil, p.fail(logger, out, StageWrite, err), false
	}
	out.Size = n
	logger.Debug("item written", "bytes", n)

	return &written{outcome: out, filename: filename}, out, true
}

// finish takes a written item to Thumbnailed, then records and announces it.
func (p *Pipeline) finish(ctx context.Context, w *written) types.Outcome {
	out := w.outcome
	logger := p.logger.With("index", out.Index, "kind", out.Kind, "filename", w.filename)

	fullPath := p.writer.Path(w.filename)
	previewPath := p.thumbnailer.PreviewPath(w.filename)

	if err := p.sem.Acquire(ctx, 1); err != nil {
		_ = utils.CleanupAll(fullPath, "")
		return p.fail(logger, out, StageThumbnail, err)
	}
	err := p.thumbnailer.Generate(w.filename)
	p.sem.Release(1)
	if err != nil {
		_ = utils.CleanupAll(fullPath, previewPath)
		return p.fail(logger, out, StageThumbnail, fmt.Errorf("%w: %w", ErrThumbnail, err))
	}

	out.Status = types.STORED
	out.Filename = w.filename
	logger.Debug("item thumbnailed")

	asset := types.StoredAsset{Filename: w.filename, FullPath: fullPath, PreviewPath: previewPath}
	p.record(ctx, logger, asset, out)
	return out
}

func (p *Pipeline) record(ctx context.Context, logger *slog.Logger, asset types.StoredAsset, out types.Outcome) {
	if p.recorder != nil {
		rec := types.AssetRecord{
			Filename:    asset.Filename,
			Kind:        out.Kind,
			MediaType:   out.MediaType,
			Size:        out.Size,
			FullPath:    asset.FullPath,
			PreviewPath: asset.PreviewPath,
			StoredAt:    time.Now().UTC(),
		}
		if err := p.recorder.Record(rec); err != nil {
			logger.Warn("failed to record asset", "error", err)
		}
	}
	if p.publisher != nil {
		event := utils.InitAssetEvent(utils.InitAssetEventData(asset, out.Kind, out.MediaType, out.Size))
		if err := p.publisher.PublishAsset(ctx, event); err != nil {
			logger.Warn("failed to publish asset event", "error", err)
		}
	}
}

func (p *Pipeline) skip(logger *slog.Logger, out types.Outcome, err error) types.Outcome {
	out.Status = types.SKIPPED
	out.Reason = err.Error()
	logger.Info("item skipped", "reason", err)
	return out
}

func (p *Pipeline) fail(logger *slog.Logger, out types.Outcome, stage string, err error) types.Outcome {
	perr := ProcessingError{Index: out.Index, Stage: stage, Err: err}
	out.Status = types.FAILED
	out.Reason = perr.Error()
	out.Err = perr
	logger.Warn("item failed", "stage", stage, "error", err)
	return out
}

func (p *Pipeline) policyErr(out types.Outcome) error {
	if p.policy == AbortOnFailure && out.Status == types.FAILED {
		return out.Err
	}
	return nil
}

// markUnfinished fails items that never reached a terminal state because the
// batch was aborted.
func (p *Pipeline) markUnfinished(batch *Batch, cause error) {
	if cause == nil {
		cause = context.Canceled
	}
	for i := range batch.Outcomes {
		if batch.Outcomes[i].Status == "" {
			batch.Outcomes[i].Index = i
			batch.Outcomes[i].Status = types.FAILED
			batch.Outcomes[i].Reason = fmt.Sprintf("not processed: %v", cause)
		}
	}
}
