package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/lynkia-agent/internal/domain"
	"github.com/PabloGalante/lynkia-agent/internal/observability"
)

const (
	defaultTimeout            = 10 * time.Second
	defaultPresignTTL         = time.Hour
	defaultPresignParallelism = 4

	dateLayout = "2006-01-02"
)

// Options configures an Executor. Zero values get sane defaults.
type Options struct {
	// Timeout bounds every collaborator call.
	Timeout time.Duration
	// PresignTTL is the lifetime of GET_IMAGES links.
	PresignTTL time.Duration
	// PresignParallelism caps concurrent presign calls.
	PresignParallelism int

	Now   func() time.Time
	NewID func() string
}

// Executor runs a resolved action against the collaborators and turns the
// outcome into a canonical Response.
type Executor struct {
	store   domain.StorageGateway
	objects domain.ObjectStore
	media   domain.MediaFetcher
	opts    Options
}

// New builds an Executor. Any collaborator may be nil; actions needing it
// then answer with an ERROR response.
func New(store domain.StorageGateway, objects domain.ObjectStore, media domain.MediaFetcher, opts Options) *Executor {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = defaultPresignTTL
	}
	if opts.PresignParallelism <= 0 {
		opts.PresignParallelism = defaultPresignParallelism
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	return &Executor{
		store:   store,
		objects: objects,
		media:   media,
		opts:    opts,
	}
}

// Media describes the attachment of the triggering message.
type Media struct {
	URL         string
	ContentType string
}

// Request carries what the executor needs besides the payload.
type Request struct {
	Phone string
	// Media is nil when the message had no attachment.
	Media *Media
}

// Execute runs p for the technician in req. It always returns a Response.
func (e *Executor) Execute(ctx context.Context, req Request, p domain.Payload) (resp domain.Response) {
	log := observability.LoggerFromContext(ctx).With("stage", "executor")

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("executor panic", "panic", fmt.Sprint(rec))
			resp = domain.ErrorResponse(domain.MsgExecutionFailed)
		}
	}()

	start := time.Now()
	resp = domain.VisitPayload[domain.Response](p, &run{ctx: ctx, e: e, req: req, log: log})
	log.Info("action executed",
		"action", resp.Action,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return resp
}

func (e *Executor) today() string {
	return e.opts.Now().Format(dateLayout)
}

// call derives the bounded context for one collaborator call.
func (r *run) call() (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.ctx, r.e.opts.Timeout)
}

// storeError maps a collaborator failure to the message the technician sees.
func (r *run) storeError(err error, reference string) domain.Response {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrorResponse(fmt.Sprintf("Intervention %s non trouvée", reference))
	case errors.Is(err, domain.ErrDeleted):
		return domain.ErrorResponse(fmt.Sprintf("Intervention %s a été supprimée", reference))
	case errors.Is(err, domain.ErrAlreadyExists):
		return domain.ErrorResponse(fmt.Sprintf("L'intervention %s existe déjà", reference))
	case errors.Is(err, domain.ErrUnavailable):
		r.log.Warn("storage unavailable", "reference", reference, "error", err)
		return domain.ErrorResponse(domain.MsgStorageBusy)
	default:
		r.log.Error("collaborator call failed", "reference", reference, "error", err)
		return domain.ErrorResponse(domain.MsgExecutionFailed)
	}
}

// active loads a record that must exist and not be soft-deleted.
func (r *run) active(reference string) (*domain.Intervention, *domain.Response) {
	ctx, cancel := r.call()
	defer cancel()

	rec, err := r.e.store.Get(ctx, r.req.Phone, reference)
	if err != nil {
		resp := r.storeError(err, reference)
		return nil, &resp
	}
	return rec, nil
}
