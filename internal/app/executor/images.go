package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

const defaultImageContentType = "image/jpeg"

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
	"image/heic": "heic",
}

// imageExtension maps a MIME type to a file extension, jpg when unknown.
func imageExtension(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if ext, ok := imageExtensions[ct]; ok {
		return ext
	}
	return "jpg"
}

// imageKey builds {phone}/{reference}/{YYYYMMDD_HHMMSS}_{id8}.{ext}.
func imageKey(phone, reference string, at time.Time, id, ext string) string {
	clean := strings.NewReplacer("whatsapp:", "", "+", "").Replace(phone)
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s/%s/%s_%s.%s", clean, reference, at.UTC().Format("20060102_150405"), id, ext)
}

// storeImage downloads the attachment, uploads it and records its key.
func (r *run) storeImage(ref string, media Media) domain.Response {
	log := r.log.With("reference", ref)

	fetchCtx, cancelFetch := r.call()
	data, contentType, err := r.e.media.FetchMedia(fetchCtx, media.URL)
	cancelFetch()
	if err != nil || len(data) == 0 {
		log.Error("media download failed", "error", err)
		return domain.ErrorResponse(domain.MsgMediaDownloadFailed)
	}
	if contentType == "" {
		contentType = media.ContentType
	}
	if contentType == "" {
		contentType = defaultImageContentType
	}

	key := imageKey(r.req.Phone, ref, r.e.opts.Now(), r.e.opts.NewID(), imageExtension(contentType))

	uploadCtx, cancelUpload := r.call()
	err = r.e.objects.Upload(uploadCtx, data, key, contentType)
	cancelUpload()
	if err != nil {
		log.Error("image upload failed", "key", key, "error", err)
		return domain.ErrorResponse(domain.MsgMediaUploadFailed)
	}

	ctx, cancel := r.call()
	defer cancel()

	if err := r.e.store.AppendImageRef(ctx, r.req.Phone, ref, key); err != nil {
		r.discardUpload(key)
		return r.storeError(err, ref)
	}
	log.Info("image stored", "key", key, "bytes", len(data))
	return domain.NewResponse(domain.AddImageResult{Reference: ref})
}

// discardUpload removes an object no record points to. Failure leaves an
// orphan, which is logged with its key.
func (r *run) discardUpload(key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.ctx), r.e.opts.Timeout)
	defer cancel()

	if err := r.e.objects.Delete(ctx, key); err != nil {
		r.log.Error("orphaned image object", "key", key, "error", err)
	}
}

// imageLinks presigns every stored key. Keys that fail to presign are
// skipped; order follows upload order.
func (r *run) imageLinks(ref string) domain.Response {
	ctx, cancel := r.call()
	refs, err := r.e.store.ListImageRefs(ctx, r.req.Phone, ref)
	cancel()
	if err != nil {
		return r.storeError(err, ref)
	}
	if len(refs) == 0 {
		return domain.NewResponse(domain.GetImagesResult{Reference: ref, Count: 0, Images: []domain.ImageLink{}})
	}
	if r.e.objects == nil {
		return domain.ErrorResponse(domain.MsgImagesUnavailable)
	}

	links := make([]domain.ImageLink, len(refs))
	ok := make([]bool, len(refs))

	g, gctx := errgroup.WithContext(r.ctx)
	g.SetLimit(r.e.opts.PresignParallelism)
	for i, img := range refs {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, r.e.opts.Timeout)
			defer cancel()

			url, err := r.e.objects.Presign(callCtx, img.Key, r.e.opts.PresignTTL)
			if err != nil || url == "" {
				r.log.Warn("presign failed", "key", img.Key, "error", err)
				return nil
			}
			links[i] = domain.ImageLink{URL: url, UploadedAt: img.UploadedAt.UTC().Format(time.RFC3339)}
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.ImageLink, 0, len(refs))
	for i := range links {
		if ok[i] {
			out = append(out, links[i])
		}
	}
	return domain.NewResponse(domain.GetImagesResult{Reference: ref, Count: len(out), Images: out})
}
