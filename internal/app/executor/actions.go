package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/PabloGalante/lynkia-agent/internal/app/intent"
	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

// run executes one payload; it implements domain.PayloadHandler.
type run struct {
	ctx context.Context
	e   *Executor
	req Request
	log *slog.Logger
}

var _ domain.PayloadHandler[domain.Response] = (*run)(nil)

// resolveDate turns the TODAY placeholder or an empty value into the
// current day and normalises explicit dates to YYYY-MM-DD.
func (r *run) resolveDate(d string) (string, bool) {
	d = strings.TrimSpace(d)
	if d == "" || strings.EqualFold(d, domain.DateToday) {
		return r.e.today(), true
	}
	if iso := intent.ExtractDate(d); iso != "" {
		return iso, true
	}
	return "", false
}

func (r *run) storageMissing() (domain.Response, bool) {
	if r.e.store == nil {
		return domain.ErrorResponse(domain.MsgStorageUnavailable), true
	}
	return domain.Response{}, false
}

func (r *run) CreateOne(p domain.CreateOnePayload) domain.Response {
	item := domain.InterventionItem{
		Type:      strings.ToUpper(strings.TrimSpace(p.Type)),
		Reference: strings.TrimSpace(p.Reference),
	}
	if item.Type == "" || item.Reference == "" {
		return domain.ErrorResponse(domain.MsgTypeAndReference)
	}
	date, ok := r.resolveDate(p.Date)
	if !ok {
		return domain.ErrorResponse(domain.MsgInvalidDate)
	}
	if resp, missing := r.storageMissing(); missing {
		return resp
	}

	ctx, cancel := r.call()
	defer cancel()

	rec, err := r.e.store.Create(ctx, r.req.Phone, item, date)
	if err != nil {
		return r.storeError(err, item.Reference)
	}
	return domain.NewResponse(domain.CreateOneResult{
		Type:      rec.Type,
		Reference: rec.Reference,
		Date:      rec.Date,
	})
}

// CreateBulk writes items independently: some may fail while others land.
func (r *run) CreateBulk(p domain.CreateBulkPayload) domain.Response {
	var (
		items   []domain.InterventionItem
		invalid []domain.BulkItemError
	)
	for _, it := range p.Interventions {
		item := domain.InterventionItem{
			Type:      strings.ToUpper(strings.TrimSpace(it.Type)),
			Reference: strings.TrimSpace(it.Reference),
		}
		switch {
		case item.Reference == "":
			continue
		case item.Type == "":
			invalid = append(invalid, domain.BulkItemError{Reference: item.Reference, Error: domain.MsgTypeAndReference})
		default:
			items = append(items, item)
		}
	}
	if len(items) == 0 && len(invalid) == 0 {
		return domain.ErrorResponse(domain.MsgNothingToCreate)
	}
	date, ok := r.resolveDate(p.Date)
	if !ok {
		return domain.ErrorResponse(domain.MsgInvalidDate)
	}
	if resp, missing := r.storageMissing(); missing {
		return resp
	}

	var (
		created []domain.InterventionItem
		errs    []domain.BulkItemError
	)
	if len(items) > 0 {
		ctx, cancel := r.call()
		defer cancel()

		var err error
		created, errs, err = r.e.store.CreateMany(ctx, r.req.Phone, items, date)
		if err != nil {
			return r.storeError(err, "")
		}
	}

	errs = append(invalid, errs...)
	if len(errs) > 0 {
		r.log.Warn("bulk creation partially failed", "created", len(created), "failed", len(errs))
	} else {
		errs = nil
	}
	if created == nil {
		created = []domain.InterventionItem{}
	}
	return domain.NewResponse(domain.CreateBulkResult{
		Count:         len(created),
		Interventions: created,
		Errors:        errs,
	})
}

func (r *run) AddComment(p domain.AddCommentPayload) domain.Response {
	ref := strings.TrimSpace(p.Reference)
	comment := strings.TrimSpace(p.Comment)
	if ref == "" {
		return domain.ErrorResponse(domain.MsgReferenceRequired)
	}
	if comment == "" {
		return domain.ErrorResponse(domain.MsgCommentRequired)
	}
	if resp, missing := r.storageMissing(); missing {
		return resp
	}
	if _, fail := r.active(ref); fail != nil {
		return *fail
	}

	ctx, cancel := r.call()
	defer cancel()

	if err := r.e.store.AppendComment(ctx, r.req.Phone, ref, comment); err != nil {
		return r.storeError(err, ref)
	}
	return domain.NewResponse(domain.AddCommentResult{Reference: ref, Comment: comment})
}

func (r *run) AddImage(p domain.AddImagePayload) domain.Response {
	ref := strings.TrimSpace(p.Reference)
	if ref == "" {
		return domain.ErrorResponse(domain.MsgReferenceRequired)
	}
	if r.req.Media == nil || r.req.Media.URL == "" {
		return domain.ErrorResponse(domain.MsgNoMediaAttached)
	}
	if resp, missing := r.storageMissing(); missing {
		return resp
	}
	if r.e.objects == nil || r.e.media == nil {
		return domain.ErrorResponse(domain.MsgImagesUnavailable)
	}
	if _, fail := r.active(ref); fail != nil {
		return *fail
	}
	return r.storeImage(ref, *r.req.Media)
}

// updatableFields are the only keys UPDATE accepts.
var updatableFields = map[string]bool{"type": true, "date": true}

func (r *run) Update(p domain.UpdatePayload) domain.Response {
	ref := strings.TrimSpace(p.Reference)
	if ref == "" {
		return domain.ErrorResponse(domain.MsgReferenceRequired)
	}
	if len(p.Fields) == 0 {
		return domain.ErrorResponse(domain.MsgNothingToUpdate)
	}

	var unsupported []string
	for k := range p.Fields {
		if !updatableFields[strings.ToLower(k)] {
			unsupported = append(unsupported, k)
		}
	}
	if len(unsupported) > 0 {
		sort.Strings(unsupported)
		return domain.ErrorResponse(fmt.Sprintf("%s : %s", domain.MsgUnsupportedField, strings.Join(unsupported, ", ")))
	}

	var (
		fields  domain.UpdateFields
		applied = map[string]string{}
	)
	for k, v := range p.Fields {
		switch strings.ToLower(k) {
		case "type":
			t := strings.ToUpper(strings.TrimSpace(v))
			if t == "" {
				return domain.ErrorResponse(domain.MsgNothingToUpdate)
			}
			fields.Type = &t
			applied["type"] = t
		case "date":
			d, ok := r.resolveDate(v)
			if !ok {
				return domain.ErrorResponse(domain.MsgInvalidDate)
			}
			fields.Date = &d
			applied["date"] = d
		}
	}

	if resp, missing := r.storageMissing(); missing {
		return resp
	}
	if _, fail := r.active(ref); fail != nil {
		return *fail
	}

	ctx, cancel := r.call()
	defer cancel()

	if err := r.e.store.Update(ctx, r.req.Phone, ref, fields); err != nil {
		return r.storeError(err, ref)
	}
	return domain.NewResponse(domain.UpdateResult{Reference: ref, Fields: applied})
}

// Delete only flips the status; the record stays in storage.
func (r *run) Delete(p domain.DeletePayload) domain.Response {
	ref := strings.TrimSpace(p.Reference)
	if ref == "" {
		return domain.ErrorResponse(domain.MsgReferenceRequired)
	}
	if resp, missing := r.storageMissing(); missing {
		return resp
	}
	if _, fail := r.active(ref); fail != nil {
		return *fail
	}

	ctx, cancel := r.call()
	defer cancel()

	if err := r.e.store.SoftDelete(ctx, r.req.Phone, ref); err != nil {
		return r.storeError(err, ref)
	}
	return domain.NewResponse(domain.DeleteResult{Reference: ref})
}

func (r *run) List(p domain.ListPayload) domain.Response {
	q, fail := r.listQuery(p)
	if fail != nil {
		return *fail
	}
	if resp, missing := r.storageMissing(); missing {
		return resp
	}

	ctx, cancel := r.call()
	defer cancel()

	recs, err := r.e.store.List(ctx, r.req.Phone, q)
	if err != nil {
		return r.storeError(err, "")
	}

	// newest first; same-day records keep retrieval order
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date > recs[j].Date })

	summaries := make([]domain.InterventionSummary, 0, len(recs))
	for _, rec := range recs {
		summaries = append(summaries, domain.InterventionSummary{
			Type:          rec.Type,
			Reference:     rec.Reference,
			Date:          rec.Date,
			CommentsCount: len(rec.Comments),
			ImagesCount:   len(rec.Images),
		})
	}

	res := domain.ListResult{
		Scope:         q.Scope,
		Count:         len(summaries),
		Interventions: summaries,
	}
	if q.Scope == domain.ScopeDate {
		res.Date = q.Exact
	}
	return domain.NewResponse(res)
}

func (r *run) Search(p domain.SearchPayload) domain.Response {
	ref := strings.TrimSpace(p.Reference)
	if ref == "" {
		return domain.ErrorResponse(domain.MsgReferenceRequired)
	}
	if resp, missing := r.storageMissing(); missing {
		return resp
	}
	rec, fail := r.active(ref)
	if fail != nil {
		return *fail
	}

	comments := rec.Comments
	if comments == nil {
		comments = []domain.Comment{}
	}
	return domain.NewResponse(domain.SearchResult{
		Type:        rec.Type,
		Reference:   rec.Reference,
		Date:        rec.Date,
		Comments:    comments,
		ImagesCount: len(rec.Images),
	})
}

func (r *run) GetImages(p domain.GetImagesPayload) domain.Response {
	ref := strings.TrimSpace(p.Reference)
	if ref == "" {
		return domain.ErrorResponse(domain.MsgReferenceRequired)
	}
	if resp, missing := r.storageMissing(); missing {
		return resp
	}
	if _, fail := r.active(ref); fail != nil {
		return *fail
	}
	return r.imageLinks(ref)
}

func (r *run) Help(domain.HelpPayload) domain.Response {
	return domain.NewResponse(domain.HelpResult{})
}

func (r *run) Error(p domain.ErrorPayload) domain.Response {
	msg := strings.TrimSpace(p.Message)
	if msg == "" {
		msg = domain.MsgUnrecognizedMessage
	}
	return domain.ErrorResponse(msg)
}
