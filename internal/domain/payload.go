package domain

import "fmt"

// Payload is the intent-specific data attached to an Action.
// The set of implementations is closed: one variant per Action.
type Payload interface {
	Action() Action
	sealedPayload()
}

// InterventionItem is one line of a bulk creation.
type InterventionItem struct {
	Type      string `json:"type"`
	Reference string `json:"reference"`
}

type CreateOnePayload struct {
	Date      string `json:"date"`
	Type      string `json:"type"`
	Reference string `json:"reference"`
}

type CreateBulkPayload struct {
	Date          string             `json:"date"`
	Interventions []InterventionItem `json:"interventions"`
}

type AddCommentPayload struct {
	Reference string `json:"reference"`
	Comment   string `json:"commentaire"`
}

type AddImagePayload struct {
	Reference string `json:"reference"`
}

// UpdatePayload carries the requested field changes verbatim; the executor
// decides which of them are supported.
type UpdatePayload struct {
	Reference string            `json:"reference"`
	Fields    map[string]string `json:"fields"`
}

type DeletePayload struct {
	Reference string `json:"reference"`
}

type ListPayload struct {
	Scope ListScope `json:"scope"`
	Date  string    `json:"date,omitempty"`
}

type SearchPayload struct {
	Reference string `json:"reference"`
}

type GetImagesPayload struct {
	Reference string `json:"reference"`
}

type HelpPayload struct{}

type ErrorPayload struct {
	Message string `json:"message"`
}

func (CreateOnePayload) Action() Action  { return ActionCreateOne }
func (CreateBulkPayload) Action() Action { return ActionCreateBulk }
func (AddCommentPayload) Action() Action { return ActionAddComment }
func (AddImagePayload) Action() Action   { return ActionAddImage }
func (UpdatePayload) Action() Action     { return ActionUpdate }
func (DeletePayload) Action() Action     { return ActionDelete }
func (ListPayload) Action() Action       { return ActionList }
func (SearchPayload) Action() Action     { return ActionSearch }
func (GetImagesPayload) Action() Action  { return ActionGetImages }
func (HelpPayload) Action() Action       { return ActionHelp }
func (ErrorPayload) Action() Action      { return ActionError }

func (CreateOnePayload) sealedPayload()  {}
func (CreateBulkPayload) sealedPayload() {}
func (AddCommentPayload) sealedPayload() {}
func (AddImagePayload) sealedPayload()   {}
func (UpdatePayload) sealedPayload()     {}
func (DeletePayload) sealedPayload()     {}
func (ListPayload) sealedPayload()       {}
func (SearchPayload) sealedPayload()     {}
func (GetImagesPayload) sealedPayload()  {}
func (HelpPayload) sealedPayload()       {}
func (ErrorPayload) sealedPayload()      {}

// PayloadHandler has one method per Action. Adding a variant adds a method
// here, which breaks every handler until it is taught the new action.
type PayloadHandler[T any] interface {
	CreateOne(CreateOnePayload) T
	CreateBulk(CreateBulkPayload) T
	AddComment(AddCommentPayload) T
	AddImage(AddImagePayload) T
	Update(UpdatePayload) T
	Delete(DeletePayload) T
	List(ListPayload) T
	Search(SearchPayload) T
	GetImages(GetImagesPayload) T
	Help(HelpPayload) T
	Error(ErrorPayload) T
}

// VisitPayload dispatches p to the handler method matching its variant.
func VisitPayload[T any](p Payload, h PayloadHandler[T]) T {
	switch v := p.(type) {
	case CreateOnePayload:
		return h.CreateOne(v)
	case CreateBulkPayload:
		return h.CreateBulk(v)
	case AddCommentPayload:
		return h.AddComment(v)
	case AddImagePayload:
		return h.AddImage(v)
	case UpdatePayload:
		return h.Update(v)
	case DeletePayload:
		return h.Delete(v)
	case ListPayload:
		return h.List(v)
	case SearchPayload:
		return h.Search(v)
	case GetImagesPayload:
		return h.GetImages(v)
	case HelpPayload:
		return h.Help(v)
	case ErrorPayload:
		return h.Error(v)
	case nil:
		return h.Error(ErrorPayload{Message: MsgUnrecognizedMessage})
	default:
		panic(fmt.Sprintf("domain: unhandled payload variant %T", p))
	}
}
