package domain

import (
	"encoding/json"
	"fmt"
)

// Response is the canonical output of the pipeline: one per incoming message,
// success or failure.
type Response struct {
	Action Action `json:"action"`
	Data   Result `json:"data"`
}

// NewResponse wraps a result with its action tag.
func NewResponse(r Result) Response {
	return Response{Action: r.Action(), Data: r}
}

// ErrorResponse is the terminal failure shape used by every stage.
func ErrorResponse(message string) Response {
	return NewResponse(ErrorResult{Message: message})
}

// Result is the action-specific data of a Response. Closed like Payload.
type Result interface {
	Action() Action
	sealedResult()
}

type CreateOneResult struct {
	Type      string `json:"type"`
	Reference string `json:"reference"`
	Date      string `json:"date"`
}

// BulkItemError reports one item of a bulk creation that was not written.
type BulkItemError struct {
	Reference string `json:"reference"`
	Error     string `json:"error"`
}

type CreateBulkResult struct {
	Count         int                `json:"count"`
	Interventions []InterventionItem `json:"interventions"`
	Errors        []BulkItemError    `json:"errors,omitempty"`
}

type AddCommentResult struct {
	Reference string `json:"reference"`
	Comment   string `json:"comment"`
}

type AddImageResult struct {
	Reference string `json:"reference"`
}

type UpdateResult struct {
	Reference string            `json:"reference"`
	Fields    map[string]string `json:"fields"`
}

type DeleteResult struct {
	Reference string `json:"reference"`
}

// InterventionSummary is one row of a LIST result.
type InterventionSummary struct {
	Type          string `json:"type"`
	Reference     string `json:"reference"`
	Date          string `json:"date"`
	CommentsCount int    `json:"comments_count"`
	ImagesCount   int    `json:"images_count"`
}

type ListResult struct {
	Scope         ListScope             `json:"scope"`
	Date          string                `json:"date,omitempty"`
	Count         int                   `json:"count"`
	Interventions []InterventionSummary `json:"interventions"`
}

type SearchResult struct {
	Type        string    `json:"type"`
	Reference   string    `json:"reference"`
	Date        string    `json:"date"`
	Comments    []Comment `json:"comments"`
	ImagesCount int       `json:"images_count"`
}

// ImageLink is a time-limited URL to a stored image.
type ImageLink struct {
	URL        string `json:"url"`
	UploadedAt string `json:"uploaded_at"`
}

type GetImagesResult struct {
	Reference string      `json:"reference"`
	Count     int         `json:"count"`
	Images    []ImageLink `json:"images"`
}

type HelpResult struct{}

type ErrorResult struct {
	Message string `json:"message"`
}

func (CreateOneResult) Action() Action  { return ActionCreateOne }
func (CreateBulkResult) Action() Action { return ActionCreateBulk }
func (AddCommentResult) Action() Action { return ActionAddComment }
func (AddImageResult) Action() Action   { return ActionAddImage }
func (UpdateResult) Action() Action     { return ActionUpdate }
func (DeleteResult) Action() Action     { return ActionDelete }
func (ListResult) Action() Action       { return ActionList }
func (SearchResult) Action() Action     { return ActionSearch }
func (GetImagesResult) Action() Action  { return ActionGetImages }
func (HelpResult) Action() Action       { return ActionHelp }
func (ErrorResult) Action() Action      { return ActionError }

func (CreateOneResult) sealedResult()  {}
func (CreateBulkResult) sealedResult() {}
func (AddCommentResult) sealedResult() {}
func (AddImageResult) sealedResult()   {}
func (UpdateResult) sealedResult()     {}
func (DeleteResult) sealedResult()     {}
func (ListResult) sealedResult()       {}
func (SearchResult) sealedResult()     {}
func (GetImagesResult) sealedResult()  {}
func (HelpResult) sealedResult()       {}
func (ErrorResult) sealedResult()      {}

// ResultHandler mirrors PayloadHandler for the output side.
type ResultHandler[T any] interface {
	CreateOne(CreateOneResult) T
	CreateBulk(CreateBulkResult) T
	AddComment(AddCommentResult) T
	AddImage(AddImageResult) T
	Update(UpdateResult) T
	Delete(DeleteResult) T
	List(ListResult) T
	Search(SearchResult) T
	GetImages(GetImagesResult) T
	Help(HelpResult) T
	Error(ErrorResult) T
}

// VisitResult dispatches r to the handler method matching its variant.
func VisitResult[T any](r Result, h ResultHandler[T]) T {
	switch v := r.(type) {
	case CreateOneResult:
		return h.CreateOne(v)
	case CreateBulkResult:
		return h.CreateBulk(v)
	case AddCommentResult:
		return h.AddComment(v)
	case AddImageResult:
		return h.AddImage(v)
	case UpdateResult:
		return h.Update(v)
	case DeleteResult:
		return h.Delete(v)
	case ListResult:
		return h.List(v)
	case SearchResult:
		return h.Search(v)
	case GetImagesResult:
		return h.GetImages(v)
	case HelpResult:
		return h.Help(v)
	case ErrorResult:
		return h.Error(v)
	case nil:
		return h.Error(ErrorResult{Message: MsgUnknownError})
	default:
		panic(fmt.Sprintf("domain: unhandled result variant %T", r))
	}
}

// MarshalJSON keeps "data" an object even for HELP.
func (r Response) MarshalJSON() ([]byte, error) {
	type wire struct {
		Action Action `json:"action"`
		Data   any    `json:"data"`
	}
	var data any = r.Data
	if r.Data == nil {
		data = struct{}{}
	}
	return json.Marshal(wire{Action: r.Action, Data: data})
}
