package fallback

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PabloGalante/lynkia-agent/internal/app/intent"
	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

var (
	errBadReference = errors.New("reference is not a 6-15 character alphanumeric word")
	errBadField     = errors.New("update field value is not a string")
)

// envelope is the wire shape the grammar asks the model for.
type envelope struct {
	Action *string         `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type commentWire struct {
	Reference   string `json:"reference"`
	Commentaire string `json:"commentaire"`
	Comment     string `json:"comment"`
}

type updateWire struct {
	Reference string         `json:"reference"`
	Fields    map[string]any `json:"fields"`
}

type listWire struct {
	Scope string `json:"scope"`
	Date  string `json:"date"`
}

// Decode parses a model completion into a Payload. The completion is
// untrusted: anything that is not a single JSON object with a known action
// becomes an ErrorPayload.
func Decode(content string) domain.Payload {
	raw := strings.TrimSpace(stripCodeFence(content))

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return domain.ErrorPayload{Message: domain.MsgInvalidAIResponse}
	}
	if env.Action == nil {
		return domain.ErrorPayload{Message: domain.MsgInvalidAIResponse}
	}
	action, ok := domain.ParseAction(*env.Action)
	if !ok {
		return domain.ErrorPayload{Message: domain.MsgUnrecognizedAction}
	}

	data := env.Data
	if len(data) == 0 || string(data) == "null" {
		data = json.RawMessage("{}")
	}

	p, err := decodeData(action, data)
	if err != nil {
		return domain.ErrorPayload{Message: domain.MsgInvalidAIResponse}
	}
	return p
}

// reference applies the cascade's reference rule to a model-supplied value.
// Empty stays empty so the executor can answer "Référence requise".
func reference(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	ref := intent.ExtractReference(raw)
	if ref == "" || !strings.EqualFold(ref, raw) {
		return "", errBadReference
	}
	return ref, nil
}

func decodeData(action domain.Action, data json.RawMessage) (domain.Payload, error) {
	var err error
	switch action {
	case domain.ActionCreateOne:
		var p domain.CreateOnePayload
		if err = json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		p.Type = strings.ToUpper(strings.TrimSpace(p.Type))
		p.Reference, err = reference(p.Reference)
		return p, err
	case domain.ActionCreateBulk:
		var p domain.CreateBulkPayload
		if err = json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		for i := range p.Interventions {
			p.Interventions[i].Type = strings.ToUpper(strings.TrimSpace(p.Interventions[i].Type))
			if p.Interventions[i].Reference, err = reference(p.Interventions[i].Reference); err != nil {
				return nil, err
			}
		}
		return p, nil
	case domain.ActionAddComment:
		var w commentWire
		if err = json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		comment := w.Commentaire
		if comment == "" {
			comment = w.Comment
		}
		ref, err := reference(w.Reference)
		return domain.AddCommentPayload{Reference: ref, Comment: comment}, err
	case domain.ActionAddImage:
		var p domain.AddImagePayload
		if err = json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		p.Reference, err = reference(p.Reference)
		return p, err
	case domain.ActionUpdate:
		var w updateWire
		if err = json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		fields := make(map[string]string, len(w.Fields))
		for k, v := range w.Fields {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s", errBadField, k)
			}
			fields[strings.ToLower(k)] = s
		}
		ref, err := reference(w.Reference)
		return domain.UpdatePayload{Reference: ref, Fields: fields}, err
	case domain.ActionDelete:
		var p domain.DeletePayload
		if err = json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		p.Reference, err = reference(p.Reference)
		return p, err
	case domain.ActionList:
		var w listWire
		if err = json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		scope, ok := domain.ParseListScope(w.Scope)
		if !ok {
			// left for the executor to reject
			scope = domain.ListScope(strings.ToUpper(w.Scope))
		}
		return domain.ListPayload{Scope: scope, Date: w.Date}, nil
	case domain.ActionSearch:
		var p domain.SearchPayload
		if err = json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		p.Reference, err = reference(p.Reference)
		return p, err
	case domain.ActionGetImages:
		var p domain.GetImagesPayload
		if err = json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		p.Reference, err = reference(p.Reference)
		return p, err
	case domain.ActionHelp:
		return domain.HelpPayload{}, nil
	case domain.ActionError:
		var p domain.ErrorPayload
		if err = json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if p.Message == "" {
			p.Message = domain.MsgUnrecognizedMessage
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown action %q", action)
}

// stripCodeFence drops a ```json fence some models wrap around JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}
