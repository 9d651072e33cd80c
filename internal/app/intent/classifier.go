package intent

import "github.com/PabloGalante/lynkia-agent/internal/domain"

// Outcome is the result of running the cascade on one message.
type Outcome struct {
	// Payload is nil when Ambiguous.
	Payload domain.Payload
	// Ambiguous means no detector claimed the message; the language-model
	// fallback has to decide.
	Ambiguous bool
	// Detector names the step that claimed the message.
	Detector string
}

func (o Outcome) Action() domain.Action {
	if o.Payload == nil {
		return ""
	}
	return o.Payload.Action()
}

// Classifier runs an ordered list of detectors; the first one that claims
// the message wins.
type Classifier struct {
	detectors []Detector
}

// NewClassifier builds the default cascade.
func NewClassifier() *Classifier {
	return &Classifier{detectors: DefaultCascade()}
}

// DefaultCascade returns the detectors in priority order. Explicit keywords
// are checked before the loose creation and comment heuristics, and
// multi-line creation before single creation.
func DefaultCascade() []Detector {
	return []Detector{
		{Name: "empty", Detect: detectEmpty},
		{Name: "help", Detect: detectHelp},
		{Name: "media", Detect: detectMedia},
		{Name: "delete", Detect: detectDelete},
		{Name: "update", Detect: detectUpdate},
		{Name: "list", Detect: detectList},
		{Name: "search", Detect: detectSearch},
		{Name: "get_images", Detect: detectGetImages},
		{Name: "add_image", Detect: detectAddImageKeyword},
		{Name: "create_bulk", Detect: detectCreateBulk},
		{Name: "create_one", Detect: detectCreateOne},
		{Name: "add_comment", Detect: detectAddComment},
	}
}

// Classify runs the cascade. It is a pure function of (text, hasMedia).
func (c *Classifier) Classify(text string, hasMedia bool) Outcome {
	m := Normalize(text, hasMedia)
	for _, d := range c.detectors {
		if p, ok := d.Detect(m); ok {
			return Outcome{Payload: p, Detector: d.Name}
		}
	}
	return Outcome{Ambiguous: true}
}
