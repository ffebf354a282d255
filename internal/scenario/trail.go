package scenario

import (
	"encoding/json"
	"fmt"
	"strings"

	"training_backend/internal/model"
)

// ChoiceKind names how a trail entry encodes the option the learner picked.
// The constants are declared in resolution precedence order.
type ChoiceKind int

const (
	ExplicitPoints ChoiceKind = iota + 1
	OptionIndex
	OptionID
	OptionDescription
	OptionObject
	NextValueGuess
)

func (k ChoiceKind) String() string {
	switch k {
	case ExplicitPoints:
		return "explicit_points"
	case OptionIndex:
		return "option_index"
	case OptionID:
		return "option_id"
	case OptionDescription:
		return "option_description"
	case OptionObject:
		return "option_object"
	case NextValueGuess:
		return "next_value_guess"
	}
	return "unknown"
}

// Choice is one encoding of a learner's pick. Only the fields belonging to
// Kind are meaningful.
type Choice struct {
	Kind        ChoiceKind
	Points      int
	Index       int
	OptionID    string
	Description string
	Object      ChoiceObject
	Next        int
}

// ChoiceObject is a full option object echoed back by the client.
type ChoiceObject struct {
	ID          string
	Description string
	Points      *int
}

// TrailEntry is one step of a submitted run. Encodings holds every choice
// encoding the entry carried, sorted by precedence, so that resolution never
// has to look at the raw payload again.
type TrailEntry struct {
	SceneID   int
	HasScene  bool
	Terminal  bool
	Encodings []Choice
}

type rawOption struct {
	ID          *string `json:"id"`
	Description *string `json:"description"`
	Text        *string `json:"text"`
	Points      *int    `json:"points"`
}

type rawTrailEntry struct {
	SceneID           *int       `json:"sceneId"`
	Terminal          bool       `json:"terminal"`
	Points            *int       `json:"points"`
	OptionIndex       *int       `json:"optionIndex"`
	OptionID          *string    `json:"optionId"`
	OptionDescription *string    `json:"optionDescription"`
	Option            *rawOption `json:"option"`
	SelectedOption    *rawOption `json:"selectedOption"`
	Next              *int       `json:"next"`
}

func (e *TrailEntry) UnmarshalJSON(b []byte) error {
	var raw rawTrailEntry
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode trail entry: %w", err)
	}
	*e = ingest(raw)
	return nil
}

// MarshalJSON writes the entry back in the wire shape it was read from.
func (e TrailEntry) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}
	if e.HasScene {
		out["sceneId"] = e.SceneID
	}
	if e.Terminal {
		out["terminal"] = true
	}
	for _, c := range e.Encodings {
		switch c.Kind {
		case ExplicitPoints:
			out["points"] = c.Points
		case OptionIndex:
			out["optionIndex"] = c.Index
		case OptionID:
			out["optionId"] = c.OptionID
		case OptionDescription:
			out["optionDescription"] = c.Description
		case OptionObject:
			obj := map[string]interface{}{}
			if c.Object.ID != "" {
				obj["id"] = c.Object.ID
			}
			if c.Object.Description != "" {
				obj["description"] = c.Object.Description
			}
			if c.Object.Points != nil {
				obj["points"] = *c.Object.Points
			}
			out["option"] = obj
		case NextValueGuess:
			out["next"] = c.Next
		}
	}
	return json.Marshal(out)
}

func ingest(raw rawTrailEntry) TrailEntry {
	e := TrailEntry{Terminal: raw.Terminal}
	if raw.SceneID != nil {
		e.SceneID = *raw.SceneID
		e.HasScene = true
	}
	if raw.Points != nil {
		e.Encodings = append(e.Encodings, Choice{Kind: ExplicitPoints, Points: *raw.Points})
	}
	if raw.OptionIndex != nil {
		e.Encodings = append(e.Encodings, Choice{Kind: OptionIndex, Index: *raw.OptionIndex})
	}
	if raw.OptionID != nil && *raw.OptionID != "" {
		e.Encodings = append(e.Encodings, Choice{Kind: OptionID, OptionID: *raw.OptionID})
	}
	if raw.OptionDescription != nil && *raw.OptionDescription != "" {
		e.Encodings = append(e.Encodings, Choice{Kind: OptionDescription, Description: *raw.OptionDescription})
	}
	obj := raw.Option
	if obj == nil {
		obj = raw.SelectedOption
	}
	if obj != nil {
		co := ChoiceObject{Points: obj.Points}
		if obj.ID != nil {
			co.ID = *obj.ID
		}
		switch {
		case obj.Description != nil:
			co.Description = *obj.Description
		case obj.Text != nil:
			co.Description = *obj.Text
		}
		e.Encodings = append(e.Encodings, Choice{Kind: OptionObject, Object: co})
	}
	if raw.Next != nil {
		e.Encodings = append(e.Encodings, Choice{Kind: NextValueGuess, Next: *raw.Next})
	}
	return e
}

// resolved is the outcome of matching a trail entry against its scene.
type resolved struct {
	points      int
	option      *model.Option
	havePoints  bool
	description string
}

// resolve walks the entry's encodings in precedence order. The first encoding
// that yields a point value decides the score; the first one that identifies
// a concrete option decides what is stored.
func (e *TrailEntry) resolve(s *model.Scene) resolved {
	var r resolved
	for _, c := range e.Encodings {
		opt, points, ok := c.match(s)
		if opt != nil && r.option == nil {
			r.option = opt
		}
		if ok && !r.havePoints {
			r.points = points
			r.havePoints = true
		}
		if r.havePoints && r.option != nil {
			break
		}
	}
	switch {
	case r.option != nil:
		r.description = r.option.Description
	default:
		for _, c := range e.Encodings {
			if c.Kind == OptionDescription {
				r.description = c.Description
				break
			}
			if c.Kind == OptionObject && c.Object.Description != "" {
				r.description = c.Object.Description
				break
			}
		}
	}
	return r
}

// match returns the scene option c refers to (if any) and the points it is
// worth, with ok reporting whether a usable point value was found.
func (c Choice) match(s *model.Scene) (*model.Option, int, bool) {
	switch c.Kind {
	case ExplicitPoints:
		return nil, c.Points, true
	case OptionIndex:
		if c.Index >= 0 && c.Index < len(s.Options) {
			o := &s.Options[c.Index]
			return o, o.Points, true
		}
	case OptionID:
		if o := findByID(s, c.OptionID); o != nil {
			return o, o.Points, true
		}
	case OptionDescription:
		if o := findByDescription(s, c.Description); o != nil {
			return o, o.Points, true
		}
	case OptionObject:
		if o := findByID(s, c.Object.ID); o != nil {
			return o, o.Points, true
		}
		if o := findByDescription(s, c.Object.Description); o != nil {
			return o, o.Points, true
		}
		if c.Object.Points != nil {
			return nil, *c.Object.Points, true
		}
	case NextValueGuess:
		for i := range s.Options {
			if n := s.Options[i].Next; n != nil && *n == c.Next {
				return &s.Options[i], s.Options[i].Points, true
			}
		}
	}
	return nil, 0, false
}

func findByID(s *model.Scene, id string) *model.Option {
	if id == "" {
		return nil
	}
	for i := range s.Options {
		if s.Options[i].ID == id {
			return &s.Options[i]
		}
	}
	return nil
}

// findByDescription prefers an exact match and falls back to a trimmed,
// case-insensitive one.
func findByDescription(s *model.Scene, desc string) *model.Option {
	if desc == "" {
		return nil
	}
	for i := range s.Options {
		if s.Options[i].Description == desc {
			return &s.Options[i]
		}
	}
	want := strings.TrimSpace(desc)
	for i := range s.Options {
		if strings.EqualFold(strings.TrimSpace(s.Options[i].Description), want) {
			return &s.Options[i]
		}
	}
	return nil
}
