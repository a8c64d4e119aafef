package schema

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Descriptor is the JSON schema a flow's backend output must satisfy. It is
// sent to the backend as the structured-output hint and checked again on the
// way back.
type Descriptor struct {
	Name   string
	Schema *jsonschema.Schema

	// ArrayField names the property that holds a flow's list output. A reply
	// that is a bare JSON array is wrapped under this key before validation.
	ArrayField string

	resolved *jsonschema.Resolved
	wire     map[string]any
}

func NewDescriptor(name string, s *jsonschema.Schema, arrayField string) (*Descriptor, error) {
	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve schema %s: %w", name, err)
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", name, err)
	}
	var wire map[string]any
	if err := json.Unmarshal(b, &wire); err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", name, err)
	}
	return &Descriptor{Name: name, Schema: s, ArrayField: arrayField, resolved: resolved, wire: wire}, nil
}

func mustDescriptor(name string, s *jsonschema.Schema, arrayField string) *Descriptor {
	d, err := NewDescriptor(name, s, arrayField)
	if err != nil {
		panic(err)
	}
	return d
}

// Validate checks a decoded JSON value (maps, slices, float64s) against the schema.
func (d *Descriptor) Validate(instance any) error {
	return d.resolved.Validate(instance)
}

// Normalize wraps a bare array reply under ArrayField.
func (d *Descriptor) Normalize(instance any) any {
	if d.ArrayField == "" {
		return instance
	}
	if arr, ok := instance.([]any); ok {
		return map[string]any{d.ArrayField: arr}
	}
	return instance
}

// Wire returns the schema as a generic JSON object for engine request bodies.
// Callers must not mutate it.
func (d *Descriptor) Wire() map[string]any {
	return d.wire
}

// ---------- schema builders ----------

func falseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}

func objectSchema(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: falseSchema(),
	}
}

func nonEmptyStringSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", MinLength: jsonschema.Ptr(1), Description: desc}
}

func stringSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func stringArraySchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}, Description: desc}
}

func enumSchema(desc string, values ...string) *jsonschema.Schema {
	arr := make([]any, 0, len(values))
	for _, v := range values {
		arr = append(arr, v)
	}
	return &jsonschema.Schema{Type: "string", Enum: arr, Description: desc}
}

func chartSchema() *jsonschema.Schema {
	s := objectSchema(map[string]*jsonschema.Schema{
		"type": enumSchema("Chart kind.", string(ChartBar), string(ChartLine), string(ChartPie)),
		"data": {
			Type:        "array",
			MinItems:    jsonschema.Ptr(1),
			Description: "Rows of chart data; every key used in config must appear here.",
			Items: &jsonschema.Schema{
				Type:                 "object",
				AdditionalProperties: &jsonschema.Schema{Types: []string{"string", "number", "boolean"}},
			},
		},
		"config": {
			Type:        "object",
			Description: "Series rendering config keyed by data field.",
			AdditionalProperties: objectSchema(map[string]*jsonschema.Schema{
				"label": nonEmptyStringSchema("Series label."),
				"color": stringSchema("Optional CSS color."),
			}, "label"),
		},
	}, "type", "data", "config")
	s.Types = []string{"object", "null"}
	s.Type = ""
	return s
}

func tableSchema() *jsonschema.Schema {
	s := objectSchema(map[string]*jsonschema.Schema{
		"headers": {Type: "array", MinItems: jsonschema.Ptr(1), Items: &jsonschema.Schema{Type: "string"}},
		"rows": {
			Type: "array",
			Items: &jsonschema.Schema{
				Type:  "array",
				Items: &jsonschema.Schema{Types: []string{"string", "number"}},
			},
		},
	}, "headers", "rows")
	s.Types = []string{"object", "null"}
	s.Type = ""
	return s
}

func insightCardSchema() *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{
		"title":       nonEmptyStringSchema("Short card title."),
		"description": stringSchema("One or two sentences describing the insight."),
		"chartType": enumSchema("Best visualization for the insight.",
			string(CardLine), string(CardBar), string(CardPie), string(CardTable)),
		"dataFields": stringArraySchema("Dataset fields the card visualizes."),
	}, "title", "description", "chartType", "dataFields")
}

// Output descriptors, one per generative flow.
var (
	AnswerDescriptor = mustDescriptor("answer_data_questions", objectSchema(map[string]*jsonschema.Schema{
		"answer": nonEmptyStringSchema("Direct answer to the question."),
		"chart":  chartSchema(),
		"table":  tableSchema(),
	}, "answer"), "")

	InsightCardsDescriptor = mustDescriptor("insight_cards", objectSchema(map[string]*jsonschema.Schema{
		"cards": {Type: "array", Items: insightCardSchema()},
	}, "cards"), "cards")

	SuggestionsDescriptor = mustDescriptor("smart_suggestions", objectSchema(map[string]*jsonschema.Schema{
		"suggestions": stringArraySchema("Suggested follow-up queries."),
	}, "suggestions"), "suggestions")
)
