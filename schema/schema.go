// Package schema provides a small fluent builder for the JSON Schema objects
// that declare tool parameters.
//
//	params := schema.Object().
//	    Prop("path", schema.String().Desc("Path to the file to read")).
//	    Prop("limit", schema.Integer().Desc("Maximum number of lines")).
//	    Required("path").
//	    Closed().
//	    MustBuild()
package schema

import "encoding/json"

// node is the internal schema representation shared by all builders.
type node struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Enum        []any  `json:"enum,omitempty"`

	Items    *node `json:"items,omitempty"`
	MinItems *int  `json:"minItems,omitempty"`

	Properties           map[string]*node `json:"properties,omitempty"`
	Required             []string         `json:"required,omitempty"`
	AdditionalProperties *bool            `json:"additionalProperties,omitempty"`
}

// Builder constructs one JSON Schema value.
type Builder struct {
	n *node
}

// Object starts an object schema.
func Object() *Builder {
	return &Builder{n: &node{Type: "object", Properties: map[string]*node{}}}
}

// String starts a string schema.
func String() *Builder {
	return &Builder{n: &node{Type: "string"}}
}

// Integer starts an integer schema.
func Integer() *Builder {
	return &Builder{n: &node{Type: "integer"}}
}

// Number starts a number schema.
func Number() *Builder {
	return &Builder{n: &node{Type: "number"}}
}

// Boolean starts a boolean schema.
func Boolean() *Builder {
	return &Builder{n: &node{Type: "boolean"}}
}

// Array starts an array schema with the given item schema.
func Array(items *Builder) *Builder {
	return &Builder{n: &node{Type: "array", Items: items.n}}
}

// Desc sets the description.
func (b *Builder) Desc(d string) *Builder {
	b.n.Description = d
	return b
}

// Enum restricts the value to the given set.
func (b *Builder) Enum(values ...any) *Builder {
	b.n.Enum = values
	return b
}

// MinItems sets the minimum array length.
func (b *Builder) MinItems(n int) *Builder {
	b.n.MinItems = &n
	return b
}

// Prop adds a named property to an object schema.
func (b *Builder) Prop(name string, p *Builder) *Builder {
	b.n.Properties[name] = p.n
	return b
}

// Required marks object properties as required.
func (b *Builder) Required(names ...string) *Builder {
	b.n.Required = append(b.n.Required, names...)
	return b
}

// Closed forbids additional properties on an object schema.
func (b *Builder) Closed() *Builder {
	f := false
	b.n.AdditionalProperties = &f
	return b
}

// Build serializes the schema.
func (b *Builder) Build() (json.RawMessage, error) {
	return json.Marshal(b.n)
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() json.RawMessage {
	data, err := b.Build()
	if err != nil {
		panic(err)
	}
	return data
}
