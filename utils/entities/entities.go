// Package entities flattens the varying response shapes of the upstream
// content API into a uniform key/value view. List responses wrap their
// payload in a top-level "data" array, single responses in a "data" object,
// entity fields live either at the top level or under an "attributes"
// sub-object, and relations arrive bare, as arrays, or behind a nested
// "data" wrapper. Shape mismatches yield empty results, never errors,
// because the shape varies across upstream versions.
package entities

import (
	"encoding/json"

	"reelhouse/utils/ident"
)

// Entity is a uniform view over one upstream record.
type Entity map[string]any

// Decode parses a raw JSON document and returns the entities it contains.
func Decode(raw []byte) []Entity {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return Collection(v)
}

// Collection extracts a sequence of entities from an arbitrary decoded
// value: a top-level "data" array, a top-level "data" object, a bare array,
// or a bare object.
func Collection(v any) []Entity {
	switch val := v.(type) {
	case map[string]any:
		if data, ok := val["data"]; ok {
			return fromDataValue(data)
		}
		return []Entity{Entity(val)}
	case []any:
		return fromArray(val)
	}
	return nil
}

// One extracts a single entity, the first when the value holds many.
func One(v any) (Entity, bool) {
	all := Collection(v)
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}

func fromDataValue(data any) []Entity {
	switch val := data.(type) {
	case map[string]any:
		return []Entity{Entity(val)}
	case []any:
		return fromArray(val)
	}
	return nil
}

func fromArray(arr []any) []Entity {
	out := make([]Entity, 0, len(arr))
	for _, item := range arr {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, Entity(obj))
		}
	}
	return out
}

// Attr returns the named field, checking the top level first and falling
// back to the "attributes" sub-object.
func (e Entity) Attr(key string) (any, bool) {
	if e == nil {
		return nil, false
	}
	if v, ok := e[key]; ok {
		return v, true
	}
	if attrs, ok := e["attributes"].(map[string]any); ok {
		if v, ok := attrs[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// String returns the named field as a string, or "" when absent or not a
// string.
func (e Entity) String(key string) string {
	v, ok := e.Attr(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Number returns the named field as a float64.
func (e Entity) Number(key string) (float64, bool) {
	v, ok := e.Attr(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Bool returns the named field as a bool, false when absent or mistyped.
func (e Entity) Bool(key string) bool {
	v, ok := e.Attr(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// ID returns the entity's numeric identifier.
func (e Entity) ID() ident.ID {
	v, ok := e.Attr("id")
	if !ok {
		return ""
	}
	id, _ := ident.FromAny(v)
	return id
}

// DocumentID returns the entity's stable document identifier.
func (e Entity) DocumentID() ident.ID {
	v, ok := e.Attr("documentId")
	if !ok {
		return ""
	}
	id, _ := ident.FromAny(v)
	return id
}

// Relation returns the related entities stored under the named field. The
// field may hold the bare related entity, an array of them, or a wrapper
// object whose payload lives under a nested "data" key; the wrapper is
// unwrapped before arrays and objects are inspected.
func (e Entity) Relation(key string) []Entity {
	v, ok := e.Attr(key)
	if !ok {
		return nil
	}
	if obj, isObj := v.(map[string]any); isObj {
		if data, hasData := obj["data"]; hasData {
			return fromDataValue(data)
		}
		return []Entity{Entity(obj)}
	}
	if arr, isArr := v.([]any); isArr {
		return fromArray(arr)
	}
	return nil
}

// FirstRelation returns the first related entity under the named field.
func (e Entity) FirstRelation(key string) (Entity, bool) {
	rel := e.Relation(key)
	if len(rel) == 0 {
		return nil, false
	}
	return rel[0], true
}
