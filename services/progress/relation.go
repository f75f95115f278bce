package progress

import (
	"encoding/json"

	"reelhouse/utils/ident"
)

// Relation values arrive in several shapes: a bare numeric id, a bare
// document id, a single-element array, or a mutation wrapper describing a
// connect/set/disconnect operation. All of them normalize to a closed
// variant before the presence check runs, so no call site inspects shape
// ad hoc.

type relationShape int

const (
	relationEmpty relationShape = iota
	relationScalar
	relationAmbiguous
)

type relationValue struct {
	shape relationShape
	id    ident.ID
}

func emptyRelation() relationValue  { return relationValue{shape: relationEmpty} }
func scalarRelation(id ident.ID) relationValue {
	if id.IsZero() {
		return emptyRelation()
	}
	return relationValue{shape: relationScalar, id: id}
}
func ambiguousRelation() relationValue { return relationValue{shape: relationAmbiguous} }

// normalizeRelation reduces a raw relation payload to Scalar(id), Empty, or
// Ambiguous. An explicit disconnect counts as empty; connect/set wrappers
// normalize to their first referenced id.
func normalizeRelation(raw json.RawMessage) relationValue {
	if len(raw) == 0 {
		return emptyRelation()
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ambiguousRelation()
	}
	return normalizeRelationValue(v)
}

func normalizeRelationValue(v any) relationValue {
	switch val := v.(type) {
	case nil:
		return emptyRelation()
	case string, float64:
		id, ok := ident.FromAny(val)
		if !ok {
			return emptyRelation()
		}
		return scalarRelation(id)
	case []any:
		if len(val) == 0 {
			return emptyRelation()
		}
		return normalizeRelationValue(val[0])
	case map[string]any:
		return normalizeRelationObject(val)
	}
	return ambiguousRelation()
}

func normalizeRelationObject(obj map[string]any) relationValue {
	// Mutation wrapper: disconnect wins over connect/set when both appear
	// and the connected side is empty.
	if _, hasConnect := obj["connect"]; hasConnect {
		if rv := normalizeRelationValue(obj["connect"]); rv.shape != relationEmpty {
			return rv
		}
	}
	if _, hasSet := obj["set"]; hasSet {
		if rv := normalizeRelationValue(obj["set"]); rv.shape != relationEmpty {
			return rv
		}
	}
	if _, hasDisconnect := obj["disconnect"]; hasDisconnect {
		return emptyRelation()
	}
	if _, hasConnect := obj["connect"]; hasConnect {
		return emptyRelation()
	}
	if _, hasSet := obj["set"]; hasSet {
		return emptyRelation()
	}

	// Bare related entity: take its id, falling back to the document id.
	if id, ok := ident.FromAny(obj["id"]); ok {
		return scalarRelation(id)
	}
	if id, ok := ident.FromAny(obj["documentId"]); ok {
		return scalarRelation(id)
	}

	// A wrapper whose payload lives under "data".
	if data, ok := obj["data"]; ok {
		return normalizeRelationValue(data)
	}

	return ambiguousRelation()
}
