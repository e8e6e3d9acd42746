package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for structural keys.
// CRITICAL: This is the ONLY serialization that should be used for
// uniquing and content-addressed identity computation.
//
// Accepts Type, Attr, string, int, int64, bool, []any and map[string]any.
// Differences from standard json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. No binary floats (FloatAttr is encoded as its decimal string)
//  5. No null
//
// Dynamic instances are encoded by schema name and parameters, never by
// instance ID, so keys are independent of interning order.
func MarshalCanonical(v any) ([]byte, error) {
	n, err := canonicalNode(v)
	if err != nil {
		return nil, err
	}
	return marshalCanonical(n)
}

// canonicalNode lowers IR values to plain JSON-shaped Go values.
func canonicalNode(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case Type:
		return typeNode(val)
	case Attr:
		return attrNode(val)
	case string, int, int64, bool:
		return val, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := canonicalNode(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			n, err := canonicalNode(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case float64, float32:
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

func typeNode(t Type) (any, error) {
	switch ty := t.(type) {
	case IntegerType:
		return map[string]any{"type": "int", "width": ty.Width, "sign": int(ty.Signedness)}, nil
	case FloatType:
		return map[string]any{"type": "float", "width": ty.Width}, nil
	case IndexType:
		return map[string]any{"type": "index"}, nil
	case NoneType:
		return map[string]any{"type": "none"}, nil
	case FunctionType:
		inputs, err := typeListNode(ty.Inputs)
		if err != nil {
			return nil, fmt.Errorf("inputs: %w", err)
		}
		results, err := typeListNode(ty.Results)
		if err != nil {
			return nil, fmt.Errorf("results: %w", err)
		}
		return map[string]any{"type": "func", "inputs": inputs, "results": results}, nil
	case OpaqueType:
		params, err := attrListNode(ty.Params)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "opaque", "dialect": ty.Dialect, "name": ty.Name, "params": params}, nil
	case *DynamicType:
		params, err := attrListNode(ty.params)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "dynamic", "def": QualifiedName(ty.def), "params": params}, nil
	default:
		return nil, fmt.Errorf("unsupported IR type: %T", t)
	}
}

func attrNode(a Attr) (any, error) {
	switch at := a.(type) {
	case UnitAttr:
		return map[string]any{"attr": "unit"}, nil
	case BoolAttr:
		return bool(at), nil
	case IntAttr:
		return int64(at), nil
	case FloatAttr:
		return map[string]any{"attr": "float", "value": at.Value.String()}, nil
	case StringAttr:
		return string(at), nil
	case SymbolRefAttr:
		return map[string]any{"attr": "symbol", "name": string(at)}, nil
	case ArrayAttr:
		return attrListNode(at)
	case DictAttr:
		entries := make(map[string]any, len(at))
		for k, v := range at {
			n, err := attrNode(v)
			if err != nil {
				return nil, fmt.Errorf("dict[%q]: %w", k, err)
			}
			entries[k] = n
		}
		return map[string]any{"attr": "dict", "entries": entries}, nil
	case TypeAttr:
		return typeNode(at.Type)
	case *DynamicAttr:
		params, err := attrListNode(at.params)
		if err != nil {
			return nil, err
		}
		return map[string]any{"attr": "dynamic", "def": QualifiedName(at.def), "params": params}, nil
	default:
		return nil, fmt.Errorf("unsupported IR attribute: %T", a)
	}
}

func attrListNode(attrs []Attr) ([]any, error) {
	out := make([]any, len(attrs))
	for i, a := range attrs {
		n, err := attrNode(a)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}

func typeListNode(types []Type) ([]any, error) {
	out := make([]any, len(types))
	for i, t := range types {
		n, err := typeNode(t)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}

func marshalCanonical(n any) ([]byte, error) {
	switch val := n.(type) {
	case string:
		return marshalCanonicalString(val)
	case int:
		return []byte(fmt.Sprintf("%d", val)), nil
	case int64:
		return []byte(fmt.Sprintf("%d", val)), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case []any:
		return marshalCanonicalArray(val)
	case map[string]any:
		return marshalCanonicalObject(val)
	default:
		return nil, fmt.Errorf("unsupported canonical node: %T", n)
	}
}

// marshalCanonicalString produces canonical JSON string with NFC normalization.
// CRITICAL: RFC 8785 compliance:
// - No HTML escaping (<, >, & are NOT escaped)
// - U+2028 (LINE SEPARATOR) and U+2029 (PARAGRAPH SEPARATOR) are NOT escaped
// - Only control characters (U+0000-U+001F), backslash, and quote are escaped
func marshalCanonicalString(s string) ([]byte, error) {
	// NFC normalize at serialization boundary
	normalized := norm.NFC.String(s)

	// Use encoder with HTML escaping disabled
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // CRITICAL: <, >, & must NOT be escaped
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds trailing newline, remove it
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}

	// RFC 8785: U+2028 and U+2029 should NOT be escaped.
	// Go's json.Encoder escapes them for JavaScript compatibility, but this
	// violates RFC 8785 canonical JSON. We must unescape them.
	//
	// CRITICAL: We must NOT replace \u2028 when it's part of \\u2028 (escaped backslash).
	// The json encoder produces:
	// - \u2028  for actual U+2028 character (should be unescaped)
	// - \\u2028 for literal backslash + "u2028" text (should stay escaped)
	result = unescapeU2028U2029(result)

	return result, nil
}

// unescapeU2028U2029 converts \u2028 and \u2029 escape sequences back to
// literal characters, leaving \\u2028 (escaped backslash + text) alone.
func unescapeU2028U2029(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	backslashes := 0
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == '\\' && backslashes%2 == 0 && i+5 < len(data) &&
			bytes.HasPrefix(data[i+1:], []byte("u202")) && (data[i+5] == '8' || data[i+5] == '9') {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			backslashes = 0
			continue
		}
		if c == '\\' {
			backslashes++
		} else {
			backslashes = 0
		}
		out = append(out, c)
	}
	return out
}

// marshalCanonicalArray marshals an array to canonical JSON.
func marshalCanonicalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := marshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// marshalCanonicalObject marshals an object to canonical JSON with RFC 8785 key ordering.
func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	// CRITICAL: RFC 8785 UTF-16 code unit ordering
	slices.SortFunc(keys, compareKeysRFC8785)

	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
