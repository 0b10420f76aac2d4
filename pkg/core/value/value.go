// Package value implements Kozi's runtime value model: a tagged union of
// Nil, Bool, Number (float64) and String (a GC-owned handle), per
// spec.md §3.
package value

import (
	"math"
	"strconv"

	"github.com/chazu/kozi/pkg/gc"
)

// Type is the tag of the Value union. The teacher (chazu-maggie's
// vm.Value, vm/value.go) packs this discrimination into NaN-boxed bit
// tags inside a single uint64; Kozi instead keeps an explicit Type field
// alongside the payload, since a GC-owned string handle doesn't fit in a
// 48-bit NaN-box payload the way chazu-maggie's tagged pointers do.
type Type uint8

const (
	TypeNil Type = iota
	TypeBool
	TypeNumber
	TypeString
)

// Value is Kozi's tagged union. Bool and Number are stored inline in
// Data; String holds a pointer to a GC-owned, interned StringObject
// (spec.md §3).
type Value struct {
	Type Type
	Data uint64 // TypeBool: 0/1. TypeNumber: math.Float64bits.
	Str  *gc.StringObject
}

// Nil is the singleton nil value.
var Nil = Value{Type: TypeNil}

// Bool constructs a boolean value.
func Bool(b bool) Value {
	var d uint64
	if b {
		d = 1
	}
	return Value{Type: TypeBool, Data: d}
}

// Number constructs a numeric value.
func Number(f float64) Value {
	return Value{Type: TypeNumber, Data: math.Float64bits(f)}
}

// String constructs a string value from an already-interned handle.
func String(obj *gc.StringObject) Value {
	return Value{Type: TypeString, Str: obj}
}

// AsBool returns the value's boolean payload. Only meaningful when
// Type == TypeBool.
func (v Value) AsBool() bool { return v.Data != 0 }

// AsNumber returns the value's float64 payload. Only meaningful when
// Type == TypeNumber.
func (v Value) AsNumber() float64 { return math.Float64frombits(v.Data) }

// AsString returns the value's string contents. Only meaningful when
// Type == TypeString.
func (v Value) AsString() string { return v.Str.Chars }

// IsFalsey reports whether v is falsey: Nil or Bool(false). Every other
// value, including Number(0) and the empty string, is truthy
// (spec.md §4.4).
func (v Value) IsFalsey() bool {
	return v.Type == TypeNil || (v.Type == TypeBool && !v.AsBool())
}

// Equal implements spec.md §3's equality semantics: different tags are
// never equal; numbers use IEEE equality; strings compare by interned
// handle identity, which coincides with content equality because equal
// contents share a handle (spec.md §3, §8).
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case TypeNil:
		return true
	case TypeBool:
		return v.AsBool() == other.AsBool()
	case TypeNumber:
		return v.AsNumber() == other.AsNumber()
	case TypeString:
		return v.Str == other.Str
	default:
		return false
	}
}

// Format renders v the way Print does (spec.md §4.4): numbers via a
// general decimal format, booleans as true/false, nil as nil, strings as
// their bare contents.
func (v Value) Format() string {
	switch v.Type {
	case TypeNil:
		return "nil"
	case TypeBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case TypeNumber:
		return strconv.FormatFloat(v.AsNumber(), 'g', -1, 64)
	case TypeString:
		return v.AsString()
	default:
		return ""
	}
}
