package term

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// BoxKind is the runtime kind of a boxed scalar.
type BoxKind int

const (
	KindOther BoxKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindNone
	KindEllipsis
)

var boxKindNames = map[BoxKind]string{
	KindOther:    "other",
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindString:   "str",
	KindNone:     "none",
	KindEllipsis: "ellipsis",
}

func (k BoxKind) String() string {
	if name, ok := boxKindNames[k]; ok {
		return name
	}
	return "BoxKind(" + strconv.Itoa(int(k)) + ")"
}

type noneType struct{}

type ellipsisType struct{}

func (noneType) String() string     { return "None" }
func (ellipsisType) String() string { return "..." }

var (
	// None is the boxed "no value" sentinel. Nil values box to None.
	None any = noneType{}
	// Ellipsis is the boxed "..." sentinel.
	Ellipsis any = ellipsisType{}
)

// NewBox boxes v. Integers of every width become int64, floats become
// float64 and nil becomes None. Unsigned values above math.MaxInt64 are kept
// as they are and box as KindOther.
func NewBox(v any) Box {
	if v == nil {
		return Box{Value: None}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Box{Value: rv.Int()}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return Box{Value: int64(u)}
		}
	case reflect.Float32, reflect.Float64:
		return Box{Value: rv.Float()}
	case reflect.Bool:
		return Box{Value: rv.Bool()}
	case reflect.String:
		return Box{Value: rv.String()}
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return Box{Value: None}
		}
	}
	return Box{Value: v}
}

// Kind reports the kind of the boxed value.
func (b Box) Kind() BoxKind {
	return KindOf(b.Value)
}

// KindOf reports the box kind a value would have once boxed.
// Booleans are never integers.
func KindOf(v any) BoxKind {
	switch v.(type) {
	case bool:
		return KindBool
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case noneType:
		return KindNone
	case ellipsisType:
		return KindEllipsis
	}
	return KindOther
}

// Equal reports whether two boxes hold values of the same kind that compare
// equal.
func (b Box) Equal(other Box) bool {
	if b.Kind() != other.Kind() {
		return false
	}
	if b.Kind() == KindOther {
		return reflect.DeepEqual(b.Value, other.Value)
	}
	return b.Value == other.Value
}

// Literal renders the boxed value the way it is written in a rule document.
func (b Box) Literal() string {
	switch v := b.Value.(type) {
	case bool:
		if v {
			return "True"
		}
		return "False"
	case string:
		return strconv.Quote(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return fmt.Sprint(b.Value)
}
