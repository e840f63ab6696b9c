package document

import (
	"fmt"
	"time"
)

// Kind identifies the scalar or container type held by a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindInteger
	KindReal
	KindBoolean
	KindDate
	KindData
	KindDict
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindData:
		return "data"
	case KindDict:
		return "dict"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// Value is a node of a decoded property list. The zero Value has KindInvalid.
type Value struct {
	kind Kind
	str  string
	i    int64
	f    float64
	b    bool
	t    time.Time
	data []byte
	dict *Dict
	arr  []Value
}

func String(s string) Value       { return Value{kind: KindString, str: s} }
func Integer(i int64) Value       { return Value{kind: KindInteger, i: i} }
func Real(f float64) Value        { return Value{kind: KindReal, f: f} }
func Boolean(b bool) Value        { return Value{kind: KindBoolean, b: b} }
func Date(t time.Time) Value      { return Value{kind: KindDate, t: t} }
func Data(data []byte) Value      { return Value{kind: KindData, data: data} }
func DictValue(d *Dict) Value     { return Value{kind: KindDict, dict: d} }
func Array(values ...Value) Value { return Value{kind: KindArray, arr: values} }

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

func (v Value) Str() (string, bool)     { return v.str, v.kind == KindString }
func (v Value) Int() (int64, bool)      { return v.i, v.kind == KindInteger }
func (v Value) Float() (float64, bool)  { return v.f, v.kind == KindReal }
func (v Value) Bool() (bool, bool)      { return v.b, v.kind == KindBoolean }
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindDate }
func (v Value) Bytes() ([]byte, bool)   { return v.data, v.kind == KindData }

func (v Value) Dict() (*Dict, bool) {
	if v.kind != KindDict || v.dict == nil {
		return nil, false
	}
	return v.dict, true
}

func (v Value) Array() ([]Value, bool) {
	return v.arr, v.kind == KindArray
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindInteger:
		return fmt.Sprint(v.i)
	case KindReal:
		return fmt.Sprint(v.f)
	case KindBoolean:
		return fmt.Sprint(v.b)
	case KindDate:
		return v.t.Format(time.RFC3339)
	case KindData:
		return fmt.Sprintf("<%d bytes>", len(v.data))
	case KindDict:
		return fmt.Sprintf("<dict of %d>", v.dict.Len())
	case KindArray:
		return fmt.Sprintf("<array of %d>", len(v.arr))
	default:
		return "<invalid>"
	}
}

// Dict is an ordered string-keyed map of values.
type Dict struct {
	keys   []string
	values map[string]Value
}

func NewDict() *Dict {
	return &Dict{values: make(map[string]Value)}
}

// Set stores value under key, appending key to the order when it is new.
func (d *Dict) Set(key string, value Value) *Dict {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
	return d
}

func (d *Dict) Get(key string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	v, ok := d.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keys...)
}

func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Each calls fn for every entry in order.
func (d *Dict) Each(fn func(key string, value Value)) {
	if d == nil {
		return
	}
	for _, k := range d.keys {
		fn(k, d.values[k])
	}
}
