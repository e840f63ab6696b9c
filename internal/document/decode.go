package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"howett.net/plist"
)

// ErrUnsupportedType is returned when the decoded tree contains a node
// that has no Value counterpart.
var ErrUnsupportedType = errors.New("unsupported property list type")

// Decode reads an XML, binary or OpenStep property list from r.
func Decode(r io.ReadSeeker) (Value, error) {
	var native any
	if err := plist.NewDecoder(r).Decode(&native); err != nil {
		return Value{}, fmt.Errorf("decode property list: %w", err)
	}
	return FromNative(native)
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte) (Value, error) {
	return Decode(bytes.NewReader(data))
}

// DecodeFile opens and decodes the property list at path.
func DecodeFile(path string) (Value, error) {
	file, err := os.Open(path)
	if err != nil {
		return Value{}, fmt.Errorf("open library file: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// FromNative converts the generic tree produced by the plist decoder.
// Dictionary keys are sorted so repeated decodes yield the same order.
func FromNative(native any) (Value, error) {
	switch n := native.(type) {
	case string:
		return String(n), nil
	case bool:
		return Boolean(n), nil
	case int64:
		return Integer(n), nil
	case int:
		return Integer(int64(n)), nil
	case int32:
		return Integer(int64(n)), nil
	case uint64:
		if n > math.MaxInt64 {
			return Value{}, fmt.Errorf("integer %d overflows int64", n)
		}
		return Integer(int64(n)), nil
	case uint32:
		return Integer(int64(n)), nil
	case float64:
		return Real(n), nil
	case float32:
		return Real(float64(n)), nil
	case time.Time:
		return Date(n), nil
	case []byte:
		return Data(n), nil
	case map[string]any:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		dict := NewDict()
		for _, k := range keys {
			v, err := FromNative(n[k])
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			dict.Set(k, v)
		}
		return DictValue(dict), nil
	case []any:
		values := make([]Value, 0, len(n))
		for i, item := range n {
			v, err := FromNative(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			values = append(values, v)
		}
		return Array(values...), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, native)
	}
}
