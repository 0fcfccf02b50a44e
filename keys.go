package zjoin

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/google/uuid"
)

// compareIDs compares two key values, handling type conversions (int vs int64,
// []byte vs string, etc.) as drivers report them. Two nils are equal.
func compareIDs(a, b any) bool {
	// Fast path: direct equality check (handles same type comparisons)
	if isComparable(a) && isComparable(b) && a == b {
		return true
	}

	// Handle nil cases early
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	aKey, aOK := keyString(a)
	bKey, bOK := keyString(b)
	return aOK && bOK && aKey == bKey
}

func isComparable(v any) bool {
	return v == nil || reflect.TypeOf(v).Comparable()
}

// keyString normalizes a key value so that rows reporting the same key with
// different Go types land in the same bucket. ok is false for nil.
func keyString(v any) (string, bool) {
	switch k := v.(type) {
	case nil:
		return "", false
	case string:
		if id, ok := binaryUUID([]byte(k)); ok {
			return id.String(), true
		}
		return k, true
	case []byte:
		if k == nil {
			return "", false
		}
		if id, ok := binaryUUID(k); ok {
			return id.String(), true
		}
		return string(k), true
	case uuid.UUID:
		return k.String(), true
	case fmt.Stringer:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return "", false
		}
		return k.String(), true
	}

	val := reflect.ValueOf(v)

	// Handle pointers
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return "", false
		}
		val = val.Elem()
	}
	if val.Type() != reflect.TypeOf(v) {
		return keyString(val.Interface())
	}

	switch {
	case isInteger(val.Kind()):
		return strconv.FormatInt(val.Int(), 10), true
	case isUint(val.Kind()):
		return strconv.FormatUint(val.Uint(), 10), true
	case isFloat(val.Kind()):
		f := val.Float()
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10), true
		}
		return strconv.FormatFloat(f, 'g', -1, 64), true
	case val.Kind() == reflect.Bool:
		return strconv.FormatBool(val.Bool()), true
	case val.Kind() == reflect.Array && val.Type().Elem().Kind() == reflect.Uint8:
		// binary keys such as [16]byte
		b := make([]byte, val.Len())
		reflect.Copy(reflect.ValueOf(b), val)
		if id, ok := binaryUUID(b); ok {
			return id.String(), true
		}
		return string(b), true
	}

	// Fallback to string formatting (slower, but handles edge cases)
	return fmt.Sprintf("%v", v), true
}

// binaryUUID reads a raw 16-byte key, as stored in BINARY(16) columns, as
// a UUID so that it matches the same key scanned into a uuid.UUID or
// returned in text form. Printable 16-character text keys are left alone.
func binaryUUID(b []byte) (uuid.UUID, bool) {
	if len(b) != 16 {
		return uuid.UUID{}, false
	}
	printable := true
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			printable = false
			break
		}
	}
	if printable {
		return uuid.UUID{}, false
	}
	id, err := uuid.FromBytes(b)
	return id, err == nil
}

func isInteger(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uint64
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
