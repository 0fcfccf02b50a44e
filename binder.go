package zjoin

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

var scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

// Decode binds nodes produced by a Hydrator for T into typed models.
// Relation fields are filled from the joined relations of each node.
func Decode[T any](nodes []*EntityNode) ([]*T, error) {
	info := ParseModel[T]()
	out := make([]*T, 0, len(nodes))
	for _, n := range nodes {
		entity := new(T)
		b := newBinder(info)
		if err := b.bind(n, reflect.ValueOf(entity).Elem()); err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

type binder struct {
	info *ModelInfo
}

func newBinder(info *ModelInfo) *binder {
	return &binder{info: info}
}

// bind sets the columns and relations of node on the struct value v.
func (b *binder) bind(node *EntityNode, v reflect.Value) error {
	for col, raw := range node.Attributes {
		f, ok := b.info.Columns[col]
		if !ok {
			continue
		}
		if err := assignValue(v.FieldByIndex(f.Index), raw); err != nil {
			return fmt.Errorf("zjoin: bind %s.%s: %w", b.info.Name(), f.Name, err)
		}
	}

	for _, name := range node.order {
		rv := node.Relations[name]
		f, ok := b.info.RelationFields[rv.Field]
		if !ok {
			continue
		}
		if err := b.bindRelation(v.FieldByIndex(f.Index), rv); err != nil {
			return err
		}
	}
	return nil
}

func (b *binder) bindRelation(field reflect.Value, rv *RelationValue) error {
	if rv.Many {
		if field.Kind() != reflect.Slice {
			return fmt.Errorf("zjoin: relation field %s must be a slice, got %s", rv.Field, field.Type())
		}
		sliceType := field.Type()
		out := reflect.MakeSlice(sliceType, 0, len(rv.Items))
		for _, item := range rv.Items {
			elem, err := b.newRelated(sliceType.Elem(), item)
			if err != nil {
				return err
			}
			out = reflect.Append(out, elem)
		}
		field.Set(out)
		return nil
	}

	if rv.One == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	elem, err := b.newRelated(field.Type(), rv.One)
	if err != nil {
		return err
	}
	field.Set(elem)
	return nil
}

// newRelated builds a value of typ (a struct or pointer to struct) from node.
func (b *binder) newRelated(typ reflect.Type, node *EntityNode) (reflect.Value, error) {
	structType := typ
	for structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("zjoin: cannot bind relation into %s", typ)
	}

	ptr := reflect.New(structType)
	child := newBinder(ParseModelType(structType))
	if err := child.bind(node, ptr.Elem()); err != nil {
		return reflect.Value{}, err
	}
	if typ.Kind() == reflect.Ptr {
		return ptr, nil
	}
	return ptr.Elem(), nil
}

// assignValue stores a driver value into field, converting between the
// representations drivers commonly report.
func assignValue(field reflect.Value, raw any) error {
	if raw == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	if field.CanAddr() && field.Addr().Type().Implements(scannerType) {
		return field.Addr().Interface().(sql.Scanner).Scan(raw)
	}

	if field.Kind() == reflect.Ptr {
		elem := reflect.New(field.Type().Elem())
		if err := assignValue(elem.Elem(), raw); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	if bs, ok := raw.([]byte); ok {
		raw = string(bs)
	}
	src := reflect.ValueOf(raw)

	if s, ok := raw.(string); ok {
		return assignString(field, s)
	}

	switch {
	case field.Kind() == reflect.String && (isInteger(src.Kind()) || isUint(src.Kind())):
		field.SetString(fmt.Sprint(raw))
		return nil
	case field.Kind() == reflect.Bool && isInteger(src.Kind()):
		field.SetBool(src.Int() != 0)
		return nil
	case src.Type().ConvertibleTo(field.Type()):
		field.Set(src.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", raw, field.Type())
}

func assignString(field reflect.Value, s string) error {
	switch {
	case field.Kind() == reflect.String:
		field.SetString(s)
	case isInteger(field.Kind()):
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case isUint(field.Kind()):
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(n)
	case isFloat(field.Kind()):
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		field.SetFloat(n)
	case field.Kind() == reflect.Bool:
		n, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		field.SetBool(n)
	case field.Type() == reflect.TypeOf(time.Time{}):
		t, err := parseTime(s)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(t))
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Uint8:
		field.SetBytes([]byte(s))
	default:
		return fmt.Errorf("cannot assign string to %s", field.Type())
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as time", s)
}
