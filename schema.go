package zjoin

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gertd/go-pluralize"
	"github.com/iancoleman/strcase"
)

// ModelInfo holds the reflection data for a model struct.
type ModelInfo struct {
	Type       reflect.Type
	TableName  string
	PrimaryKey string
	Connection string                // Data source name, "" for the default source
	Fields     map[string]*FieldInfo // StructFieldName -> FieldInfo
	Columns    map[string]*FieldInfo // DBColumnName -> FieldInfo
	ColumnList []string              // DB column names in declaration order

	// RelationMethods maps a relation method name to its index in the
	// method set of *Type.
	RelationMethods map[string]int
	// RelationFields maps a relation name to the struct field receiving it.
	RelationFields map[string]*FieldInfo
}

// FieldInfo holds data about a single field in the model.
type FieldInfo struct {
	Name      string // Struct field name
	Column    string // DB column name
	IsPrimary bool
	FieldType reflect.Type
	Index     []int // Index path, longer than one for embedded fields
}

// Name returns the model's Go type name, used in errors and logs.
func (mi *ModelInfo) Name() string {
	if mi == nil || mi.Type == nil {
		return "<nil>"
	}
	return mi.Type.Name()
}

// QualifiedColumn returns column prefixed with the model's table name.
func (mi *ModelInfo) QualifiedColumn(column string) string {
	return mi.TableName + "." + column
}

var (
	modelCache = make(map[reflect.Type]*ModelInfo)
	cacheMu    sync.RWMutex

	relationIface = reflect.TypeOf((*Relation)(nil)).Elem()
	pluralizer    = pluralize.NewClient()
)

// ParseModel inspects the struct T and returns its metadata.
func ParseModel[T any]() *ModelInfo {
	var t T
	return ParseModelType(reflect.TypeOf(t))
}

// ParseModelType inspects the type and returns its metadata.
func ParseModelType(typ reflect.Type) *ModelInfo {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		panic("zjoin: model type must be a struct, got " + typ.String())
	}

	cacheMu.RLock()
	if info, ok := modelCache[typ]; ok {
		cacheMu.RUnlock()
		return info
	}
	cacheMu.RUnlock()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	// Double check locking
	if info, ok := modelCache[typ]; ok {
		return info
	}

	info := &ModelInfo{
		Type:            typ,
		Fields:          make(map[string]*FieldInfo),
		Columns:         make(map[string]*FieldInfo),
		RelationMethods: make(map[string]int),
		RelationFields:  make(map[string]*FieldInfo),
		PrimaryKey:      "id",
	}

	// Methods may be declared on either receiver, so inspect *T.
	ptr := reflect.New(typ).Interface()
	if tn, ok := ptr.(interface{ TableName() string }); ok {
		info.TableName = tn.TableName()
	} else {
		info.TableName = pluralizer.Plural(ToSnakeCase(typ.Name()))
	}
	if pk, ok := ptr.(interface{ PrimaryKey() string }); ok {
		info.PrimaryKey = pk.PrimaryKey()
	}
	if cn, ok := ptr.(interface{ Connection() string }); ok {
		info.Connection = cn.Connection()
	}

	ptrType := reflect.PointerTo(typ)
	for i := 0; i < ptrType.NumMethod(); i++ {
		method := ptrType.Method(i)
		mt := method.Type
		// receiver + no args, one result implementing Relation
		if mt.NumIn() != 1 || mt.NumOut() != 1 || !mt.Out(0).Implements(relationIface) {
			continue
		}
		info.RelationMethods[method.Name] = i
	}

	parseFields(info, typ, nil)

	modelCache[typ] = info
	return info
}

func parseFields(info *ModelInfo, typ reflect.Type, parentIndex []int) {
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		// Skip unexported fields
		if field.PkgPath != "" && !field.Anonymous {
			continue
		}

		tag := field.Tag.Get("zorm")
		if tag == "-" {
			continue
		}

		index := append(append([]int(nil), parentIndex...), field.Index...)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			parseFields(info, field.Type, index)
			continue
		}

		if relName, ok := info.relationNameForField(field.Name); ok {
			info.RelationFields[relName] = &FieldInfo{
				Name:      field.Name,
				FieldType: field.Type,
				Index:     index,
			}
			continue
		}

		dbCol := ToSnakeCase(field.Name)
		isPrimary := false
		for _, part := range strings.Split(tag, ";") {
			kv := strings.SplitN(part, ":", 2)
			key := strings.TrimSpace(kv[0])
			switch key {
			case "column":
				if len(kv) > 1 {
					dbCol = strings.TrimSpace(kv[1])
				}
			case "primary":
				isPrimary = true
			}
		}

		if field.Name == "ID" {
			isPrimary = true
		}
		if isPrimary {
			info.PrimaryKey = dbCol
		}

		fInfo := &FieldInfo{
			Name:      field.Name,
			Column:    dbCol,
			IsPrimary: isPrimary,
			FieldType: field.Type,
			Index:     index,
		}

		info.Fields[field.Name] = fInfo
		info.Columns[dbCol] = fInfo
		info.ColumnList = append(info.ColumnList, dbCol)
	}
}

// relationNameForField reports whether a struct field holds a relation,
// i.e. there is a relation method named after it ("Posts" or "PostsRelation").
func (mi *ModelInfo) relationNameForField(fieldName string) (string, bool) {
	if _, ok := mi.RelationMethods[fieldName]; ok {
		return fieldName, true
	}
	if _, ok := mi.RelationMethods[fieldName+"Relation"]; ok {
		return fieldName, true
	}
	return "", false
}

// ToSnakeCase converts a string to snake_case.
func ToSnakeCase(s string) string {
	return strcase.ToSnake(s)
}

// singularKey builds the conventional foreign key name for a table or
// relation name, e.g. "users" -> "user_id".
func singularKey(name string) string {
	return pluralizer.Singular(ToSnakeCase(name)) + "_id"
}
