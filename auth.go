package zjoin

import "context"

// Authorizer decides whether relation may be joined from parent. It is asked
// once per newly planned segment; a nil Authorizer permits every join.
type Authorizer func(ctx context.Context, parent *ModelInfo, relation string) bool

// AllowAll permits every relation.
func AllowAll(context.Context, *ModelInfo, string) bool { return true }

// DenyRelations rejects the listed relations, keyed by parent table name.
func DenyRelations(denied map[string][]string) Authorizer {
	set := make(map[string]map[string]bool, len(denied))
	for table, relations := range denied {
		set[table] = make(map[string]bool, len(relations))
		for _, r := range relations {
			set[table][r] = true
		}
	}
	return func(_ context.Context, parent *ModelInfo, relation string) bool {
		return !set[parent.TableName][relation]
	}
}

func (a Authorizer) allows(ctx context.Context, parent *ModelInfo, relation string) bool {
	if a == nil {
		return true
	}
	return a(ctx, parent, relation)
}
