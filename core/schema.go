package core

// DeclaredSchema returns the columns a query promises to return: the key
// names followed by the field names of its last grouping stage. The grouping
// stage is query.aggregate.group when aggregate is an object, or the last
// element of aggregate holding a group when it is a list. Any other shape
// declares nothing.
func DeclaredSchema(query map[string]any) Header {
	group := lastGroup(query["aggregate"])
	if group == nil {
		return Header{}
	}

	header := Header{}
	seen := make(map[string]bool)
	for _, section := range []string{"keys", "fields"} {
		items, ok := group[section].([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			name, ok := m["name"].(string)
			if !ok || name == "" || seen[name] {
				continue
			}
			seen[name] = true
			header = append(header, name)
		}
	}

	return header
}

func lastGroup(aggregate any) map[string]any {
	switch agg := aggregate.(type) {
	case map[string]any:
		group, _ := agg["group"].(map[string]any)
		return group
	case []any:
		for i := len(agg) - 1; i >= 0; i-- {
			stage, ok := agg[i].(map[string]any)
			if !ok {
				continue
			}
			if group, ok := stage["group"].(map[string]any); ok {
				return group
			}
		}
	}
	return nil
}
