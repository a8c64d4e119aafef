package prompts

import (
	"fmt"
	"reflect"
	"strings"
	"text/template"
)

// NoDataSources is rendered in place of an absent or empty data source list.
const NoDataSources = "No data sources available"

var funcs = template.FuncMap{
	"joinList":  JoinList,
	"orDefault": orDefault,
}

// JoinList renders items as natural-language enumeration: "a", "a and b",
// "a, b and c". Blank items are skipped.
func JoinList(items []string) string {
	kept := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			kept = append(kept, it)
		}
	}
	switch len(kept) {
	case 0:
		return ""
	case 1:
		return kept[0]
	default:
		return strings.Join(kept[:len(kept)-1], ", ") + " and " + kept[len(kept)-1]
	}
}

func orDefault(def string, v any) string {
	if v == nil {
		return def
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		if rv.Len() == 0 {
			return def
		}
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return def
	}
	return s
}
