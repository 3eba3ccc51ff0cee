package schema

import (
	"reflect"
	"strings"
)

// ParseTagSetting parses `orgsim:"logicalname,primarykey,readonly"` tags,
// the first element is the logical name, the rest are upper cased flags
func ParseTagSetting(str string) (name string, settings map[string]string) {
	settings = map[string]string{}
	if str == "" {
		return "", settings
	}

	parts := strings.Split(str, ",")
	name = strings.ToLower(strings.TrimSpace(parts[0]))
	for _, part := range parts[1:] {
		kv := strings.SplitN(part, ":", 2)
		k := strings.TrimSpace(strings.ToUpper(kv[0]))
		if k == "" {
			continue
		}
		if len(kv) == 2 {
			settings[k] = strings.TrimSpace(kv[1])
		} else {
			settings[k] = k
		}
	}
	return name, settings
}

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func implements(t reflect.Type, iface reflect.Type) bool {
	return t.Implements(iface) || reflect.PtrTo(t).Implements(iface)
}
