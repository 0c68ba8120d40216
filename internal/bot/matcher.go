package bot

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/wolfman30/botlink/internal/platform"
)

// Conditionals is a declarative gate evaluated against a (context, message)
// pair. Every key must pass for the map to match. Values may be scalars
// (exact equality), slices (any element matches) or *regexp.Regexp (pattern
// test). Keys resolve against the message first, then, when prefixed with
// "@", against the conversation with the prefix stripped, then against the
// conversation's meta map.
type Conditionals map[string]any

// matchConditionals reports whether every key in cond passes. An empty map
// always matches. The reduction short-circuits on the first failing key, and
// a key that resolves nowhere fails the whole map rather than being skipped;
// both behaviors are relied on by registration-order-sensitive handlers.
func matchConditionals(actions *Actions, msg *platform.Message, cond Conditionals) bool {
	if len(cond) == 0 {
		return true
	}
	keys := make([]string, 0, len(cond))
	for k := range cond {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		actual, ok := lookupValue(actions, msg, key)
		if !ok {
			return false
		}
		if !valueMatches(actual, cond[key]) {
			return false
		}
	}
	return true
}

// lookupValue resolves a conditional key: message fields first, then the
// "@"-prefixed conversation fields, then conversation meta. Conversation reads
// go through the locked Actions accessors since the snapshot is shared across
// concurrent dispatches.
func lookupValue(actions *Actions, msg *platform.Message, key string) (any, bool) {
	if v, ok := msg.Field(key); ok {
		return v, true
	}
	if strings.HasPrefix(key, "@") {
		if v, ok := actions.fieldValue(strings.TrimPrefix(key, "@")); ok {
			return v, true
		}
	}
	return actions.metaValue(key)
}

func valueMatches(actual, expected any) bool {
	switch exp := expected.(type) {
	case *regexp.Regexp:
		return exp.MatchString(fmt.Sprint(actual))
	case nil:
		return actual == nil
	}
	rv := reflect.ValueOf(expected)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			if scalarEqual(actual, rv.Index(i).Interface()) {
				return true
			}
		}
		return false
	}
	return scalarEqual(actual, expected)
}

// scalarEqual compares via string rendering so JSON-decoded numbers (always
// float64) still match integer expectations.
func scalarEqual(actual, expected any) bool {
	return fmt.Sprint(actual) == fmt.Sprint(expected)
}
