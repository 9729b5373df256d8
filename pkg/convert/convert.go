package convert

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/olusolaa/heroku-tools/pkg/reflectutil"
)

var errNotScalar = fmt.Errorf("value is not a scalar")

// ToString normalizes a setting value to the string the remote store would
// hold. Values are formatted with %v, so a boolean true becomes "true" and
// never matches a remote "True". Nil becomes the empty string.
func ToString(v any) string {
	if reflectutil.IsNilValue(v) {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	val := reflectutil.DerefValue(reflect.ValueOf(v))
	return fmt.Sprintf("%v", val.Interface())
}

// ToStringMap converts a map of scalar values to map[string]string.
// Returns an error naming every key whose value is a nested structure.
// Returns nil map if input is nil.
func ToStringMap(data map[string]any) (map[string]string, error) {
	if data == nil {
		return nil, nil
	}
	result := make(map[string]string, len(data))
	var bad []string
	for k, v := range data {
		if !reflectutil.IsNilValue(v) && !reflectutil.IsScalar(reflect.ValueOf(v)) {
			bad = append(bad, fmt.Sprintf("%s (type %T)", k, v))
			continue
		}
		result[k] = ToString(v)
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return nil, fmt.Errorf("%w: %v", errNotScalar, bad)
	}
	return result, nil
}
