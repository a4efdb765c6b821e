package meili

import (
	"fmt"
	"strings"
)

// escapeFilterValue escapes special characters in Meilisearch filter values.
func escapeFilterValue(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	return value
}

// existsFilter renders an attribute-existence filter expression.
func existsFilter(field string) string {
	return fmt.Sprintf("%s EXISTS", field)
}

// termsFilter renders a `field IN [..]` expression with escaped values.
// Empty input yields an empty filter.
func termsFilter(field string, values []string) string {
	if len(values) == 0 {
		return ""
	}

	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("\"%s\"", escapeFilterValue(v))
	}

	return fmt.Sprintf("%s IN [%s]", field, strings.Join(quoted, ", "))
}
