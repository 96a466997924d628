package transfer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Cytomine-ULiege/cytomine-go-client/errors"
)

var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// ResolvePattern expands every "{attr}" placeholder in pattern with the
// item's value for attr. A slice-valued attribute fans the pattern out into
// one destination per element, and multiple slice-valued placeholders
// produce their cartesian product. Referencing an attribute the item does
// not carry is a usage error.
func ResolvePattern(pattern string, attributes map[string]any) ([]string, error) {
	if pattern == "" {
		return nil, errors.NewError("resolve", fmt.Errorf("empty destination pattern"))
	}

	names := placeholderNames(pattern)
	resolved := []string{pattern}
	for _, name := range names {
		value, ok := attributes[name]
		if !ok || value == nil {
			return nil, errors.NewError("resolve",
				fmt.Errorf("%w: {%s}", errors.ErrUnresolvedPlaceholder, name))
		}
		expansions := valueStrings(value)
		next := make([]string, 0, len(resolved)*len(expansions))
		for _, r := range resolved {
			for _, v := range expansions {
				next = append(next, strings.ReplaceAll(r, "{"+name+"}", v))
			}
		}
		resolved = next
	}
	return resolved, nil
}

// placeholderNames returns the distinct placeholder names of a pattern in
// order of first appearance.
func placeholderNames(pattern string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, match := range placeholderPattern.FindAllStringSubmatch(pattern, -1) {
		name := match[1]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func valueStrings(value any) []string {
	if elems, ok := value.([]any); ok {
		out := make([]string, 0, len(elems))
		for _, e := range elems {
			out = append(out, valueString(e))
		}
		if len(out) == 0 {
			return []string{""}
		}
		return out
	}
	return []string{valueString(value)}
}

func valueString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		// JSON identifiers decode as float64; render them without a
		// fractional part.
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
