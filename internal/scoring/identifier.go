package scoring

import (
	"fmt"
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^([a-z][a-z-]*)(?:\((.*)\))?$`)

// ParseIdentifier splits a model identifier of the form "name" or "name(arg[,arg...])".
// Arguments are opaque strings trimmed of surrounding whitespace.
func ParseIdentifier(id string) (string, []string, error) {
	match := identifierPattern.FindStringSubmatch(id)
	if match == nil {
		return "", nil, fmt.Errorf("malformed model identifier %q", id)
	}
	if !strings.HasSuffix(id, ")") {
		return match[1], nil, nil
	}
	return match[1], SplitArgs(match[2]), nil
}

// SplitArgs splits a comma-separated argument list, trimming each argument.
// An empty list yields no argument.
func SplitArgs(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
