package cache

import (
	"fmt"
	"net/url"
	"strings"
)

// keySeparator joins namespace and parameters. url.QueryEscape escapes it
// inside parameters, so two different parameter lists can never collide.
const keySeparator = ":"

// Key builds a deterministic cache key from a namespace and ordered parameters,
// e.g. Key("library", 3, 100) == "library:3:100".
func Key(namespace string, parts ...any) string {
	var sb strings.Builder
	sb.WriteString(namespace)
	for _, p := range parts {
		sb.WriteString(keySeparator)
		sb.WriteString(url.QueryEscape(fmt.Sprint(p)))
	}
	return sb.String()
}

// Prefix returns the key prefix shared by every key in namespace, for use with Clear.
func Prefix(namespace string) string {
	return namespace + keySeparator
}
