// Package prompt holds the prompt templates sent to the summarizer and the
// forum agent, and the {{name}} substitution used to fill them.
package prompt

import (
	"errors"
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render substitutes every {{name}} in template from vars in one pass, so
// substituted values are never expanded again. All missing names are
// reported together.
func Render(template string, vars map[string]string) (string, error) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(template, func(match string) string {
		name := match[2 : len(match)-2]
		v, ok := vars[name]
		if !ok {
			missing = appendUnique(missing, name)
			return match
		}
		return v
	})
	if len(missing) > 0 {
		return "", errors.New("missing template variables: " + strings.Join(missing, ", "))
	}
	return out, nil
}

// ExtractVariables lists the placeholder names of template in first-use order.
func ExtractVariables(template string) []string {
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		names = appendUnique(names, m[1])
	}
	return names
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
