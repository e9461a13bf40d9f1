package result

import (
	"fmt"
	"strings"

	"github.com/Abraxas-365/craftable/logx"
)

// placeholder is the two-character token substituted by Format, one
// argument per occurrence, left to right.
const placeholder = "{}"

// Format substitutes positional placeholders in a message template.
// A mismatch between placeholders and arguments is a logging concern,
// never a request-failing one: surplus placeholders stay verbatim,
// surplus arguments are dropped, and a warning is logged either way.
func Format(template string, args ...any) string {
	if len(args) == 0 {
		return template
	}

	var b strings.Builder
	rest := template
	used := 0
	for used < len(args) {
		idx := strings.Index(rest, placeholder)
		if idx < 0 {
			break
		}
		b.WriteString(rest[:idx])
		b.WriteString(fmt.Sprint(args[used]))
		rest = rest[idx+len(placeholder):]
		used++
	}
	b.WriteString(rest)

	if used < len(args) {
		logx.Warn("message template %q has fewer placeholders than arguments (%d unused)", template, len(args)-used)
	} else if strings.Contains(rest, placeholder) {
		logx.Warn("message template %q has more placeholders than arguments", template)
	}

	return b.String()
}
