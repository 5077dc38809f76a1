// Package command tokenizes chat message bodies into command invocations.
package command

import "regexp"

// tokenPattern matches either a double-quoted span (non-greedy, possibly
// empty) or a maximal run of non-whitespace characters, left to right.
var tokenPattern = regexp.MustCompile(`"(.*?)"|(\S+)`)

// Invocation is a parsed command: its name and positional arguments.
// Arguments are plain strings; no further coercion is applied.
type Invocation struct {
	Name string
	Args []string
}

// Split tokenizes s. A double-quoted span is one token equal to its
// interior content, so quotes can carry spaces or an empty token; any
// other run of non-whitespace characters is one token.
func Split(s string) []string {
	matches := tokenPattern.FindAllStringSubmatch(s, -1)
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		if m[2] != "" {
			tokens = append(tokens, m[2])
		} else {
			tokens = append(tokens, m[1])
		}
	}
	return tokens
}

// Parse splits s into an Invocation. The first token is the command name;
// the rest are its arguments. It reports false when s holds no tokens.
func Parse(s string) (Invocation, bool) {
	tokens := Split(s)
	if len(tokens) == 0 {
		return Invocation{}, false
	}
	return Invocation{Name: tokens[0], Args: tokens[1:]}, true
}
