package tui

import "strings"

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

var commandAliases = map[string]string{
	"q":    "quit",
	"exit": "quit",
	"h":    "help",
	"c":    "chat",
	"open": "chat",
	"s":    "search",
	"/":    "search",
	"del":  "delete",
	"rm":   "delete",
	"r":    "reload",
}

// ParseCommand parses a command string (without the leading ':') and
// resolves aliases.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	name := strings.ToLower(parts[0])
	if canonical, ok := commandAliases[name]; ok {
		name = canonical
	}
	cmd := Command{Name: name}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// ParseSearch splits "@peer rest" into a peer reference and the query text.
// Without a leading @ the whole input is the query.
func ParseSearch(input string) (peer, query string) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "@") {
		return "", input
	}
	parts := strings.SplitN(input[1:], " ", 2)
	peer = parts[0]
	if len(parts) > 1 {
		query = strings.TrimSpace(parts[1])
	}
	return peer, query
}
