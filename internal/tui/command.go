package tui

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/matheus3301/chatterm/internal/tui/ui"
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':'). Aliases
// are resolved to the canonical name.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if canonical, ok := aliases[cmd.Name]; ok {
		cmd.Name = canonical
	}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// Arity of a command's argument.
type argKind int

const (
	argNone argKind = iota
	argOptional
	argRequired
)

type commandDef struct {
	args  argKind
	usage string
	help  string
}

var commands = map[string]commandDef{
	"quit":     {argNone, "quit", "Quit"},
	"help":     {argNone, "help", "Show key and command reference"},
	"retry":    {argNone, "retry", "Reload the open conversation"},
	"reload":   {argNone, "reload", "Reload contacts and groups"},
	"search":   {argOptional, "search [query]", "Find users to add as contacts"},
	"contact":  {argRequired, "contact <name>", "Open a contact by name"},
	"group":    {argRequired, "group <name>", "Open a group by name"},
	"newgroup": {argOptional, "newgroup [name]", "Create a group"},
	"info":     {argNone, "info", "Show the open group's members"},
	"leave":    {argNone, "leave", "Leave the open group (creators delete it)"},
	"kick":     {argRequired, "kick <user id>", "Remove a member from the open group"},
	"attach":   {argRequired, "attach <path>", "Attach a file to the next message"},
	"detach":   {argNone, "detach", "Drop the pending attachment"},
	"edit":     {argOptional, "edit [text]", "Edit the selected message"},
	"delete":   {argNone, "delete", "Delete the selected message"},
	"download": {argNone, "download", "Save the selected attachment"},
	"view":     {argNone, "view", "Show the selected image link as a QR code"},
}

var aliases = map[string]string{
	"q":   "quit",
	"h":   "help",
	"r":   "retry",
	"c":   "contact",
	"g":   "group",
	"new": "newgroup",
	"a":   "attach",
	"e":   "edit",
	"del": "delete",
	"rm":  "delete",
	"dl":  "download",
}

// ErrUnknownCommand is returned by Validate for names not in the table.
var ErrUnknownCommand = errors.New("unknown command")

// Validate checks the command name and its argument.
func (c Command) Validate() error {
	def, ok := commands[c.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, c.Name)
	}
	switch {
	case def.args == argNone && c.Args != "":
		return fmt.Errorf("usage: :%s", def.usage)
	case def.args == argRequired && c.Args == "":
		return fmt.Errorf("usage: :%s", def.usage)
	}
	if c.Name == "kick" {
		if _, err := c.ID(); err != nil {
			return fmt.Errorf("usage: :%s", def.usage)
		}
	}
	return nil
}

// ID parses the argument as a positive id.
func (c Command) ID() (int64, error) {
	id, err := strconv.ParseInt(c.Args, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", c.Args)
	}
	return id, nil
}

// commandHints lists every command for the help page, sorted by name.
func commandHints() []ui.MenuHint {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	hints := make([]ui.MenuHint, 0, len(names))
	for _, name := range names {
		def := commands[name]
		hints = append(hints, ui.MenuHint{Key: ":" + def.usage, Description: def.help})
	}
	return hints
}
