package game

import (
	"sort"

	"github.com/samber/lo"
)

// CommandContext is passed to a command handler.
type CommandContext struct {
	Target  string
	IsPM    bool
	Caller  Identity
	Command string
}

// Command is a session command. Handler returns false when the invocation was
// rejected and must not count towards command listeners.
type Command struct {
	Name      string
	Aliases   []string
	Handler   func(ctx CommandContext) bool
	PMAllowed bool
	PMOnly    bool
}

// CommandTable maps every command name and alias to its definition.
type CommandTable struct {
	byAlias map[string]*Command
}

// NewCommandTable indexes commands by name and alias.
func NewCommandTable(commands []Command) *CommandTable {
	t := &CommandTable{byAlias: make(map[string]*Command)}
	for i := range commands {
		t.Add(commands[i])
	}
	return t
}

// Add registers cmd under its name and aliases, replacing earlier definitions.
func (t *CommandTable) Add(cmd Command) {
	c := &cmd
	t.byAlias[ToID(c.Name)] = c
	for _, alias := range c.Aliases {
		t.byAlias[ToID(alias)] = c
	}
}

// Lookup returns the definition registered under name.
func (t *CommandTable) Lookup(name string) (*Command, bool) {
	c, ok := t.byAlias[ToID(name)]
	return c, ok
}

// Len returns the number of registered names and aliases.
func (t *CommandTable) Len() int {
	return len(t.byAlias)
}

// Normalize expands names to every alias of every registered command they refer
// to, sorted and deduplicated. Unknown names are dropped.
func (t *CommandTable) Normalize(names []string) []string {
	var out []string
	for _, name := range names {
		def, ok := t.Lookup(name)
		if !ok {
			continue
		}
		for alias, c := range t.byAlias {
			if c == def {
				out = append(out, alias)
			}
		}
	}
	out = lo.Uniq(out)
	sort.Strings(out)
	return out
}
