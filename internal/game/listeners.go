package game

import (
	"strings"

	"github.com/samber/lo"
)

// CommandListener is invoked with the caller whose invocation completed the count.
type CommandListener func(lastCaller Identity)

// CommandCountOptions configures a command listener. With TrackRoster set the
// maximum follows the roster: it grows on late joins and shrinks on leaves.
type CommandCountOptions struct {
	Max         int
	TrackRoster bool
}

// CommandCounter counts distinct invocations of a set of command aliases.
type CommandCounter struct {
	Commands    []string
	Count       int
	Max         int
	TrackRoster bool
	LastCaller  Identity

	listener CommandListener
	active   bool
}

// Active reports whether the counter is still registered.
func (c *CommandCounter) Active() bool {
	return c.active
}

func (c *CommandCounter) key() string {
	return strings.Join(c.Commands, ",")
}

// Listeners holds at most one counter per normalized alias set.
type Listeners struct {
	table *CommandTable
	items []*CommandCounter
}

// NewListeners creates an empty listener set resolving aliases through table.
func NewListeners(table *CommandTable) *Listeners {
	return &Listeners{table: table}
}

// On installs a fresh counter for names, replacing any counter registered on
// the same normalized alias set.
func (l *Listeners) On(names []string, opts CommandCountOptions, fn CommandListener) *CommandCounter {
	commands := l.table.Normalize(names)
	l.Off(commands)
	c := &CommandCounter{
		Commands:    commands,
		Max:         opts.Max,
		TrackRoster: opts.TrackRoster,
		listener:    fn,
		active:      true,
	}
	l.items = append(l.items, c)
	return c
}

// Off removes the counter registered on the normalized form of names.
func (l *Listeners) Off(names []string) bool {
	c := l.Find(names)
	if c == nil {
		return false
	}
	l.remove(c)
	return true
}

// Find returns the counter registered on the normalized form of names.
func (l *Listeners) Find(names []string) *CommandCounter {
	key := strings.Join(l.table.Normalize(names), ",")
	c, _ := lo.Find(l.items, func(c *CommandCounter) bool { return c.key() == key })
	return c
}

// Len returns the number of registered counters.
func (l *Listeners) Len() int {
	return len(l.items)
}

// Record counts an invocation of command by caller against every matching
// counter and fires those that reach their maximum. It returns how many fired.
func (l *Listeners) Record(command string, caller Identity) int {
	command = ToID(command)
	fired := 0
	for _, c := range append([]*CommandCounter(nil), l.items...) {
		if !c.active || !lo.Contains(c.Commands, command) {
			continue
		}
		c.Count++
		c.LastCaller = caller
		if c.Count >= c.Max {
			l.fire(c)
			fired++
		}
	}
	return fired
}

// IncreaseMax raises the maximum of c.
func (l *Listeners) IncreaseMax(c *CommandCounter, delta int) {
	if c == nil || !c.active {
		return
	}
	c.Max += delta
}

// DecreaseMax lowers the maximum of c. A counter whose count reaches the new
// maximum fires immediately; DecreaseMax reports whether it did.
func (l *Listeners) DecreaseMax(c *CommandCounter, delta int) bool {
	if c == nil || !c.active {
		return false
	}
	c.Max -= delta
	if c.Count >= c.Max {
		l.fire(c)
		return true
	}
	return false
}

// AdjustRosterTracking applies delta to every roster-tracking counter.
func (l *Listeners) AdjustRosterTracking(delta int) {
	for _, c := range append([]*CommandCounter(nil), l.items...) {
		if !c.TrackRoster {
			continue
		}
		if delta >= 0 {
			l.IncreaseMax(c, delta)
		} else {
			l.DecreaseMax(c, -delta)
		}
	}
}

// Clear removes every counter without firing.
func (l *Listeners) Clear() {
	for _, c := range l.items {
		c.active = false
	}
	l.items = nil
}

func (l *Listeners) fire(c *CommandCounter) {
	l.remove(c)
	if c.listener != nil {
		c.listener(c.LastCaller)
	}
}

func (l *Listeners) remove(c *CommandCounter) {
	c.active = false
	l.items = lo.Without(l.items, c)
}
