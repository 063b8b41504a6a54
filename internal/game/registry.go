package game

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Registry errors.
var (
	ErrUnknownFormat  = errors.New("unknown game format")
	ErrUnknownOption  = errors.New("unknown option")
	ErrInvalidOption  = errors.New("invalid option value")
	ErrUnknownVariant = errors.New("unknown variant")
)

// Registry manages format registration and lookup by id or alias.
type Registry struct {
	formats map[string]*Format
	aliases map[string]string
	mu      sync.RWMutex
}

// NewRegistry creates a new format registry.
func NewRegistry() *Registry {
	return &Registry{
		formats: make(map[string]*Format),
		aliases: make(map[string]string),
	}
}

// Register adds a format to the registry.
// A format with the same id replaces the earlier one.
func (r *Registry) Register(f *Format) error {
	if f == nil {
		return fmt.Errorf("cannot register nil format")
	}
	id := ToID(f.ID)
	if id == "" {
		return fmt.Errorf("format id cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats[id] = f
	for _, alias := range f.Aliases {
		r.aliases[ToID(alias)] = id
	}
	r.aliases[ToID(f.Name)] = id
	return nil
}

// Get retrieves a format by id, name or alias.
func (r *Registry) Get(name string) (*Format, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id := ToID(name)
	if f, ok := r.formats[id]; ok {
		return f, true
	}
	if target, ok := r.aliases[id]; ok {
		f, ok := r.formats[target]
		return f, ok
	}
	return nil, false
}

// List returns all registered formats sorted by name.
func (r *Registry) List() []*Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]*Format, 0, len(r.formats))
	for _, f := range r.formats {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i].Name < formats[j].Name })
	return formats
}

// Minigame returns the format whose minigame command is command.
func (r *Registry) Minigame(command string) (*Format, bool) {
	command = ToID(command)
	if command == "" {
		return nil, false
	}
	for _, f := range r.List() {
		if ToID(f.MinigameCommand) == command {
			return f, true
		}
	}
	return nil, false
}

// MinigameCommands returns every registered minigame command.
func (r *Registry) MinigameCommands() []string {
	var commands []string
	for _, f := range r.List() {
		if f.MinigameCommand != "" {
			commands = append(commands, f.MinigameCommand)
		}
	}
	return commands
}

// Count returns the number of registered formats.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.formats)
}

// Parse resolves input of the form "format[, variant][, option=value | value option]..."
// into a per-session copy of the format with its input options set, plus the
// selected variant.
func (r *Registry) Parse(input string) (*Format, *Variant, error) {
	parts := strings.Split(input, ",")
	base, ok := r.Get(parts[0])
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownFormat, strings.TrimSpace(parts[0]))
	}

	f := *base
	f.InputTarget = strings.TrimSpace(input)
	f.InputOptions = make(map[string]int)
	var variant *Variant

	accepted := make(map[string]bool)
	for _, name := range f.OptionNames() {
		accepted[name] = true
	}
	accepted[OptionFreeJoin] = true

	for _, raw := range parts[1:] {
		part := strings.TrimSpace(raw)
		if part == "" {
			continue
		}
		name, value, isOption := splitOption(part)
		if !isOption {
			v, ok := f.FindVariant(part)
			if !ok {
				return nil, nil, fmt.Errorf("%w: %s", ErrUnknownVariant, part)
			}
			variant = v
			continue
		}
		if !accepted[name] {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownOption, name)
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s=%s", ErrInvalidOption, name, value)
		}
		f.InputOptions[name] = n
	}
	return &f, variant, nil
}

func splitOption(part string) (name, value string, ok bool) {
	if k, v, found := strings.Cut(part, "="); found {
		return ToID(k), strings.TrimSpace(v), true
	}
	if k, v, found := strings.Cut(part, ":"); found {
		return ToID(k), strings.TrimSpace(v), true
	}
	fields := strings.Fields(part)
	if len(fields) == 2 {
		if _, err := strconv.Atoi(fields[0]); err == nil {
			return ToID(fields[1]), fields[0], true
		}
		if _, err := strconv.Atoi(fields[1]); err == nil {
			return ToID(fields[0]), fields[1], true
		}
	}
	if ToID(part) == OptionFreeJoin {
		return OptionFreeJoin, "1", true
	}
	return "", "", false
}
