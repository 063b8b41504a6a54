package game

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// Option names understood by every format.
const (
	OptionPoints   = "points"
	OptionTeams    = "teams"
	OptionCards    = "cards"
	OptionFreeJoin = "freejoin"
)

// OptionBounds bounds a customizable option. A base of 0 means "off".
type OptionBounds struct {
	Min  int
	Base int
	Max  int
}

var defaultOptionBounds = map[string]OptionBounds{
	OptionPoints:   {Min: 10, Base: 10, Max: 10},
	OptionTeams:    {Min: 2, Base: 2, Max: 4},
	OptionCards:    {Min: 4, Base: 5, Max: 6},
	OptionFreeJoin: {Min: 1, Base: 0, Max: 1},
}

// Credit conversion defaults.
const (
	DefaultWinnerPointsToCredits = 50
	DefaultLoserPointsToCredits  = 10
	DefaultMaxCredits            = 1000
	DefaultMinPlayers            = 2
)

// Variant overrides parts of a format for a single session.
type Variant struct {
	ID       string
	Name     string
	FreeJoin bool
	MaxRound int
}

// HintGenerator produces a random question and its accepted answers.
type HintGenerator func(rng *rand.Rand) (hint string, answers []string)

// Format describes a game and how to build its rules.
type Format struct {
	ID          string
	Name        string
	Description string
	Aliases     []string
	// InputTarget is the raw text the session was created from.
	InputTarget string

	FreeJoin    bool
	CanLateJoin bool
	MinPlayers  int
	MaxPlayers  int
	MaxRound    int

	Mascot  string
	Mascots []string

	UsesPoints     bool
	StartingPoints int

	WinnerPointsToCredits float64
	LoserPointsToCredits  float64
	MaxCredits            int64

	DefaultOptions      []string
	CustomizableOptions map[string]OptionBounds
	InputOptions        map[string]int
	Variants            []Variant

	CommandDescriptions []string
	// MinigameCommand starts a single-round minigame of the format, without
	// the leading slash. Empty when the format has no minigame.
	MinigameCommand     string
	MinigameDescription string

	NewRules     func(g *Game) Rules
	GenerateHint HintGenerator
}

// Config is a format resolved for one session: options clamped, variant applied
// and display name decorated. It does not change after Initialize.
type Config struct {
	Format          *Format
	Variant         *Variant
	Name            string
	Options         map[string]int
	CustomizedNames map[string]int
	FreeJoin        bool
	MaxRound        int
}

// Option returns the resolved value of an option, or 0.
func (c *Config) Option(name string) int {
	return c.Options[name]
}

// Resolve clamps the format's input options to their bounds and derives the
// decorated display name.
func Resolve(format *Format, variant *Variant) *Config {
	bounds := make(map[string]OptionBounds, len(format.CustomizableOptions)+len(format.DefaultOptions))
	for name, b := range format.CustomizableOptions {
		bounds[name] = b
	}
	freeJoin := format.FreeJoin || (variant != nil && variant.FreeJoin)
	if freeJoin {
		bounds[OptionFreeJoin] = OptionBounds{Min: 1, Base: 1, Max: 1}
	}
	for _, name := range format.DefaultOptions {
		if _, ok := bounds[name]; ok {
			continue
		}
		def, ok := defaultOptionBounds[name]
		if !ok {
			continue
		}
		b := OptionBounds{Min: def.Min, Base: def.Base, Max: def.Max}
		if b.Min == 0 {
			b.Min = 1
		}
		if b.Max == 0 {
			b.Max = 10
		}
		bounds[name] = b
	}

	options := make(map[string]int, len(bounds))
	for name, b := range bounds {
		options[name] = b.Base
	}

	customized := make(map[string]int)
	for name, value := range format.InputOptions {
		b, ok := bounds[name]
		if !ok || value == b.Base {
			continue
		}
		if value < b.Min {
			value = b.Min
		} else if value > b.Max {
			value = b.Max
		}
		options[name] = value
		customized[name] = value
	}

	var prefixes, suffixes []string
	if v, ok := customized[OptionPoints]; ok {
		suffixes = append(suffixes, fmt.Sprintf("(first to %d)", v))
	}
	for _, p := range []struct {
		option string
		label  string
	}{
		{OptionTeams, "%d"},
		{OptionCards, "%d-card"},
		{"gen", "Gen %d"},
		{"ports", "%d-port"},
		{"params", "%d-param"},
	} {
		if v, ok := customized[p.option]; ok {
			prefixes = append([]string{fmt.Sprintf(p.label, v)}, prefixes...)
		}
	}

	base := format.Name
	if variant != nil && variant.Name != "" {
		base = variant.Name
	}
	name := base
	if len(prefixes) > 0 {
		name = strings.Join(prefixes, " ") + " " + name
	}
	if len(suffixes) > 0 {
		name += " " + strings.Join(suffixes, " ")
	}

	maxRound := format.MaxRound
	if variant != nil && variant.MaxRound > 0 {
		maxRound = variant.MaxRound
	}

	return &Config{
		Format:          format,
		Variant:         variant,
		Name:            name,
		Options:         options,
		CustomizedNames: customized,
		FreeJoin:        options[OptionFreeJoin] > 0,
		MaxRound:        maxRound,
	}
}

// FindVariant returns the variant with the given id.
func (f *Format) FindVariant(id string) (*Variant, bool) {
	id = ToID(id)
	for i := range f.Variants {
		if ToID(f.Variants[i].ID) == id {
			return &f.Variants[i], true
		}
	}
	return nil, false
}

// OptionNames returns the sorted names of the options a format accepts.
func (f *Format) OptionNames() []string {
	names := make([]string, 0, len(f.CustomizableOptions)+len(f.DefaultOptions))
	seen := make(map[string]bool)
	for name := range f.CustomizableOptions {
		names = append(names, name)
		seen[name] = true
	}
	for _, name := range f.DefaultOptions {
		if !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	sort.Strings(names)
	return names
}

// ToID lowercases s and strips everything but letters and digits.
func ToID(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
