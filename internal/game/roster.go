package game

import (
	"strings"

	"github.com/samber/lo"
)

// Player is a participant record. A record is never reused after it leaves the
// roster; joining again creates a new one.
type Player struct {
	ID         int64
	Name       string
	Eliminated bool
	Team       *Team
}

// Identity returns the player's identity.
func (p *Player) Identity() Identity {
	return Identity{ID: p.ID, Name: p.Name}
}

// Team is a named group of players with accumulated points.
type Team struct {
	Name    string
	Players []*Player
	Points  int
}

// Roster owns the mapping from identity to participant record, in join order.
type Roster struct {
	players map[int64]*Player
	order   []int64
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{players: make(map[int64]*Player)}
}

// Create adds a record for user. It returns nil when user is already on the roster.
func (r *Roster) Create(user Identity) *Player {
	if _, ok := r.players[user.ID]; ok {
		return nil
	}
	p := &Player{ID: user.ID, Name: user.Name}
	r.players[user.ID] = p
	r.order = append(r.order, user.ID)
	return p
}

// Destroy removes and returns the record for id, or nil when absent.
func (r *Roster) Destroy(id int64) *Player {
	p, ok := r.players[id]
	if !ok {
		return nil
	}
	delete(r.players, id)
	r.order = lo.Without(r.order, id)
	return p
}

// Get returns the record for id.
func (r *Roster) Get(id int64) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// FindByName returns the first player whose name matches, ignoring case.
func (r *Roster) FindByName(name string) (*Player, bool) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "@")
	return lo.Find(r.Players(), func(p *Player) bool {
		return strings.EqualFold(p.Name, name)
	})
}

// Count returns the number of live records.
func (r *Roster) Count() int {
	return len(r.players)
}

// Players returns every record in join order.
func (r *Roster) Players() []*Player {
	return lo.Map(r.order, func(id int64, _ int) *Player { return r.players[id] })
}

// Remaining returns the players that have not been eliminated.
func (r *Roster) Remaining() []*Player {
	return lo.Filter(r.Players(), func(p *Player, _ int) bool { return !p.Eliminated })
}

// Eliminated returns the eliminated players.
func (r *Roster) Eliminated() []*Player {
	return lo.Filter(r.Players(), func(p *Player, _ int) bool { return p.Eliminated })
}

// Reset destroys every record.
func (r *Roster) Reset() {
	r.players = make(map[int64]*Player)
	r.order = nil
}

// Names joins player names with ", ".
func Names(players []*Player) string {
	return strings.Join(lo.Map(players, func(p *Player, _ int) string { return p.Name }), ", ")
}

// Scoreboard maps players to an integer, iterating in insertion order so that
// settlement and summaries stay reproducible.
type Scoreboard struct {
	values map[*Player]int
	order  []*Player
}

// NewScoreboard creates an empty scoreboard.
func NewScoreboard() *Scoreboard {
	return &Scoreboard{values: make(map[*Player]int)}
}

// Get returns the value for p.
func (s *Scoreboard) Get(p *Player) int {
	return s.values[p]
}

// Has reports whether p has an entry.
func (s *Scoreboard) Has(p *Player) bool {
	_, ok := s.values[p]
	return ok
}

// Set stores v for p.
func (s *Scoreboard) Set(p *Player, v int) {
	if _, ok := s.values[p]; !ok {
		s.order = append(s.order, p)
	}
	s.values[p] = v
}

// Add increments the value for p by delta and returns the new value.
func (s *Scoreboard) Add(p *Player, delta int) int {
	s.Set(p, s.values[p]+delta)
	return s.values[p]
}

// Delete removes p.
func (s *Scoreboard) Delete(p *Player) {
	if _, ok := s.values[p]; !ok {
		return
	}
	delete(s.values, p)
	s.order = lo.Without(s.order, p)
}

// Len returns the number of entries.
func (s *Scoreboard) Len() int {
	return len(s.values)
}

// Players returns the keys in insertion order.
func (s *Scoreboard) Players() []*Player {
	return append([]*Player(nil), s.order...)
}

// Each calls fn for every entry in insertion order.
func (s *Scoreboard) Each(fn func(p *Player, v int)) {
	for _, p := range s.Players() {
		fn(p, s.values[p])
	}
}

// Clear removes every entry.
func (s *Scoreboard) Clear() {
	s.values = make(map[*Player]int)
	s.order = nil
}
