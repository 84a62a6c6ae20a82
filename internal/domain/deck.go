package domain

import "math/rand"

// Deck is the shuffled draw pile. Discarded holds tiles that had no valid
// placement when drawn; they are kept so snapshots round-trip.
type Deck struct {
	Remaining []string `json:"remaining"`
	Discarded []string `json:"discarded"`
}

// NewDeck builds the base-set draw pile shuffled with the given seed.
func NewDeck(seed int64) *Deck {
	var names []string
	for _, name := range CatalogNames() {
		for i := 0; i < baseSetCounts[name]; i++ {
			names = append(names, name)
		}
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})
	return &Deck{Remaining: names}
}

// NewDeckOf builds a draw pile with exactly the given tiles, in order.
func NewDeckOf(names ...string) *Deck {
	return &Deck{Remaining: append([]string(nil), names...)}
}

// Draw pops the next tile name.
func (d *Deck) Draw() (string, bool) {
	if len(d.Remaining) == 0 {
		return "", false
	}
	name := d.Remaining[0]
	d.Remaining = d.Remaining[1:]
	return name, true
}

// Discard records an unplaceable drawn tile.
func (d *Deck) Discard(name string) {
	d.Discarded = append(d.Discarded, name)
}

func (d *Deck) Empty() bool { return len(d.Remaining) == 0 }

func (d *Deck) Len() int { return len(d.Remaining) }
