package domain

// TilesPot is the ordered collection of all sixteen tiles for a match,
// one per value 21..36. It is created once at game start and only ever
// toggles tile state; tiles are never created or destroyed afterwards.
type TilesPot struct {
	tiles []*Tile
}

// NewTilesPot builds the full pot with one tile per value.
func NewTilesPot() *TilesPot {
	tiles := make([]*Tile, 0, MaxTileValue-MinTileValue+1)
	for v := MinTileValue; v <= MaxTileValue; v++ {
		t, _ := NewTile(v)
		tiles = append(tiles, t)
	}
	return &TilesPot{tiles: tiles}
}

// Tiles returns every tile in the pot, claimed and flipped included.
func (p *TilesPot) Tiles() []*Tile { return p.tiles }

// FindByValue returns the tile with the given value, or nil.
func (p *TilesPot) FindByValue(value int) *Tile {
	for _, t := range p.tiles {
		if t.value == value {
			return t
		}
	}
	return nil
}

// AvailableTiles returns the tiles currently claimable from the pot.
func (p *TilesPot) AvailableTiles() []*Tile {
	var out []*Tile
	for _, t := range p.tiles {
		if t.Available() {
			out = append(out, t)
		}
	}
	return out
}

// AmountAvailable returns the number of claimable tiles.
func (p *TilesPot) AmountAvailable() int {
	n := 0
	for _, t := range p.tiles {
		if t.Available() {
			n++
		}
	}
	return n
}

// HighestAvailable returns the claimable tile with the highest value, or nil.
func (p *TilesPot) HighestAvailable() *Tile {
	var highest *Tile
	for _, t := range p.tiles {
		if t.Available() && (highest == nil || t.value > highest.value) {
			highest = t
		}
	}
	return highest
}

// LowestAvailable returns the claimable tile with the lowest value, or nil.
func (p *TilesPot) LowestAvailable() *Tile {
	var lowest *Tile
	for _, t := range p.tiles {
		if t.Available() && (lowest == nil || t.value < lowest.value) {
			lowest = t
		}
	}
	return lowest
}

// ClaimableAtOrBelow returns the available tile with the highest value
// at or below score, or nil. A turn may only claim the single best
// tile it can afford, never a lower one when a higher one qualifies.
func (p *TilesPot) ClaimableAtOrBelow(score int) *Tile {
	var best *Tile
	for _, t := range p.tiles {
		if t.Available() && t.value <= score && (best == nil || t.value > best.value) {
			best = t
		}
	}
	return best
}

// FlipHighestAvailable flips the current highest available tile out of
// play and returns it, or nil when the pot has no available tile. This
// is the bust punishment; it must pick the highest tile.
func (p *TilesPot) FlipHighestAvailable() *Tile {
	highest := p.HighestAvailable()
	if highest != nil {
		highest.Flip()
	}
	return highest
}
