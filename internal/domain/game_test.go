package domain

import (
	"errors"
	"testing"
)

func newTestGame(t *testing.T, playerIDs ...string) *Game {
	t.Helper()
	g, err := NewGame("g1", "table", MaxPlayers)
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	for _, id := range playerIDs {
		p, err := NewPlayer(id, "player "+id)
		if err != nil {
			t.Fatalf("NewPlayer(%s) failed: %v", id, err)
		}
		if err := g.AddPlayer(p); err != nil {
			t.Fatalf("AddPlayer(%s) failed: %v", id, err)
		}
	}
	return g
}

// startNormalPlay starts the game and resolves every bonus so play is
// in round 1 with a fixed turn order.
func startNormalPlay(t *testing.T, g *Game, bonuses map[string]int) {
	t.Helper()
	if err := g.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	for _, p := range g.Players() {
		b := Bonus{State: BonusBust}
		if v, ok := bonuses[p.ID()]; ok {
			b = Bonus{State: BonusSet, Value: v}
		}
		if _, err := g.ResolveBonus(p.ID(), b); err != nil {
			t.Fatalf("ResolveBonus(%s) failed: %v", p.ID(), err)
		}
	}
	if g.Round() != 1 {
		t.Fatalf("round = %d after seeding, want 1", g.Round())
	}
}

func TestStartScenario(t *testing.T) {
	g := newTestGame(t, "a", "b")
	if err := g.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if g.State() != Playing {
		t.Errorf("state = %s, want playing", g.State())
	}
	if g.Pot() == nil || g.Pot().AmountAvailable() != 16 {
		t.Error("pot should hold 16 available tiles after start")
	}
	if g.Round() != 0 {
		t.Errorf("round = %d, want 0", g.Round())
	}
}

func TestStartRequirements(t *testing.T) {
	g := newTestGame(t, "a")
	if err := g.Start(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("start with one player: err = %v, want ErrInvalidState", err)
	}

	g = newTestGame(t, "a", "b")
	if err := g.Start(); err != nil {
		t.Fatal(err)
	}
	if err := g.Start(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("double start: err = %v, want ErrInvalidState", err)
	}
}

func TestAddPlayerRejections(t *testing.T) {
	g, err := NewGame("g1", "table", 2)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := NewPlayer("a", "Alice")
	b, _ := NewPlayer("b", "Bob")
	c, _ := NewPlayer("c", "Cara")

	if err := g.AddPlayer(a); err != nil {
		t.Fatal(err)
	}
	if err := g.AddPlayer(a); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("duplicate join: err = %v, want ErrIllegalMove", err)
	}
	if err := g.AddPlayer(b); err != nil {
		t.Fatal(err)
	}
	if err := g.AddPlayer(c); !errors.Is(err, ErrMatchNotJoinable) {
		t.Errorf("join full: err = %v, want ErrMatchNotJoinable", err)
	}

	if err := g.Start(); err != nil {
		t.Fatal(err)
	}
	if err := g.AddPlayer(c); !errors.Is(err, ErrMatchNotJoinable) {
		t.Errorf("join started: err = %v, want ErrMatchNotJoinable", err)
	}
}

func TestBonusOrderFixesTurnOrder(t *testing.T) {
	g := newTestGame(t, "a", "b", "c", "d")
	if err := g.Start(); err != nil {
		t.Fatal(err)
	}

	resolve := func(id string, b Bonus) bool {
		t.Helper()
		fixed, err := g.ResolveBonus(id, b)
		if err != nil {
			t.Fatalf("ResolveBonus(%s): %v", id, err)
		}
		return fixed
	}

	if resolve("a", Bonus{State: BonusSet, Value: 23}) {
		t.Fatal("order fixed too early")
	}
	resolve("d", Bonus{State: BonusSet, Value: 30})
	resolve("b", Bonus{State: BonusBust})
	if !resolve("c", Bonus{State: BonusSet, Value: 23}) {
		t.Fatal("order not fixed after last bonus")
	}

	// d (30) first, then the 23 tie broken by id ascending (a before
	// c), then the bust last.
	want := []string{"d", "a", "c", "b"}
	for i, p := range g.Players() {
		if p.ID() != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, p.ID(), want[i])
		}
	}
	if g.CurrentPlayer().ID() != "d" {
		t.Errorf("current player = %s, want d", g.CurrentPlayer().ID())
	}
}

func TestResolveBonusRejections(t *testing.T) {
	g := newTestGame(t, "a", "b")
	if _, err := g.ResolveBonus("a", Bonus{State: BonusBust}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("resolve before start: err = %v, want ErrInvalidState", err)
	}

	if err := g.Start(); err != nil {
		t.Fatal(err)
	}
	if _, err := g.ResolveBonus("zz", Bonus{State: BonusBust}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown player: err = %v, want ErrNotFound", err)
	}
	if _, err := g.ResolveBonus("a", Bonus{State: BonusPending}); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("pending resolution: err = %v, want ErrIllegalMove", err)
	}
	if _, err := g.ResolveBonus("a", Bonus{State: BonusBust}); err != nil {
		t.Fatal(err)
	}
	if _, err := g.ResolveBonus("a", Bonus{State: BonusBust}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("double resolution: err = %v, want ErrInvalidState", err)
	}
}

func TestAdvanceTurnIsCyclic(t *testing.T) {
	g := newTestGame(t, "a", "b", "c")
	startNormalPlay(t, g, map[string]int{"a": 25, "b": 24, "c": 23})

	startIndex := g.TurnIndex()
	startRound := g.Round()
	for i := 0; i < len(g.Players()); i++ {
		g.AdvanceTurn()
	}
	if g.TurnIndex() != startIndex {
		t.Errorf("turn index = %d after full cycle, want %d", g.TurnIndex(), startIndex)
	}
	if g.Round() != startRound+1 {
		t.Errorf("round = %d after full cycle, want %d", g.Round(), startRound+1)
	}
}

func TestClaimFromPot(t *testing.T) {
	g := newTestGame(t, "a", "b")
	startNormalPlay(t, g, map[string]int{"a": 25, "b": 24})
	a, _ := g.Player("a")

	tile, err := g.ClaimFromPot(a, 30)
	if err != nil {
		t.Fatalf("ClaimFromPot failed: %v", err)
	}
	if tile.Value() != 30 {
		t.Errorf("claimed %d, want 30", tile.Value())
	}
	if tile.OwnerID() != "a" || a.TopTile() != tile {
		t.Error("claimed tile not owned by claimant")
	}
	if g.Pot().AmountAvailable() != 15 {
		t.Errorf("available = %d, want 15", g.Pot().AmountAvailable())
	}

	if _, err := g.ClaimFromPot(a, 20); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("unaffordable claim: err = %v, want ErrIllegalMove", err)
	}
}

func TestStealTopTile(t *testing.T) {
	g := newTestGame(t, "a", "b")
	startNormalPlay(t, g, map[string]int{"a": 25, "b": 24})
	a, _ := g.Player("a")
	b, _ := g.Player("b")

	if _, err := g.ClaimFromPot(b, 28); err != nil {
		t.Fatal(err)
	}

	if _, err := g.StealTopTile(a, "b", 27); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("mismatched steal: err = %v, want ErrIllegalMove", err)
	}
	if _, err := g.StealTopTile(a, "zz", 28); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown victim: err = %v, want ErrNotFound", err)
	}
	if _, err := g.StealTopTile(a, "a", 28); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("self steal: err = %v, want ErrIllegalMove", err)
	}

	tile, err := g.StealTopTile(a, "b", 28)
	if err != nil {
		t.Fatalf("StealTopTile failed: %v", err)
	}
	if tile.Value() != 28 || tile.OwnerID() != "a" {
		t.Errorf("stolen tile value=%d owner=%s, want 28/a", tile.Value(), tile.OwnerID())
	}
	if b.TopTile() != nil {
		t.Error("victim still owns a tile after steal")
	}
	if _, err := g.StealTopTile(a, "b", 28); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("steal from empty stack: err = %v, want ErrIllegalMove", err)
	}
}

func TestResolveBust(t *testing.T) {
	g := newTestGame(t, "a", "b")
	startNormalPlay(t, g, map[string]int{"a": 25, "b": 24})
	a, _ := g.Player("a")

	if _, err := g.ClaimFromPot(a, 25); err != nil {
		t.Fatal(err)
	}

	forfeited, flipped := g.ResolveBust(a)
	if forfeited == nil || forfeited.Value() != 25 {
		t.Fatalf("forfeited = %v, want tile 25", forfeited)
	}
	if !forfeited.Available() {
		t.Error("forfeited tile should be back in the pot")
	}
	if flipped == nil || flipped.Value() != 36 {
		t.Fatalf("flipped = %v, want tile 36", flipped)
	}
	if a.TopTile() != nil {
		t.Error("player still owns a tile after bust")
	}
	// 16 - 1 flipped = 15 (the forfeited tile returned).
	if g.Pot().AmountAvailable() != 15 {
		t.Errorf("available = %d, want 15", g.Pot().AmountAvailable())
	}

	// Bust with no owned tile only flips.
	forfeited, flipped = g.ResolveBust(a)
	if forfeited != nil {
		t.Errorf("forfeited = %v, want nil", forfeited)
	}
	if flipped == nil || flipped.Value() != 35 {
		t.Fatalf("flipped = %v, want tile 35", flipped)
	}
}

func TestRemovePlayerUnwindsTilesAndTurn(t *testing.T) {
	g := newTestGame(t, "a", "b", "c")
	startNormalPlay(t, g, map[string]int{"a": 25, "b": 24, "c": 23})
	b, _ := g.Player("b")

	if _, err := g.ClaimFromPot(b, 30); err != nil {
		t.Fatal(err)
	}
	if _, err := g.ClaimFromPot(b, 25); err != nil {
		t.Fatal(err)
	}

	g.AdvanceTurn() // turn to b (index 1)
	ended, err := g.RemovePlayer("b")
	if err != nil {
		t.Fatalf("RemovePlayer failed: %v", err)
	}
	if ended {
		t.Fatal("match should continue with 2 players")
	}
	if g.Pot().AmountAvailable() != 16 {
		t.Errorf("available = %d, want 16 (tiles unwound)", g.Pot().AmountAvailable())
	}
	// The turn passes to whoever now occupies index 1.
	if g.CurrentPlayer().ID() != "c" {
		t.Errorf("current player = %s, want c", g.CurrentPlayer().ID())
	}
}

func TestRemoveLastSlotPlayerWrapsIndex(t *testing.T) {
	g := newTestGame(t, "a", "b", "c")
	startNormalPlay(t, g, map[string]int{"a": 25, "b": 24, "c": 23})

	g.AdvanceTurn()
	g.AdvanceTurn() // turn to c (last index)
	if _, err := g.RemovePlayer("c"); err != nil {
		t.Fatal(err)
	}
	if g.TurnIndex() != 0 || g.CurrentPlayer().ID() != "a" {
		t.Errorf("turn index=%d current=%s, want 0/a", g.TurnIndex(), g.CurrentPlayer().ID())
	}
}

func TestRemovePlayerBelowMinimumEndsMatch(t *testing.T) {
	g := newTestGame(t, "a", "b")
	startNormalPlay(t, g, map[string]int{"a": 25, "b": 24})

	ended, err := g.RemovePlayer("b")
	if err != nil {
		t.Fatal(err)
	}
	if !ended || g.State() != Ended {
		t.Errorf("ended=%v state=%s, want ended match", ended, g.State())
	}
	if _, err := g.Leaderboard(); err != nil {
		t.Errorf("leaderboard after forced end: %v", err)
	}
}

func TestRemoveLastPendingPlayerClosesRoundZero(t *testing.T) {
	g := newTestGame(t, "a", "b", "c", "d")
	if err := g.Start(); err != nil {
		t.Fatal(err)
	}
	if _, err := g.ResolveBonus("a", Bonus{State: BonusSet, Value: 25}); err != nil {
		t.Fatal(err)
	}
	if _, err := g.ResolveBonus("b", Bonus{State: BonusSet, Value: 30}); err != nil {
		t.Fatal(err)
	}

	// c and d are both still pending, so removing d keeps seeding open.
	if _, err := g.RemovePlayer("d"); err != nil {
		t.Fatal(err)
	}
	if g.Round() != 0 {
		t.Fatalf("round = %d with a bonus still pending, want 0", g.Round())
	}

	// Removing the last pending player must fix the order itself.
	if _, err := g.RemovePlayer("c"); err != nil {
		t.Fatal(err)
	}
	if g.Round() != 1 {
		t.Fatalf("round = %d after last pending player removed, want 1", g.Round())
	}
	if cur := g.CurrentPlayer(); cur == nil || cur.ID() != "b" {
		t.Fatalf("current = %v, want b (highest bonus)", cur)
	}
}

func TestLeaderboardDenseRanksAndDoubleBonus(t *testing.T) {
	g := newTestGame(t, "a", "b", "c", "d")
	startNormalPlay(t, g, map[string]int{"a": 25, "b": 24, "c": 23, "d": 22})
	a, _ := g.Player("a")
	b, _ := g.Player("b")
	c, _ := g.Player("c")

	// a: tile 25 (2 pts, doubled by bonus 25) = 4 points.
	if _, err := g.ClaimFromPot(a, 25); err != nil {
		t.Fatal(err)
	}
	// b: tiles 21 + 29 = 1 + 3 = 4 points.
	if _, err := g.ClaimFromPot(b, 21); err != nil {
		t.Fatal(err)
	}
	if _, err := g.ClaimFromPot(b, 29); err != nil {
		t.Fatal(err)
	}
	// c: tile 22 = 1 point. d: nothing.
	if _, err := g.ClaimFromPot(c, 22); err != nil {
		t.Fatal(err)
	}

	lb := g.End()
	if len(lb) != 4 {
		t.Fatalf("leaderboard size = %d, want 4", len(lb))
	}

	want := []struct {
		id     string
		points int
		rank   int
	}{
		{id: "a", points: 4, rank: 1},
		{id: "b", points: 4, rank: 1},
		{id: "c", points: 1, rank: 2},
		{id: "d", points: 0, rank: 3},
	}
	for i, w := range want {
		got := lb[i]
		if got.PlayerID != w.id || got.Points != w.points || got.Rank != w.rank {
			t.Errorf("lb[%d] = %s/%d/rank %d, want %s/%d/rank %d",
				i, got.PlayerID, got.Points, got.Rank, w.id, w.points, w.rank)
		}
	}
}
