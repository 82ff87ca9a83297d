package app

import (
	"fmt"
	"math/rand"
	"time"

	"regenwormen/internal/domain"
)

// Service contains the match use-cases operating on domain state. It is
// stateless apart from the dice rng; the caller owns the *domain.Game
// and serializes access to it per match.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with the provided rng or a
// time-seeded default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

// AddPlayer joins a new player to a joinable match.
func (s *Service) AddPlayer(g *domain.Game, id, name string) (*domain.Player, error) {
	p, err := domain.NewPlayer(id, name)
	if err != nil {
		return nil, err
	}
	if err := g.AddPlayer(p); err != nil {
		return nil, err
	}
	return p, nil
}

// RemovePlayer drops a player for good: owned tiles unwind to the pot
// and the match ends if fewer than two players remain.
func (s *Service) RemovePlayer(g *domain.Game, id string) (ended bool, err error) {
	return g.RemovePlayer(id)
}

// Start begins the match: the pot is dealt and round zero opens.
func (s *Service) Start(g *domain.Game) error {
	return g.Start()
}

// StartTurn attaches a fresh dice engine to the acting player and rolls
// immediately. During round zero any player whose bonus is pending may
// start, one at a time; afterwards only the current player may.
func (s *Service) StartTurn(g *domain.Game, actorID string) (*TurnOutcome, error) {
	if err := s.requireUnpaused(g); err != nil {
		return nil, err
	}
	if g.State() != domain.Playing {
		return nil, fmt.Errorf("%w: match is not being played", domain.ErrInvalidState)
	}
	p, err := g.Player(actorID)
	if err != nil {
		return nil, err
	}

	if g.Round() == 0 {
		if p.Bonus().State != domain.BonusPending {
			return nil, fmt.Errorf("%w: seeding turn already taken", domain.ErrInvalidState)
		}
		for _, other := range g.Players() {
			if other.Turn() != nil {
				return nil, fmt.Errorf("%w: another seeding turn is live", domain.ErrNotYourTurn)
			}
		}
	} else if cur := g.CurrentPlayer(); cur == nil || cur.ID() != actorID {
		return nil, fmt.Errorf("%w: waiting for another player", domain.ErrNotYourTurn)
	}

	if err := p.BeginTurn(domain.NewTurnEngine(s.rng)); err != nil {
		return nil, err
	}
	return s.Roll(g, actorID)
}

// Roll throws the acting player's untaken dice. A roll with no pickable
// face busts the turn, which is resolved immediately.
func (s *Service) Roll(g *domain.Game, actorID string) (*TurnOutcome, error) {
	p, err := s.actingPlayer(g, actorID)
	if err != nil {
		return nil, err
	}
	e := p.Turn()
	options, err := e.Roll()
	if err != nil {
		return nil, err
	}
	if e.Busted() {
		end := s.resolveBust(g, p, false)
		return bustedOutcome(p, end), nil
	}
	return &TurnOutcome{
		Kind:       OutcomeThrown,
		PlayerID:   p.ID(),
		Score:      e.TakenScore(),
		Pickable:   options,
		Disabled:   e.DisabledFaces(),
		HasSpecial: e.HasSpecial(),
	}, nil
}

// Pick locks a face from the acting player's last roll. A pick that
// exhausts the dice without the special face busts the turn, which is
// resolved immediately.
func (s *Service) Pick(g *domain.Game, actorID string, face domain.Face) (*TurnOutcome, error) {
	p, err := s.actingPlayer(g, actorID)
	if err != nil {
		return nil, err
	}
	e := p.Turn()
	score, err := e.Pick(face)
	if err != nil {
		return nil, err
	}
	if e.Busted() {
		end := s.resolveBust(g, p, false)
		return bustedOutcome(p, end), nil
	}
	return &TurnOutcome{
		Kind:       OutcomeChosen,
		PlayerID:   p.ID(),
		Score:      score,
		HasSpecial: e.HasSpecial(),
		MayStop:    s.mayStop(g, p),
	}, nil
}

// Claim stops the turn in the player's favor. During round zero a score
// of at least 21 with the special face banks the bonus; during normal
// rounds it claims the highest pot tile at or below the score. A score
// that cannot afford any tile is an illegal move, never a bust.
func (s *Service) Claim(g *domain.Game, actorID string) (*EndTurnView, error) {
	p, err := s.actingPlayer(g, actorID)
	if err != nil {
		return nil, err
	}
	e := p.Turn()
	if err := stoppable(e); err != nil {
		return nil, err
	}
	score := e.TakenScore()

	if g.Round() == 0 {
		if score < domain.RoundZeroMinScore {
			return nil, fmt.Errorf("%w: score %d is below the %d needed to bank a bonus",
				domain.ErrIllegalMove, score, domain.RoundZeroMinScore)
		}
		fixed, err := g.ResolveBonus(p.ID(), domain.Bonus{State: domain.BonusSet, Value: score})
		if err != nil {
			return nil, err
		}
		p.EndTurn()
		return &EndTurnView{
			PlayerID:   p.ID(),
			Score:      score,
			BonusValue: score,
			RoundZero:  true,
			OrderFixed: fixed,
		}, nil
	}

	tile, err := g.ClaimFromPot(p, score)
	if err != nil {
		return nil, err
	}
	p.EndTurn()
	view := &EndTurnView{PlayerID: p.ID(), Score: score, TileValue: tile.Value()}
	s.finishNormalTurn(g, view)
	return view, nil
}

// Steal stops the turn by taking the victim's top tile. The score must
// match the tile value exactly. Steals only exist in normal rounds.
func (s *Service) Steal(g *domain.Game, actorID, victimID string) (*EndTurnView, error) {
	p, err := s.actingPlayer(g, actorID)
	if err != nil {
		return nil, err
	}
	if g.Round() == 0 {
		return nil, fmt.Errorf("%w: no tiles to steal during the seeding round", domain.ErrInvalidState)
	}
	e := p.Turn()
	if err := stoppable(e); err != nil {
		return nil, err
	}
	score := e.TakenScore()

	tile, err := g.StealTopTile(p, victimID, score)
	if err != nil {
		return nil, err
	}
	p.EndTurn()
	view := &EndTurnView{PlayerID: p.ID(), Score: score, TileValue: tile.Value(), VictimID: victimID}
	s.finishNormalTurn(g, view)
	return view, nil
}

// EndTurnOnBust resolves a turn whose engine already ended busted. The
// usual path is internal (Roll and Pick resolve busts themselves); this
// remains for engines driven to a bust by other means.
func (s *Service) EndTurnOnBust(g *domain.Game, actorID string) (*EndTurnView, error) {
	p, err := s.actingPlayer(g, actorID)
	if err != nil {
		return nil, err
	}
	e := p.Turn()
	if e.State() != domain.TurnEnded || !e.Busted() {
		return nil, fmt.Errorf("%w: turn has not busted", domain.ErrInvalidState)
	}
	return s.resolveBust(g, p, false), nil
}

// ForceAdvance ends the acting player's turn as a bust because the turn
// clock ran out. A player who never started a seeding turn is busted
// for round-zero purposes all the same.
func (s *Service) ForceAdvance(g *domain.Game, actorID string) (*EndTurnView, error) {
	if g.State() != domain.Playing {
		return nil, fmt.Errorf("%w: match is not being played", domain.ErrInvalidState)
	}
	p, err := g.Player(actorID)
	if err != nil {
		return nil, err
	}
	return s.resolveBust(g, p, true), nil
}

// Disconnect marks a player unreachable, pausing turn actions.
func (s *Service) Disconnect(g *domain.Game, id string) error {
	p, err := g.Player(id)
	if err != nil {
		return err
	}
	p.SetStatus(domain.Disconnected)
	return nil
}

// Reconnect marks a player reachable again.
func (s *Service) Reconnect(g *domain.Game, id string) error {
	p, err := g.Player(id)
	if err != nil {
		return err
	}
	p.SetStatus(domain.Connected)
	return nil
}

// End finishes the match and returns the final standings.
func (s *Service) End(g *domain.Game) []domain.LeaderboardEntry {
	return g.End()
}

// Leaderboard returns the final standings of an ended match.
func (s *Service) Leaderboard(g *domain.Game) ([]domain.LeaderboardEntry, error) {
	return g.Leaderboard()
}

// Reset tears an ended match down to a fresh lobby.
func (s *Service) Reset(g *domain.Game) error {
	if g.State() != domain.Ended {
		return fmt.Errorf("%w: match has not ended", domain.ErrInvalidState)
	}
	g.Reset()
	return nil
}

// actingPlayer resolves the player allowed to drive a live turn right
// now: the engine holder during round zero, the current player after.
func (s *Service) actingPlayer(g *domain.Game, actorID string) (*domain.Player, error) {
	if err := s.requireUnpaused(g); err != nil {
		return nil, err
	}
	if g.State() != domain.Playing {
		return nil, fmt.Errorf("%w: match is not being played", domain.ErrInvalidState)
	}
	p, err := g.Player(actorID)
	if err != nil {
		return nil, err
	}
	if g.Round() >= 1 {
		if cur := g.CurrentPlayer(); cur == nil || cur.ID() != actorID {
			return nil, fmt.Errorf("%w: waiting for another player", domain.ErrNotYourTurn)
		}
	}
	if p.Turn() == nil {
		return nil, fmt.Errorf("%w: no turn in progress", domain.ErrInvalidState)
	}
	return p, nil
}

func (s *Service) requireUnpaused(g *domain.Game) error {
	if g.AnyDisconnected() {
		return fmt.Errorf("%w: waiting for a player to reconnect", domain.ErrMatchPaused)
	}
	return nil
}

// stoppable rejects a stop attempt unless the engine sits between picks
// (or fully exhausted) with the special face locked and no bust.
func stoppable(e *domain.TurnEngine) error {
	if e.State() == domain.TurnMustPick {
		return fmt.Errorf("%w: pick a face before stopping", domain.ErrInvalidState)
	}
	if e.Busted() {
		return fmt.Errorf("%w: a busted turn cannot stop", domain.ErrInvalidState)
	}
	if !e.HasSpecial() {
		return fmt.Errorf("%w: cannot stop without the special face", domain.ErrIllegalMove)
	}
	return nil
}

// mayStop reports whether stopping right now would succeed.
func (s *Service) mayStop(g *domain.Game, p *domain.Player) bool {
	e := p.Turn()
	if e == nil || stoppable(e) != nil {
		return false
	}
	score := e.TakenScore()
	if g.Round() == 0 {
		return score >= domain.RoundZeroMinScore
	}
	if g.Pot().ClaimableAtOrBelow(score) != nil {
		return true
	}
	for _, other := range g.Players() {
		if other.ID() == p.ID() {
			continue
		}
		if top := other.TopTile(); top != nil && top.Value() == score {
			return true
		}
	}
	return false
}

// resolveBust ends the player's turn as a bust. During round zero the
// only consequence is a busted bonus; during normal rounds the top
// owned tile is forfeited and the pot's highest tile flips out of play.
func (s *Service) resolveBust(g *domain.Game, p *domain.Player, forced bool) *EndTurnView {
	view := &EndTurnView{PlayerID: p.ID(), Busted: true, Forced: forced}
	if e := p.Turn(); e != nil {
		view.Score = e.TakenScore()
	}
	p.EndTurn()

	if g.Round() == 0 {
		view.RoundZero = true
		fixed, err := g.ResolveBonus(p.ID(), domain.Bonus{State: domain.BonusBust})
		if err == nil {
			view.OrderFixed = fixed
		}
		return view
	}

	forfeited, flipped := g.ResolveBust(p)
	if forfeited != nil {
		view.ForfeitedValue = forfeited.Value()
	}
	if flipped != nil {
		view.FlippedValue = flipped.Value()
	}
	s.finishNormalTurn(g, view)
	return view
}

// finishNormalTurn advances the turn, ending the game when the pot has
// run out of available tiles.
func (s *Service) finishNormalTurn(g *domain.Game, view *EndTurnView) {
	if g.Pot().AmountAvailable() == 0 {
		g.End()
		view.GameEnded = true
		return
	}
	g.AdvanceTurn()
}

func bustedOutcome(p *domain.Player, end *EndTurnView) *TurnOutcome {
	return &TurnOutcome{
		Kind:     OutcomeBusted,
		PlayerID: p.ID(),
		Score:    end.Score,
		End:      end,
	}
}
