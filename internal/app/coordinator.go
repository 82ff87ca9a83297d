package app

import (
	"fmt"

	"regenwormen/internal/domain"
	"regenwormen/internal/ports"
)

// Timing holds the coordinator's clock settings, in whole seconds
// because the coordinator advances once per match-loop tick.
type Timing struct {
	TurnSeconds            int
	DisconnectGraceSeconds int
	ResetDelaySeconds      int
}

// DefaultTiming mirrors the reference clocks: ten seconds per turn, a
// minute of disconnect grace, three seconds before a finished match
// resets to a lobby.
func DefaultTiming() Timing {
	return Timing{TurnSeconds: 10, DisconnectGraceSeconds: 60, ResetDelaySeconds: 3}
}

type countdown struct {
	playerID   string
	playerName string
	remaining  int
}

// TickResult tells the caller what the tick changed, so it can
// broadcast state and persist a snapshot once per loop.
type TickResult struct {
	// Dirty means game state was mutated this tick.
	Dirty bool
	// ForcedEnd is set when the turn clock expired and the acting
	// player's turn was busted.
	ForcedEnd *EndTurnView
	// Removed lists players whose disconnect grace expired this tick.
	Removed []string
	// Ended means the match reached its end state this tick.
	Ended bool
	// ResetDue means the post-game delay elapsed: reset the lobby.
	ResetDue bool
}

// Coordinator owns every time-driven transition for one match: the
// shared turn clock, one removal clock per disconnected player and the
// post-game reset delay. It never runs its own goroutine; the match
// loop advances it one second per tick, so all mutation happens on the
// same goroutine as client messages, through the same Service ops.
type Coordinator struct {
	svc      *Service
	notifier ports.Notifier
	timing   Timing

	turn     *countdown
	removals map[string]*countdown
	resetIn  int // -1 when inactive
}

// NewCoordinator builds an idle coordinator for one match.
func NewCoordinator(svc *Service, notifier ports.Notifier, timing Timing) *Coordinator {
	return &Coordinator{
		svc:      svc,
		notifier: notifier,
		timing:   timing,
		removals: make(map[string]*countdown),
		resetIn:  -1,
	}
}

// StartTurnTimer arms the turn clock for the acting player, replacing
// any previous turn clock.
func (c *Coordinator) StartTurnTimer(playerID, playerName string) {
	c.turn = &countdown{playerID: playerID, playerName: playerName, remaining: c.timing.TurnSeconds}
}

// CancelTurnTimer disarms the turn clock. A cancelled clock never fires.
func (c *Coordinator) CancelTurnTimer() {
	c.turn = nil
}

// TurnTimerFor reports whether the turn clock is armed for the player.
func (c *Coordinator) TurnTimerFor(playerID string) bool {
	return c.turn != nil && c.turn.playerID == playerID
}

// TurnClockArmed reports whether any turn clock is armed.
func (c *Coordinator) TurnClockArmed() bool {
	return c.turn != nil
}

// HandleDisconnect cancels the turn clock and arms the removal clock
// for the player. A repeat disconnect notification while a removal
// clock is already pending keeps the original clock.
func (c *Coordinator) HandleDisconnect(playerID, playerName string) {
	if _, pending := c.removals[playerID]; pending {
		return
	}
	c.turn = nil
	c.removals[playerID] = &countdown{
		playerID:   playerID,
		playerName: playerName,
		remaining:  c.timing.DisconnectGraceSeconds,
	}
}

// HandleReconnect disarms the player's removal clock.
func (c *Coordinator) HandleReconnect(playerID string) {
	delete(c.removals, playerID)
}

// HandleGameEnded disarms the play clocks and arms the reset delay.
func (c *Coordinator) HandleGameEnded() {
	c.turn = nil
	c.removals = make(map[string]*countdown)
	c.resetIn = c.timing.ResetDelaySeconds
}

// CancelAll disarms everything, for match teardown.
func (c *Coordinator) CancelAll() {
	c.turn = nil
	c.removals = make(map[string]*countdown)
	c.resetIn = -1
}

// Advance moves every armed clock one second and applies whatever
// expired. A clock armed while a player is still disconnected stays
// quiet until everyone is back; removal clocks keep running so an
// abandoned match still drains.
func (c *Coordinator) Advance(g *domain.Game, matchID string) TickResult {
	var res TickResult

	if c.resetIn >= 0 {
		c.resetIn--
		if c.resetIn <= 0 {
			c.resetIn = -1
			res.ResetDue = true
		}
		return res
	}

	c.advanceRemovals(g, matchID, &res)
	if res.Ended {
		return res
	}
	c.advanceTurnClock(g, matchID, &res)
	return res
}

func (c *Coordinator) advanceRemovals(g *domain.Game, matchID string, res *TickResult) {
	for id, cd := range c.removals {
		cd.remaining--
		if cd.remaining > 0 {
			c.notifier.BroadcastDisconnectCountdown(matchID, cd.playerName, cd.remaining)
			continue
		}

		delete(c.removals, id)
		if c.turn != nil && c.turn.playerID == id {
			c.turn = nil
		}
		ended, err := c.svc.RemovePlayer(g, id)
		if err != nil {
			continue
		}
		res.Dirty = true
		res.Removed = append(res.Removed, id)
		c.notifier.BroadcastSystemMessage(matchID,
			fmt.Sprintf("%s left the game", cd.playerName))
		if ended {
			res.Ended = true
			c.HandleGameEnded()
			return
		}
	}
}

func (c *Coordinator) advanceTurnClock(g *domain.Game, matchID string, res *TickResult) {
	if c.turn == nil || g.AnyDisconnected() {
		return
	}
	c.turn.remaining--
	if c.turn.remaining > 0 {
		c.notifier.BroadcastTimer(matchID, c.turn.playerName, c.turn.remaining)
		return
	}

	expired := c.turn
	c.turn = nil
	view, err := c.svc.ForceAdvance(g, expired.playerID)
	if err != nil {
		return
	}
	res.Dirty = true
	res.ForcedEnd = view
	c.notifier.BroadcastSystemMessage(matchID,
		fmt.Sprintf("%s ran out of time", expired.playerName))
	if view.GameEnded {
		res.Ended = true
		c.HandleGameEnded()
	}
}
