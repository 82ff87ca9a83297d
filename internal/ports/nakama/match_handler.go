package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"regenwormen/internal/app"
	"regenwormen/internal/config"
	"regenwormen/internal/domain"
	"regenwormen/internal/ports"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchLabel is the JSON document advertised for matchmaking queries.
type MatchLabel struct {
	Game  string `json:"game"`
	Open  int    `json:"open"`
	Phase string `json:"phase"`
}

// MatchState holds the authoritative runtime state for one match. It
// lives on the match-loop goroutine, which serializes every mutation:
// client messages and clock expiries run through the same loop.
type MatchState struct {
	MatchID   string
	OwnerID   string
	Presences map[string]runtime.Presence
	App       *app.Service
	Coord     *app.Coordinator
	Game      *domain.Game
	Notifier  *DispatcherNotifier
	Store     ports.MatchStore
}

// Snapshot projects the current game onto the wire shape.
func (ms *MatchState) Snapshot() *MatchSnapshot {
	return toSnapshot(ms.MatchID, ms.Game)
}

func (ms *MatchState) playerName(id string) string {
	if p, err := ms.Game.Player(id); err == nil {
		return p.Name()
	}
	return id
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: could not load game config, using defaults: %v", err)
	}

	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	if matchID == "" {
		matchID = uuid.NewString()
	}

	name := "regenwormen"
	if v, ok := params["name"].(string); ok && v != "" {
		name = v
	}
	maxPlayers := domain.MaxPlayers
	switch v := params["max_players"].(type) {
	case float64:
		maxPlayers = int(v)
	case int:
		maxPlayers = v
	}

	game, err := domain.NewGame(matchID, name, maxPlayers)
	if err != nil {
		logger.Error("MatchInit: invalid match params: %v", err)
		return nil, 0, ""
	}

	timing := app.Timing{
		TurnSeconds:            config.TurnSeconds(),
		DisconnectGraceSeconds: config.DisconnectGraceSeconds(),
		ResetDelaySeconds:      config.ResetDelaySeconds(),
	}

	svc := app.NewService(nil)
	state := &MatchState{
		MatchID:   matchID,
		Presences: make(map[string]runtime.Presence),
		App:       svc,
		Game:      game,
		Store:     NewStorageMatchStore(nk),
	}
	state.Notifier = NewDispatcherNotifier(logger, state)
	state.Coord = app.NewCoordinator(svc, state.Notifier, timing)

	label, err := json.Marshal(MatchLabel{Game: "regenwormen", Open: maxPlayers, Phase: "lobby"})
	if err != nil {
		logger.Error("MatchInit: failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1 // clocks count in whole seconds
	return state, tickRate, string(label)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Known players may always come back; that is the reconnect path.
	if _, err := matchState.Game.Player(presence.GetUserId()); err == nil {
		return matchState, true, ""
	}

	if matchState.Game.State() != domain.PreGame {
		return matchState, false, "match in progress"
	}
	if len(matchState.Game.Players()) >= matchState.Game.MaxPlayers() {
		return matchState, false, "match full"
	}
	return matchState, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}
	matchState.Notifier.Bind(dispatcher)

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		if _, err := matchState.Game.Player(userID); err == nil {
			if err := matchState.App.Reconnect(matchState.Game, userID); err != nil {
				logger.Error("MatchJoin: reconnect %s failed: %v", userID, err)
				continue
			}
			matchState.Coord.HandleReconnect(userID)
			if !matchState.Game.AnyDisconnected() {
				mh.armTurnClock(matchState)
			}
			matchState.Notifier.BroadcastSystemMessage(matchState.MatchID,
				fmt.Sprintf("%s reconnected", matchState.playerName(userID)))
			continue
		}

		if _, err := matchState.App.AddPlayer(matchState.Game, userID, p.GetUsername()); err != nil {
			logger.Warn("MatchJoin: could not seat %s: %v", userID, err)
			continue
		}
		if matchState.OwnerID == "" {
			matchState.OwnerID = userID
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	matchState.Notifier.BroadcastState(matchState.MatchID)
	mh.saveSnapshot(ctx, matchState, logger)
	return matchState
}

// MatchLeave is called when one or more players drop their presence. A
// leave during play is a disconnect with a removal grace, not an
// instant removal.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}
	matchState.Notifier.Bind(dispatcher)

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		if _, err := matchState.Game.Player(userID); err != nil {
			continue
		}

		if matchState.Game.State() == domain.Playing {
			if err := matchState.App.Disconnect(matchState.Game, userID); err != nil {
				logger.Error("MatchLeave: disconnect %s failed: %v", userID, err)
				continue
			}
			matchState.Coord.HandleDisconnect(userID, matchState.playerName(userID))
			matchState.Notifier.BroadcastSystemMessage(matchState.MatchID,
				fmt.Sprintf("%s disconnected", matchState.playerName(userID)))
			continue
		}

		if _, err := matchState.App.RemovePlayer(matchState.Game, userID); err != nil {
			logger.Error("MatchLeave: remove %s failed: %v", userID, err)
		}
	}

	mh.reassignOwner(matchState)
	if len(matchState.Presences) == 0 && matchState.Game.State() != domain.Playing {
		logger.Info("MatchLeave: terminating empty match %s", matchState.MatchID)
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	matchState.Notifier.BroadcastState(matchState.MatchID)
	mh.saveSnapshot(ctx, matchState, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	matchState.Notifier.Bind(dispatcher)

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpStartTurn:
			mh.handleStartTurn(ctx, matchState, dispatcher, logger, msg)
		case OpRoll:
			mh.handleRoll(ctx, matchState, dispatcher, logger, msg)
		case OpPick:
			mh.handlePick(ctx, matchState, dispatcher, logger, msg)
		case OpClaim:
			mh.handleClaim(ctx, matchState, dispatcher, logger, msg)
		case OpSteal:
			mh.handleSteal(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: unknown opcode received: %d", msg.GetOpCode())
		}
	}

	res := matchState.Coord.Advance(matchState.Game, matchState.MatchID)
	if res.ForcedEnd != nil {
		mh.broadcastTurnEnded(matchState, res.ForcedEnd)
		if !res.Ended {
			mh.armTurnClock(matchState)
		}
	}
	if res.Ended {
		mh.finishMatch(ctx, matchState, dispatcher, logger)
	}
	if len(res.Removed) > 0 && !res.Ended && !matchState.Coord.TurnClockArmed() {
		mh.armTurnClock(matchState)
	}
	if res.ResetDue {
		mh.resetToLobby(matchState, dispatcher, logger)
		res.Dirty = true
	}
	if res.Dirty {
		mh.reassignOwner(matchState)
		mh.updateLabel(matchState, dispatcher, logger)
		matchState.Notifier.BroadcastState(matchState.MatchID)
		mh.saveSnapshot(ctx, matchState, logger)
	}

	return matchState
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if senderID != state.OwnerID {
		mh.sendError(state, dispatcher, logger, senderID,
			fmt.Errorf("%w: only the match owner may start", domain.ErrNotYourTurn))
		return
	}
	if err := state.App.Start(state.Game); err != nil {
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	logger.Info("StartGame: match %s started with %d players", state.MatchID, len(state.Game.Players()))
	mh.armTurnClock(state)
	mh.updateLabel(state, dispatcher, logger)
	state.Notifier.BroadcastState(state.MatchID)
	mh.saveSnapshot(ctx, state, logger)
}

func (mh *matchHandler) handleStartTurn(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	out, err := state.App.StartTurn(state.Game, senderID)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	state.Coord.StartTurnTimer(senderID, state.playerName(senderID))
	mh.afterTurnAction(ctx, state, dispatcher, logger, out)
}

func (mh *matchHandler) handleRoll(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	out, err := state.App.Roll(state.Game, senderID)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	// An accepted action restarts the actor's turn clock.
	state.Coord.StartTurnTimer(senderID, state.playerName(senderID))
	mh.afterTurnAction(ctx, state, dispatcher, logger, out)
}

func (mh *matchHandler) handlePick(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var req struct {
		Face int `json:"face"`
	}
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		mh.sendError(state, dispatcher, logger, senderID,
			fmt.Errorf("%w: malformed pick payload", domain.ErrIllegalMove))
		return
	}

	out, err := state.App.Pick(state.Game, senderID, domain.Face(req.Face))
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	state.Coord.StartTurnTimer(senderID, state.playerName(senderID))
	mh.afterTurnAction(ctx, state, dispatcher, logger, out)
}

func (mh *matchHandler) handleClaim(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	view, err := state.App.Claim(state.Game, senderID)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.afterTurnEnd(ctx, state, dispatcher, logger, view)
}

func (mh *matchHandler) handleSteal(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var req struct {
		VictimID string `json:"victimId"`
	}
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		mh.sendError(state, dispatcher, logger, senderID,
			fmt.Errorf("%w: malformed steal payload", domain.ErrIllegalMove))
		return
	}

	view, err := state.App.Steal(state.Game, senderID, req.VictimID)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.afterTurnEnd(ctx, state, dispatcher, logger, view)
}

// afterTurnAction broadcasts a roll or pick outcome and, when the
// action busted the turn, runs the end-of-turn transitions.
func (mh *matchHandler) afterTurnAction(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, out *app.TurnOutcome) {
	mh.broadcastJSON(state, dispatcher, logger, OpTurnOutcome, out)
	if out.End != nil {
		mh.afterTurnEnd(ctx, state, dispatcher, logger, out.End)
		return
	}
	state.Notifier.BroadcastState(state.MatchID)
	mh.saveSnapshot(ctx, state, logger)
}

// afterTurnEnd runs the transitions shared by every way a turn ends:
// the turn clock stops, the match finishes when the pot ran out, and
// otherwise the clock is armed for whoever must act next.
func (mh *matchHandler) afterTurnEnd(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, view *app.EndTurnView) {
	state.Coord.CancelTurnTimer()
	mh.broadcastTurnEnded(state, view)

	if view.GameEnded {
		mh.finishMatch(ctx, state, dispatcher, logger)
	} else {
		mh.armTurnClock(state)
	}

	mh.updateLabel(state, dispatcher, logger)
	state.Notifier.BroadcastState(state.MatchID)
	mh.saveSnapshot(ctx, state, logger)
}

// armTurnClock points the shared turn clock at whoever must act next:
// the first player with a pending bonus during round zero, the current
// player afterwards.
func (mh *matchHandler) armTurnClock(state *MatchState) {
	g := state.Game
	if g.State() != domain.Playing {
		return
	}
	if g.Round() == 0 {
		for _, p := range g.Players() {
			if p.Bonus().State == domain.BonusPending {
				state.Coord.StartTurnTimer(p.ID(), p.Name())
				return
			}
		}
		return
	}
	if cur := g.CurrentPlayer(); cur != nil {
		state.Coord.StartTurnTimer(cur.ID(), cur.Name())
	}
}

func (mh *matchHandler) finishMatch(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	leaderboard := state.App.End(state.Game)
	winnerID := ""
	if len(leaderboard) > 0 {
		winnerID = leaderboard[0].PlayerID
	}
	state.Notifier.BroadcastMatchEnded(state.MatchID, winnerID, leaderboard)
	if err := state.Store.SaveResults(ctx, state.MatchID, leaderboard); err != nil {
		logger.Error("finishMatch: failed to save results: %v", err)
	}
	state.Coord.HandleGameEnded()
	logger.Info("finishMatch: match %s ended, winner %s", state.MatchID, winnerID)
}

// resetToLobby tears the finished game down and reseats everyone still
// connected, so the table can start another game.
func (mh *matchHandler) resetToLobby(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if err := state.App.Reset(state.Game); err != nil {
		logger.Error("resetToLobby: %v", err)
		return
	}
	for _, p := range state.Presences {
		if _, err := state.App.AddPlayer(state.Game, p.GetUserId(), p.GetUsername()); err != nil {
			logger.Warn("resetToLobby: could not reseat %s: %v", p.GetUserId(), err)
		}
	}
	logger.Debug("resetToLobby: match %s back to lobby with %d players",
		state.MatchID, len(state.Game.Players()))
}

func (mh *matchHandler) reassignOwner(state *MatchState) {
	if _, err := state.Game.Player(state.OwnerID); err == nil {
		return
	}
	state.OwnerID = ""
	for _, p := range state.Game.Players() {
		state.OwnerID = p.ID()
		break
	}
}

func (mh *matchHandler) broadcastTurnEnded(state *MatchState, view *app.EndTurnView) {
	if data, err := json.Marshal(view); err == nil && state.Notifier != nil {
		// Routed through the notifier's dispatcher for consistency.
		state.Notifier.broadcast(OpTurnEnded, json.RawMessage(data))
	}
}

func (mh *matchHandler) broadcastJSON(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, opCode int64, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("broadcast: failed to marshal op %d: %v", opCode, err)
		return
	}
	if err := dispatcher.BroadcastMessage(opCode, data, nil, nil, true); err != nil {
		logger.Error("broadcast: op %d failed: %v", opCode, err)
	}
}

// sendError sends a private error event to the offending player.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, cause error) {
	payload := map[string]interface{}{
		"code":    errorCode(cause),
		"message": cause.Error(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("sendError: failed to marshal: %v", err)
		return
	}
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("sendError: presence %s not found", userID)
		return
	}
	if err := dispatcher.BroadcastMessage(OpGameError, data, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("sendError: broadcast failed: %v", err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	phase := "lobby"
	open := state.Game.MaxPlayers() - len(state.Game.Players())
	switch state.Game.State() {
	case domain.Playing:
		phase = "playing"
		open = 0
	case domain.Ended:
		phase = "ended"
		open = 0
	}

	label, err := json.Marshal(MatchLabel{Game: "regenwormen", Open: open, Phase: phase})
	if err != nil {
		logger.Error("updateLabel: failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(label)); err != nil {
		logger.Error("updateLabel: failed to update: %v", err)
	}
}

func (mh *matchHandler) saveSnapshot(ctx context.Context, state *MatchState, logger runtime.Logger) {
	data, err := json.Marshal(state.Snapshot())
	if err != nil {
		logger.Error("saveSnapshot: failed to marshal: %v", err)
		return
	}
	if err := state.Store.SaveSnapshot(ctx, state.MatchID, data); err != nil {
		logger.Error("saveSnapshot: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	matchState.Coord.CancelAll()
	mh.saveSnapshot(ctx, matchState, logger)
	logger.Debug("MatchTerminate: match %s terminated for reason %d", matchState.MatchID, reason)
	return matchState
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
