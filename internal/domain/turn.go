package domain

import (
	"fmt"
	"math/rand"
)

// TurnState is the lifecycle stage of a single dice turn.
type TurnState string

const (
	// TurnCanRoll allows the player to roll the remaining dice.
	TurnCanRoll TurnState = "can_roll"
	// TurnMustPick requires the player to lock a face from the last roll.
	TurnMustPick TurnState = "must_pick"
	// TurnEnded is terminal; no further operations are accepted.
	TurnEnded TurnState = "ended"
)

// NumDice is the number of dice in a turn.
const NumDice = 8

// TurnEngine drives one player's dice turn: alternating rolls and face
// picks until no dice or faces remain, or until a roll produces no
// pickable face. A face may be locked at most once per turn, and
// locking takes every die of that face from the last roll at once.
type TurnEngine struct {
	rng        *rand.Rand
	dice       [NumDice]Die
	lastRoll   []int // indices of dice rolled in the most recent throw
	chosen     map[Face]bool
	state      TurnState
	hasSpecial bool
	busted     bool
}

// NewTurnEngine returns a fresh engine in the CAN_ROLL state. The
// caller is expected to roll immediately when the turn starts.
func NewTurnEngine(rng *rand.Rand) *TurnEngine {
	return &TurnEngine{
		rng:    rng,
		chosen: make(map[Face]bool, NumFaces),
		state:  TurnCanRoll,
	}
}

// State returns the current turn state.
func (e *TurnEngine) State() TurnState { return e.state }

// Busted reports whether the turn ended with zero bankable value.
func (e *TurnEngine) Busted() bool { return e.busted }

// HasSpecial reports whether the special face has been locked this turn.
func (e *TurnEngine) HasSpecial() bool { return e.hasSpecial }

// TakenScore sums the points of all taken dice. Untaken dice never count.
func (e *TurnEngine) TakenScore() int {
	score := 0
	for _, d := range e.dice {
		if d.Taken {
			score += d.Face.Points()
		}
	}
	return score
}

// ChosenFaces returns the faces locked so far this turn, ascending.
func (e *TurnEngine) ChosenFaces() []Face {
	faces := make([]Face, 0, len(e.chosen))
	for f := FaceOne; f <= FaceSpecial; f++ {
		if e.chosen[f] {
			faces = append(faces, f)
		}
	}
	return faces
}

// PickableFaces returns the distinct faces of the last roll that have
// not been chosen yet this turn, ascending.
func (e *TurnEngine) PickableFaces() []Face {
	return e.lastRollFaces(false)
}

// DisabledFaces returns the distinct faces of the last roll that were
// already chosen this turn. They are reported for display only.
func (e *TurnEngine) DisabledFaces() []Face {
	return e.lastRollFaces(true)
}

func (e *TurnEngine) lastRollFaces(chosen bool) []Face {
	seen := make(map[Face]bool, NumFaces)
	for _, i := range e.lastRoll {
		seen[e.dice[i].Face] = true
	}
	var faces []Face
	for f := FaceOne; f <= FaceSpecial; f++ {
		if seen[f] && e.chosen[f] == chosen {
			faces = append(faces, f)
		}
	}
	return faces
}

// UntakenCount returns the number of dice not yet taken.
func (e *TurnEngine) UntakenCount() int {
	n := 0
	for _, d := range e.dice {
		if !d.Taken {
			n++
		}
	}
	return n
}

func (e *TurnEngine) canContinue() bool {
	return e.UntakenCount() > 0 && len(e.chosen) < NumFaces
}

// Roll throws every untaken die. Only legal in CAN_ROLL. If no rolled
// face is pickable the turn busts: state moves to ENDED and the
// returned set is empty. Otherwise the state moves to MUST_PICK and
// the distinct pickable faces of this throw are returned.
func (e *TurnEngine) Roll() ([]Face, error) {
	if e.state == TurnEnded {
		return nil, fmt.Errorf("%w: turn already ended", ErrInvalidState)
	}
	if e.state != TurnCanRoll {
		return nil, fmt.Errorf("%w: pick a face before rolling again", ErrInvalidState)
	}

	e.lastRoll = e.lastRoll[:0]
	for i := range e.dice {
		if e.dice[i].Taken {
			continue
		}
		e.dice[i].Face = Face(e.rng.Intn(NumFaces) + 1)
		e.lastRoll = append(e.lastRoll, i)
	}

	options := e.PickableFaces()
	if len(options) == 0 {
		e.state = TurnEnded
		e.busted = true
		return nil, nil
	}
	e.state = TurnMustPick
	return options, nil
}

// Pick locks a face from the last roll: every last-roll die showing it
// becomes taken. Only legal in MUST_PICK; fails if the face was chosen
// before this turn or is absent from the last roll. When no dice or
// faces remain afterwards the turn ends, and busts unless the special
// face was locked at some point.
func (e *TurnEngine) Pick(face Face) (int, error) {
	if e.state == TurnEnded {
		return 0, fmt.Errorf("%w: turn already ended", ErrInvalidState)
	}
	if e.state != TurnMustPick {
		return 0, fmt.Errorf("%w: roll before picking a face", ErrInvalidState)
	}
	if !face.Valid() {
		return 0, fmt.Errorf("%w: unknown face %d", ErrIllegalMove, int(face))
	}
	if e.chosen[face] {
		return 0, fmt.Errorf("%w: face %s already chosen this turn", ErrIllegalMove, face)
	}

	taken := 0
	for _, i := range e.lastRoll {
		if e.dice[i].Face == face {
			e.dice[i].Taken = true
			taken++
		}
	}
	if taken == 0 {
		return 0, fmt.Errorf("%w: face %s not present in the last roll", ErrIllegalMove, face)
	}

	e.chosen[face] = true
	if face == FaceSpecial {
		e.hasSpecial = true
	}
	e.lastRoll = nil

	if e.canContinue() {
		e.state = TurnCanRoll
	} else {
		e.state = TurnEnded
		if !e.hasSpecial {
			e.busted = true
		}
	}
	return e.TakenScore(), nil
}
