package app

import "regenwormen/internal/domain"

// OutcomeKind tags a TurnOutcome with the action that produced it.
type OutcomeKind string

const (
	// OutcomeThrown follows a roll: the player must pick a face.
	OutcomeThrown OutcomeKind = "thrown"
	// OutcomeChosen follows a pick: the player may roll again or stop.
	OutcomeChosen OutcomeKind = "chosen"
	// OutcomeBusted means the action ended the turn with nothing banked.
	OutcomeBusted OutcomeKind = "busted"
)

// TurnOutcome is the result of a roll or pick. Exactly one variant
// applies, selected by Kind; End is set only for OutcomeBusted.
type TurnOutcome struct {
	Kind       OutcomeKind   `json:"kind"`
	PlayerID   string        `json:"playerId"`
	Score      int           `json:"score"`
	Pickable   []domain.Face `json:"pickable,omitempty"`
	Disabled   []domain.Face `json:"disabled,omitempty"`
	HasSpecial bool          `json:"hasSpecial"`
	MayStop    bool          `json:"mayStop"`
	End        *EndTurnView  `json:"end,omitempty"`
}

// EndTurnView describes how a turn ended: a claim, a steal, a resolved
// round-zero bonus, or a bust with its punishment.
type EndTurnView struct {
	PlayerID string `json:"playerId"`
	Score    int    `json:"score"`
	Busted   bool   `json:"busted"`
	Forced   bool   `json:"forced,omitempty"`
	// TileValue is the claimed or stolen tile, 0 when none.
	TileValue int    `json:"tileValue,omitempty"`
	VictimID  string `json:"victimId,omitempty"`
	// ForfeitedValue and FlippedValue describe the bust punishment.
	ForfeitedValue int `json:"forfeitedValue,omitempty"`
	FlippedValue   int `json:"flippedValue,omitempty"`
	// BonusValue is the banked round-zero bonus, 0 on a seeding bust.
	BonusValue int  `json:"bonusValue,omitempty"`
	RoundZero  bool `json:"roundZero,omitempty"`
	// OrderFixed means this was the last pending bonus: turn order is
	// now fixed and round 1 begins.
	OrderFixed bool `json:"orderFixed,omitempty"`
	GameEnded  bool `json:"gameEnded,omitempty"`
}
