package domain

import "fmt"

// Face is one of the six die faces. FaceSpecial is the worm face: a
// turn may only bank points if it locked the special face at least once.
type Face int

const (
	FaceOne Face = iota + 1
	FaceTwo
	FaceThree
	FaceFour
	FaceFive
	FaceSpecial
)

// NumFaces is the number of distinct die faces.
const NumFaces = 6

// Valid reports whether f is one of the six die faces.
func (f Face) Valid() bool {
	return f >= FaceOne && f <= FaceSpecial
}

// Points returns the score contribution of a single die showing f.
// The special face is worth the same as a five.
func (f Face) Points() int {
	if f == FaceSpecial {
		return 5
	}
	return int(f)
}

func (f Face) String() string {
	switch f {
	case FaceOne:
		return "one"
	case FaceTwo:
		return "two"
	case FaceThree:
		return "three"
	case FaceFour:
		return "four"
	case FaceFive:
		return "five"
	case FaceSpecial:
		return "special"
	}
	return fmt.Sprintf("face(%d)", int(f))
}

// Die is a single die within a turn. Once taken it keeps its face for
// the remainder of the turn and is excluded from further rolls.
type Die struct {
	Face  Face
	Taken bool
}
