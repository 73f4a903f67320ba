package commands

import "fmt"

// Direction - отношение выделения к строчной разметке.
type Direction int

const (
	None Direction = iota
	Left
	LeftSpace
	Right
	RightSpace
	Full
	FullSpace
	FullSpaceLeft
	FullSpaceRight
	Inside
	Outside
	MultipleOutside
	MultipleInsideToInside
	MultipleInsideToParentInside
	MultipleInsideToRight
	MultipleInsideToLeft
	Ignore
)

var directionNames = [...]string{
	None:                         "NONE",
	Left:                         "LEFT",
	LeftSpace:                    "LEFT_SPACE",
	Right:                        "RIGHT",
	RightSpace:                   "RIGHT_SPACE",
	Full:                         "FULL",
	FullSpace:                    "FULL_SPACE",
	FullSpaceLeft:                "FULL_SPACE_LEFT",
	FullSpaceRight:               "FULL_SPACE_RIGHT",
	Inside:                       "INSIDE",
	Outside:                      "OUTSIDE",
	MultipleOutside:              "MULTIPLE_OUTSIDE",
	MultipleInsideToInside:       "MULTIPLE_INSIDE_TO_INSIDE",
	MultipleInsideToParentInside: "MULTIPLE_INSIDE_TO_PARENT_INSIDE",
	MultipleInsideToRight:        "MULTIPLE_INSIDE_TO_RIGHT",
	MultipleInsideToLeft:         "MULTIPLE_INSIDE_TO_LEFT",
	Ignore:                       "IGNORE",
}

func (d Direction) String() string {
	if d >= 0 && int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// IsFull - выделение целиком совпадает с текстом элемента.
func (d Direction) IsFull() bool {
	switch d {
	case Full, FullSpace, FullSpaceLeft, FullSpaceRight:
		return true
	}
	return false
}

func (d Direction) IsLeft() bool {
	return d == Left || d == LeftSpace
}

func (d Direction) IsRight() bool {
	return d == Right || d == RightSpace
}

// IsMultipleInside - выделение начинается или заканчивается внутри одного из нескольких элементов.
func (d Direction) IsMultipleInside() bool {
	switch d {
	case MultipleInsideToInside, MultipleInsideToParentInside, MultipleInsideToRight, MultipleInsideToLeft:
		return true
	}
	return false
}
