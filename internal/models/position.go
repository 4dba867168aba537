package models

import (
	"fmt"
	"strings"
)

// Position is the closed set of roster positions
type Position int

// Positions in element_type order
const (
	PositionGK Position = iota
	PositionDEF
	PositionMID
	PositionFWD
)

// NumPositions is the size of per-position lookup tables
const NumPositions = 4

// AllPositions lists every position in index order
var AllPositions = [NumPositions]Position{PositionGK, PositionDEF, PositionMID, PositionFWD}

var positionNames = [NumPositions]string{"GK", "DEF", "MID", "FWD"}

// String returns the short position label
func (p Position) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Position(%d)", int(p))
	}
	return positionNames[p]
}

// Valid reports whether p is one of the four positions
func (p Position) Valid() bool {
	return p >= PositionGK && p <= PositionFWD
}

// Index returns the array index for per-position tables
func (p Position) Index() int {
	return int(p)
}

// IsAttacking reports whether the position receives ceiling and role adjustments
func (p Position) IsAttacking() bool {
	return p == PositionMID || p == PositionFWD
}

// ParsePosition parses GK/DEF/MID/FWD (case-insensitive)
func ParsePosition(s string) (Position, error) {
	for i, name := range positionNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Position(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
}

// PositionFromElementType maps the feed's element_type (1-4) to a Position
func PositionFromElementType(elementType int) (Position, error) {
	if elementType < 1 || elementType > NumPositions {
		return 0, fmt.Errorf("%w: element_type %d", ErrInvalidPosition, elementType)
	}
	return Position(elementType - 1), nil
}

// MarshalText implements encoding.TextMarshaler
func (p Position) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPosition, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Position) UnmarshalText(text []byte) error {
	parsed, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// PerPosition is a float table indexed by Position
type PerPosition [NumPositions]float64

// Get returns the value for a position
func (t PerPosition) Get(p Position) float64 {
	return t[p.Index()]
}
