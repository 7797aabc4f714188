package beverage

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Type identifies a beverage. Only the constants below are valid.
type Type string

const (
	Water   Type = "Water"
	Coffee  Type = "Coffee"
	Tea     Type = "Tea"
	Soda    Type = "Soda"
	Beer    Type = "Beer"
	Wine    Type = "Wine"
	Spirits Type = "Spirits"
	Juice   Type = "Juice"
	Milk    Type = "Milk"
)

// StepVolume is the volume (mL) each table ratio is expressed against.
const StepVolume = 50

// debtTable maps each beverage to the extra water (mL) needed per StepVolume.
var debtTable = map[Type]int{
	Water:   50,
	Coffee:  200,
	Tea:     20,
	Soda:    25,
	Beer:    50,
	Wine:    50,
	Spirits: 200,
	Juice:   50,
	Milk:    25,
}

// ordered is the declaration order used by Types.
var ordered = []Type{Water, Coffee, Tea, Soda, Beer, Wine, Spirits, Juice, Milk}

// UnknownBeverageError reports a lookup for a type outside the closed set.
// Values drawn from the constants above never produce it; seeing one means
// an unchecked string reached the table.
type UnknownBeverageError struct {
	Type Type
}

func (e *UnknownBeverageError) Error() string {
	return fmt.Sprintf("unknown beverage type: %q", string(e.Type))
}

// IsUnknownBeverage returns true if err is or wraps an UnknownBeverageError.
func IsUnknownBeverage(err error) bool {
	var ue *UnknownBeverageError
	return errors.As(err, &ue)
}

// Types returns every beverage type in declaration order.
func Types() []Type {
	out := make([]Type, len(ordered))
	copy(out, ordered)
	return out
}

// Valid reports whether t belongs to the closed set.
func (t Type) Valid() bool {
	_, ok := debtTable[t]
	return ok
}

// Alcoholic reports whether drinking t should trigger an after-alcohol reminder.
func (t Type) Alcoholic() bool {
	switch t {
	case Beer, Wine, Spirits:
		return true
	}
	return false
}

func (t Type) String() string {
	return string(t)
}

// WaterDebtRatio returns the extra water (mL) required per 50 mL of t.
func WaterDebtRatio(t Type) (int, error) {
	ratio, ok := debtTable[t]
	if !ok {
		return 0, &UnknownBeverageError{Type: t}
	}
	return ratio, nil
}

// ExtraWaterFor returns (volume / 50) * WaterDebtRatio(t) using real division.
func ExtraWaterFor(t Type, volume int) (float64, error) {
	ratio, err := WaterDebtRatio(t)
	if err != nil {
		return 0, err
	}
	return float64(volume) / StepVolume * float64(ratio), nil
}

var titler = cases.Title(language.English)

// ParseType resolves user input such as "coffee" or " SPIRITS " to a Type.
func ParseType(s string) (Type, error) {
	t := Type(titler.String(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", &UnknownBeverageError{Type: Type(s)}
	}
	return t, nil
}
