package sdlt

import (
	"errors"
	"fmt"
	"strings"
)

// Category is the property classification that selects a duty schedule.
type Category string

// Property categories.
const (
	Residential    Category = "Residential"
	NonResidential Category = "Non-Residential"
	MixedUse       Category = "Mixed-Use"
	Land           Category = "Land"
	Exempt         Category = "Exempt"
	ChainBreak     Category = "Chain-Break"
)

// ErrUnknownCategory is returned when a category tag is not recognised.
var ErrUnknownCategory = errors.New("unknown property category")

var categoryAliases = map[string]Category{
	"residential":     Residential,
	"resi":            Residential,
	"non-residential": NonResidential,
	"non-resi":        NonResidential,
	"nonresidential":  NonResidential,
	"mixed-use":       MixedUse,
	"mixed use":       MixedUse,
	"land":            Land,
	"exempt":          Exempt,
	"chain-break":     ChainBreak,
	"chain break":     ChainBreak,
}

// Categories lists every supported category in display order.
func Categories() []Category {
	return []Category{Residential, NonResidential, MixedUse, Land, Exempt, ChainBreak}
}

// ParseCategory maps a tag (case-insensitive, short forms such as "Resi"
// accepted) onto a Category.
func ParseCategory(tag string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(tag))
	if key == "" {
		return "", fmt.Errorf("%w: empty tag", ErrUnknownCategory)
	}
	category, ok := categoryAliases[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, tag)
	}
	return category, nil
}

// IsCommercial reports whether the category uses the non-residential schedule.
func (c Category) IsCommercial() bool {
	return c == NonResidential || c == MixedUse || c == Land
}
