// Package validation holds the shared validator and query parameter parsers.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// MinYear is the earliest year accepted in queries
const MinYear = 2000

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("contribution_year", validateContributionYear); err != nil {
		panic(fmt.Sprintf("failed to register contribution_year validator: %v", err))
	}
}

// YearsQuery is the validated form of a comma-separated years parameter
type YearsQuery struct {
	Years []string `validate:"required,min=1,max=30,dive,len=4,numeric,contribution_year"`
}

// validateContributionYear accepts years from MinYear up to next year
func validateContributionYear(fl validator.FieldLevel) bool {
	y, err := strconv.Atoi(fl.Field().String())
	if err != nil {
		return false
	}
	return y >= MinYear && y <= time.Now().Year()+1
}

// ParseYears splits a comma-separated list of years, trims and validates
// each entry. An empty raw value is rejected.
func ParseYears(raw string) ([]string, error) {
	var years []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			years = append(years, p)
		}
	}

	q := YearsQuery{Years: years}
	if err := Validate.Struct(q); err != nil {
		return nil, fmt.Errorf("invalid years %q: must be a comma-separated list of 4-digit years between %d and %d", raw, MinYear, time.Now().Year()+1)
	}
	return years, nil
}

// DefaultYears returns every year from first through the current year
func DefaultYears(first int, now time.Time) []string {
	years := make([]string, 0, now.Year()-first+1)
	for y := first; y <= now.Year(); y++ {
		years = append(years, strconv.Itoa(y))
	}
	return years
}
