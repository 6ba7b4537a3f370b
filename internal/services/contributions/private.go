package contributions

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/benvon/portfolio-api/internal/models"
)

//go:embed data/private_contributions.json
var embeddedPrivate []byte

// PrivateSource loads the static private-contributions document, either from
// a file or from the copy compiled into the binary.
type PrivateSource struct {
	path string
}

// NewPrivateSource returns a source reading path, or the embedded document
// when path is empty
func NewPrivateSource(path string) *PrivateSource {
	return &PrivateSource{path: path}
}

// Name returns the source name
func (s *PrivateSource) Name() string {
	return "private"
}

// Path returns the configured file path, empty for the embedded document
func (s *PrivateSource) Path() string {
	return s.path
}

// Load reads, parses and validates the document
func (s *PrivateSource) Load(ctx context.Context) (*models.PrivateContributions, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw := embeddedPrivate
	if s.path != "" {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("read private contributions: %w", err)
		}
		raw = b
	}

	doc, err := ParsePrivateContributions(raw)
	if err != nil {
		return nil, err
	}
	if err := ValidatePrivateContributions(doc); err != nil {
		return nil, fmt.Errorf("invalid private contributions: %w", err)
	}
	return doc, nil
}

// ParsePrivateContributions decodes a private-contributions document.
// Unknown fields are rejected.
func ParsePrivateContributions(raw []byte) (*models.PrivateContributions, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var doc models.PrivateContributions
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode private contributions: %w", err)
	}
	return &doc, nil
}

// ValidatePrivateContributions checks the document's structure and returns
// every problem found, joined
func ValidatePrivateContributions(doc *models.PrivateContributions) error {
	var errs []error

	for year, yd := range doc.ContributionData {
		if !isYear(year) {
			errs = append(errs, fmt.Errorf("contributionData: invalid year key %q", year))
			continue
		}
		if yd == nil {
			errs = append(errs, fmt.Errorf("contributionData[%s]: missing year data", year))
			continue
		}
		for w, week := range yd.Weeks {
			if week == nil {
				errs = append(errs, fmt.Errorf("contributionData[%s].weeks[%d]: missing week", year, w))
				continue
			}
			for d, day := range week.ContributionDays {
				if err := validateDay(day); err != nil {
					errs = append(errs, fmt.Errorf("contributionData[%s].weeks[%d].contributionDays[%d]: %w", year, w, d, err))
				}
			}
		}
	}

	for i, mr := range doc.MergeRequests {
		if !isYear(mr.Year) {
			errs = append(errs, fmt.Errorf("mergeRequests[%d]: invalid year %q", i, mr.Year))
		}
		if mr.TotalMergeRequests < 0 {
			errs = append(errs, fmt.Errorf("mergeRequests[%d]: negative totalMergeRequests", i))
		}
	}

	return errors.Join(errs...)
}

func validateDay(day *models.ContributionDay) error {
	if day == nil {
		return errors.New("missing day")
	}
	if _, err := time.Parse(dateLayout, day.Date); err != nil {
		return fmt.Errorf("invalid date %q", day.Date)
	}
	if day.ContributionCount < 0 {
		return fmt.Errorf("negative contributionCount %d", day.ContributionCount)
	}
	if day.Intensity < 0 || day.Intensity > MaxIntensity {
		return fmt.Errorf("intensity %d out of range", day.Intensity)
	}
	return nil
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil && s[0] != '-' && s[0] != '+'
}
