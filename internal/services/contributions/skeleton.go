// Package contributions merges contribution data from remote providers and a
// static private document onto a fixed ten-year calendar.
package contributions

import (
	"strconv"
	"time"

	"github.com/benvon/portfolio-api/internal/models"
)

const (
	// FirstYear is the first year covered by the calendar
	FirstYear = 2016
	// LastYear is the last year covered by the calendar
	LastYear = 2025

	dateLayout = "2006-01-02"
)

// Calendar is a zeroed, week-aligned contribution calendar with a date index.
// Weeks straddling a year boundary belong to both years and share the same
// day values, so a date always resolves to exactly one day.
type Calendar struct {
	years models.Skeleton
	days  map[string]*models.ContributionDay
}

// BuildSkeleton builds the calendar for FirstYear through LastYear. Each year
// holds every Sunday-first week containing at least one of its days.
func BuildSkeleton() *Calendar {
	c := &Calendar{
		years: make(models.Skeleton, LastYear-FirstYear+1),
		days:  make(map[string]*models.ContributionDay),
	}

	start := sundayOnOrBefore(time.Date(FirstYear, time.January, 1, 0, 0, 0, 0, time.UTC))
	end := sundayOnOrBefore(time.Date(LastYear, time.December, 31, 0, 0, 0, 0, time.UTC))

	for y := FirstYear; y <= LastYear; y++ {
		c.years[strconv.Itoa(y)] = &models.YearData{}
	}

	for sunday := start; !sunday.After(end); sunday = sunday.AddDate(0, 0, 7) {
		week := &models.Week{ContributionDays: make([]*models.ContributionDay, 0, 7)}
		years := make(map[int]struct{}, 2)

		for i := range 7 {
			d := sunday.AddDate(0, 0, i)
			day := &models.ContributionDay{Date: d.Format(dateLayout)}
			week.ContributionDays = append(week.ContributionDays, day)
			c.days[day.Date] = day
			years[d.Year()] = struct{}{}
		}

		for y := range years {
			if yd, ok := c.years[strconv.Itoa(y)]; ok {
				yd.Weeks = append(yd.Weeks, week)
			}
		}
	}

	return c
}

func sundayOnOrBefore(t time.Time) time.Time {
	return t.AddDate(0, 0, -int(t.Weekday()))
}

// Skeleton returns the calendar's year data
func (c *Calendar) Skeleton() models.Skeleton {
	return c.years
}

// Day returns the day for an exact YYYY-MM-DD date. Dates whose year is not
// covered by the calendar are not found, including boundary days of the
// neighbouring years.
func (c *Calendar) Day(date string) (*models.ContributionDay, bool) {
	if len(date) < 4 {
		return nil, false
	}
	if _, ok := c.years[date[:4]]; !ok {
		return nil, false
	}
	day, ok := c.days[date]
	return day, ok
}

// Add adds count to the day at date and raises its intensity to at least
// intensity. It reports whether the date was found.
func (c *Calendar) Add(date string, count, intensity int) bool {
	day, ok := c.Day(date)
	if !ok {
		return false
	}
	day.ContributionCount += count
	day.Intensity = max(day.Intensity, clampIntensity(intensity))
	return true
}

// Recompute resets every year's total to the sum of its own days and returns
// the per-month sums keyed YYYY-MM. Boundary days count only toward the year
// they fall in.
func (c *Calendar) Recompute() map[string]int {
	monthly := make(map[string]int, (LastYear-FirstYear+1)*12)

	for year, yd := range c.years {
		yd.Total = 0
		for _, week := range yd.Weeks {
			for _, day := range week.ContributionDays {
				if day.Date[:4] != year {
					continue
				}
				yd.Total += day.ContributionCount
				monthly[day.Date[:7]] += day.ContributionCount
			}
		}
	}

	return monthly
}
