package models

// ContributionDay is a single calendar day in the contribution skeleton.
// Intensity is a display bucket in [0,4].
type ContributionDay struct {
	Date              string `json:"date"` // YYYY-MM-DD
	ContributionCount int    `json:"contributionCount"`
	Intensity         int    `json:"intensity"`
}

// Week holds exactly seven days, Sunday first
type Week struct {
	ContributionDays []*ContributionDay `json:"contributionDays"`
}

// YearData holds the weeks of one calendar year and their rolled-up total
type YearData struct {
	Total int     `json:"total"`
	Weeks []*Week `json:"weeks"`
}

// Skeleton maps a year string ("2016") to its calendar data
type Skeleton map[string]*YearData

// Language is a hand-curated language share shown next to the stats
type Language struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

// SourceStatus reports whether a single source contributed to a result
type SourceStatus struct {
	Source string `json:"source"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// GitStatsData is the aggregated git statistics payload
type GitStatsData struct {
	TotalCommits      int            `json:"totalCommits"`
	YearlyCommits     map[string]int `json:"yearlyCommits"`
	MonthlyCommits    map[string]int `json:"monthlyCommits"`
	TopLanguages      []Language     `json:"topLanguages"`
	TotalPullRequests int            `json:"totalPullRequests"`
	ContributionData  Skeleton       `json:"contributionData"`
	Sources           []SourceStatus `json:"sources"`
}

// Degraded reports whether any source failed to contribute
func (d *GitStatsData) Degraded() bool {
	for _, s := range d.Sources {
		if !s.OK {
			return true
		}
	}
	return false
}
