package models

// CalendarDay is a day as reported by the commit calendar provider
type CalendarDay struct {
	Color             string `json:"color"`
	ContributionCount int    `json:"contributionCount"`
	Date              string `json:"date"`
	Weekday           int    `json:"weekday"`
}

// CalendarWeek is a week as reported by the commit calendar provider
type CalendarWeek struct {
	ContributionDays []CalendarDay `json:"contributionDays"`
	FirstDay         string        `json:"firstDay"`
}

// CommitCalendar is one year of the commit calendar provider's data
type CommitCalendar struct {
	Colors             []string       `json:"colors"`
	TotalContributions int            `json:"totalContributions"`
	Weeks              []CalendarWeek `json:"weeks"`
}

// YearCalendar pairs a requested year with its calendar result
type YearCalendar struct {
	Year     string
	Calendar Result[CommitCalendar]
}

// YearPullRequests pairs a requested year with its pull request total
type YearPullRequests struct {
	Year         string
	PullRequests Result[int]
}

// Activity holds per-year counts derived from the push-event/merge-request
// provider. The two collections are fetched independently and can fail
// independently.
type Activity struct {
	Commits       Result[map[string]int]
	MergeRequests Result[map[string]int]
}

// PrivateMergeRequests is a per-year merge request total from the static document
type PrivateMergeRequests struct {
	Year               string `json:"year"`
	TotalMergeRequests int    `json:"totalMergeRequests"`
}

// PrivateContributions is the static private-contributions document
type PrivateContributions struct {
	ContributionData Skeleton               `json:"contributionData"`
	MergeRequests    []PrivateMergeRequests `json:"mergeRequests"`
}
