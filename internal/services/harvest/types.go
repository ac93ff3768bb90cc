package harvest

type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type TimeEntry struct {
	ID        int64   `json:"id"`
	SpentDate string  `json:"spent_date"`
	Hours     float64 `json:"hours"`
	Notes     string  `json:"notes"`
	Client    Ref     `json:"client"`
	Project   Ref     `json:"project"`
	Task      Ref     `json:"task"`
	User      Ref     `json:"user"`
}

type Client struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type Project struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Client   Ref    `json:"client"`
	IsActive bool   `json:"is_active"`
}

// Source tells callers whether data came from Harvest or the built-in mock.
type Source string

const (
	SourceHarvest Source = "harvest"
	SourceMock    Source = "mock"
)

type TimeEntryQuery struct {
	From       string // YYYY-MM-DD
	To         string // YYYY-MM-DD
	ClientID   string
	ProjectID  string
	ClientName string // case-insensitive substring match, applied locally
}

type page struct {
	TimeEntries []TimeEntry `json:"time_entries"`
	Clients     []Client    `json:"clients"`
	Projects    []Project   `json:"projects"`
	NextPage    *int        `json:"next_page"`
}
