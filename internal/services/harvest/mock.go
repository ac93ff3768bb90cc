package harvest

import (
	"strconv"
	"strings"
)

var mockClients = []Client{
	{ID: 1, Name: "BESH RESTAURANT GROUP", IsActive: true},
	{ID: 2, Name: "OCHSNER HEALTH", IsActive: true},
}

var mockProjects = []Project{
	{ID: 1, Name: "Media Relations", Client: Ref{ID: 1, Name: "BESH RESTAURANT GROUP"}, IsActive: true},
	{ID: 2, Name: "Event Planning", Client: Ref{ID: 1, Name: "BESH RESTAURANT GROUP"}, IsActive: true},
	{ID: 3, Name: "Crisis Communications", Client: Ref{ID: 2, Name: "OCHSNER HEALTH"}, IsActive: true},
}

var mockEntries = []TimeEntry{
	{
		ID: 1, SpentDate: "2024-05-15", Hours: 8.5,
		Notes:   "Updated social calendars and posted content",
		Client:  Ref{ID: 1, Name: "BESH RESTAURANT GROUP"},
		Project: Ref{ID: 1, Name: "Media Relations"},
		Task:    Ref{ID: 1, Name: "Social Media Management"},
		User:    Ref{ID: 1, Name: "John Doe"},
	},
	{
		ID: 2, SpentDate: "2024-05-16", Hours: 4.0,
		Notes:   "Coordinated media interviews and logistics",
		Client:  Ref{ID: 1, Name: "BESH RESTAURANT GROUP"},
		Project: Ref{ID: 2, Name: "Event Planning"},
		Task:    Ref{ID: 2, Name: "NOWFE Wine Dinner"},
		User:    Ref{ID: 2, Name: "Jane Smith"},
	},
}

func mockProjectsFor(clientID string) []Project {
	out := make([]Project, 0, len(mockProjects))
	for _, p := range mockProjects {
		if clientID == "" || strconv.FormatInt(p.Client.ID, 10) == clientID {
			out = append(out, p)
		}
	}
	return out
}

// filterEntries applies the query to entries. Dates compare as strings,
// which is sound for YYYY-MM-DD.
func filterEntries(entries []TimeEntry, q TimeEntryQuery) []TimeEntry {
	out := make([]TimeEntry, 0, len(entries))
	name := strings.ToLower(strings.TrimSpace(q.ClientName))
	for _, e := range entries {
		if q.From != "" && e.SpentDate < q.From {
			continue
		}
		if q.To != "" && e.SpentDate > q.To {
			continue
		}
		if q.ClientID != "" && strconv.FormatInt(e.Client.ID, 10) != q.ClientID {
			continue
		}
		if q.ProjectID != "" && strconv.FormatInt(e.Project.ID, 10) != q.ProjectID {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(e.Client.Name), name) {
			continue
		}
		out = append(out, e)
	}
	return out
}
