package drafting

import (
	"sort"
	"strings"

	"reportflow/internal/models"
)

// Group is the time spent on one project/task pair.
type Group struct {
	Project    string
	Task       string
	TotalHours float64
	Notes      []string
}

// Summarize groups entries by project and task, keeping first-seen order.
func Summarize(entries []models.HarvestEntry) []Group {
	idx := map[string]int{}
	var groups []Group
	for _, e := range entries {
		key := e.ProjectName + "\x00" + e.TaskName
		i, ok := idx[key]
		if !ok {
			i = len(groups)
			idx[key] = i
			groups = append(groups, Group{Project: e.ProjectName, Task: e.TaskName})
		}
		groups[i].TotalHours += e.Hours
		if n := strings.TrimSpace(e.Notes); n != "" {
			groups[i].Notes = append(groups[i].Notes, n)
		}
	}
	return groups
}

func totalHours(groups []Group) float64 {
	var t float64
	for _, g := range groups {
		t += g.TotalHours
	}
	return t
}

func projects(groups []Group) []string {
	seen := map[string]bool{}
	var out []string
	for _, g := range groups {
		if !seen[g.Project] {
			seen[g.Project] = true
			out = append(out, g.Project)
		}
	}
	sort.Strings(out)
	return out
}
