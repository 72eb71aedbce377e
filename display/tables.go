package display

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/slotgrid/am"
	"github.com/teranos/slotgrid/rules"
	"github.com/teranos/slotgrid/schedule"
	"github.com/teranos/slotgrid/solver"
	"github.com/teranos/slotgrid/store"
	"github.com/teranos/slotgrid/sym"
)

// Status renders a solve status with its glyph and color
func Status(s solver.Status) string {
	switch {
	case s.HasSolution():
		return pterm.Green(sym.OK + " " + s.String())
	case s == solver.StatusInfeasible:
		return pterm.Red(sym.Infeasible + " " + s.String())
	default:
		return pterm.Yellow(sym.Unknown + " " + s.String())
	}
}

// SolutionTable renders one row per assignment with 1-based coordinates,
// matching the PHASE_n / PIPELINE_n / ROUND_n numbering of rule text
func SolutionTable(sol *schedule.Solution) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Status(sol.Status), sol.Layout)
	if len(sol.Assignments) == 0 {
		return b.String()
	}

	data := pterm.TableData{{"Resource", "Slot", "Round", "Pipeline", "Phase"}}
	for _, a := range sol.Assignments {
		data = append(data, []string{
			"RESOURCE_" + strconv.Itoa(a.Resource),
			strconv.Itoa(a.Slot),
			strconv.Itoa(a.Coord.Round + 1),
			strconv.Itoa(a.Coord.Pipeline + 1),
			strconv.Itoa(a.Coord.Phase + 1),
		})
	}
	b.WriteString(render(data))
	return b.String()
}

// StatsLine summarises solver statistics and model size
func StatsLine(sol *schedule.Solution) string {
	return fmt.Sprintf("variables=%d constraints=%d rules=%d conflicts=%d branches=%d wall=%s",
		sol.Build.Variables, sol.Build.Constraints, sol.Build.Rules,
		sol.Stats.Conflicts, sol.Stats.Branches, sol.Stats.WallTime.Round(time.Microsecond))
}

// RunsTable renders recorded runs, most recent first
func RunsTable(runs []store.Run) string {
	if len(runs) == 0 {
		return "No runs recorded yet\n"
	}
	data := pterm.TableData{{"ID", "Created", "Source", "Backend", "Status", "Grid", "Resources", "Rules", "Wall"}}
	for _, r := range runs {
		data = append(data, []string{
			shortID(r.ID),
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Source,
			r.Backend,
			r.Status.String(),
			fmt.Sprintf("%d×%d×%d", r.Layout.Pipelines, r.Layout.Phases, r.Layout.Rounds),
			strconv.Itoa(r.Resources),
			strconv.Itoa(r.Rules),
			r.WallTime.String(),
		})
	}
	return render(data)
}

// TokensTable renders lexed tokens with their 1-based line and column
func TokensTable(tokens []rules.Token) string {
	data := pterm.TableData{{"Token", "Text", "Line", "Column"}}
	for _, t := range tokens {
		name := "operator"
		if t.Type == rules.TokenIdent {
			name = t.Entity.Kind.TokenName()
		}
		data = append(data, []string{
			name,
			t.Text,
			strconv.Itoa(t.Range.Start.Line),
			strconv.Itoa(t.Range.Start.Character + 1),
		})
	}
	return render(data)
}

// SettingsTable renders every effective setting with its source
func SettingsTable(ci *am.ConfigIntrospection) string {
	data := pterm.TableData{{"Key", "Value", "Source"}}
	for _, s := range ci.Settings {
		source := string(s.Source)
		if s.SourcePath != "" {
			source += " (" + s.SourcePath + ")"
		}
		value := fmt.Sprint(s.Value)
		if len(value) > 60 {
			value = value[:57] + "..."
		}
		data = append(data, []string{s.Key, strings.ReplaceAll(value, "\n", " "), source})
	}
	return render(data)
}

func render(data pterm.TableData) string {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Sprint(data)
	}
	return out + "\n"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
