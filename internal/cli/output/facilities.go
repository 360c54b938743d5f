package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/snfsearch/internal/models"
	"github.com/leapstack-labs/snfsearch/internal/state"
	"github.com/leapstack-labs/snfsearch/internal/store"
)

// Facilities renders ranked search results for zip.
func (r *Renderer) Facilities(zip string, providers []*models.Provider) error {
	if done, err := Structured(r, providers); done {
		return err
	}

	r.Println(r.styles.Header.Render(fmt.Sprintf("Facilities near %s", zip)))
	if len(providers) == 0 {
		r.Println(r.styles.Muted.Render("(no matching facilities)"))
		return nil
	}

	titleCaser := cases.Title(language.English)

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Provider", "Name", "City", "State", "Zip", "Rating", "Deficiencies", "Penalties", "Distance", "Score"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Rating", Align: text.AlignRight},
		{Name: "Deficiencies", Align: text.AlignRight},
		{Name: "Penalties", Align: text.AlignRight},
		{Name: "Distance", Align: text.AlignRight},
		{Name: "Score", Align: text.AlignRight},
	})

	for i, p := range providers {
		t.AppendRow(table.Row{
			i + 1,
			p.Num,
			titleCaser.String(strings.ToLower(p.Name)),
			titleCaser.String(strings.ToLower(p.City)),
			p.State,
			p.Zip,
			p.OverallRating,
			p.NumDeficiencies,
			p.NumPenalties,
			formatDistance(p),
			formatFloat(p.Score),
		})
	}
	t.Render()
	r.Println(r.styles.Muted.Render(fmt.Sprintf("(%d facilities)", len(providers))))
	return nil
}

func formatDistance(p *models.Provider) string {
	if p.Distance == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f %s", *p.Distance, p.DistanceUnit)
}

func formatFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

// LoadSummary is the result of a load command.
type LoadSummary struct {
	RunID         string              `json:"run_id" yaml:"run_id"`
	Target        string              `json:"target" yaml:"target"`
	Tables        []store.TableResult `json:"tables" yaml:"tables"`
	state.Outcome `yaml:",inline"`
}

// Load renders the summary of a load.
func (r *Renderer) Load(s LoadSummary) error {
	if done, err := Structured(r, []LoadSummary{s}); done {
		return err
	}

	r.Println(r.styles.Header.Render(fmt.Sprintf("Loaded %s", s.Target)))
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Rows"})
	for _, tr := range s.Tables {
		t.AppendRow(table.Row{tr.Table, tr.Rows})
	}
	t.Render()

	r.Printf("Run:               %s\n", s.RunID)
	r.Printf("Cast fallbacks:    %d\n", s.CastFallbacks)
	r.Printf("Unknown penalties: %d\n", s.UnknownPenalties)
	return nil
}

// Runs renders the load-run ledger.
func (r *Renderer) Runs(runs []*state.Run) error {
	if done, err := Structured(r, runs); done {
		return err
	}

	if len(runs) == 0 {
		r.Println(r.styles.Muted.Render("(no runs)"))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Target", "Status", "Started", "Duration", "Rows", "Fallbacks", "Unknown Penalties"})

	for _, run := range runs {
		var rows int64
		for _, tc := range run.Tables {
			rows += tc.Rows
		}
		id := run.ID
		if len(id) > 8 {
			id = id[:8]
		}
		duration := "-"
		if run.CompletedAt != nil {
			duration = run.Duration().Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{
			id,
			run.Target,
			r.statusStyle(run.Status).Render(string(run.Status)),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			duration,
			rows,
			run.CastFallbacks,
			run.UnknownPenalties,
		})
	}
	t.Render()
	return nil
}

func (r *Renderer) statusStyle(s state.RunStatus) lipgloss.Style {
	switch s {
	case state.RunStatusCompleted:
		return r.styles.Success
	case state.RunStatusFailed:
		return r.styles.Error
	default:
		return r.styles.Warning
	}
}
