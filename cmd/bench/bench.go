package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"

	"github.com/tomz197/broadphase/internal/broadphase"
	"github.com/tomz197/broadphase/internal/config"
	"github.com/tomz197/broadphase/internal/physics"
	"github.com/tomz197/broadphase/internal/sim"
)

// result summarises one variant's run.
type result struct {
	Kind       broadphase.Kind
	Steps      int
	Total      time.Duration
	Candidates int
	Checks     int
	Contacts   int
	// Missed counts overlapping pairs the index failed to report, checked
	// against a brute-force scan before every step.
	Missed int
}

func (r result) avg(n int) float64 {
	return float64(n) / float64(r.Steps)
}

// run steps a fresh simulation of kind for the given number of steps.
func run(cfg config.Config, kind broadphase.Kind, steps int, logger *log.Logger) (result, error) {
	cfg.Broadphase = kind.String()
	s, err := sim.New(cfg, sim.WithLogger(logger))
	if err != nil {
		return result{}, err
	}

	dt := 1 / float64(cfg.TickRate)
	res := result{Kind: kind, Steps: steps}
	for i := 0; i < steps; i++ {
		res.Missed += missedPairs(s.Index(), s.Bodies())

		st := s.Step(dt)
		res.Total += st.Duration
		res.Candidates += st.Candidates
		res.Checks += st.Checks
		res.Contacts += st.Contacts
	}
	return res, nil
}

// missedPairs counts pairs of bodies whose circles overlap but which no
// query of idx reports in either direction.
func missedPairs(idx broadphase.Index, bodies []*physics.Body) int {
	idx.Update()

	type pair struct{ a, b uint64 }
	found := make(map[pair]struct{})
	var out []*physics.Body
	for _, b := range bodies {
		out = idx.Query(b, out[:0])
		for _, o := range out {
			p := pair{b.ID, o.ID}
			if p.a > p.b {
				p.a, p.b = p.b, p.a
			}
			found[p] = struct{}{}
		}
	}

	missed := 0
	for i, a := range bodies {
		for _, b := range bodies[i+1:] {
			if !physics.CirclesOverlap(a.Position, a.Radius, b.Position, b.Radius) {
				continue
			}
			p := pair{a.ID, b.ID}
			if p.a > p.b {
				p.a, p.b = p.b, p.a
			}
			if _, ok := found[p]; !ok {
				missed++
			}
		}
	}
	return missed
}

// report renders the results as a table. Check counts are also shown
// relative to the naive variant when it was run.
func report(r *lipgloss.Renderer, results []result) string {
	var naiveChecks float64
	for _, res := range results {
		if res.Kind == broadphase.Naive {
			naiveChecks = res.avg(res.Checks)
		}
	}

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		ratio := "-"
		if naiveChecks > 0 {
			ratio = fmt.Sprintf("%.1f%%", 100*res.avg(res.Checks)/naiveChecks)
		}
		rows = append(rows, []string{
			res.Kind.DisplayName(),
			(res.Total / time.Duration(res.Steps)).Round(time.Microsecond).String(),
			fmt.Sprintf("%.0f", res.avg(res.Candidates)),
			fmt.Sprintf("%.0f", res.avg(res.Checks)),
			ratio,
			fmt.Sprintf("%.1f", res.avg(res.Contacts)),
			fmt.Sprint(res.Missed),
		})
	}

	header := r.NewStyle().Bold(true).Padding(0, 1)
	cell := r.NewStyle().Padding(0, 1)
	bad := cell.Foreground(lipgloss.Color("9"))

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.NewStyle().Faint(true)).
		Headers("Variant", "Avg step", "Candidates", "Checks", "vs Naive", "Contacts", "Missed").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case col == 6 && rows[row][col] != "0":
				return bad
			case col > 0:
				return cell.Align(lipgloss.Right)
			}
			return cell
		}).
		Render()
}
