package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/sugarlabs/Bridge/config"
	"github.com/sugarlabs/Bridge/game"
	"github.com/sugarlabs/Bridge/input"
	"github.com/sugarlabs/Bridge/session"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

type simulateOpts struct {
	ticks int
	start bool
	demo  bool
	load  string
	save  string
}

func simulateCmd(load func() (config.Config, error)) *cobra.Command {
	var o simulateOpts

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a session headless for a number of ticks and report the outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if o.load == "" {
				o.load = cfg.SessionFile
			}
			out, err := runSimulate(cfg, o)
			if err != nil {
				return err
			}
			cmd.Print(out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&o.ticks, "ticks", "n", 300, "ticks to simulate")
	cmd.Flags().BoolVar(&o.start, "start", false, "send the train (as if space was pressed)")
	cmd.Flags().BoolVar(&o.demo, "demo", false, "build a two-girder bridge before starting")
	cmd.Flags().StringVar(&o.load, "session", "", "session file to load (default from config)")
	cmd.Flags().StringVar(&o.save, "save", "", "write the session here afterwards")
	return cmd
}

func runSimulate(cfg config.Config, o simulateOpts) (string, error) {
	s := session.New(cfg.SessionOptions())
	_ = s.LoadFile(o.load)

	if o.demo {
		for _, ev := range demoBridge(s.Bridge().Layout()) {
			s.Send(ev)
		}
	}
	if o.start {
		s.Send(input.Key(input.KeySpace))
	}

	var stress []float64
	for i := 0; i < o.ticks; i++ {
		s.Tick()
		stress = append(stress, s.Bridge().StressRatio())
	}
	log.Debug("simulation finished", "ticks", s.Ticks())

	if o.save != "" {
		if err := s.SaveFile(o.save); err != nil {
			return "", err
		}
	}
	return report(s, stress), nil
}

// demoBridge lays two girders across the canyon and pins them to both banks
// and to each other.
func demoBridge(l game.Layout) []input.Event {
	y := l.Y(570)
	left, mid, right := l.X(300), l.X(580), l.X(860)
	return []input.Event{
		input.Key(input.KeyB),
		input.Down(left, y), input.Up(mid, y),
		input.Down(mid-l.X(10), y), input.Up(right, y),
		input.Key(input.KeyJ),
		input.Down(left+l.X(10), y), input.Up(left+l.X(10), y),
		input.Down(mid-l.X(5), y), input.Up(mid-l.X(5), y),
		input.Down(right-l.X(5), y), input.Up(right-l.X(5), y),
	}
}

func report(s *session.Session, stress []float64) string {
	br := s.Bridge()
	var b strings.Builder
	b.WriteString(headerStyle.Render("Bridge simulation") + "\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Ticks", fmt.Sprint(s.Ticks()))
	row("Cost", fmt.Sprint(br.Cost))
	row("Capacity", fmt.Sprint(br.Capacity))
	row("Stress", fmt.Sprintf("%.0f%%", br.StressRatio()))
	bodies, joints := s.World().Counts()
	row("Bodies", fmt.Sprint(bodies))
	row("Joints", fmt.Sprint(joints))

	phase := br.Phase()
	style := valueStyle
	switch phase {
	case game.PhaseExited:
		style = goodStyle
	case game.PhaseFallen:
		style = badStyle
	}
	b.WriteString(labelStyle.Render("Phase") + style.Render(phase.String()) + "\n")
	b.WriteString(valueStyle.Render(br.StatusLines()[2]) + "\n")

	if len(stress) > 1 {
		chart := asciigraph.Plot(stress, asciigraph.Height(8), asciigraph.Width(60), asciigraph.Caption("Stress % per tick"))
		b.WriteString(graphStyle.Render(chart) + "\n")
	}
	return b.String()
}
