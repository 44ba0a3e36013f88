package tui

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/log"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qroute/internal/sampler"
	"qroute/internal/topology"
)

const far = `
OPENQASM 2.0;
qreg q[3];
creg c[3];
U(pi/2,0,pi) q[0];
CX q[0],q[2];
measure q -> c;
`

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func preview(t *testing.T) (*sampler.Program, Input) {
	t.Helper()
	prog, err := sampler.Compile("far", far)
	require.NoError(t, err)
	in, rec, err := sampler.Trace(prog, topology.Chain(3, false), 1)
	require.NoError(t, err)
	return prog, Input{Title: "far", Circuit: rec, Quantum: in.Quantum()}
}

func TestPadCenter(t *testing.T) {
	assert.Equal(t, "  U  ", padCenter("U", 5))
	assert.Equal(t, " M=1 ", padCenter("M=1", 5))
	assert.Equal(t, "abcde", padCenter("abcdefg", 5))
}

func TestVisibleLenAndOverlay(t *testing.T) {
	styled := "\x1b[1mab\x1b[0mcd"
	assert.Equal(t, 4, visibleLen(styled))
	assert.Equal(t, "aXYd", spliceLineAt("abcd", "XY", 1))
	assert.Equal(t, "ab  XY", spliceLineAt("ab", "XY", 4))

	bg := "....\n....\n...."
	assert.Equal(t, "....\n.##.\n....", overlayAt(bg, "##", 1, 1))
}

func TestRenderCircuit(t *testing.T) {
	_, in := preview(t)
	out := renderCircuit(in.Circuit, 0, 200)

	for _, want := range []string{"hw[0]", "hw[1]", "hw[2]", "×", "●", "⊕", "U", "M="} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "1 routing swaps")

	// every drawn wire line is the same visible width
	var widths []int
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "hw[") {
			widths = append(widths, visibleLen(line))
		}
	}
	require.Len(t, widths, 3)
	assert.Equal(t, widths[0], widths[1])
	assert.Equal(t, widths[1], widths[2])
}

func TestRenderCircuitPaging(t *testing.T) {
	_, in := preview(t)
	n := columnCount(in.Circuit)
	require.Greater(t, n, 2)

	out := renderCircuit(in.Circuit, 1, labelW+cellW)
	assert.Contains(t, out, "showing columns 1–1")
}

func TestLayoutSeparatesCrossingOps(t *testing.T) {
	_, in := preview(t)
	l := newLayout(in.Circuit)
	for col := range l.columns {
		for row := range l.qubits {
			info := l.cellAt(col, row)
			if info.passThrough {
				assert.Nil(t, info.op)
			}
		}
	}
}

func TestRenderHistogram(t *testing.T) {
	res := &sampler.Result{
		Shots:     100,
		Registers: []string{"c"},
		Counts:    map[string]int{"00": 75, "11": 25},
	}
	out := renderHistogram(res, 60)
	lines := strings.Split(out, "\n")
	var bars []string
	for _, l := range lines {
		if strings.HasPrefix(l, "00") || strings.HasPrefix(l, "11") {
			bars = append(bars, l)
		}
	}
	require.Len(t, bars, 2)
	assert.True(t, strings.HasPrefix(bars[0], "00"), "most frequent first")
	assert.Contains(t, bars[0], "75.00%")
	assert.Greater(t, strings.Count(bars[0], "█"), strings.Count(bars[1], "█"))

	assert.Contains(t, renderHistogram(nil, 60), "No outcomes")
}

func TestRenderMapping(t *testing.T) {
	_, in := preview(t)
	out := renderMapping(in.Quantum, &sampler.Result{Program: "far", Topology: "chain3"})
	assert.Contains(t, out, "q[0]")
	assert.Contains(t, out, "→ hw[1]")
	assert.Contains(t, out, "2 of 3 qubits moved")
}

func TestModelLifecycle(t *testing.T) {
	_, in := preview(t)
	var m tea.Model = New(in)

	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Contains(t, m.View(), "Sampling 0/0")

	m, _ = m.Update(progressMsg{Done: 3, Total: 10})
	assert.Contains(t, m.View(), "Sampling 3/10")

	res := &sampler.Result{Program: "far", Topology: "chain3", Shots: 10, Registers: []string{"c"}, Counts: map[string]int{"000": 6, "101": 4}}
	m, _ = m.Update(Done{Result: res})
	d, ok := m.(Model).Outcome()
	require.True(t, ok)
	assert.Same(t, res, d.Result)
	assert.Contains(t, m.View(), "101")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, tabCircuit, m.(Model).tab)
	assert.Contains(t, m.View(), "routing swaps")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	assert.Equal(t, 1, m.(Model).startCol)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Contains(t, m.View(), "qubits moved")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, tabHistogram, m.(Model).tab, "tabs wrap around")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.Contains(t, m.View(), "any key closes")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.False(t, m.(Model).showHelp)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModelShowsFailure(t *testing.T) {
	var m tea.Model = New(Input{Title: "bad"})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.Update(Done{Err: assert.AnError})
	assert.Contains(t, m.View(), "Sampling failed")
}

func TestHelpOverlayStillQuitsOnCtrlC(t *testing.T) {
	_, in := preview(t)
	var m tea.Model = New(in)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	require.True(t, m.(Model).showHelp)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRunReturnsWhenQuitBeforeSamplingEnds(t *testing.T) {
	prog, in := preview(t)
	opts := sampler.Options{
		Topology: topology.Chain(3, false),
		Shots:    1_000_000,
		Workers:  1,
		Seed:     1,
		Logger:   log.NewLogger(log.DiscardHandler()),
	}

	type outcome struct {
		res *sampler.Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := run(context.Background(), prog, opts, in,
			tea.WithInput(strings.NewReader("q")), tea.WithOutput(io.Discard))
		ch <- outcome{res, err}
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			assert.ErrorIs(t, o.err, context.Canceled)
		} else {
			assert.Equal(t, opts.Shots, o.res.Shots)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("run did not return after the dashboard quit")
	}
}
