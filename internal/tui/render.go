package tui

import (
	"fmt"
	"strings"
	"time"

	"qroute/internal/interp"
	"qroute/internal/sampler"
	"qroute/internal/trace"
)

// ──────────────────────────── Rendering helpers ────────────────────────────

// padCenter centres a string within the given width.
func padCenter(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return string([]rune(s)[:width])
	}
	total := width - n
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

// opDisplayName returns the label drawn inside a gate box.
func opDisplayName(op trace.Op) string {
	switch op.Type {
	case trace.OpMeasure:
		return fmt.Sprintf("M=%d", op.Result)
	case trace.OpReset:
		return "|0>"
	default:
		return op.Type
	}
}

// controlSymbol returns the wire symbol for the first qubit of a two-qubit op.
func controlSymbol(opType string) string {
	if opType == trace.OpSwap {
		return "×"
	}
	return "●"
}

// targetSymbol returns the wire symbol for the second qubit of a two-qubit op.
func targetSymbol(opType string) string {
	if opType == trace.OpSwap {
		return "×"
	}
	return "⊕"
}

func styleFor(opType string) func(...string) string {
	if opType == trace.OpSwap {
		return swapStyle.Render
	}
	return gateStyle.Render
}

// ──────────────────────────── Circuit layout ────────────────────────────

type cellRole int

const (
	roleNone cellRole = iota
	roleBox
	roleControl
	roleTarget
)

// cellInfo describes what is drawn where a wire meets a column.
type cellInfo struct {
	op          *trace.Op
	role        cellRole
	passThrough bool // a two-qubit op crosses this wire
	vertAbove   bool
	vertBelow   bool
}

// layout assigns every recorded operation to a drawing column. Operations of
// one time step share a column unless their vertical spans would cross.
type layout struct {
	qubits  []int       // hardware qubits drawn, top to bottom
	row     map[int]int // hardware qubit -> row
	columns [][]trace.Op
}

func newLayout(rec *trace.Recorder) *layout {
	l := &layout{qubits: rec.UsedQubits(), row: make(map[int]int)}
	for i, q := range l.qubits {
		l.row[q] = i
	}
	for _, step := range rec.Layers() {
		var cols [][]trace.Op
		var spans [][][2]int
		for _, op := range step {
			lo, hi := l.span(op)
			placed := false
			for i := range cols {
				if !overlaps(spans[i], lo, hi) {
					cols[i] = append(cols[i], op)
					spans[i] = append(spans[i], [2]int{lo, hi})
					placed = true
					break
				}
			}
			if !placed {
				cols = append(cols, []trace.Op{op})
				spans = append(spans, [][2]int{{lo, hi}})
			}
		}
		l.columns = append(l.columns, cols...)
	}
	return l
}

func (l *layout) span(op trace.Op) (lo, hi int) {
	lo, hi = len(l.qubits), -1
	for _, q := range op.Qubits {
		r := l.row[q]
		lo, hi = min(lo, r), max(hi, r)
	}
	return lo, hi
}

func overlaps(spans [][2]int, lo, hi int) bool {
	for _, s := range spans {
		if lo <= s[1] && s[0] <= hi {
			return true
		}
	}
	return false
}

// cellAt returns what column col draws on row.
func (l *layout) cellAt(col, row int) cellInfo {
	for i := range l.columns[col] {
		op := &l.columns[col][i]
		lo, hi := l.span(*op)
		if row < lo || row > hi {
			continue
		}
		info := cellInfo{op: op, vertAbove: row > lo, vertBelow: row < hi}
		switch {
		case len(op.Qubits) == 1:
			info.role = roleBox
		case l.row[op.Qubits[0]] == row:
			info.role = roleControl
		case l.row[op.Qubits[1]] == row:
			info.role = roleTarget
		default:
			info.op = nil
			info.passThrough = true
		}
		return info
	}
	return cellInfo{}
}

// ──────────────────────────── Cell rendering ────────────────────────────

// renderCell returns 3 lines (top, mid, bot) for a single cell.
// Each line is exactly cellW visual characters wide.
func renderCell(info cellInfo) (top, mid, bot string) {
	emptyRow := strings.Repeat(" ", cellW)
	halfW := cellW / 2
	vertRow := strings.Repeat(" ", halfW) + "│" + strings.Repeat(" ", cellW-halfW-1)
	dashL := (cellW - 1) / 2
	dashR := cellW - dashL - 1

	top, bot = emptyRow, emptyRow
	if info.vertAbove {
		top = vertRow
	}
	if info.vertBelow {
		bot = vertRow
	}

	switch {
	case info.passThrough:
		mid = strings.Repeat("─", dashL) + "┼" + strings.Repeat("─", dashR)

	case info.role == roleControl || info.role == roleTarget:
		sym := controlSymbol(info.op.Type)
		if info.role == roleTarget {
			sym = targetSymbol(info.op.Type)
		}
		render := styleFor(info.op.Type)
		if info.vertAbove {
			top = strings.Repeat(" ", halfW) + render("│") + strings.Repeat(" ", cellW-halfW-1)
		}
		if info.vertBelow {
			bot = strings.Repeat(" ", halfW) + render("│") + strings.Repeat(" ", cellW-halfW-1)
		}
		mid = strings.Repeat("─", dashL) + render(sym) + strings.Repeat("─", dashR)

	case info.role == roleBox:
		margin := (cellW - gateBoxW) / 2
		rightMargin := cellW - margin - gateBoxW
		name := padCenter(opDisplayName(*info.op), gateNameW)
		top = strings.Repeat(" ", margin) + gateStyle.Render("┌"+strings.Repeat("─", gateNameW)+"┐") + strings.Repeat(" ", rightMargin)
		mid = strings.Repeat("─", margin) + gateStyle.Render("┤"+name+"├") + strings.Repeat("─", rightMargin)
		bot = strings.Repeat(" ", margin) + gateStyle.Render("└"+strings.Repeat("─", gateNameW)+"┘") + strings.Repeat(" ", rightMargin)

	default:
		mid = strings.Repeat("─", cellW)
	}
	return
}

// ──────────────────────────── Panels ────────────────────────────

// renderCircuit draws the routed circuit as a wire diagram over the hardware
// qubits it touches, starting at column start and fitting width.
func renderCircuit(rec *trace.Recorder, start, width int) string {
	if rec == nil || rec.Len() == 0 {
		return dimStyle.Render("No physical operations recorded.")
	}
	l := newLayout(rec)
	var sb strings.Builder

	counts := rec.Counts()
	fmt.Fprintf(&sb, "%d ops  depth %d  %s\n\n",
		rec.Len(), rec.Depth(),
		swapStyle.Render(fmt.Sprintf("%d routing swaps", counts[trace.OpSwap])))

	fit := max((width-labelW)/cellW, 1)
	start = max(min(start, len(l.columns)-1), 0)
	end := min(start+fit, len(l.columns))
	if start > 0 || end < len(l.columns) {
		fmt.Fprintf(&sb, "  ◀ showing columns %d–%d of %d ▶\n", start, end-1, len(l.columns))
	}

	header := strings.Repeat(" ", labelW)
	for col := start; col < end; col++ {
		header += dimStyle.Render(padCenter(fmt.Sprintf("%d", col), cellW))
	}
	sb.WriteString(header + "\n")

	for row, q := range l.qubits {
		topLine := strings.Repeat(" ", labelW)
		midLine := qubitLabelStyle.Render(fmt.Sprintf("%-6s", fmt.Sprintf("hw[%d]", q))) + "──"
		botLine := strings.Repeat(" ", labelW)
		for col := start; col < end; col++ {
			top, mid, bot := renderCell(l.cellAt(col, row))
			topLine += top
			midLine += mid
			botLine += bot
		}
		sb.WriteString(topLine + "\n")
		sb.WriteString(midLine + "\n")
		sb.WriteString(botLine + "\n")
	}
	return sb.String()
}

// columnCount is the number of drawing columns rec lays out into.
func columnCount(rec *trace.Recorder) int {
	if rec == nil {
		return 0
	}
	return len(newLayout(rec).columns)
}

// renderHistogram draws one bar per outcome, most frequent first.
func renderHistogram(res *sampler.Result, width int) string {
	if res == nil || len(res.Counts) == 0 {
		return dimStyle.Render("No outcomes.")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d shots  %d outcomes  seed %d  %s\n",
		res.Shots, len(res.Counts), res.Seed, res.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&sb, "registers: %s\n\n", outcomeStyle.Render(strings.Join(res.Registers, " ")))

	outcomes := res.Outcomes()
	keyW := 0
	for _, o := range outcomes {
		keyW = max(keyW, len(o.Key))
	}
	barW := max(width-keyW-20, 10)
	top := outcomes[0].Count
	for _, o := range outcomes {
		n := o.Count * barW / top
		sb.WriteString(outcomeStyle.Render(fmt.Sprintf("%-*s", keyW, o.Key)))
		sb.WriteString(" ")
		sb.WriteString(barStyle.Render(strings.Repeat("█", n)))
		sb.WriteString(dimStyle.Render(strings.Repeat("░", barW-n)))
		fmt.Fprintf(&sb, " %6d %6.2f%%\n", o.Count, 100*res.Probability(o.Key))
	}
	return sb.String()
}

// renderMapping lists where each virtual qubit ended up after routing.
func renderMapping(qregs *interp.QuantumRegisters, res *sampler.Result) string {
	var sb strings.Builder
	if res != nil {
		fmt.Fprintf(&sb, "%s on %s\n\n", titleStyle.Render(res.Program), res.Topology)
	}
	if qregs == nil {
		return sb.String() + dimStyle.Render("No quantum registers.")
	}
	moved := 0
	for _, name := range qregs.Names() {
		size, _ := qregs.Size(name)
		for i := range size {
			v, _ := qregs.VirtualIndex(name, i)
			hw := qregs.HardwareOf(v)
			label := fmt.Sprintf("%s[%d]", name, i)
			line := fmt.Sprintf("%-10s → %s", label, qubitLabelStyle.Render(fmt.Sprintf("hw[%d]", hw)))
			if hw != v {
				moved++
				line += swapStyle.Render(fmt.Sprintf("  (from hw[%d])", v))
			}
			sb.WriteString(line + "\n")
		}
	}
	fmt.Fprintf(&sb, "\n%d of %d qubits moved by routing\n", moved, qregs.Allocated())
	return sb.String()
}

// ──────────────────────────── Overlay helpers ────────────────────────────

// overlayAt composites the overlay string on top of the background at position (x, y).
// It handles ANSI escape sequences by tracking visible column positions.
func overlayAt(bg, overlay string, x, y int) string {
	bgLines := strings.Split(bg, "\n")
	ovLines := strings.Split(overlay, "\n")

	for i, ovLine := range ovLines {
		bgIdx := y + i
		if bgIdx < 0 || bgIdx >= len(bgLines) {
			continue
		}
		bgLines[bgIdx] = spliceLineAt(bgLines[bgIdx], ovLine, x)
	}
	return strings.Join(bgLines, "\n")
}

func isEscEnd(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// spliceLineAt replaces visible columns starting at x in bgLine with overlay.
func spliceLineAt(bgLine, overlay string, x int) string {
	runes := []rune(bgLine)
	ovWidth := visibleLen(overlay)

	var prefix, suffix strings.Builder
	col, i := 0, 0

	// everything up to visible column x, escapes included
	for i < len(runes) && col < x {
		if runes[i] == '\x1b' {
			for i < len(runes) {
				prefix.WriteRune(runes[i])
				i++
				if isEscEnd(runes[i-1]) {
					break
				}
			}
			continue
		}
		prefix.WriteRune(runes[i])
		col++
		i++
	}
	for col < x {
		prefix.WriteRune(' ')
		col++
	}

	// drop ovWidth visible columns of the background
	skipped := 0
	for i < len(runes) && skipped < ovWidth {
		if runes[i] == '\x1b' {
			for i < len(runes) {
				i++
				if isEscEnd(runes[i-1]) {
					break
				}
			}
			continue
		}
		skipped++
		i++
	}

	for ; i < len(runes); i++ {
		suffix.WriteRune(runes[i])
	}
	return prefix.String() + overlay + suffix.String()
}

// visibleLen returns the number of visible (non-ANSI-escape) characters in a string.
func visibleLen(s string) int {
	n := 0
	inEsc := false
	for _, r := range s {
		if r == '\x1b' {
			inEsc = true
			continue
		}
		if inEsc {
			if isEscEnd(r) {
				inEsc = false
			}
			continue
		}
		n++
	}
	return n
}
