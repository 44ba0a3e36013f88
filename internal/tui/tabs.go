package tui

import "strings"

type tab int

const (
	tabHistogram tab = iota
	tabCircuit
	tabMapping
)

// tabInfo describes one dashboard page.
type tabInfo struct {
	name string
	hint string
}

var tabs = []tabInfo{
	tabHistogram: {name: "Histogram", hint: "↑↓ Scroll"},
	tabCircuit:   {name: "Routed Circuit", hint: "↑↓ Scroll  h/l Columns"},
	tabMapping:   {name: "Mapping", hint: "↑↓ Scroll"},
}

func (t tab) next() tab { return (t + 1) % tab(len(tabs)) }

func (t tab) prev() tab { return (t + tab(len(tabs)) - 1) % tab(len(tabs)) }

// renderTabs renders the tab bar with the active page highlighted.
func renderTabs(active tab, width int) string {
	var sb strings.Builder
	for i, t := range tabs {
		name := " " + t.name + " "
		if tab(i) == active {
			sb.WriteString(activeTabStyle.Render(name))
		} else {
			sb.WriteString(dimStyle.Render(name))
		}
		if i < len(tabs)-1 {
			sb.WriteString(dimStyle.Render("│"))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(strings.Repeat("─", max(width, 1))))
	return sb.String()
}
