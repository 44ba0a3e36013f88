// Package report renders sampling runs and gate definitions for people:
// an HTML page of charts for a run and a text tree of gate expansions.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"qroute/internal/sampler"
	"qroute/internal/topology"
)

const (
	occupiedColor = "#ff9e64"
	idleColor     = "#565f89"
)

// WriteHTML renders res as a page with the outcome histogram and, when topo
// is not nil, the device graph with the final placement of every virtual
// qubit.
func WriteHTML(w io.Writer, res *sampler.Result, topo *topology.Graph) error {
	page := components.NewPage()
	page.AddCharts(Histogram(res))
	if topo != nil {
		page.AddCharts(Placement(res, topo))
	}
	return page.Render(w)
}

// Histogram is a bar chart of outcome counts, most frequent first.
func Histogram(res *sampler.Result) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s on %s", res.Program, res.Topology),
			Subtitle: fmt.Sprintf("%d shots, seed %d, run %s", res.Shots, res.Seed, res.ID),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	outcomes := res.Outcomes()
	keys := make([]string, len(outcomes))
	data := make([]opts.BarData, len(outcomes))
	for i, o := range outcomes {
		keys[i] = o.Key
		data[i] = opts.BarData{Value: o.Count}
	}
	bar.SetXAxis(keys).AddSeries("shots", data)
	return bar
}

// Placement draws topo with the hardware qubits holding a virtual qubit
// after the first shot highlighted.
func Placement(res *sampler.Result, topo *topology.Graph) *charts.Graph {
	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    topo.Name(),
			Subtitle: fmt.Sprintf("%d routing swaps", res.Swaps),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	nodes, links := placementData(res, topo)
	graph.AddSeries("placement", nodes, links).SetSeriesOptions(
		charts.WithGraphChartOpts(opts.GraphChart{
			Force:  &opts.GraphForce{Repulsion: 400, Gravity: 0.2},
			Layout: "force",
			Roam:   opts.Bool(true),
		}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right", Formatter: "{b}"}),
	)
	return graph
}

func placementData(res *sampler.Result, topo *topology.Graph) ([]opts.GraphNode, []opts.GraphLink) {
	holder := make(map[int]int, len(res.Mapping))
	for v, hw := range res.Mapping {
		holder[hw] = v
	}

	nodes := make([]opts.GraphNode, 0, topo.QubitCount())
	for q := range topo.QubitCount() {
		color, tip := idleColor, fmt.Sprintf("hw[%d]: idle", q)
		if v, ok := holder[q]; ok {
			color, tip = occupiedColor, fmt.Sprintf("hw[%d]: virtual qubit %d", q, v)
		}
		nodes = append(nodes, opts.GraphNode{
			Name:  hwName(q),
			Value: float32(len(topo.Neighbors(q))),
			Tooltip: &opts.Tooltip{
				Show:      opts.Bool(true),
				Formatter: types.FuncStr(tip),
			},
			ItemStyle: &opts.ItemStyle{Color: color},
		})
	}

	links := make([]opts.GraphLink, 0, topo.LinkCount())
	for _, l := range topo.Links() {
		links = append(links, opts.GraphLink{Source: hwName(l[0]), Target: hwName(l[1])})
	}
	return nodes, links
}

func hwName(q int) string { return fmt.Sprintf("hw[%d]", q) }
