package shell

// Charts is the charting handle handed to every dashboard view at
// construction time.
type Charts interface {
	// Library names the chart library the client loads to draw panels.
	Library() string
}

// ChartLibrary is a Charts naming a client-side chart library.
type ChartLibrary string

// Library implements Charts.
func (c ChartLibrary) Library() string { return string(c) }

// DefaultCharts is the chart library used when none is injected.
const DefaultCharts ChartLibrary = "echarts"

// View is a dashboard page or layout. The router treats it as opaque.
type View struct {
	Name   string
	Title  string
	Panels []string
	Charts Charts
}

// Layout is the frame shared by all dashboard pages.
func Layout(charts Charts) *View {
	return &View{
		Name:   "Layout",
		Title:  "Evaluation Dashboard",
		Charts: charts,
	}
}

// AccuracyAnalysis is the model accuracy page.
func AccuracyAnalysis(charts Charts) *View {
	return &View{
		Name:   "AccuracyAnalysis",
		Title:  "Accuracy Analysis",
		Panels: []string{"accuracy-trend", "confusion-matrix", "per-class-accuracy"},
		Charts: charts,
	}
}

// SystemPerformance is the system performance page.
func SystemPerformance(charts Charts) *View {
	return &View{
		Name:   "SystemPerformance",
		Title:  "System Performance",
		Panels: []string{"latency", "throughput", "resource-usage"},
		Charts: charts,
	}
}
