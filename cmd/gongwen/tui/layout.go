package tuicmder

const (
	// Below this width the sidebar is hidden.
	sidebarMinWindow = 80

	sidebarMin = 18
	sidebarMax = 32

	// ratio is the chat pane's share of the width left after the sidebar.
	defaultRatio = 0.5
	minRatio     = 0.3
	maxRatio     = 0.7
	ratioStep    = 0.05

	headerHeight = 1
	inputHeight  = 3
	footerHeight = 1

	// Each pane draws a one-cell border on every side.
	borderSize = 2

	minBodyHeight = 5
)

// layout holds the outer size of each pane, borders included.
type layout struct {
	Sidebar int
	Chat    int
	Preview int
	Body    int
	Input   int
}

// computeLayout derives every pane size from the window size and the split
// ratio. Pane widths always sum to width.
func computeLayout(width, height int, ratio float64) layout {
	ratio = clampRatio(ratio)

	sidebar := 0
	if width >= sidebarMinWindow {
		sidebar = clampInt(width/5, sidebarMin, sidebarMax)
	}

	rest := max(width-sidebar, 0)
	chat := int(float64(rest) * ratio)

	return layout{
		Sidebar: sidebar,
		Chat:    chat,
		Preview: rest - chat,
		Body:    max(height-headerHeight-(inputHeight+borderSize)-footerHeight, minBodyHeight),
		Input:   max(width, borderSize+1),
	}
}

// inner returns the content size of a pane of outer size n.
func inner(n int) int {
	return max(n-borderSize, 0)
}

func clampRatio(r float64) float64 {
	return min(max(r, minRatio), maxRatio)
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
