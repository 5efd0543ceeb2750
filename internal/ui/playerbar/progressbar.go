package playerbar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/ncstream/internal/ui/styles"
)

const (
	filledBlock = "━"
	emptyBlock  = "─"
)

// RenderProgressBar renders a bar with elapsed and total time.
// Format: 1:23  ━━━━━─────  4:56
func RenderProgressBar(position, duration time.Duration, width int) string {
	st := styles.T().S()
	posStr := formatDuration(position)
	durStr := formatDuration(duration)

	barWidth := width - lipgloss.Width(posStr) - lipgloss.Width(durStr) - 4
	if barWidth < 3 {
		// Too narrow for bar, just show times
		return posStr + " / " + durStr
	}

	filled := filledCells(position, duration, barWidth)
	bar := styles.ProgressRamp().Fill(filledBlock, filled, barWidth) +
		st.Subtle.Render(strings.Repeat(emptyBlock, barWidth-filled))

	return posStr + "  " + bar + "  " + durStr
}

func filledCells(position, duration time.Duration, width int) int {
	if duration <= 0 || position <= 0 {
		return 0
	}
	return min(int(float64(width)*float64(position)/float64(duration)), width)
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
