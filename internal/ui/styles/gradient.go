package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// Ramp is a color scale between two theme colors, blended in HCL.
type Ramp struct {
	from, to colorful.Color
}

// NewRamp builds a ramp. Non-hex colors (ANSI indexes) fall back to gray.
func NewRamp(from, to lipgloss.Color) Ramp {
	return Ramp{from: hexColor(from), to: hexColor(to)}
}

// ProgressRamp runs from the NetEase red at the start of a track to the
// secondary color at its end.
func ProgressRamp() Ramp {
	return NewRamp(T().Primary, T().Secondary)
}

// At returns the color at fraction t, clamped to [0, 1].
func (r Ramp) At(t float64) lipgloss.Color {
	switch {
	case t <= 0:
		return lipgloss.Color(r.from.Hex())
	case t >= 1:
		return lipgloss.Color(r.to.Hex())
	}
	return lipgloss.Color(r.from.BlendHcl(r.to, t).Clamped().Hex())
}

// Fill renders filled cells of a bar total cells wide. Each cell takes
// the color of its place on the whole bar, so the head of the fill shows
// how far into the track playback is.
func (r Ramp) Fill(cell string, filled, total int) string {
	if filled <= 0 || total <= 0 {
		return ""
	}
	filled = min(filled, total)
	var b strings.Builder
	for i := range filled {
		b.WriteString(lipgloss.NewStyle().Foreground(r.cellColor(i, total)).Render(cell))
	}
	return b.String()
}

// Title renders text bold, one ramp step per grapheme cluster.
func (r Ramp) Title(text string) string {
	var clusters []string
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		clusters = append(clusters, gr.Str())
	}
	var b strings.Builder
	for i, c := range clusters {
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(r.cellColor(i, len(clusters))).Render(c))
	}
	return b.String()
}

func (r Ramp) cellColor(i, n int) lipgloss.Color {
	if n < 2 {
		return r.At(0)
	}
	return r.At(float64(i) / float64(n-1))
}

func hexColor(c lipgloss.Color) colorful.Color {
	if col, err := colorful.Hex(string(c)); err == nil {
		return col
	}
	return colorful.Color{R: 0.5, G: 0.5, B: 0.5}
}
