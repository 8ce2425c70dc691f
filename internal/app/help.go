package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var helpLines = []string{
	"spectralmesh keys",
	"",
	"a/z luma key       s/x z freq     d/c z phase    f/v z amp",
	"g/b x freq         h/n x phase    j/m x amp",
	"k/, y freq         l/. y phase    ;// y amp",
	"t/y center x       u/i center y   o/p zoom",
	"q/w displace x     e/r displace y ]/[ grid density",
	"1 luma invert  2 bright  3 invert  5 greyscale",
	"6/7/8 cycle z/x/y shape",
	"9 vertical  0 horizontal  - triangles  = grid",
	"left/right rotate   up/down audio sensitivity",
	"? help   esc quit",
}

var helpStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#5fafd7")).
	Padding(0, 1)

func helpBox() string {
	return helpStyle.Render(strings.Join(helpLines, "\n"))
}

// overlayHelp replaces the top of the frame with the help box.
func overlayHelp(lines []string, width int) []string {
	box := strings.Split(helpBox(), "\n")
	out := make([]string, len(lines))
	copy(out, lines)
	pad := ""
	if w := lipgloss.Width(box[0]); width > w {
		pad = strings.Repeat(" ", (width-w)/2)
	}
	for i, row := range box {
		if i >= len(out) {
			break
		}
		out[i] = "\x1b[0m\x1b[2K" + pad + row
	}
	return out
}
