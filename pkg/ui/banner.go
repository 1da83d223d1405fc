package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/Killjoybr/IA-CAI/pkg/defaults"
)

const bannerArt = `
                __                      __
 _      _____  / /_  ____  _________  / /_  ___
| | /| / / _ \/ __ \/ __ \/ ___/ __ \/ __ \/ _ \
| |/ |/ /  __/ /_/ / /_/ / /  / /_/ / /_/ /  __/
|__/|__/\___/_.___/ .___/_/   \____/_.___/\___/
                 /_/
`

// PrintBanner writes the banner and version to w.
func PrintBanner(w io.Writer) {
	r := Renderer(w)
	banner := BannerStyle.Renderer(r)
	for _, line := range strings.Split(bannerArt, "\n") {
		if line != "" {
			fmt.Fprintln(w, banner.Render(line))
		}
	}
	fmt.Fprintf(w, "%27s\n\n", VersionStyle.Renderer(r).Render("v"+defaults.Version))
}

// PrintSection writes a section heading.
func PrintSection(w io.Writer, title string) {
	fmt.Fprintln(w, SectionStyle.Renderer(Renderer(w)).Render(title))
}

// PrintStat writes one "label: value" line.
func PrintStat(w io.Writer, label string, value any) {
	r := Renderer(w)
	fmt.Fprintf(w, "  %s %s\n",
		StatLabelStyle.Renderer(r).Render(label+":"),
		StatValueStyle.Renderer(r).Render(fmt.Sprint(value)))
}

// PrintError writes an error line.
func PrintError(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Renderer(Renderer(w)).Render(Icon("✗", "[!]")), msg)
}
