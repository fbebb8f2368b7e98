// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
)

const markdownWidth = 80

// renderMarkdown renders md with glamour. Output that is not a terminal
// gets the plain "notty" style so scripts see stable text.
func renderMarkdown(w io.Writer, md string) error {
	styleOpt := glamour.WithStandardStyle("notty")
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		styleOpt = glamour.WithAutoStyle()
	}

	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(markdownWidth))
	if err != nil {
		return err
	}

	out, err := renderer.Render(md)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}
