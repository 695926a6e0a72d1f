package web

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/rs/zerolog/log"
)

// renderMarkdown converts model output to HTML. Raw HTML in the input is not
// passed through.
func (s *Server) renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(text), &buf); err != nil {
		log.Warn().Err(err).Msg("Failed to render markdown")
		return template.HTML("<pre>" + template.HTMLEscapeString(text) + "</pre>")
	}
	return template.HTML(buf.String())
}

func formatPercent(f float32) string {
	return fmt.Sprintf("%.0f%%", f*100)
}
