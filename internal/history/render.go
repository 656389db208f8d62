package history

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// Renderer colours unified diff text for the terminal
type Renderer struct {
	style *chroma.Style
	lexer chroma.Lexer
}

// NewRenderer creates a renderer using the catppuccin-mocha palette
func NewRenderer() *Renderer {
	return &Renderer{
		style: styles.Get("catppuccin-mocha"),
		lexer: lexers.Get("diff"),
	}
}

// Render colours every line of text
func (r *Renderer) Render(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(r.renderLine(line))
		b.WriteByte('\n')
	}
	return b.String()
}

func (r *Renderer) renderLine(line string) string {
	if r.lexer == nil {
		return line
	}

	// The diff lexer matches whole lines including the newline
	iterator, err := r.lexer.Tokenise(nil, line+"\n")
	if err != nil {
		return line
	}

	var result strings.Builder
	for token := iterator(); token != chroma.EOF; token = iterator() {
		text := strings.TrimSuffix(token.Value, "\n")
		if text == "" {
			continue
		}

		entry := r.style.Get(token.Type)
		if !entry.Colour.IsSet() {
			result.WriteString(text)
			continue
		}
		styled := lipgloss.NewStyle().Foreground(lipgloss.Color(entry.Colour.String()))
		if entry.Bold == chroma.Yes {
			styled = styled.Bold(true)
		}
		result.WriteString(styled.Render(text))
	}
	return result.String()
}
