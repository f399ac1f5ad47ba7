package snowcam

import (
	"fmt"
	"html/template"
	"image"
	"os"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
)

// FrameToANSI renders img as cols columns of 24-bit color half blocks.
// Every character cell shows two pixels: the top one as foreground of "▀"
// and the bottom one as background. Lines end with a reset.
func FrameToANSI(img image.Image, cols int) string {
	b := img.Bounds()
	if cols < 1 || b.Empty() {
		return ""
	}
	rows := (cols*b.Dy()/b.Dx() + 1) / 2
	if rows < 1 {
		rows = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)

	var sb strings.Builder
	sb.Grow(rows * cols * 24)
	for row := 0; row < rows; row++ {
		var last string
		for x := 0; x < cols; x++ {
			top := scaled.RGBAAt(x, row*2)
			bottom := scaled.RGBAAt(x, row*2+1)
			sgr := fmt.Sprintf("\x1b[38;2;%d;%d;%d;48;2;%d;%d;%dm",
				top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
			if sgr != last {
				sb.WriteString(sgr)
				last = sgr
			}
			sb.WriteString("▀")
		}
		sb.WriteString("\x1b[0m\n")
	}
	return sb.String()
}

// ConvertANSIToTerminalHTML reads an ANSI file and prepares it for the
// report's terminal view.
func ConvertANSIToTerminalHTML(ansiPath string) (template.HTML, error) {
	ansiBytes, err := os.ReadFile(ansiPath)
	if err != nil {
		return "", fmt.Errorf("failed to read ANSI file: %w", err)
	}

	ansiContent := extractANSIContent(string(ansiBytes))
	if ansiContent == "" {
		return template.HTML(`<div style="color: #666;">No terminal output at this point</div>`), nil
	}
	return template.HTML(convertANSIToHTML(ansiContent)), nil
}

// sgrState is the text style selected by SGR sequences.
type sgrState struct {
	color      string
	background string
	bold       bool
	italic     bool
}

func (s sgrState) style() string {
	var parts []string
	if s.color != "" {
		parts = append(parts, "color: "+s.color+";")
	}
	if s.background != "" {
		parts = append(parts, "background: "+s.background+";")
	}
	if s.bold {
		parts = append(parts, "font-weight: bold;")
	}
	if s.italic {
		parts = append(parts, "font-style: italic;")
	}
	return strings.Join(parts, " ")
}

// convertANSIToHTML converts ANSI text into HTML spans. SGR sequences
// change the style, other escape sequences (cursor movement, clears) are
// dropped, and text is HTML-escaped.
func convertANSIToHTML(ansiText string) string {
	var result strings.Builder
	var state sgrState
	open := false

	for i := 0; i < len(ansiText); {
		char := ansiText[i]

		switch {
		case char == '\r':
			i++
		case char == '\n':
			result.WriteString("<br>")
			i++
		case char == '\x1b' && i+1 < len(ansiText) && ansiText[i+1] == '[':
			i += 2
			start := i
			for i < len(ansiText) && !isFinalByte(ansiText[i]) {
				i++
			}
			if i >= len(ansiText) {
				break
			}
			params, final := ansiText[start:i], ansiText[i]
			i++
			if final != 'm' {
				continue
			}

			state = applySGR(state, params)
			if open {
				result.WriteString("</span>")
				open = false
			}
			if style := state.style(); style != "" {
				result.WriteString(`<span style="` + style + `">`)
				open = true
			}
		default:
			switch char {
			case '<':
				result.WriteString("&lt;")
			case '>':
				result.WriteString("&gt;")
			case '&':
				result.WriteString("&amp;")
			default:
				result.WriteByte(char)
			}
			i++
		}
	}

	if open {
		result.WriteString("</span>")
	}
	return result.String()
}

func isFinalByte(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// applySGR folds one "params m" sequence into state.
func applySGR(state sgrState, params string) sgrState {
	if params == "" {
		return sgrState{}
	}
	codes := strings.Split(params, ";")
	for i := 0; i < len(codes); i++ {
		code, err := strconv.Atoi(codes[i])
		if err != nil {
			continue
		}
		switch {
		case code == 0:
			state = sgrState{}
		case code == 1:
			state.bold = true
		case code == 3:
			state.italic = true
		case code == 22:
			state.bold = false
		case code == 23:
			state.italic = false
		case code >= 30 && code <= 37:
			state.color = xtermColor(code - 30)
		case code >= 90 && code <= 97:
			state.color = xtermColor(code - 90 + 8)
		case code == 39:
			state.color = ""
		case code >= 40 && code <= 47:
			state.background = xtermColor(code - 40)
		case code >= 100 && code <= 107:
			state.background = xtermColor(code - 100 + 8)
		case code == 49:
			state.background = ""
		case code == 38 || code == 48:
			color, used := extendedColor(codes[i+1:])
			i += used
			if color == "" {
				continue
			}
			if code == 38 {
				state.color = color
			} else {
				state.background = color
			}
		}
	}
	return state
}

// extendedColor parses the arguments after 38 or 48: "5;n" or "2;r;g;b".
// It returns the CSS color and how many arguments it consumed.
func extendedColor(args []string) (string, int) {
	if len(args) == 0 {
		return "", 0
	}
	switch args[0] {
	case "5":
		if len(args) < 2 {
			return "", len(args)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 || n > 255 {
			return "", 2
		}
		return xtermColor(n), 2
	case "2":
		if len(args) < 4 {
			return "", len(args)
		}
		var rgb [3]int
		for j := range rgb {
			v, err := strconv.Atoi(args[j+1])
			if err != nil || v < 0 || v > 255 {
				return "", 4
			}
			rgb[j] = v
		}
		return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2]), 4
	}
	return "", 1
}

// terminalPalette overrides xterm colors used by the lipgloss status bar
// so they read well on the report's dark background.
var terminalPalette = map[int]string{
	39:  "#58a6ff",
	240: "#7d8590",
	244: "#6e7681",
	246: "#8b949e",
	255: "#ffffff",
}

var basicColors = [16]string{
	"#000000", "#cd3131", "#0dbc79", "#e5e510", "#2472c8", "#bc3fbc", "#11a8cd", "#e5e5e5",
	"#666666", "#f14c4c", "#23d18b", "#f5f543", "#3b8eea", "#d670d6", "#29b8db", "#ffffff",
}

// xtermColor returns the CSS color of a 256-color palette index.
func xtermColor(n int) string {
	if c, ok := terminalPalette[n]; ok {
		return c
	}
	switch {
	case n < 16:
		return basicColors[n]
	case n < 232:
		levels := [6]int{0, 95, 135, 175, 215, 255}
		n -= 16
		return fmt.Sprintf("#%02x%02x%02x", levels[n/36], levels[(n/6)%6], levels[n%6])
	default:
		g := 8 + 10*(n-232)
		return fmt.Sprintf("#%02x%02x%02x", g, g, g)
	}
}

// escapeForHTML escapes ANSI content for a data attribute, keeping the
// escape sequences themselves intact.
func escapeForHTML(content string) string {
	content = strings.ReplaceAll(content, "&", "&amp;") // Must be first
	content = strings.ReplaceAll(content, "\"", "&#34;")
	content = strings.ReplaceAll(content, "'", "&#39;")
	content = strings.ReplaceAll(content, "<", "&lt;")
	content = strings.ReplaceAll(content, ">", "&gt;")
	content = strings.ReplaceAll(content, "\n", `\n`)
	content = strings.ReplaceAll(content, "\r", `\r`)
	return content
}

// extractANSIContent drops "#" metadata header lines.
func extractANSIContent(content string) string {
	lines := strings.Split(content, "\n")
	var ansiLines []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		ansiLines = append(ansiLines, line)
	}
	return strings.TrimSpace(strings.Join(ansiLines, "\n"))
}
