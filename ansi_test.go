package snowcam

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConvertANSIToHTML_BasicCases tests simple ANSI to HTML conversion
func TestConvertANSIToHTML_BasicCases(t *testing.T) {
	t.Run("Plain text without ANSI", func(t *testing.T) {
		assert.Equal(t, "Hello world", convertANSIToHTML("Hello world"))
	})

	t.Run("Basic color reset", func(t *testing.T) {
		input := "\x1b[1;38;5;39mBlue text\x1b[0m normal"
		expected := `<span style="color: #58a6ff; font-weight: bold;">Blue text</span> normal`
		assert.Equal(t, expected, convertANSIToHTML(input))
	})

	t.Run("Simple newline conversion", func(t *testing.T) {
		assert.Equal(t, "Line 1<br>Line 2", convertANSIToHTML("Line 1\nLine 2"))
	})

	t.Run("Text is escaped", func(t *testing.T) {
		assert.Equal(t, "&lt;b&gt; &amp; co", convertANSIToHTML("<b> & co"))
	})
}

// TestConvertANSIToHTML_Colors tests different ANSI color sequences
func TestConvertANSIToHTML_Colors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"Gray text color",
			"\x1b[38;5;240mGray text\x1b[0m",
			`<span style="color: #7d8590;">Gray text</span>`,
		},
		{
			"Bold white text",
			"\x1b[1;38;5;255mBold white\x1b[0m",
			`<span style="color: #ffffff; font-weight: bold;">Bold white</span>`,
		},
		{
			"Italic text",
			"\x1b[3;38;5;244mItalic comment\x1b[0m",
			`<span style="color: #6e7681; font-style: italic;">Italic comment</span>`,
		},
		{
			"Bright green from the 256 color cube",
			"\x1b[1;38;5;78mFound\x1b[0m",
			`<span style="color: #5fd787; font-weight: bold;">Found</span>`,
		},
		{
			"Basic foreground and background",
			"\x1b[31;44mx\x1b[0m",
			`<span style="color: #cd3131; background: #2472c8;">x</span>`,
		},
		{
			"Truecolor half block",
			"\x1b[38;2;255;128;0;48;2;0;0;16m▀\x1b[0m",
			`<span style="color: #ff8000; background: #000010;">▀</span>`,
		},
		{
			"Grayscale ramp",
			"\x1b[38;5;232mdark\x1b[0m",
			`<span style="color: #080808;">dark</span>`,
		},
		{
			"Style changes close the previous span",
			"\x1b[31ma\x1b[1mb\x1b[22;39mc",
			`<span style="color: #cd3131;">a</span><span style="color: #cd3131; font-weight: bold;">b</span>c`,
		},
		{
			"Unterminated span is closed",
			"\x1b[92mtail",
			`<span style="color: #23d18b;">tail</span>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, convertANSIToHTML(tt.input))
		})
	}
}

// TestConvertANSIToHTML_CursorMovement tests cursor sequence removal
func TestConvertANSIToHTML_CursorMovement(t *testing.T) {
	t.Run("Remove cursor movements", func(t *testing.T) {
		input := "Text\x1b[AUp\x1b[BDown\x1b[CRight\x1b[DLeft"
		assert.Equal(t, "TextUpDownRightLeft", convertANSIToHTML(input))
	})

	t.Run("Remove clear sequences", func(t *testing.T) {
		input := "Before\x1b[JClear\x1b[2KLine\x1b[HHome"
		assert.Equal(t, "BeforeClearLineHome", convertANSIToHTML(input))
	})

	t.Run("Remove carriage returns", func(t *testing.T) {
		input := "Text\rwith\rcarriage\rreturns"
		assert.Equal(t, "Textwithcarriagereturns", convertANSIToHTML(input))
	})
}

// TestExtractANSIContent tests metadata filtering
func TestExtractANSIContent(t *testing.T) {
	t.Run("Pure ANSI content", func(t *testing.T) {
		assert.Equal(t, "Hello world", extractANSIContent("Hello world"))
	})

	t.Run("Filter out metadata comments", func(t *testing.T) {
		assert.Equal(t, "Actual content", extractANSIContent("# This is metadata\nActual content"))
	})

	t.Run("Empty content after filtering", func(t *testing.T) {
		assert.Equal(t, "", extractANSIContent("# Only metadata\n# More metadata"))
	})

	t.Run("Final frame header", func(t *testing.T) {
		input := "# snowman final frame after 1503 redraws\n\x1b[38;2;1;2;3;48;2;4;5;6m▀\x1b[0m\n"
		assert.Equal(t, "\x1b[38;2;1;2;3;48;2;4;5;6m▀\x1b[0m", extractANSIContent(input))
	})

	t.Run("Preserve empty lines", func(t *testing.T) {
		assert.Equal(t, "Line 1\n\nLine 3", extractANSIContent("Line 1\n\nLine 3"))
	})
}

func TestFrameToANSI(t *testing.T) {
	t.Run("two colors stacked", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				c := color.RGBA{255, 0, 0, 255}
				if y >= 2 {
					c = color.RGBA{0, 0, 255, 255}
				}
				img.SetRGBA(x, y, c)
			}
		}

		out := FrameToANSI(img, 4)
		lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
		require.Len(t, lines, 2)
		for _, line := range lines {
			assert.Equal(t, 4, strings.Count(line, "▀"))
			assert.True(t, strings.HasSuffix(line, "\x1b[0m"))
			assert.Equal(t, 2, strings.Count(line, "\x1b["), "one color switch per run plus the reset")
		}
		assert.True(t, strings.HasPrefix(lines[0], "\x1b[38;2;255;0;0;48;2;255;0;0m"))
		assert.True(t, strings.HasPrefix(lines[1], "\x1b[38;2;0;0;255;48;2;0;0;255m"))
	})

	t.Run("rows follow the aspect ratio", func(t *testing.T) {
		out := FrameToANSI(image.NewRGBA(image.Rect(0, 0, 500, 500)), 80)
		assert.Equal(t, 40, strings.Count(out, "\n"))
		assert.Equal(t, 80*40, strings.Count(out, "▀"))
	})

	t.Run("degenerate input", func(t *testing.T) {
		assert.Empty(t, FrameToANSI(image.NewRGBA(image.Rect(0, 0, 4, 4)), 0))
		assert.Empty(t, FrameToANSI(image.NewRGBA(image.Rectangle{}), 10))
	})
}

// TestConvertANSIToTerminalHTML tests file handling
func TestConvertANSIToTerminalHTML(t *testing.T) {
	t.Run("File not found", func(t *testing.T) {
		result, err := ConvertANSIToTerminalHTML("/nonexistent/file.ans")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read ANSI file")
		assert.Empty(t, result)
	})

	t.Run("Empty content returns placeholder", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.ans")
		require.NoError(t, os.WriteFile(path, []byte("# header only\n"), 0644))

		result, err := ConvertANSIToTerminalHTML(path)
		assert.NoError(t, err)
		assert.Contains(t, string(result), "No terminal output at this point")
	})

	t.Run("Frame content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "final.ans")
		require.NoError(t, os.WriteFile(path, []byte("# take\n\x1b[38;2;0;255;0;48;2;0;255;0m▀▀\x1b[0m\n"), 0644))

		result, err := ConvertANSIToTerminalHTML(path)
		require.NoError(t, err)
		assert.Equal(t, `<span style="color: #00ff00; background: #00ff00;">▀▀</span>`, string(result))
	})
}
