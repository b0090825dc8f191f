package contextbundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bugscope/backend/internal/models"
)

// assembleFallback builds a line-window bundle when chunking came up short:
// stack-trace-referenced files get a guttered window around the referenced
// line with the exact line marked, remaining files get a raw prefix.
func (b *Builder) assembleFallback(candidates []models.FileCandidate, locations []models.ErrorLocation) Bundle {
	bundle := Bundle{FromFallback: true}
	var sb strings.Builder

	lineFor := func(path string) (int, bool) {
		base := filepath.Base(path)
		for _, loc := range locations {
			if loc.File == base {
				return loc.Line, true
			}
		}
		return 0, false
	}

	for _, candidate := range candidates {
		if len(bundle.Files) >= b.MaxFiles || sb.Len() >= b.MaxChars {
			bundle.Truncated = true
			break
		}

		var section string
		if line, ok := lineFor(candidate.Path); ok && line > 0 {
			section = lineWindow(candidate.Path, line)
		} else {
			section = rawPrefix(candidate.Path)
		}
		if section == "" {
			continue
		}

		block := fmt.Sprintf("// File: %s\n%s\n", candidate.Path, section)
		if sb.Len()+len(block) > b.MaxChars {
			bundle.Truncated = true
			break
		}
		sb.WriteString(block)
		bundle.Files = append(bundle.Files, candidate.Path)
	}

	bundle.Text = sb.String()
	return bundle
}

// lineWindow renders ±fallbackWindow lines around center with a number
// gutter and an inline marker on the referenced line. Unreadable files
// yield "".
func lineWindow(path string, center int) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")

	start := center - fallbackWindow
	if start < 1 {
		start = 1
	}
	end := center + fallbackWindow
	if end > len(lines) {
		end = len(lines)
	}

	var sb strings.Builder
	for n := start; n <= end; n++ {
		marker := "    "
		if n == center {
			marker = ">>> "
		}
		fmt.Fprintf(&sb, "%s%4d | %s\n", marker, n, lines[n-1])
	}
	return sb.String()
}

func rawPrefix(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	if len(data) > fallbackRawPrefixCap {
		data = data[:fallbackRawPrefixCap]
	}
	return string(data)
}
