package resume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedFormat reports an input that is neither PDF nor plain text.
var ErrUnsupportedFormat = errors.New("unsupported resume format")

// pdfToText is the external converter; tests replace it.
var pdfToText = func(ctx context.Context, path string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

var (
	blankRuns = regexp.MustCompile(`\n{3,}`)
	spaceRuns = regexp.MustCompile(`[ \t\f\v]+`)
)

// ExtractText returns the text of a PDF or plain-text resume. The format is
// detected from content, not from the file name.
func ExtractText(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read resume source: %w", err)
	}

	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("application/pdf"):
		out, err := pdfToText(ctx, path)
		if err != nil {
			return "", fmt.Errorf("extract pdf text from %s: %w", path, err)
		}
		return cleanText(string(out)), nil
	case strings.HasPrefix(mtype.String(), "text/"):
		return cleanText(string(data)), nil
	default:
		return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, path, mtype.String())
	}
}

// cleanText collapses horizontal whitespace and long runs of blank lines.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRuns.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	return strings.TrimSpace(blankRuns.ReplaceAllString(text, "\n\n"))
}
