package mutator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// DefaultMarkerPrefix is used when a Block carries no prefix of its own.
const DefaultMarkerPrefix = "hostkit_auto"

const defaultFileMode fs.FileMode = 0o644

// Block is a named region of a line-oriented file delimited by marker lines.
// The content between the markers is owned by the block and replaced
// wholesale every time it is applied.
type Block struct {
	ID      string
	Prefix  string
	Content []string
}

func (b Block) prefix() string {
	if b.Prefix == "" {
		return DefaultMarkerPrefix
	}
	return b.Prefix
}

// BeginMarker returns the line that opens the block.
func (b Block) BeginMarker() string {
	return fmt.Sprintf("# %s begin %s", b.prefix(), b.ID)
}

// EndMarker returns the line that closes the block.
func (b Block) EndMarker() string {
	return fmt.Sprintf("# %s end %s", b.prefix(), b.ID)
}

// MergeBlock returns contents with b applied. The first end marker line
// that follows a begin marker line closes the block opened by the nearest
// begin marker before it, and the lines between them are replaced; without
// such a pair the block is appended after a blank line. An unclosed begin
// marker is left in place as ordinary text.
//
// Markers must match whole lines exactly. Applying the same block twice
// yields the same text as applying it once.
func MergeBlock(contents string, b Block) string {
	begin, end := b.BeginMarker(), b.EndMarker()
	lines := strings.Split(contents, "\n")

	beginIdx := -1
	endIdx := -1
	for i := 0; i < len(lines) && endIdx < 0; i++ {
		switch lines[i] {
		case begin:
			beginIdx = i
		case end:
			if beginIdx >= 0 {
				endIdx = i
			}
		}
	}

	if beginIdx >= 0 && endIdx > beginIdx {
		merged := make([]string, 0, len(lines)-(endIdx-beginIdx-1)+len(b.Content))
		merged = append(merged, lines[:beginIdx+1]...)
		merged = append(merged, b.Content...)
		merged = append(merged, lines[endIdx:]...)
		return strings.Join(merged, "\n")
	}

	var sb strings.Builder
	sb.WriteString(contents)
	sb.WriteString("\n")
	sb.WriteString(begin)
	sb.WriteString("\n")
	for _, line := range b.Content {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString(end)
	sb.WriteString("\n")
	return sb.String()
}

// ApplyBlock merges b into the file at path and rewrites it in a single
// write. A missing file is treated as empty and created. The existing file
// mode is preserved.
func ApplyBlock(path string, b Block) error {
	mode := defaultFileMode
	var contents string

	// #nosec G304 - path is chosen by the operator
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		contents = string(data)
		if info, statErr := os.Stat(path); statErr == nil {
			mode = info.Mode().Perm()
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return &IOError{Op: "read", Path: path, Err: err}
	}

	merged := MergeBlock(contents, b)
	if merged == contents {
		return nil
	}
	if err := os.WriteFile(path, []byte(merged), mode); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
