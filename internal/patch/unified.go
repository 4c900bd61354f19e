package patch

import (
	"strings"

	gdiff "github.com/sourcegraph/go-diff/diff"
)

// parseUnified falls back to real unified-diff parsing (e.g. the
// output of `git diff -U0`) when the input is not the native
// +file:line grammar, grounded on the same go-diff reader the
// validator component of the retrieved corpus uses.
func parseUnified(content string) (*Patch, error) {
	fileDiffs, err := gdiff.NewMultiFileDiffReader(strings.NewReader(content)).ReadAllFiles()
	if err != nil {
		return nil, err
	}

	p := newPatch()
	for _, fd := range fileDiffs {
		file := fd.NewName
		if file == "" || file == "/dev/null" {
			file = fd.OrigName
		}
		file = strings.TrimPrefix(strings.TrimPrefix(file, "a/"), "b/")

		for _, hunk := range fd.Hunks {
			oldLine := int(hunk.OrigStartLine)
			newLine := int(hunk.NewStartLine)
			for _, line := range strings.Split(string(hunk.Body), "\n") {
				switch {
				case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
					p.add(Line{File: file, Line: newLine, Kind: Added})
					newLine++
				case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
					p.add(Line{File: file, Line: oldLine, Kind: Removed})
					oldLine++
				case strings.HasPrefix(line, " ") || line == "":
					oldLine++
					newLine++
				}
			}
		}
	}
	return p, nil
}
