package formatter

import (
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"

	tt "github.com/gnolang/astrule/internal/types"
)

// JSON writes issues as an object keyed by filename. Empty input yields {}.
func JSON(w io.Writer, issues []tt.Issue) error {
	byFile := make(map[string][]tt.Issue)
	for _, issue := range issues {
		byFile[issue.Filename] = append(byFile[issue.Filename], issue)
	}

	d, err := json.MarshalIndent(byFile, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshalling issues to JSON")
	}
	d = append(d, '\n')
	_, err = w.Write(d)
	return err
}
