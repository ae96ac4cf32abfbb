package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/aretw0/lattice/pkg/placement"
)

// ErrInvalidDocuments is returned by RunValidate when a document breaks the
// placement rules.
var ErrInvalidDocuments = errors.New("documents violate placement rules")

// RunValidate checks every file against the placement rules and writes a
// report per file. Unreadable files count as failures.
func RunValidate(w io.Writer, paths []string, sectionsOnly bool) error {
	if len(paths) == 0 {
		return errors.New("no documents given")
	}

	failed := 0
	for _, path := range paths {
		doc, err := LoadDocument(path)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s: %v\n", path, err)
			continue
		}
		res := placement.ValidateDocument(doc, sectionsOnly)
		if !res.OK {
			failed++
		}
		tui.PrintValidation(w, path, res)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrInvalidDocuments, failed, len(paths))
	}
	return nil
}
