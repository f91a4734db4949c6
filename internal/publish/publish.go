package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"mindmap-cli/internal/address"
	"mindmap-cli/internal/model"
	"mindmap-cli/internal/tree"
)

type WriteOptions struct {
	Overwrite     bool
	WithAddresses bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteDocument renders doc to <toDir>/<doc id>.md.
func WriteDocument(doc model.Document, t *tree.Tree, toDir string, opt WriteOptions) (WriteResult, error) {
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	if strings.TrimSpace(doc.ID) == "" {
		return WriteResult{}, errors.New("missing document id")
	}
	toDir = filepath.Clean(toDir)

	ro := RenderOptions{}
	if opt.WithAddresses {
		addrs, err := address.Assign(t)
		if err != nil {
			return WriteResult{}, err
		}
		ro.Addresses = addrs
	}
	md := RenderDocumentMarkdown(doc, t, ro)

	if err := os.MkdirAll(toDir, 0o755); err != nil {
		return WriteResult{}, err
	}
	outPath := filepath.Join(toDir, doc.ID+".md")
	if err := writeFile(outPath, []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{outPath}}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
