// Package corpus reads a document collection laid out as
// root/<collection>/<file> into the ordered document list the index
// builder consumes.
package corpus

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/index"
)

// Options controls LoadDir.
type Options struct {
	// PerCollectionLimit caps how many files are read from each
	// collection. Zero reads everything.
	PerCollectionLimit int
}

// LoadDir reads every regular file two levels below root. Documents are
// named "<collection>/<file>" and ordered lexically by collection, then by
// file, so repeated loads assign the same ids. Files ending in .html or
// .htm are reduced to their visible text.
func LoadDir(root string, opts Options) ([]index.Document, error) {
	collections, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading corpus root %s: %w", root, err)
	}
	sort.Slice(collections, func(i, j int) bool { return collections[i].Name() < collections[j].Name() })

	var docs []index.Document
	for _, coll := range collections {
		if !coll.IsDir() {
			continue
		}
		dir := filepath.Join(root, coll.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading collection %s: %w", dir, err)
		}
		sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

		read := 0
		for _, f := range files {
			if opts.PerCollectionLimit > 0 && read >= opts.PerCollectionLimit {
				break
			}
			if !f.Type().IsRegular() {
				continue
			}
			raw, err := os.ReadFile(filepath.Join(dir, f.Name()))
			if err != nil {
				return nil, fmt.Errorf("reading document %s/%s: %w", coll.Name(), f.Name(), err)
			}
			text := string(raw)
			if isHTML(f.Name()) {
				text, err = ExtractText(raw)
				if err != nil {
					return nil, fmt.Errorf("parsing %s/%s: %w", coll.Name(), f.Name(), err)
				}
			}
			docs = append(docs, index.Document{Name: path.Join(coll.Name(), f.Name()), Text: text})
			read++
		}
	}
	return docs, nil
}

func isHTML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".html" || ext == ".htm"
}
