// Package segment stores an inverted index in a single .spdx file: a fixed
// header, the postings of every term as JSON, a document section, a term
// dictionary and a checksummed footer.
package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
)

type Reader struct {
	file     *os.File
	filePath string
	header   SegmentHeader
	meta     meta
	dict     []DictEntry
}

func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	r, err := readSegment(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.filePath = path
	return r, nil
}

func readSegment(f *os.File) (*Reader, error) {
	headerBytes := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		return nil, fmt.Errorf("reading segment header: %w", err)
	}
	header := decodeHeader(headerBytes)
	if header.Magic != MagicBytes {
		return nil, fmt.Errorf("bad magic bytes %x: %w", header.Magic, apperrors.ErrCorruptIndex)
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("segment format version %d, want %d: %w", header.Version, FormatVersion, apperrors.ErrCorruptIndex)
	}
	if _, err := index.ParsePostingType(int(header.IndexType)); err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat segment file: %w", err)
	}
	if err := header.checkBounds(info.Size()); err != nil {
		return nil, err
	}

	metaBytes := make([]byte, header.MetaSize)
	if _, err := f.ReadAt(metaBytes, header.MetaOffset); err != nil {
		return nil, fmt.Errorf("reading document section: %w", err)
	}
	dictBytes := make([]byte, header.DictSize)
	if _, err := f.ReadAt(dictBytes, header.DictOffset); err != nil {
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	footer := make([]byte, FooterSize)
	if _, err := f.ReadAt(footer, header.DictOffset+header.DictSize); err != nil {
		return nil, fmt.Errorf("reading footer: %w", err)
	}
	if want := binary.LittleEndian.Uint32(footer[0:4]); checksum(headerBytes, metaBytes, dictBytes) != want {
		return nil, fmt.Errorf("checksum mismatch: %w", apperrors.ErrCorruptIndex)
	}

	var m meta
	if err := json.Unmarshal(metaBytes, &m); err != nil {
		return nil, fmt.Errorf("parsing document section: %v: %w", err, apperrors.ErrCorruptIndex)
	}
	var dict []DictEntry
	if err := json.Unmarshal(dictBytes, &dict); err != nil {
		return nil, fmt.Errorf("parsing dictionary: %v: %w", err, apperrors.ErrCorruptIndex)
	}
	return &Reader{
		file:   f,
		header: header,
		meta:   m,
		dict:   dict,
	}, nil
}

// checkBounds verifies that the sections named by the header lie in order
// inside a file of the given size: postings, documents, dictionary, footer.
func (h SegmentHeader) checkBounds(size int64) error {
	if h.MetaOffset < int64(HeaderSize) || h.MetaSize < 0 ||
		h.DictOffset < 0 || h.DictSize < 0 ||
		h.MetaSize > size || h.DictSize > size ||
		h.MetaOffset > size-h.MetaSize ||
		h.DictOffset != h.MetaOffset+h.MetaSize ||
		h.DictOffset > size-h.DictSize-int64(FooterSize) {
		return fmt.Errorf("section bounds meta=%d+%d dict=%d+%d exceed file size %d: %w",
			h.MetaOffset, h.MetaSize, h.DictOffset, h.DictSize, size, apperrors.ErrCorruptIndex)
	}
	return nil
}

// Search reads the postings of a single term without loading the rest of
// the segment.
func (r *Reader) Search(term string) (index.PostingList, error) {
	idx := sort.Search(len(r.dict), func(i int) bool {
		return r.dict[i].Term >= term
	})
	if idx >= len(r.dict) || r.dict[idx].Term != term {
		return nil, nil
	}
	return r.readPostings(r.dict[idx])
}

func (r *Reader) readPostings(entry DictEntry) (index.PostingList, error) {
	postingsEnd := r.header.MetaOffset - int64(HeaderSize)
	if entry.PostOffset < 0 || entry.PostLen < 0 || entry.PostOffset > postingsEnd-int64(entry.PostLen) {
		return nil, fmt.Errorf("postings for %q at %d+%d outside postings section: %w",
			entry.Term, entry.PostOffset, entry.PostLen, apperrors.ErrCorruptIndex)
	}
	postingsBytes := make([]byte, entry.PostLen)
	if _, err := r.file.ReadAt(postingsBytes, int64(HeaderSize)+entry.PostOffset); err != nil {
		return nil, fmt.Errorf("reading postings for %q: %w", entry.Term, err)
	}
	var postings index.PostingList
	if err := json.Unmarshal(postingsBytes, &postings); err != nil {
		return nil, fmt.Errorf("parsing postings for %q: %v: %w", entry.Term, err, apperrors.ErrCorruptIndex)
	}
	return postings, nil
}

// Load materializes the whole index and checks its invariants.
func (r *Reader) Load() (*index.InvertedIndex, error) {
	idx := &index.InvertedIndex{
		Type:     index.PostingType(r.header.IndexType),
		Postings: make(map[string]index.PostingList, len(r.dict)),
		Docs:     r.meta.Docs,
		Stats:    r.meta.Stats,
	}
	if idx.Docs == nil {
		idx.Docs = []string{}
	}
	for _, entry := range r.dict {
		pl, err := r.readPostings(entry)
		if err != nil {
			return nil, err
		}
		if len(pl) != entry.DocFreq {
			return nil, fmt.Errorf("term %q: %d postings, dictionary says %d: %w",
				entry.Term, len(pl), entry.DocFreq, apperrors.ErrCorruptIndex)
		}
		idx.Postings[entry.Term] = pl
	}
	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("validating segment %s: %w", r.filePath, err)
	}
	return idx, nil
}

func (r *Reader) Type() index.PostingType {
	return index.PostingType(r.header.IndexType)
}

func (r *Reader) Terms() int {
	return len(r.dict)
}

func (r *Reader) DocCount() uint32 {
	return r.header.DocCount
}

func (r *Reader) Close() error {
	return r.file.Close()
}
