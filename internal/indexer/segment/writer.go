package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
)

// MagicBytes identifies a valid .spdx segment file.
const (
	MagicBytes    uint32 = 0x53504458
	FormatVersion uint32 = 3
	HeaderSize    int    = 64
	FooterSize    int    = 32
)

// SegmentHeader is the 64-byte header written at the start of every segment.
// The postings section starts right after the header.
type SegmentHeader struct {
	Magic      uint32
	Version    uint32
	IndexType  uint32
	TermCount  uint32
	DocCount   uint32
	CreatedAt  int64
	MetaOffset int64
	MetaSize   int64
	DictOffset int64
	DictSize   int64
}

func (h SegmentHeader) encode() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], h.IndexType)
	binary.LittleEndian.PutUint32(b[12:16], h.TermCount)
	binary.LittleEndian.PutUint32(b[16:20], h.DocCount)
	binary.LittleEndian.PutUint64(b[24:32], uint64(h.CreatedAt))
	binary.LittleEndian.PutUint64(b[32:40], uint64(h.MetaOffset))
	binary.LittleEndian.PutUint64(b[40:48], uint64(h.MetaSize))
	binary.LittleEndian.PutUint64(b[48:56], uint64(h.DictOffset))
	binary.LittleEndian.PutUint64(b[56:64], uint64(h.DictSize))
	return b
}

func decodeHeader(b []byte) SegmentHeader {
	return SegmentHeader{
		Magic:      binary.LittleEndian.Uint32(b[0:4]),
		Version:    binary.LittleEndian.Uint32(b[4:8]),
		IndexType:  binary.LittleEndian.Uint32(b[8:12]),
		TermCount:  binary.LittleEndian.Uint32(b[12:16]),
		DocCount:   binary.LittleEndian.Uint32(b[16:20]),
		CreatedAt:  int64(binary.LittleEndian.Uint64(b[24:32])),
		MetaOffset: int64(binary.LittleEndian.Uint64(b[32:40])),
		MetaSize:   int64(binary.LittleEndian.Uint64(b[40:48])),
		DictOffset: int64(binary.LittleEndian.Uint64(b[48:56])),
		DictSize:   int64(binary.LittleEndian.Uint64(b[56:64])),
	}
}

// DictEntry maps a term to its postings offset, length, and document frequency
// in the segment file.
type DictEntry struct {
	Term       string `json:"t"`
	PostOffset int64  `json:"o"`
	PostLen    int    `json:"l"`
	DocFreq    int    `json:"d"`
}

// meta is the document section: the id to name mapping and, for frequency
// indexes, the collection statistics.
type meta struct {
	Docs  []string               `json:"docs"`
	Stats *index.CollectionStats `json:"stats,omitempty"`
}

// Write atomically replaces the segment at path with idx. It writes to a
// .tmp file first and renames on success.
func Write(path string, idx *index.InvertedIndex) error {
	if !idx.Type.Valid() {
		return fmt.Errorf("writing segment: index type %d: %w", int(idx.Type), apperrors.ErrUnsupportedIndexType)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating segment directory: %w", err)
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp segment file: %w", err)
	}
	defer f.Close()

	entries := idx.Entries()
	header := SegmentHeader{
		Magic:     MagicBytes,
		Version:   FormatVersion,
		IndexType: uint32(idx.Type),
		TermCount: uint32(len(entries)),
		DocCount:  uint32(idx.NumDocs()),
		CreatedAt: time.Now().Unix(),
	}
	if _, err := f.Write(header.encode()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	postingsStart := int64(HeaderSize)
	offset := postingsStart
	dict := make([]DictEntry, 0, len(entries))
	for _, entry := range entries {
		postingsData, err := json.Marshal(entry.Postings)
		if err != nil {
			return fmt.Errorf("marshaling postings for term %q: %w", entry.Term, err)
		}
		if _, err := f.Write(postingsData); err != nil {
			return fmt.Errorf("writing postings for term %q: %w", entry.Term, err)
		}
		dict = append(dict, DictEntry{
			Term:       entry.Term,
			PostOffset: offset - postingsStart,
			PostLen:    len(postingsData),
			DocFreq:    len(entry.Postings),
		})
		offset += int64(len(postingsData))
	}
	postingsSize := offset - postingsStart

	metaData, err := json.Marshal(meta{Docs: idx.Docs, Stats: idx.Stats})
	if err != nil {
		return fmt.Errorf("marshaling document section: %w", err)
	}
	if _, err := f.Write(metaData); err != nil {
		return fmt.Errorf("writing document section: %w", err)
	}
	header.MetaOffset = offset
	header.MetaSize = int64(len(metaData))
	offset += header.MetaSize

	dictData, err := json.Marshal(dict)
	if err != nil {
		return fmt.Errorf("marshaling dictionary: %w", err)
	}
	if _, err := f.Write(dictData); err != nil {
		return fmt.Errorf("writing dictionary: %w", err)
	}
	header.DictOffset = offset
	header.DictSize = int64(len(dictData))

	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], checksum(header.encode(), metaData, dictData))
	binary.LittleEndian.PutUint32(footer[4:8], header.DocCount)
	binary.LittleEndian.PutUint64(footer[8:16], uint64(postingsSize))
	if _, err := f.Write(footer); err != nil {
		return fmt.Errorf("writing footer: %w", err)
	}
	if _, err := f.WriteAt(header.encode(), 0); err != nil {
		return fmt.Errorf("updating header: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing segment file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming segment file: %w", err)
	}
	return nil
}

func checksum(sections ...[]byte) uint32 {
	h := crc32.NewIEEE()
	for _, s := range sections {
		h.Write(s)
	}
	return h.Sum32()
}
