// Package corpus loads the passage catalog from line-delimited JSON files.
package corpus

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"
	"github.com/hyperjump/meetkant/internal/models"
)

// Catalog is an ordered, immutable sequence of passages. Position i of a catalog
// corresponds to position i of any vector index built from it.
type Catalog struct {
	records     []models.PassageRecord
	fallback    bool
	fingerprint string
}

// NewCatalog returns a catalog holding a copy of records in the given order.
func NewCatalog(records []models.PassageRecord) *Catalog {
	return newCatalog(records, false)
}

func newCatalog(records []models.PassageRecord, fallback bool) *Catalog {
	owned := make([]models.PassageRecord, len(records))
	copy(owned, records)
	return &Catalog{
		records:     owned,
		fallback:    fallback,
		fingerprint: fingerprint(owned),
	}
}

// Len returns the number of passages.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// At returns the passage at position i.
func (c *Catalog) At(i int) models.PassageRecord {
	return c.records[i]
}

// Texts returns the passage texts in catalog order.
func (c *Catalog) Texts() []string {
	texts := make([]string, c.Len())
	for i := range texts {
		texts[i] = c.records[i].Text
	}
	return texts
}

// Records returns a copy of the passages in catalog order.
func (c *Catalog) Records() []models.PassageRecord {
	out := make([]models.PassageRecord, c.Len())
	copy(out, c.records)
	return out
}

// Fallback reports whether the catalog is the built-in sample set.
func (c *Catalog) Fallback() bool {
	return c != nil && c.fallback
}

// Fingerprint is a BLAKE2b-256 digest over every passage in order. Two catalogs with
// the same fingerprint produce position-compatible indexes.
func (c *Catalog) Fingerprint() string {
	if c == nil {
		return fingerprint(nil)
	}
	return c.fingerprint
}

func fingerprint(records []models.PassageRecord) string {
	h, _ := blake2b.New(32, nil)
	var lenBuf [binary.MaxVarintLen64]byte
	writeField := func(s string) {
		n := binary.PutUvarint(lenBuf[:], uint64(len(s)))
		h.Write(lenBuf[:n])
		h.Write([]byte(s))
	}
	n := binary.PutUvarint(lenBuf[:], uint64(len(records)))
	h.Write(lenBuf[:n])
	for _, r := range records {
		writeField(r.WorkID)
		writeField(r.ParaID)
		writeField(r.Lang)
		writeField(r.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}
