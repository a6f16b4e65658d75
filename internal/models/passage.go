// Package models defines core data structures for passages, queries, and retrieval results.
package models

// LangUnknown is the language tag given to passages whose source record has none.
const LangUnknown = "unknown"

// PassageRecord is one unit of retrievable text.
type PassageRecord struct {
	WorkID string `json:"work_id"`
	ParaID string `json:"para_id"`
	Lang   string `json:"lang"`
	Text   string `json:"text"`
}
