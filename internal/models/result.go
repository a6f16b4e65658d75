package models

// QueryResult is a single retrieval hit: the passage plus its cosine similarity to the query.
type QueryResult struct {
	WorkID string  `json:"work_id"`
	ParaID string  `json:"para_id"`
	Lang   string  `json:"lang"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

// NewQueryResult pairs a passage with its score.
func NewQueryResult(p PassageRecord, score float64) QueryResult {
	return QueryResult{
		WorkID: p.WorkID,
		ParaID: p.ParaID,
		Lang:   p.Lang,
		Text:   p.Text,
		Score:  score,
	}
}
