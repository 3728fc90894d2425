package models

// QuizStat is the attempt record for one node of one graph.
type QuizStat struct {
	Attempts int    `json:"attempts"`
	Correct  int    `json:"correct"`
	Label    string `json:"label"`
}

// Accuracy returns the share of correct attempts in percent.
func (s QuizStat) Accuracy() float64 {
	if s.Attempts == 0 {
		return 0
	}

	return float64(s.Correct) * 100 / float64(s.Attempts)
}

// QuizStats maps graph id to node id to statistics.
type QuizStats map[string]map[string]QuizStat

// RecordAttemptRequest records one submitted answer.
type RecordAttemptRequest struct {
	Label   string `json:"label"`
	Correct bool   `json:"correct"`
}
