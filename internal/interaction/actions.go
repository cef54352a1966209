package interaction

// NextBestActions suggests follow-ups for the record based on its sentiment.
func NextBestActions(r Record) []string {
	if r.Sentiment == SentimentPositive {
		return []string{"Schedule product trial / follow-up meeting"}
	}
	return []string{"Send additional informational materials"}
}
