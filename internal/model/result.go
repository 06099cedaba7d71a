package model

import "strings"

var alertMarkers = []string{"ERROR", "Exception"}

type AnalysisResult struct {
	Content             string `json:"content"`
	ContainsAlertSignal bool   `json:"containsAlertSignal"`
}

func NewAnalysisResult(content string) AnalysisResult {
	return AnalysisResult{
		Content:             content,
		ContainsAlertSignal: HasAlertSignal(content),
	}
}

// HasAlertSignal is a case-sensitive substring scan for the alert markers.
func HasAlertSignal(content string) bool {
	for _, m := range alertMarkers {
		if strings.Contains(content, m) {
			return true
		}
	}
	return false
}
