// Package prompt assembles the natural-language prompts sent to the model.
// Everything here is pure: the same inputs always give the same prompt.
package prompt

import (
	"strconv"
	"strings"

	"github.com/ricardonunez-io/loganalyser/internal/model"
)

const (
	defaultFocus = "Identify errors in these logs"

	tableInstructions = "Avoid duplicate errors and provide the output in a consistent tabular format " +
		"with the following columns: Exception, Impacted Class, Details of Exception, Remediation of Code. " +
		"Return only the markdown table and rows. " +
		"Do not return validation summaries, rule checks, headings, bullet points, or JSON. Logs"

	alertPlaceholders = "{applicationName}, {environment}, {date}, and {errorDetails}"
)

// BuildAnalysisPrompt renders the analysis prompt for req over logText.
// req.RepoLink is expected to already hold the resolved repository context.
func BuildAnalysisPrompt(req model.AnalysisRequest, logText string) string {
	var sb strings.Builder

	if req.Query != "" {
		sb.WriteString(req.Query)
		sb.WriteString(" ")
	}

	if model.IsSet(req.LogLevel) {
		sb.WriteString("Analyze these logs focusing on ")
		sb.WriteString(req.LogLevel)
		sb.WriteString(" level entries")
	} else {
		sb.WriteString(defaultFocus)
	}

	if model.IsSet(req.ApplicationName) {
		sb.WriteString(" for application ")
		sb.WriteString(req.ApplicationName)
	}

	if req.Days != nil {
		sb.WriteString(" from the last ")
		sb.WriteString(strconv.Itoa(*req.Days))
		sb.WriteString(" days")
	}

	if !model.IsBlank(req.RepoLink) {
		sb.WriteString(". Context repository: ")
		sb.WriteString(req.RepoLink)
	}

	sb.WriteString(". ")
	sb.WriteString(tableInstructions)
	sb.WriteString(": ")
	sb.WriteString(logText)

	return sb.String()
}

// BuildAlertPrompt asks the model to fill emailTemplate from analysis.
func BuildAlertPrompt(emailTemplate, analysis string) string {
	var sb strings.Builder
	sb.WriteString("Use the following email template for the alert:\n")
	sb.WriteString(emailTemplate)
	sb.WriteString("\n\n")
	sb.WriteString("Fill in the placeholders ")
	sb.WriteString(alertPlaceholders)
	sb.WriteString(" based on the logs analyzed.\n\n")
	sb.WriteString("Analysis Result:\n")
	sb.WriteString(analysis)
	return sb.String()
}
