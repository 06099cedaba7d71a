package server

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/ricardonunez-io/loganalyser/internal/model"
	"github.com/rs/zerolog/log"
)

// InvokeRequest is the agent-facing analysis request.
type InvokeRequest struct {
	Logs            string `json:"logs,omitempty" jsonschema:"description=Raw log text to analyze. Ignored when environment is set"`
	Query           string `json:"query,omitempty" jsonschema:"description=Free-form analysis question"`
	RepoLink        string `json:"repoLink,omitempty" jsonschema:"description=Git repository URL or a plain description of the code under analysis"`
	LogLevel        string `json:"logLevel,omitempty" jsonschema:"description=Log level to focus on. All means no restriction"`
	Days            *int   `json:"days,omitempty" jsonschema:"description=Look-back window in days"`
	ApplicationName string `json:"applicationName,omitempty" jsonschema:"description=Application to scope the analysis to. All means no restriction"`
	Environment     string `json:"environment,omitempty" jsonschema:"description=Environment to fetch logs from instead of using logs"`
}

func (in InvokeRequest) toRequest() model.AnalysisRequest {
	return model.AnalysisRequest{
		RawLogs:         in.Logs,
		Query:           in.Query,
		RepoLink:        in.RepoLink,
		LogLevel:        in.LogLevel,
		Days:            in.Days,
		ApplicationName: in.ApplicationName,
		Environment:     in.Environment,
	}
}

type AgentCard struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Version        string         `json:"version"`
	Capabilities   []string       `json:"capabilities"`
	InvokeEndpoint string         `json:"invokeEndpoint"`
	InputSchema    map[string]any `json:"inputSchema"`
}

// NewAgentCard describes this service to agent callers. The card is still
// served without an input schema if the schema cannot be built.
func NewAgentCard() AgentCard {
	schema, err := invokeInputSchema()
	if err != nil {
		log.Err(err).Msg("Agent card served without input schema")
	}
	return AgentCard{
		ID:             "log-analyser-agent",
		Name:           "Log Analyser Agent",
		Description:    "AI-powered root-cause analysis for raw and environment-sourced logs.",
		Version:        "1.0.0",
		Capabilities:   []string{"log-analysis", "error-detection", "remediation-suggestions"},
		InvokeEndpoint: "/api/agent/analyze",
		InputSchema:    schema,
	}
}

// invokeInputSchema reflects InvokeRequest into an inline JSON schema that
// rejects unknown fields.
func invokeInputSchema() (map[string]any, error) {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	b, err := json.Marshal(r.Reflect(&InvokeRequest{}))
	if err != nil {
		return nil, fmt.Errorf("failed to encode invoke schema: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(b, &schema); err != nil {
		return nil, fmt.Errorf("failed to decode invoke schema: %w", err)
	}
	return schema, nil
}
