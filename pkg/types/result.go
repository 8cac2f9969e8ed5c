package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/theapemachine/ukg/pkg/errors"
)

/*
ProcessingLevel names the escalation layer that produced a result.
*/
type ProcessingLevel string

const (
	LevelEntry      ProcessingLevel = "layer1"
	LevelSimulation ProcessingLevel = "layer2"
	LevelEscalation ProcessingLevel = "layer3"
)

/*
LayerResult records what one layer contributed to the final answer.
*/
type LayerResult struct {
	Level        ProcessingLevel `json:"level"`
	Response     string          `json:"response"`
	Confidence   float64         `json:"confidence"`
	Participants []string        `json:"participants,omitempty"`
	Duration     time.Duration   `json:"duration"`
}

/*
QueryResult is the well-formed answer every caller receives, failed or not.
*/
type QueryResult struct {
	QueryID         string          `json:"query_id"`
	Response        string          `json:"response"`
	Confidence      float64         `json:"confidence"`
	ActivePersonas  []string        `json:"active_personas"`
	AgentsInvolved  []string        `json:"agents_involved,omitempty"`
	ProcessingLevel ProcessingLevel `json:"processing_level"`
	Success         bool            `json:"success"`
	Status          QueryStatus     `json:"status"`
	Error           string          `json:"error,omitempty"`
	Code            int             `json:"code,omitempty"`
	RerunEligible   bool            `json:"rerun_eligible,omitempty"`
	Reruns          int             `json:"reruns,omitempty"`
	Layers          []LayerResult   `json:"layers,omitempty"`
	Duration        time.Duration   `json:"duration"`
}

/*
Failed builds the result returned when a stage fails.
*/
func Failed(queryID string, level ProcessingLevel, err error) QueryResult {
	return QueryResult{
		QueryID:         queryID,
		Response:        "",
		Confidence:      0,
		ActivePersonas:  []string{},
		ProcessingLevel: level,
		Success:         false,
		Status:          StatusFailed,
		Error:           err.Error(),
		Code:            errors.Code(err),
	}
}

/*
Layer returns the contribution of the given layer, if any.
*/
func (result *QueryResult) Layer(level ProcessingLevel) (LayerResult, bool) {
	for _, layer := range result.Layers {
		if layer.Level == level {
			return layer, true
		}
	}

	return LayerResult{}, false
}

func (result *QueryResult) String() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("212")).
		Bold(true)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	bullet := "│ "

	sb.WriteString(headerStyle.Render("Query Result") + "\n")
	sb.WriteString(bullet + labelStyle.Render("ID: ") + valueStyle.Render(result.QueryID) + "\n")
	sb.WriteString(bullet + labelStyle.Render("Level: ") + valueStyle.Render(string(result.ProcessingLevel)) + "\n")
	sb.WriteString(bullet + labelStyle.Render("Confidence: ") + valueStyle.Render(fmt.Sprintf("%.3f", result.Confidence)) + "\n")

	if len(result.ActivePersonas) > 0 {
		sb.WriteString(bullet + labelStyle.Render("Personas: ") + valueStyle.Render(strings.Join(result.ActivePersonas, ", ")) + "\n")
	}

	if len(result.AgentsInvolved) > 0 {
		sb.WriteString(bullet + labelStyle.Render("Agents: ") + valueStyle.Render(strings.Join(result.AgentsInvolved, ", ")) + "\n")
	}

	if result.RerunEligible {
		sb.WriteString(bullet + labelStyle.Render("Rerun: ") + valueStyle.Render("eligible with expanded context") + "\n")
	}

	if !result.Success {
		sb.WriteString(bullet + errorStyle.Render("Error: ") + valueStyle.Render(result.Error) + "\n")
		return sb.String()
	}

	sb.WriteString("\n" + result.Response + "\n")
	return sb.String()
}
