package ui

import (
	"fmt"
	"strings"

	"github.com/theapemachine/ukg/pkg/types"
)

/*
RenderResult formats one answered query: a header line with the processing
level and confidence, the participating personas and agents, then the
response body.
*/
func RenderResult(query string, result types.QueryResult, width int) string {
	var out strings.Builder

	out.WriteString(senderStyle.Render("You: ") + query + "\n")

	if !result.Success {
		out.WriteString(errorStyle.Render("Error: ") + result.Error + "\n")
		return out.String()
	}

	out.WriteString(fmt.Sprintf(
		"%s %s %s\n",
		levelStyle(result.ProcessingLevel).Render(strings.ToUpper(string(result.ProcessingLevel))),
		confidenceStyle(result.Confidence, 0.5, 0.9).Render(fmt.Sprintf("confidence %.2f", result.Confidence)),
		metaStyle.Render(result.Duration.Round(1e6).String()),
	))

	if len(result.ActivePersonas) > 0 {
		out.WriteString(metaStyle.Render("personas: "+strings.Join(result.ActivePersonas, ", ")) + "\n")
	}

	if len(result.AgentsInvolved) > 0 {
		agents := "agents: " + strings.Join(result.AgentsInvolved, ", ")
		if result.RerunEligible {
			agents += " (rerun eligible)"
		}

		out.WriteString(metaStyle.Render(agents) + "\n")
	}

	body := responseStyle
	if width > 4 {
		body = body.Width(width - 4)
	}

	out.WriteString(body.Render(strings.TrimSpace(result.Response)) + "\n")
	return out.String()
}
