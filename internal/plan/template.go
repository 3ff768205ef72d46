package plan

import (
	"bytes"
	"fmt"
	"text/template"
)

const documentTemplate = `# Implementation Plan

Session: {{.SessionID}}
Source: {{.Source}}{{if .Rounds}} (after {{.Rounds}} round{{if ne .Rounds 1}}s{{end}}, voting score {{printf "%.1f" .Voting}}){{end}}

## Problem

{{.Problem}}
{{- if .Context}}

## Constraints

{{.Context}}
{{- end}}

## Agreed Solution

{{.Solution}}
{{- if .Note}}

## Reviewer Direction

{{.Note}}
{{- end}}
{{- if .Weaknesses}}

## Known Weaknesses

Watch for these while implementing:
{{range .Weaknesses}}- {{.}}
{{end}}
{{- end}}
`

var documentTmpl = template.Must(template.New("plan").Parse(documentTemplate))

// Render produces the markdown document fed to the executor on stdin.
func (p *Plan) Render() (string, error) {
	var buf bytes.Buffer
	if err := documentTmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("failed to render plan: %w", err)
	}
	return buf.String(), nil
}
