// Package report renders a Finding as a bug-bounty-style Markdown writeup
// (§6 `report` subcommand), grounded in the fixed per-vulnerability-class
// templates the reference tool ships under reporting/templates.py.
package report

import (
	"bytes"
	"strings"
	"text/template"
	"time"

	"github.com/invaen/ricochet/internal/models"
)

const findingTemplate = `## Summary
{{.VulnType}} vulnerability in ` + "`{{.Parameter}}`" + ` parameter at ` + "`{{.TargetURL}}`" + `

## Severity
{{.SeverityUpper}}

## Description
A callback was triggered from the ` + "`{{.Parameter}}`" + ` parameter at ` + "`{{.TargetURL}}`" + `, consistent with a {{.VulnType}} condition.

## Steps to Reproduce
1. Inject the payload below into the ` + "`{{.Parameter}}`" + ` parameter of ` + "`{{.TargetURL}}`" + `
   ` + "```\n   {{.Payload}}\n   ```" + `
2. Trigger the stored value's second-order execution path
3. Observe the callback recorded below

## Proof of Concept
- **Correlation ID:** ` + "`{{.CorrelationID}}`" + `
- **Injection Point:** ` + "`{{.TargetURL}}`" + ` (parameter: ` + "`{{.Parameter}}`" + `)
- **Payload Used:** ` + "`{{.Payload}}`" + `
- **Callback Received:** {{.CallbackTime}}
- **Delay:** {{printf "%.1f" .DelaySeconds}} seconds

## Impact
{{.Impact}}

## Remediation
{{.Remediation}}
`

var tmpl = template.Must(template.New("finding").Parse(findingTemplate))

type reportData struct {
	VulnType      string
	SeverityUpper string
	TargetURL     string
	Parameter     string
	Payload       string
	CorrelationID string
	CallbackTime  string
	DelaySeconds  float64
	Impact        string
	Remediation   string
}

// Render produces a Markdown report body for a single Finding.
func Render(f models.Finding) (string, error) {
	vulnType, impact, remediation := classify(f.Injection.Context)

	data := reportData{
		VulnType:      vulnType,
		SeverityUpper: strings.ToUpper(f.Severity),
		TargetURL:     f.Injection.TargetURL,
		Parameter:     f.Injection.Parameter,
		Payload:       f.Injection.Payload,
		CorrelationID: f.Injection.Token,
		CallbackTime:  time.Unix(int64(f.Callback.ReceivedAt), 0).UTC().Format(time.RFC3339),
		DelaySeconds:  f.DelaySeconds,
		Impact:        impact,
		Remediation:   remediation,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func classify(context string) (vulnType, impact, remediation string) {
	ctx := strings.ToLower(context)
	switch {
	case strings.Contains(ctx, "sqli"):
		return "Out-of-band SQL Injection",
			"An attacker can extract sensitive data from the database, execute arbitrary SQL commands, or escalate to remote code execution depending on database configuration.",
			"Use parameterized queries for all database operations and apply least-privilege database accounts."
	case strings.Contains(ctx, "ssti"):
		return "Server-Side Template Injection",
			"An attacker can execute arbitrary code on the server, read sensitive files, and access environment variables.",
			"Never pass user input directly to template engines; use sandboxed, logic-less template environments."
	case strings.Contains(ctx, "xss"):
		return "Cross-Site Scripting",
			"An attacker can execute arbitrary JavaScript in victims' browsers, steal session cookies, and perform actions on behalf of authenticated users.",
			"Implement output encoding for the relevant context and apply a restrictive Content-Security-Policy."
	default:
		return "Second-order out-of-band interaction",
			"The impact depends on the execution context; potential impacts include unauthorized data access and code execution.",
			"Perform thorough input validation and output encoding wherever this value is later rendered or executed."
	}
}
