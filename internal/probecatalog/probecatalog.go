// Package probecatalog holds the built-in list of endpoints the `active`
// subcommand probes to trigger second-order rendering of a stored
// payload, grounded in the reference tool's TRIGGER_ENDPOINTS
// (triggers/active.py).
package probecatalog

// Endpoints is the default catalog of admin/support/analytics/export
// paths probed when `active` is invoked without `--endpoints`.
var Endpoints = []string{
	"/admin",
	"/admin/users",
	"/admin/logs",
	"/admin/reports",
	"/dashboard",
	"/manage",
	"/panel",
	"/console",
	"/support",
	"/tickets",
	"/helpdesk",
	"/support/tickets",
	"/feedback",
	"/analytics",
	"/reports",
	"/stats",
	"/logs",
	"/metrics",
	"/moderation",
	"/content",
	"/posts",
	"/comments",
	"/reviews",
	"/export",
	"/download",
	"/pdf",
	"/report/generate",
	"/print",
}

// Result records the outcome of probing one endpoint.
type Result struct {
	Endpoint     string
	Status       int
	Error        string
	ResponseSize int
}
