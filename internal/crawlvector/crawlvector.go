// Package crawlvector decodes the JSON produced by an external crawler
// (§1 Non-goals: crawling itself is out of scope) into injection
// vectors `inject --from-crawl` can feed straight into the Injector,
// grounded in the reference tool's CrawlVector shape
// (injection/crawler.py).
package crawlvector

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/invaen/ricochet/internal/vectors"
)

// Vector mirrors one injectable point discovered by an external crawl.
type Vector struct {
	URL       string `json:"url"`
	Method    string `json:"method"`
	ParamName string `json:"param_name"`
	ParamType string `json:"param_type"`
	Location  string `json:"location"`
}

// Load decodes a JSON array of crawl vectors from r.
func Load(r io.Reader) ([]Vector, error) {
	var out []Vector
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode crawl vectors: %w", err)
	}
	return out, nil
}

// ToVector maps a crawler-reported location string onto the Injector's
// vectors.Location enum. JSON-body locations aren't produced by the
// reference crawler (it only ever emits form/query/body-as-form), so
// "body" is treated as a form-encoded body.
func (v Vector) ToVector() vectors.Vector {
	loc := vectors.Body
	switch v.Location {
	case "query":
		loc = vectors.Query
	case "form", "body":
		loc = vectors.Body
	}
	return vectors.Vector{Location: loc, Name: v.ParamName}
}
