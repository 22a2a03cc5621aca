package reqparse

import "net/url"

// InjectQueryParam returns a clone of req with the named query parameter
// replaced by value. Other parameters are kept, but the query string is
// re-encoded via net/url with its keys in sorted order.
func InjectQueryParam(req *ParsedRequest, name, value string) *ParsedRequest {
	clone := req.Clone()

	u, err := url.Parse(clone.Path)
	if err != nil {
		return clone
	}
	q := u.Query()
	if _, ok := q[name]; ok {
		q.Set(name, value)
	}
	u.RawQuery = q.Encode()
	clone.Path = u.String()
	return clone
}
