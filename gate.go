package authgate

import (
	"html/template"

	"github.com/veylan/authgate/permission"
)

// Can reports whether the current identity holds the named permission.
// Logged-out or identity-less sessions hold nothing.
func (c *Client) Can(name string) bool {
	id, ok := c.sessions.Identity()
	if !ok {
		return false
	}
	return permission.Has(id, name)
}

// CanAny reports whether the current identity holds at least one of the
// named permissions. An empty list is never satisfied.
func (c *Client) CanAny(names ...string) bool {
	id, ok := c.sessions.Identity()
	if !ok {
		return false
	}
	return permission.HasAny(id, names...)
}

// FuncMap exposes the element gate to html/template views:
//
//	{{ if can "post:edit" "post:publish" }} ... {{ end }}
func (c *Client) FuncMap() template.FuncMap {
	return template.FuncMap{
		"can": c.CanAny,
	}
}
