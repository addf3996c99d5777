// Package routes provides declarative route registration on net/http ServeMux.
package routes

import "net/http"

// Group organizes routes under a common prefix.
type Group struct {
	Prefix string
	Routes []Route
}

// Register adds all routes from the given groups to the mux, prepending
// base to each group prefix.
func Register(mux *http.ServeMux, base string, groups ...Group) {
	for _, group := range groups {
		for _, route := range group.Routes {
			pattern := route.Method + " " + base + group.Prefix + route.Pattern
			mux.HandleFunc(pattern, route.Handler)
		}
	}
}
