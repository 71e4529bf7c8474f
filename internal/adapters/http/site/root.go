// Package site serves the embedded planner page.
package site

import (
	"context"
	"net/http"
)

// Register attaches the planner page at / to mux. Paths that match no other
// route fall through to the embedded file server and 404 there.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", http.FileServer(FS()))
}
