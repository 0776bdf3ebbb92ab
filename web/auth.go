package web

import (
	"io/fs"
	"net/http"

	"github.com/goji/httpauth"
)

// Auth wraps the handler with basic authentication. A blank password
// disables the check.
func Auth(h http.Handler, user, pass string) http.Handler {
	if pass == "" {
		return h
	}
	opts := httpauth.AuthOptions{Realm: "Restricted", User: user, Password: pass}
	return httpauth.BasicAuth(opts)(h)
}

// AssetServer serves the embedded static files.
func AssetServer() http.Handler {
	sub, err := fs.Sub(assetFS, "assets")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
