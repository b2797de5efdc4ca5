// Package schemadoc serves the GraphQL schema document and an in-browser
// GraphiQL page for the API.
package schemadoc

import (
	"context"
	"net/http"
)

// Register attaches the schema documentation routes to mux.
// Routes:
//
//	GET /schema.graphql -> embedded SDL
//	GET /playground     -> GraphiQL page posting to endpoint
//	GET /               -> redirect to /playground
func Register(_ context.Context, mux *http.ServeMux, endpoint string) {
	if mux == nil {
		panic("mux is nil")
	}
	if endpoint == "" {
		endpoint = "/graphql"
	}

	mux.HandleFunc("/schema.graphql", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/graphql; charset=utf-8")
		_, _ = w.Write(SDL)
	})

	page := []byte(playgroundHTML(endpoint))
	mux.HandleFunc("/playground", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})

	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/playground", http.StatusFound)
	})
}

func playgroundHTML(endpoint string) string {
	return `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>holotrumps - GraphiQL</title>
    <style>body{margin:0;height:100vh}#graphiql{height:100vh}</style>
    <link rel="stylesheet" href="https://unpkg.com/graphiql@3/graphiql.min.css">
  </head>
  <body>
    <div id="graphiql"></div>
    <script crossorigin src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
    <script crossorigin src="https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"></script>
    <script crossorigin src="https://unpkg.com/graphiql@3/graphiql.min.js"></script>
    <script>
      const fetcher = GraphiQL.createFetcher({ url: '` + endpoint + `' });
      ReactDOM.createRoot(document.getElementById('graphiql')).render(React.createElement(GraphiQL, { fetcher }));
    </script>
  </body>
</html>`
}
