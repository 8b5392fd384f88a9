package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	domainerrors "github.com/listenupapp/librarian/internal/errors"
	"github.com/listenupapp/librarian/internal/http/response"
)

// maxRequestBytes caps the size of a GraphQL request body.
const maxRequestBytes = 1 << 20

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// handleGraphQL executes a single operation. Execution errors are reported
// inside the response body with status 200.
func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.GraphQLFailure(w, domainerrors.Validation("request body too large"), s.logger)
			return
		}
		response.GraphQLFailure(w, domainerrors.Validation("invalid request body"), s.logger)
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		response.GraphQLFailure(w, domainerrors.Validation("query is required"), s.logger)
		return
	}

	result := s.schema.Exec(r.Context(), req.Query, req.OperationName, req.Variables)
	response.JSON(w, http.StatusOK, result, s.logger)
}

// handlePlayground serves GraphiQL pointed at this endpoint.
func (s *Server) handlePlayground(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(playgroundHTML)); err != nil {
		s.logger.Debug("Failed to write playground", "error", err)
	}
}

const playgroundHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Librarian GraphiQL</title>
  <link rel="stylesheet" href="https://unpkg.com/graphiql@3/graphiql.min.css">
  <style>body { margin: 0; height: 100vh; } #graphiql { height: 100vh; }</style>
</head>
<body>
  <div id="graphiql">Loading...</div>
  <script crossorigin src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/graphiql@3/graphiql.min.js"></script>
  <script>
    const fetcher = GraphiQL.createFetcher({ url: window.location.pathname });
    ReactDOM.createRoot(document.getElementById('graphiql'))
      .render(React.createElement(GraphiQL, { fetcher }));
  </script>
</body>
</html>
`
