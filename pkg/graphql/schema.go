// Package graphql serves a graphql-go schema over HTTP.
//
//	schema, _ := graphql.NewSchema(rootQuery)
//	r.Handle("/graphql", graphql.Handler(schema))
//
// GET takes ?query=&operationName=; POST takes the usual
// {"query", "variables", "operationName"} JSON body.
package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/storefront/pkg/apperror"
	"github.com/shashiranjanraj/storefront/pkg/bind"
)

// NewSchema creates a read-only schema from a root query.
func NewSchema(query *graphql.Object) (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: query,
	})
}

// Request is a GraphQL-over-HTTP request body.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

// Handler executes requests against schema. Execution errors are reported in
// the result with status 200; a request without a query gets 400.
func Handler(schema graphql.Schema) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		switch r.Method {
		case http.MethodGet:
			req.Query = r.URL.Query().Get("query")
			req.OperationName = r.URL.Query().Get("operationName")
		case http.MethodPost:
			if err := bind.Decode(r, &req); err != nil {
				writeErrors(w, http.StatusBadRequest, apperror.MessageOf(err))
				return
			}
		default:
			w.Header().Set("Allow", "GET, POST")
			writeErrors(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if req.Query == "" {
			writeErrors(w, http.StatusBadRequest, "query is required")
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        r.Context(),
		})
		write(w, http.StatusOK, result)
	})
}

func writeErrors(w http.ResponseWriter, status int, msg string) {
	write(w, status, map[string]any{"errors": []map[string]string{{"message": msg}}})
}

func write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}
