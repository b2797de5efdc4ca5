package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"

	"github.com/okian/holotrumps/pkg/logger"
	"github.com/okian/holotrumps/pkg/metrics"
)

const defaultMaxBodyBytes = 1 << 20

// graphQLRequest is the standard GraphQL-over-HTTP request body.
type graphQLRequest struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// GraphQLHandler executes GraphQL requests against a schema.
type GraphQLHandler struct {
	schema       graphql.Schema
	maxBodyBytes int64
	logger       logger.Logger
}

// NewGraphQLHandler creates a handler for schema.
func NewGraphQLHandler(schema graphql.Schema, maxBodyBytes int64, log logger.Logger) *GraphQLHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &GraphQLHandler{schema: schema, maxBodyBytes: maxBodyBytes, logger: log}
}

// HandleGraphQL handles POST /graphql with a JSON body and GET /graphql
// with query, variables and operationName parameters. GET cannot run
// mutations.
func (h *GraphQLHandler) HandleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req graphQLRequest
	switch r.Method {
	case http.MethodPost:
		body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
				return
			}
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid JSON body: %w", ErrBadRequest, err))
			return
		}
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if v := q.Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid variables: %w", ErrBadRequest, err))
				return
			}
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing query", ErrBadRequest))
		return
	}

	op := operationType(req.Query, req.OperationName)
	if r.Method == http.MethodGet && op == ast.OperationTypeMutation {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrGetMutation)
		return
	}

	result, rejected := h.execute(r.Context(), req, op)
	status := http.StatusOK
	if rejected {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, result)
}

// execute runs the request. rejected reports that the document failed to
// parse or validate, so no resolver ran.
func (h *GraphQLHandler) execute(ctx context.Context, req graphQLRequest, op string) (_ *graphql.Result, rejected bool) {
	if op != "" {
		metrics.RecordGraphQLOperation(op)
	}
	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})

	rejected = result.Data == nil && result.HasErrors()
	for _, fe := range result.Errors {
		if _, ok := fe.Extensions["code"]; ok {
			rejected = false
		}
	}
	for i := range result.Errors {
		code := annotate(&result.Errors[i], rejected)
		metrics.RecordGraphQLError(code)
		if h.logger != nil {
			h.logger.Warn(ctx, "graphql error",
				logger.String("request_id", RequestIDFromContext(ctx)),
				logger.String("code", code),
				logger.String("operation", req.OperationName),
				logger.String("message", result.Errors[i].Message),
			)
		}
	}
	return result, rejected
}

// annotate makes sure every error carries extensions.code and returns it.
// Errors raised before execution have no code; a bad ResourceType value is
// reported with the same code a resolver would use.
func annotate(fe *gqlerrors.FormattedError, validation bool) string {
	if code, ok := fe.Extensions["code"].(string); ok {
		return code
	}
	code := CodeStoreError
	switch {
	case strings.Contains(fe.Message, `"ResourceType"`):
		code = CodeInvalidResourceType
	case validation:
		code = CodeValidationFailed
	}
	if fe.Extensions == nil {
		fe.Extensions = map[string]interface{}{}
	}
	fe.Extensions["code"] = code
	return code
}

// operationType returns "query" or "mutation" for the operation that will
// run, or "" when the document does not parse.
func operationType(query, operationName string) string {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return ""
	}
	for _, def := range doc.Definitions {
		od, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if operationName == "" || (od.Name != nil && od.Name.Value == operationName) {
			return od.Operation
		}
	}
	return ""
}
