package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"iarchive/internal/models"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcMethod func(s *Server, ctx context.Context, params json.RawMessage) (any, *rpcError)

var rpcMethods = map[string]rpcMethod{
	"core.library.browse":     (*Server).rpcBrowse,
	"core.library.search":     (*Server).rpcSearch,
	"core.library.lookup":     (*Server).rpcLookup,
	"core.library.get_images": (*Server).rpcImages,
	"core.library.refresh":    (*Server).rpcRefresh,
}

var nullID = json.RawMessage("null")

// dispatch handles one encoded request. It returns nil for notifications.
func (s *Server) dispatch(ctx context.Context, data []byte) *rpcResponse {
	var req rpcRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(nullID, &rpcError{Code: codeParseError, Message: "Parse error"})
	}
	id := req.ID
	if len(id) == 0 {
		id = nullID
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return errorResponse(id, &rpcError{Code: codeInvalidRequest, Message: "Invalid Request"})
	}

	method, ok := rpcMethods[req.Method]
	if !ok {
		return errorResponse(id, &rpcError{Code: codeMethodNotFound, Message: "Method not found", Data: req.Method})
	}

	result, rerr := method(s, ctx, req.Params)
	if len(req.ID) == 0 {
		return nil
	}
	if rerr != nil {
		return errorResponse(id, rerr)
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return errorResponse(id, &rpcError{Code: codeServerError, Message: err.Error()})
	}
	return &rpcResponse{JSONRPC: "2.0", ID: id, Result: encoded}
}

func errorResponse(id json.RawMessage, e *rpcError) *rpcResponse {
	return &rpcResponse{JSONRPC: "2.0", ID: id, Error: e}
}

func decodeParams(params json.RawMessage, v any) *rpcError {
	if len(bytes.TrimSpace(params)) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return &rpcError{Code: codeInvalidParams, Message: "Invalid params", Data: err.Error()}
	}
	return nil
}

func (s *Server) appError(err error) *rpcError {
	s.logger.Debug("JSON-RPC call failed: %v", err)
	return &rpcError{Code: codeServerError, Message: err.Error(), Data: statusFor(err)}
}

func (s *Server) rpcBrowse(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var p struct {
		URI string `json:"uri"`
	}
	if e := decodeParams(params, &p); e != nil {
		return nil, e
	}
	if p.URI == "" {
		p.URI = s.library.Root().URI
	}
	refs, err := s.library.Browse(ctx, p.URI)
	if err != nil {
		return nil, s.appError(err)
	}
	return refs, nil
}

func (s *Server) rpcSearch(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var p SearchRequest
	if e := decodeParams(params, &p); e != nil {
		return nil, e
	}
	result, err := s.library.Search(ctx, p.Query, p.URIs, p.Exact)
	if err != nil {
		return nil, s.appError(err)
	}
	return result, nil
}

type urisParams struct {
	URIs []string `json:"uris"`
}

// rpcLookup resolves each URI independently; failures yield an empty list.
func (s *Server) rpcLookup(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var p urisParams
	if e := decodeParams(params, &p); e != nil {
		return nil, e
	}
	results := make(map[string][]models.Track, len(p.URIs))
	for _, u := range p.URIs {
		tracks, _ := s.library.Lookup(ctx, u)
		if tracks == nil {
			tracks = []models.Track{}
		}
		results[u] = tracks
	}
	return results, nil
}

func (s *Server) rpcImages(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var p urisParams
	if e := decodeParams(params, &p); e != nil {
		return nil, e
	}
	images, err := s.library.Images(ctx, p.URIs)
	if err != nil {
		return nil, s.appError(err)
	}
	return images, nil
}

func (s *Server) rpcRefresh(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	if err := s.library.Refresh(); err != nil {
		return nil, s.appError(err)
	}
	return nil, nil
}

// handleRPC serves single JSON-RPC requests over plain HTTP POST.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp := s.dispatch(r.Context(), data)
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
