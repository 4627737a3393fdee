package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chaitanya176/aco-last-mile/internal/optimization"
)

// JSON-RPC 2.0 error codes
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// invalidParamsError marks params that could not be decoded.
type invalidParamsError struct {
	err error
}

func (e *invalidParamsError) Error() string { return "invalid params: " + e.err.Error() }
func (e *invalidParamsError) Unwrap() error { return e.err }

// decodeParams accepts either a params object or a positional array whose
// first element is the object.
func decodeParams(raw json.RawMessage, dst interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return &invalidParamsError{errors.New("missing required parameters")}
	}
	if raw[0] == '[' {
		var positional []json.RawMessage
		if err := json.Unmarshal(raw, &positional); err != nil {
			return &invalidParamsError{err}
		}
		if len(positional) == 0 {
			return &invalidParamsError{errors.New("missing required parameters")}
		}
		raw = positional[0]
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &invalidParamsError{err}
	}
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	var p idParams
	if err := decodeParams(raw, &p); err != nil {
		return "", err
	}
	if p.OptimizationID == "" {
		return "", &invalidParamsError{errors.New("optimization_id is required")}
	}
	return p.OptimizationID, nil
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, codeParseError, "Parse error", nil, nil)
		return
	}

	if request.JSONRPC != "2.0" || request.Method == "" {
		s.respondWithError(w, codeInvalidRequest, "Invalid Request", request.ID, nil)
		return
	}

	var result interface{}
	var err error

	switch request.Method {
	case "optimization.start":
		var params startParams
		if err = decodeParams(request.Params, &params); err == nil {
			result, err = s.startOptimization(params)
		}
	case "optimization.status":
		var id string
		if id, err = decodeID(request.Params); err == nil {
			result, err = s.optimizationStatus(id)
		}
	case "optimization.cancel":
		var id string
		if id, err = decodeID(request.Params); err == nil {
			err = s.cancelOptimization(id)
			result = map[string]interface{}{"optimization_id": id, "status": StatusCancelled}
		}
	default:
		s.respondWithError(w, codeMethodNotFound, "Method not found", request.ID, nil)
		return
	}

	if err != nil {
		code, message := rpcError(err)
		s.respondWithError(w, code, message, request.ID, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	})
}

func rpcError(err error) (int, string) {
	var paramsErr *invalidParamsError
	switch {
	case errors.As(err, &paramsErr),
		errors.Is(err, optimization.ErrInvalidConfiguration),
		errors.Is(err, optimization.ErrDegenerateGraph):
		return codeInvalidParams, "Invalid params"
	}
	return codeServerError, "Server error"
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}, data interface{}) {
	fields := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if data != nil {
		fields["data"] = data
	}
	s.logger.Warn("JSON-RPC error", fields)

	rpcErr := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if data != nil {
		rpcErr["data"] = data
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"error":   rpcErr,
		"id":      id,
	})
}
