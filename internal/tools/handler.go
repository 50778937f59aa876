package tools

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Handler serves the tool registry over JSON-RPC 2.0.
type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/rpc", h.RPC)
}

// RPC dispatches a single JSON-RPC request. Protocol failures are reported
// in-band with an error object and HTTP 200, per the JSON-RPC convention.
func (h *Handler) RPC(c echo.Context) error {
	var req rpcRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusOK, errorResponse(nil, codeParseError, "parse error"))
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return c.JSON(http.StatusOK, errorResponse(req.ID, codeInvalidRequest, "invalid request"))
	}

	ctx := c.Request().Context()

	switch req.Method {
	case "tools/list":
		return c.JSON(http.StatusOK, rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{"tools": h.registry.List()},
		})

	case "tools/call":
		var params callParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
			return c.JSON(http.StatusOK, errorResponse(req.ID, codeInvalidParams, "invalid params: name is required"))
		}
		args := params.Arguments
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}

		result, err := h.registry.Call(ctx, params.Name, args)
		if err != nil {
			switch {
			case errors.Is(err, ErrToolNotFound):
				return c.JSON(http.StatusOK, errorResponse(req.ID, codeMethodNotFound, err.Error()))
			case errors.Is(err, ErrInvalidParams):
				return c.JSON(http.StatusOK, errorResponse(req.ID, codeInvalidParams, err.Error()))
			default:
				return c.JSON(http.StatusOK, errorResponse(req.ID, codeInternalError, err.Error()))
			}
		}
		return c.JSON(http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result})

	default:
		return c.JSON(http.StatusOK, errorResponse(req.ID, codeMethodNotFound, "method not found: "+req.Method))
	}
}

func errorResponse(id json.RawMessage, code int, message string) rpcResponse {
	return rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: code, Message: message},
	}
}
