package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/deepsight-tools/internal/autolabel"
	"github.com/ironsheep/deepsight-tools/internal/config"
	imgio "github.com/ironsheep/deepsight-tools/internal/imaging"
	"github.com/ironsheep/deepsight-tools/internal/labels"
)

// ServerName is reported in the initialize handshake.
const ServerName = "deepsight-tools"

// Deps are the dataset collaborators the tools operate on.
type Deps struct {
	Config   *config.Store
	Store    *labels.Store
	Registry *labels.Registry

	// Cache is shared with Labeler when both are set. Nil allocates one.
	Cache *imgio.ImageCache

	// Labeler is built from Store, Registry and Cache when nil.
	Labeler *autolabel.Labeler

	// Log receives request diagnostics. Nil uses the logrus standard logger.
	Log logrus.FieldLogger

	// Version is reported as serverInfo.version.
	Version string
}

// Server handles MCP protocol communication
type Server struct {
	cfg      *config.Store
	store    *labels.Store
	registry *labels.Registry
	cache    *imgio.ImageCache
	labeler  *autolabel.Labeler
	log      logrus.FieldLogger
	version  string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance over d.
func New(d Deps) *Server {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.Cache == nil {
		d.Cache = imgio.NewImageCache()
	}
	if d.Labeler == nil {
		d.Labeler = autolabel.NewLabeler(d.Store, d.Registry, d.Cache, d.Log)
	}
	if d.Version == "" {
		d.Version = "0.1.0"
	}
	return &Server{
		cfg:      d.Config,
		store:    d.Store,
		registry: d.Registry,
		cache:    d.Cache,
		labeler:  d.Labeler,
		log:      d.Log,
		version:  d.Version,
	}
}

// Serve reads one JSON-RPC request per line from r and writes responses to
// w until r is exhausted or ctx is cancelled. Cancellation is noticed between
// requests.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.WithError(err).Warn("Failed to parse request")
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.WithError(err).Error("Failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.log.WithField("method", req.Method).Debug("Request received")
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": s.version,
			},
		},
	}
}
