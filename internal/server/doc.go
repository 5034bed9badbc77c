// Package server implements the MCP (Model Context Protocol) server that
// exposes the dataset tools.
//
// The server speaks JSON-RPC 2.0 over stdio so an MCP client can drive the
// labeling workflow: inspect frames, convert display selections into source
// pixels, write YOLO labels, auto-label folders and tune the capture
// configuration.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Frames:
//   - image_load: Dimensions, format and stored labels of a frame
//   - label_overlay: Stored labels drawn over the frame
//   - image_crop: Region of a frame, optionally rescaled
//   - edge_preview: Canny edge map of a frame or region
//
// Geometry:
//   - roi_to_source: Display drag to source rectangle and center
//   - box_normalize: Pixel rectangle to YOLO label line
//   - box_to_display: YOLO label line to pixel rectangle
//
// Dataset:
//   - class_register: Add a class to the dataset YAML
//   - label_write: Label a frame from a rectangle
//   - label_from_edges: Label the object inside a ROI from its edges
//   - autolabel_folder: Detect and label every frame of a directory
//
// Capture:
//   - augment_preview: One seeded augmentation sample
//   - config_get, config_set_roi, config_set_training: Settings file access
//
// # Image Caching
//
// Frames are decoded once and cached by path for the lifetime of the server.
// The cache is shared with the labeler.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(server.Deps{Config: cfg, Store: store, Registry: reg, Log: log})
//	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server
