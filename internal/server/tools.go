package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func integer(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": desc}
}

func number(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": desc}
}

func str(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

// rectProps returns the x1..y2 properties of a rectangle in the named space.
func rectProps(props map[string]interface{}, space string) map[string]interface{} {
	props["x1"] = integer("Left edge X in " + space + " (0-based)")
	props["y1"] = integer("Top edge Y in " + space + " (0-based)")
	props["x2"] = integer("Right edge X in " + space + " (exclusive)")
	props["y2"] = integer("Bottom edge Y in " + space + " (exclusive)")
	return props
}

func object(props map[string]interface{}, required ...string) map[string]interface{} {
	if required == nil {
		required = []string{}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

var rectRequired = []string{"x1", "y1", "x2", "y2"}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Frames
		{
			Name:        "image_load",
			Description: "Load a dataset frame and return its dimensions, format and any labels already written for it.",
			InputSchema: object(map[string]interface{}{
				"path": str("Absolute path to the image file"),
			}, "path"),
		},
		{
			Name:        "label_overlay",
			Description: "Draw the stored labels of a frame onto it and return a base64 PNG thumbnail.",
			InputSchema: object(map[string]interface{}{
				"path":  str("Absolute path to the image file"),
				"width": integer("Thumbnail width in pixels. Default 200"),
				"color": str("Outline color as #RRGGBB. Default #00FF00"),
			}, "path"),
		},
		{
			Name:        "image_crop",
			Description: "Extract a rectangular region of a frame and return it as base64 PNG, optionally rescaled.",
			InputSchema: object(rectProps(map[string]interface{}{
				"path":  str("Absolute path to the image file"),
				"scale": number("Resize factor applied after cropping. Default 1"),
			}, "source pixels"), append([]string{"path"}, rectRequired...)...),
		},
		{
			Name:        "edge_preview",
			Description: "Run Canny edge detection on a frame (or a region of it) and return the edge map as base64 PNG. Thresholds default to the configured labeling sliders.",
			InputSchema: object(rectProps(map[string]interface{}{
				"path":       str("Absolute path to the image file"),
				"threshold1": integer("First hysteresis threshold (0-255 gradient scale)"),
				"threshold2": integer("Second hysteresis threshold"),
			}, "source pixels; omit for the whole frame"), "path"),
		},

		// Geometry
		{
			Name:        "roi_to_source",
			Description: "Convert a rectangle dragged on a zoomed/panned display into source-image pixels and its center. Optionally saves it as the capture ROI.",
			InputSchema: object(rectProps(map[string]interface{}{
				"display_width":  integer("Display canvas width"),
				"display_height": integer("Display canvas height"),
				"source_width":   integer("Source image width"),
				"source_height":  integer("Source image height"),
				"zoom":           number("Display zoom factor. Default 1"),
				"pan_x":          integer("Horizontal pan offset in display pixels"),
				"pan_y":          integer("Vertical pan offset in display pixels"),
				"save":           map[string]interface{}{"type": "boolean", "description": "Store the result as current_roi and training_center"},
			}, "display pixels"), append([]string{"display_width", "display_height", "source_width", "source_height"}, rectRequired...)...),
		},
		{
			Name:        "box_normalize",
			Description: "Convert a source-pixel rectangle into a YOLO label line, with optional padding. Rejects boxes with no area or covering 95% of the frame on both axes.",
			InputSchema: object(rectProps(map[string]interface{}{
				"frame_width":  integer("Frame width in pixels"),
				"frame_height": integer("Frame height in pixels"),
				"class":        integer("Class index"),
				"padding":      number("Padding as a fraction of the box size on each side. Default 0"),
			}, "source pixels"), append([]string{"frame_width", "frame_height"}, rectRequired...)...),
		},
		{
			Name:        "box_to_display",
			Description: "Convert a YOLO label line back into a pixel rectangle of the given frame.",
			InputSchema: object(map[string]interface{}{
				"line":         str("Label line: class x_center y_center width height"),
				"frame_width":  integer("Frame width in pixels"),
				"frame_height": integer("Frame height in pixels"),
			}, "line", "frame_width", "frame_height"),
		},

		// Dataset
		{
			Name:        "class_register",
			Description: "Register a class name in the dataset YAML and return its index. Registering an existing name returns its index unchanged.",
			InputSchema: object(map[string]interface{}{
				"name": str("Class name"),
			}, "name"),
		},
		{
			Name:        "label_write",
			Description: "Write a label for a frame from a source-pixel rectangle. The class is registered first. An existing label file is never overwritten.",
			InputSchema: object(rectProps(map[string]interface{}{
				"path":    str("Absolute path to the image file"),
				"label":   str("Class name"),
				"padding": number("Padding fraction. Default 0"),
			}, "source pixels"), append([]string{"path", "label"}, rectRequired...)...),
		},
		{
			Name:        "label_from_edges",
			Description: "Label the object inside a ROI of a frame from its edges. The crop is saved as the dataset image and the label is relative to it.",
			InputSchema: object(rectProps(map[string]interface{}{
				"path":       str("Absolute path to the image file"),
				"label":      str("Class name"),
				"threshold1": integer("First Canny threshold. Default from configuration"),
				"threshold2": integer("Second Canny threshold. Default from configuration"),
			}, "source pixels"), append([]string{"path", "label"}, rectRequired...)...),
		},
		{
			Name:        "autolabel_folder",
			Description: "Detect the object in every frame of a directory and write padded labels for those with a large enough detection.",
			InputSchema: object(map[string]interface{}{
				"dir":           str("Directory of JPEG/PNG frames"),
				"label":         str("Class name"),
				"min_bbox_area": integer("Minimum box area in square pixels. Default from configuration"),
				"padding":       number("Padding fraction. Default from configuration"),
				"threshold1":    integer("First Canny threshold of the detector. Default from configuration"),
				"threshold2":    integer("Second Canny threshold of the detector. Default from configuration"),
			}, "dir", "label"),
		},

		// Capture
		{
			Name:        "augment_preview",
			Description: "Apply the configured augmentation chain to a frame once and return the sample with the randomly drawn parameters.",
			InputSchema: object(map[string]interface{}{
				"path":  str("Absolute path to the image file"),
				"seed":  integer("Random seed. Same seed, same sample"),
				"width": integer("Thumbnail width in pixels. Default 200"),
			}, "path"),
		},
		{
			Name:        "config_get",
			Description: "Return the current configuration.",
			InputSchema: object(map[string]interface{}{}),
		},
		{
			Name:        "config_set_roi",
			Description: "Store a source-pixel rectangle as the capture ROI; its center becomes the training center.",
			InputSchema: object(rectProps(map[string]interface{}{}, "source pixels"), rectRequired...),
		},
		{
			Name:        "config_set_training",
			Description: "Update augmentation ranges, picture count and frame interval. Omitted fields keep their current values.",
			InputSchema: object(map[string]interface{}{
				"params":       map[string]interface{}{"type": "object", "description": "Augmentation ranges: rotation, beta, alpha, zoom, hue, saturation, translate, shear as {min,max}; flip_lr probability"},
				"num_pictures": integer("Pictures per capture session"),
				"frame_rate":   number("Interval between captures in milliseconds"),
			}),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
