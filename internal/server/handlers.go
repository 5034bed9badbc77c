package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/deepsight-tools/internal/augment"
	"github.com/ironsheep/deepsight-tools/internal/capture"
	"github.com/ironsheep/deepsight-tools/internal/detection"
	"github.com/ironsheep/deepsight-tools/internal/geometry"
	imgio "github.com/ironsheep/deepsight-tools/internal/imaging"
	"github.com/ironsheep/deepsight-tools/internal/labels"
	"github.com/ironsheep/deepsight-tools/internal/roi"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "label_write").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.WithError(err).WithField("tool", params.Name).Warn("Tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies defaults from the configuration for optional parameters
//  3. Loads images from cache as needed
//  4. Calls the geometry, labels, autolabel or augment package
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	// Frames
	case "image_load":
		return s.handleImageLoad(args)
	case "label_overlay":
		return s.handleLabelOverlay(args)
	case "image_crop":
		return s.handleImageCrop(args)
	case "edge_preview":
		return s.handleEdgePreview(args)

	// Geometry
	case "roi_to_source":
		return s.handleROIToSource(args)
	case "box_normalize":
		return s.handleBoxNormalize(args)
	case "box_to_display":
		return s.handleBoxToDisplay(args)

	// Dataset
	case "class_register":
		return s.handleClassRegister(args)
	case "label_write":
		return s.handleLabelWrite(args)
	case "label_from_edges":
		return s.handleLabelFromEdges(args)
	case "autolabel_folder":
		return s.handleAutolabelFolder(ctx, args)

	// Capture
	case "augment_preview":
		return s.handleAugmentPreview(args)
	case "config_get":
		return s.cfg.Get(), nil
	case "config_set_roi":
		return s.handleConfigSetROI(args)
	case "config_set_training":
		return s.handleConfigSetTraining(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// rectArgs is embedded by every tool taking a rectangle.
type rectArgs struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (a rectArgs) rect() geometry.Rect {
	return geometry.Rect{X1: a.X1, Y1: a.Y1, X2: a.X2, Y2: a.Y2}.Normalize()
}

func (a rectArgs) set() bool {
	return a != rectArgs{}
}

// thresholds returns the Canny thresholds to use, falling back to the
// configured sliders.
func (s *Server) thresholds(t1, t2 *int) (int, int) {
	lab := s.cfg.Get().Labeling
	th1, th2 := lab.CannyThreshold1.Clamped(), lab.CannyThreshold2.Clamped()
	if t1 != nil {
		th1 = *t1
	}
	if t2 != nil {
		th2 = *t2
	}
	return th1, th2
}

// === Frame Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

type imageLoadResult struct {
	*imgio.ImageInfo
	Labels []labels.NormalizedBox `json:"labels"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	info, err := imgio.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}
	boxes, err := s.store.ReadLabels(a.Path)
	if err != nil {
		return nil, err
	}
	if boxes == nil {
		boxes = []labels.NormalizedBox{}
	}
	return imageLoadResult{ImageInfo: info, Labels: boxes}, nil
}

type labelOverlayArgs struct {
	Path  string `json:"path"`
	Width int    `json:"width"`
	Color string `json:"color"`
}

func (s *Server) handleLabelOverlay(args json.RawMessage) (interface{}, error) {
	var a labelOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	boxes, err := s.store.ReadLabels(a.Path)
	if err != nil {
		return nil, err
	}

	outline := imgio.DefaultOverlayColor
	if a.Color != "" {
		if outline, err = imgio.ParseHexColor(a.Color); err != nil {
			return nil, fmt.Errorf("invalid color %q: %w", a.Color, err)
		}
	}

	frame := geometry.SizeOf(img)
	overlay := make([]imgio.OverlayBox, 0, len(boxes))
	for _, b := range boxes {
		overlay = append(overlay, imgio.OverlayBox{Rect: labels.ToDisplayRect(b, frame), Class: b.Class})
	}
	return imgio.EncodeThumbnail(imgio.DrawBoxes(img, overlay, outline), a.Width)
}

type imageCropArgs struct {
	Path string `json:"path"`
	rectArgs
	Scale float64 `json:"scale"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imgio.CropRegion(img, a.rect(), a.Scale)
}

type edgePreviewArgs struct {
	Path string `json:"path"`
	rectArgs
	Threshold1 *int `json:"threshold1"`
	Threshold2 *int `json:"threshold2"`
}

func (s *Server) handleEdgePreview(args json.RawMessage) (interface{}, error) {
	var a edgePreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	if a.set() {
		r := geometry.ClampRect(a.rect(), geometry.SizeOf(img))
		if r.Empty() {
			return nil, fmt.Errorf("region %s has no area inside the image", a.rect())
		}
		img = augment.Crop(img, &r)
	}
	th1, th2 := s.thresholds(a.Threshold1, a.Threshold2)
	return imgio.EdgeDetect(img, th1, th2)
}

// === Geometry Handlers ===

type roiToSourceArgs struct {
	DisplayWidth  int     `json:"display_width"`
	DisplayHeight int     `json:"display_height"`
	SourceWidth   int     `json:"source_width"`
	SourceHeight  int     `json:"source_height"`
	Zoom          float64 `json:"zoom"`
	PanX          int     `json:"pan_x"`
	PanY          int     `json:"pan_y"`
	rectArgs
	Save bool `json:"save"`
}

func (s *Server) handleROIToSource(args json.RawMessage) (interface{}, error) {
	var a roiToSourceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	view := geometry.NewView(
		geometry.Size{W: a.DisplayWidth, H: a.DisplayHeight},
		geometry.Size{W: a.SourceWidth, H: a.SourceHeight},
	)
	if a.Zoom > 0 {
		view.Zoom = a.Zoom
	}
	view.Pan = geometry.DisplayPoint{X: a.PanX, Y: a.PanY}

	session := roi.NewSession(view)
	session.PointerDown(geometry.DisplayPoint{X: a.X1, Y: a.Y1})
	session.PointerMove(geometry.DisplayPoint{X: a.X2, Y: a.Y2})
	sel, ok := session.PointerUp(geometry.DisplayPoint{X: a.X2, Y: a.Y2})
	if !ok {
		return nil, errors.New("selection has no area in source space")
	}
	if a.Save {
		if err := s.cfg.SaveROI(sel.Rect, sel.Center); err != nil {
			return nil, err
		}
	}
	return sel, nil
}

type boxNormalizeArgs struct {
	rectArgs
	FrameWidth  int     `json:"frame_width"`
	FrameHeight int     `json:"frame_height"`
	Class       int     `json:"class"`
	Padding     float64 `json:"padding"`
}

type boxResult struct {
	Box  labels.NormalizedBox `json:"box"`
	Line string               `json:"line"`
}

func (s *Server) handleBoxNormalize(args json.RawMessage) (interface{}, error) {
	var a boxNormalizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	box, err := labels.ToNormalized(a.rect(), geometry.Size{W: a.FrameWidth, H: a.FrameHeight}, a.Class, a.Padding)
	if err != nil {
		return nil, err
	}
	return boxResult{Box: box, Line: box.String()}, nil
}

type boxToDisplayArgs struct {
	Line        string `json:"line"`
	FrameWidth  int    `json:"frame_width"`
	FrameHeight int    `json:"frame_height"`
}

func (s *Server) handleBoxToDisplay(args json.RawMessage) (interface{}, error) {
	var a boxToDisplayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	box, err := labels.ParseBox(a.Line)
	if err != nil {
		return nil, err
	}
	return labels.ToDisplayRect(box, geometry.Size{W: a.FrameWidth, H: a.FrameHeight}), nil
}

// === Dataset Handlers ===

type classRegisterArgs struct {
	Name string `json:"name"`
}

type classRegisterResult struct {
	Index int      `json:"index"`
	Names []string `json:"names"`
}

func (s *Server) handleClassRegister(args json.RawMessage) (interface{}, error) {
	var a classRegisterArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	idx, err := s.registry.Register(a.Name)
	if err != nil {
		return nil, err
	}
	return classRegisterResult{Index: idx, Names: s.registry.Names()}, nil
}

type labelWriteArgs struct {
	Path  string `json:"path"`
	Label string `json:"label"`
	rectArgs
	Padding float64 `json:"padding"`
}

type labelWriteResult struct {
	Label   string               `json:"label"`
	Box     labels.NormalizedBox `json:"box"`
	Written bool                 `json:"written"`
}

func (s *Server) handleLabelWrite(args json.RawMessage) (interface{}, error) {
	var a labelWriteArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	// Validate the geometry before the class is registered.
	box, err := labels.ToNormalized(a.rect(), geometry.SizeOf(img), 0, a.Padding)
	if err != nil {
		return nil, err
	}
	idx, err := s.registry.Register(a.Label)
	if err != nil {
		return nil, err
	}
	box.Class = idx
	written, err := s.store.WriteLabel(a.Path, box)
	if err != nil {
		return nil, err
	}
	return labelWriteResult{Label: s.store.LabelPath(a.Path), Box: box, Written: written}, nil
}

type labelFromEdgesArgs struct {
	Path  string `json:"path"`
	Label string `json:"label"`
	rectArgs
	Threshold1 *int `json:"threshold1"`
	Threshold2 *int `json:"threshold2"`
}

func (s *Server) handleLabelFromEdges(args json.RawMessage) (interface{}, error) {
	var a labelFromEdgesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	l := *s.labeler
	l.Threshold1, l.Threshold2 = s.thresholds(a.Threshold1, a.Threshold2)
	return l.SaveEdgeLabel(a.Path, a.rect(), a.Label)
}

type autolabelFolderArgs struct {
	Dir         string   `json:"dir"`
	Label       string   `json:"label"`
	MinBBoxArea *int     `json:"min_bbox_area"`
	Padding     *float64 `json:"padding"`
	Threshold1  *int     `json:"threshold1"`
	Threshold2  *int     `json:"threshold2"`
}

func (s *Server) handleAutolabelFolder(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a autolabelFolderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	paths, err := imgio.ListImages(a.Dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images in %s", a.Dir)
	}

	lab := s.cfg.Get().Labeling
	l := *s.labeler
	l.MinBBoxArea, l.Padding = lab.MinBBoxArea, lab.PaddingFactor
	if a.MinBBoxArea != nil {
		l.MinBBoxArea = *a.MinBBoxArea
	}
	if a.Padding != nil {
		l.Padding = *a.Padding
	}
	// The contour detector follows the labeling sliders like edge labeling does.
	if d, ok := l.Detector.(detection.ContourDetector); ok {
		d.Threshold1, d.Threshold2 = s.thresholds(a.Threshold1, a.Threshold2)
		l.Detector = d
	}
	return l.Folder(ctx, paths, a.Label)
}

// === Capture Handlers ===

type augmentPreviewArgs struct {
	Path  string `json:"path"`
	Seed  int64  `json:"seed"`
	Width int    `json:"width"`
}

type augmentPreviewResult struct {
	*imgio.EncodedImage
	Realized augment.Realized `json:"realized"`
}

// handleAugmentPreview runs one iteration of the capture pipeline on a file:
// resize to the configured resolution, crop to the configured ROI, augment.
func (s *Server) handleAugmentPreview(args json.RawMessage) (interface{}, error) {
	var a augmentPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	cfg := s.cfg.Get()
	frame := capture.Resize(img, cfg.Resolution())
	var crop *geometry.Rect
	if r, ok := cfg.ROI(); ok {
		crop = &r
	}

	sample, err := augment.NewChain(cfg.Training.Params(), a.Seed).Apply(frame, crop)
	if err != nil {
		return nil, err
	}
	enc, err := imgio.EncodeThumbnail(sample.Image, a.Width)
	if err != nil {
		return nil, err
	}
	return augmentPreviewResult{EncodedImage: enc, Realized: sample.Realized}, nil
}

func (s *Server) handleConfigSetROI(args json.RawMessage) (interface{}, error) {
	var a rectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	r := a.rect()
	if r.Empty() {
		return nil, fmt.Errorf("ROI %s has no area", r)
	}
	if err := s.cfg.SaveROI(r, r.Center()); err != nil {
		return nil, err
	}
	return s.cfg.Get(), nil
}

type configSetTrainingArgs struct {
	Params      json.RawMessage `json:"params"`
	NumPictures int             `json:"num_pictures"`
	FrameRate   float64         `json:"frame_rate"`
}

func (s *Server) handleConfigSetTraining(args json.RawMessage) (interface{}, error) {
	var a configSetTrainingArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	// Decode onto the current ranges so omitted fields keep their values.
	p := s.cfg.Get().Training.Params()
	if len(a.Params) > 0 {
		if err := json.Unmarshal(a.Params, &p); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
	}
	if err := s.cfg.SaveTrainingParams(p, a.NumPictures, a.FrameRate); err != nil {
		return nil, err
	}
	return s.cfg.Get().Training, nil
}
