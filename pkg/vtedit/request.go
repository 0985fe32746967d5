package vtedit

import (
	"strconv"

	"github.com/valpere/vtedit/pkg/composite"
	"github.com/valpere/vtedit/pkg/localize"
	"github.com/valpere/vtedit/pkg/zxy"
)

// SourceTileRequest is one input tile to a composite operation.
type SourceTileRequest struct {
	Z, X, Y uint32
	Buffer  []byte
	Layers  []string
}

// TargetRequest identifies the tile a composite operation builds.
type TargetRequest struct {
	Z, X, Y uint32
}

// CompositeOptions configures a composite operation's output.
type CompositeOptions struct {
	BufferSize int
	Compress   bool
}

// CompositeRequest is the full input to Composite.
type CompositeRequest struct {
	Tiles   []SourceTileRequest
	Target  TargetRequest
	Options CompositeOptions
}

// LocalizeRequest is the full input to Localize.
type LocalizeRequest struct {
	Buffer            []byte
	HiddenPrefix      string
	OmitScripts       []string
	Languages         []string
	LanguageProperty  string
	Worldviews        []string
	WorldviewProperty string
	WorldviewDefault  string
	ClassProperty     string
	Compress          bool
}

func nonEmptyStrings(values []string) bool {
	for _, v := range values {
		if v == "" {
			return false
		}
	}
	return true
}

func validateCompositeRequest(req CompositeRequest) error {
	if len(req.Tiles) == 0 {
		return NewError(InputValidation, "composite: tiles must be a non-empty array", nil)
	}
	for i, t := range req.Tiles {
		if t.Buffer == nil {
			return NewError(InputValidation, "composite: tiles["+strconv.Itoa(i)+"].buffer is required", nil)
		}
		if t.Layers != nil && len(t.Layers) == 0 {
			return NewError(InputValidation, "composite: tiles["+strconv.Itoa(i)+"].layers, if present, must be non-empty", nil)
		}
		if !nonEmptyStrings(t.Layers) {
			return NewError(InputValidation, "composite: tiles["+strconv.Itoa(i)+"].layers must contain only non-empty strings", nil)
		}
	}
	return nil
}

func validateLocalizeRequest(req LocalizeRequest) error {
	if req.Buffer == nil {
		return NewError(InputValidation, "localize: buffer is required", nil)
	}
	if req.Languages != nil && len(req.Languages) == 0 {
		return NewError(InputValidation, "localize: languages, if present, must be non-empty", nil)
	}
	if !nonEmptyStrings(req.Languages) {
		return NewError(InputValidation, "localize: languages must contain only non-empty strings", nil)
	}
	if req.Worldviews != nil && len(req.Worldviews) == 0 {
		return NewError(InputValidation, "localize: worldviews, if present, must be non-empty", nil)
	}
	if !nonEmptyStrings(req.Worldviews) {
		return NewError(InputValidation, "localize: worldviews must contain only non-empty strings", nil)
	}
	if !nonEmptyStrings(req.OmitScripts) {
		return NewError(InputValidation, "localize: omit_scripts must contain only non-empty strings", nil)
	}
	return nil
}

// Composite validates req and merges its source tiles into the target
// tile, delegating to pkg/composite.
func Composite(req CompositeRequest) ([]byte, error) {
	if err := validateCompositeRequest(req); err != nil {
		return nil, err
	}

	tiles := make([]composite.SourceTile, len(req.Tiles))
	for i, t := range req.Tiles {
		tiles[i] = composite.SourceTile{
			ID:     zxy.ID{Z: t.Z, X: t.X, Y: t.Y},
			Data:   t.Buffer,
			Layers: t.Layers,
		}
	}

	target := composite.Target{Z: req.Target.Z, X: req.Target.X, Y: req.Target.Y}
	opts := composite.Options{
		BufferSize: req.Options.BufferSize,
		Compress:   req.Options.Compress,
	}

	out, err := composite.Composite(tiles, target, opts)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Localize validates req and rewrites its tile's properties per the
// requested language/worldview policy, delegating to pkg/localize.
func Localize(req LocalizeRequest) ([]byte, error) {
	if err := validateLocalizeRequest(req); err != nil {
		return nil, err
	}

	opts := localize.Options{
		HiddenPrefix:      req.HiddenPrefix,
		OmitScripts:       req.OmitScripts,
		Languages:         req.Languages,
		LanguageProperty:  req.LanguageProperty,
		Worldviews:        req.Worldviews,
		WorldviewProperty: req.WorldviewProperty,
		WorldviewDefault:  req.WorldviewDefault,
		ClassProperty:     req.ClassProperty,
		Compress:          req.Compress,
	}

	out, err := localize.Localize(req.Buffer, opts)
	if err != nil {
		return nil, err
	}
	return out, nil
}

