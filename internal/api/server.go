// Package api defines the HTTP surface exposing the composite and
// localize operations over REST, plus batch job submission.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/valpere/vtedit/internal/batch"
	"github.com/valpere/vtedit/pkg/vtedit"
)

// Config holds the API server's dependencies.
type Config struct {
	Host        string
	Port        string
	Coordinator batch.Coordinator
}

// Server is the vtedit HTTP server: a huma/v2 API for composite/localize
// and batch job management, plus a stdlib-only /healthz liveness probe.
type Server struct {
	config  Config
	mux     *http.ServeMux
	humaAPI huma.API
}

// New builds the server and registers its routes.
func New(cfg Config) *Server {
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("vtedit API", "1.0.0")
	humaConfig.Info.Description = "Composite and localize Mapbox Vector Tiles over HTTP."
	if cfg.Host != "" && cfg.Port != "" {
		humaConfig.Servers = []*huma.Server{
			{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
		}
	}

	humaAPI := humago.New(mux, humaConfig)

	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humaAPI,
	}

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	tileHandler := NewTileHandler()
	tileHandler.RegisterRoutes(s.humaAPI)

	if s.config.Coordinator != nil {
		jobHandler := NewJobHandler(s.config.Coordinator)
		jobHandler.RegisterRoutes(s.humaAPI)
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// TileHandler handles the synchronous composite/localize endpoints.
type TileHandler struct{}

// NewTileHandler creates a new tile operation handler.
func NewTileHandler() *TileHandler {
	return &TileHandler{}
}

// RegisterRoutes registers the composite/localize routes with Huma.
func (h *TileHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "composite-tiles",
		Method:      http.MethodPost,
		Path:        "/v1/composite",
		Summary:     "Composite source tiles into a target tile",
		Tags:        []string{"tiles"},
	}, h.Composite)

	huma.Register(api, huma.Operation{
		OperationID: "localize-tile",
		Method:      http.MethodPost,
		Path:        "/v1/localize",
		Summary:     "Localize a tile's properties by language and worldview",
		Tags:        []string{"tiles"},
	}, h.Localize)
}

// CompositeTileBody is one source tile in a CompositeInput request.
type CompositeTileBody struct {
	Z      uint32   `json:"z" doc:"Source tile zoom level"`
	X      uint32   `json:"x" doc:"Source tile column"`
	Y      uint32   `json:"y" doc:"Source tile row"`
	Buffer []byte   `json:"buffer" doc:"Base64-encoded source tile bytes"`
	Layers []string `json:"layers,omitempty" doc:"Layers to keep from this source; omit to keep all"`
}

// CompositeTargetBody identifies the tile a composite request builds.
type CompositeTargetBody struct {
	Z uint32 `json:"z" doc:"Target tile zoom level"`
	X uint32 `json:"x" doc:"Target tile column"`
	Y uint32 `json:"y" doc:"Target tile row"`
}

// CompositeInput is the request body for POST /v1/composite.
type CompositeInput struct {
	Body struct {
		Tiles      []CompositeTileBody `json:"tiles" required:"true" doc:"Source tiles to merge"`
		Target     CompositeTargetBody `json:"target" required:"true" doc:"Target tile coordinate"`
		BufferSize int                 `json:"buffer_size,omitempty" doc:"Clip buffer in tile units for overzoomed source tiles"`
		Compress   bool                `json:"compress,omitempty" doc:"gzip-compress the output tile"`
	}
}

// CompositeOutput is the response body for POST /v1/composite.
type CompositeOutput struct {
	Body struct {
		Tile []byte `json:"tile" doc:"Base64-encoded composited tile bytes"`
	}
}

// Composite merges the request's source tiles into its target tile.
func (h *TileHandler) Composite(ctx context.Context, input *CompositeInput) (*CompositeOutput, error) {
	tiles := make([]vtedit.SourceTileRequest, len(input.Body.Tiles))
	for i, t := range input.Body.Tiles {
		tiles[i] = vtedit.SourceTileRequest{Z: t.Z, X: t.X, Y: t.Y, Buffer: t.Buffer, Layers: t.Layers}
	}

	out, err := vtedit.Composite(vtedit.CompositeRequest{
		Tiles:  tiles,
		Target: vtedit.TargetRequest{Z: input.Body.Target.Z, X: input.Body.Target.X, Y: input.Body.Target.Y},
		Options: vtedit.CompositeOptions{
			BufferSize: input.Body.BufferSize,
			Compress:   input.Body.Compress,
		},
	})
	if err != nil {
		return nil, toHumaError(err)
	}

	resp := &CompositeOutput{}
	resp.Body.Tile = out
	return resp, nil
}

// LocalizeInput is the request body for POST /v1/localize.
type LocalizeInput struct {
	Body struct {
		Buffer            []byte   `json:"buffer" required:"true" doc:"Base64-encoded source tile bytes"`
		HiddenPrefix      string   `json:"hidden_prefix,omitempty" doc:"Prefix marking shadow properties"`
		OmitScripts       []string `json:"omit_scripts,omitempty" doc:"Scripts whose original name is replaced by the selected language value in the _local property"`
		Languages         []string `json:"languages,omitempty" doc:"Requested languages in precedence order, or [\"all\"]"`
		LanguageProperty  string   `json:"language_property,omitempty" doc:"Base property name carrying the display language"`
		Worldviews        []string `json:"worldviews,omitempty" doc:"Requested worldviews, or [\"ALL\"]"`
		WorldviewProperty string   `json:"worldview_property,omitempty" doc:"Property name carrying the worldview tag"`
		WorldviewDefault  string   `json:"worldview_default,omitempty" doc:"Worldview emitted when a feature carries no worldview key"`
		ClassProperty     string   `json:"class_property,omitempty" doc:"Property name carrying the feature class"`
		Compress          bool     `json:"compress,omitempty" doc:"gzip-compress the output tile"`
	}
}

// LocalizeOutput is the response body for POST /v1/localize.
type LocalizeOutput struct {
	Body struct {
		Tile []byte `json:"tile" doc:"Base64-encoded localized tile bytes"`
	}
}

// Localize rewrites the request's tile properties per its language/worldview policy.
func (h *TileHandler) Localize(ctx context.Context, input *LocalizeInput) (*LocalizeOutput, error) {
	out, err := vtedit.Localize(vtedit.LocalizeRequest{
		Buffer:            input.Body.Buffer,
		HiddenPrefix:      input.Body.HiddenPrefix,
		OmitScripts:       input.Body.OmitScripts,
		Languages:         input.Body.Languages,
		LanguageProperty:  input.Body.LanguageProperty,
		Worldviews:        input.Body.Worldviews,
		WorldviewProperty: input.Body.WorldviewProperty,
		WorldviewDefault:  input.Body.WorldviewDefault,
		ClassProperty:     input.Body.ClassProperty,
		Compress:          input.Body.Compress,
	})
	if err != nil {
		return nil, toHumaError(err)
	}

	resp := &LocalizeOutput{}
	resp.Body.Tile = out
	return resp, nil
}

// toHumaError maps a vtedit domain error onto the matching HTTP status.
func toHumaError(err error) error {
	vtErr, ok := err.(*vtedit.Error)
	if !ok {
		return huma.Error500InternalServerError(err.Error())
	}

	switch vtErr.Kind {
	case vtedit.InputValidation, vtedit.InvalidRequest:
		return huma.Error400BadRequest(vtErr.Message, vtErr)
	case vtedit.DecodeError, vtedit.SizeLimit:
		return huma.Error422UnprocessableEntity(vtErr.Message, vtErr)
	default:
		return huma.Error500InternalServerError(vtErr.Message, vtErr)
	}
}
