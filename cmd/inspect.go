// cmd/inspect.go - Debug conversion of a tile to GeoJSON
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/vtedit/internal"
	"github.com/valpere/vtedit/internal/config"
	"github.com/valpere/vtedit/internal/output"
	"github.com/valpere/vtedit/internal/tile"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Decode a Mapbox Vector Tile to GeoJSON for inspection",
	Long: `Decode a single Mapbox Vector Tile to GeoJSON, for debugging the
input to (or output of) a composite or localize operation. This command
does not perform any composite or localize transformation itself; it
is a read-only decoder.

This command supports multiple input methods:
- Direct URL to a remote tile server
- Direct file path to a local tile file
- Coordinates with base URL (remote) or base path (local)

The command automatically detects the source type based on the provided
parameters or uses the configured default source type.

Examples:
  # Inspect a tile fetched from a URL
  vtedit inspect --url "https://example.com/tiles/14/8362/5956.mvt" --output tile.geojson

  # Inspect a local tile file
  vtedit inspect --file "/path/to/tiles/14/8362/5956.mvt" --output tile.geojson

  # Inspect using coordinates and base path
  vtedit inspect --base-path "/path/to/tiles" --z 14 --x 8362 --y 5956 --pretty`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().String("url", "", "direct URL to the remote tile")
	inspectCmd.Flags().String("file", "", "direct path to the local tile file")
	inspectCmd.Flags().Int("z", 0, "tile zoom level")
	inspectCmd.Flags().Int("x", 0, "tile x coordinate")
	inspectCmd.Flags().Int("y", 0, "tile y coordinate")

	inspectCmd.Flags().String("source-type", "", "override source type (http, local)")

	inspectCmd.Flags().StringP("output", "o", "", "output file path (default: stdout)")
	inspectCmd.Flags().Bool("metadata", false, "include tile metadata in output")

	inspectCmd.MarkFlagsRequiredTogether("z", "x", "y")
	inspectCmd.MarkFlagsMutuallyExclusive("url", "file")
	inspectCmd.MarkFlagsMutuallyExclusive("url", "z")
	inspectCmd.MarkFlagsMutuallyExclusive("file", "z")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	url, _ := cmd.Flags().GetString("url")
	filePath, _ := cmd.Flags().GetString("file")
	z, _ := cmd.Flags().GetInt("z")
	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")
	sourceTypeOverride, _ := cmd.Flags().GetString("source-type")
	outputPath, _ := cmd.Flags().GetString("output")
	metadata, _ := cmd.Flags().GetBool("metadata")

	if url == "" && filePath == "" && (z == 0 && x == 0 && y == 0) {
		return fmt.Errorf("must specify either --url, --file, or --z/--x/--y coordinates")
	}

	if sourceTypeOverride != "" {
		switch sourceTypeOverride {
		case "http":
			cfg.Source.Type = "http"
		case "local":
			cfg.Source.Type = "local"
		default:
			return fmt.Errorf("invalid source type: %s (must be 'http' or 'local')", sourceTypeOverride)
		}
	}

	factory := tile.NewFetcherFactory(cfg)

	var sourceType internal.SourceType
	var tileRequest *tile.TileRequest

	if url != "" {
		sourceType = internal.SourceTypeHTTP
		tileRequest = &tile.TileRequest{URL: url, Z: z, X: x, Y: y}
	} else if filePath != "" {
		sourceType = internal.SourceTypeLocal
		tileRequest = &tile.TileRequest{URL: filePath, Z: z, X: x, Y: y}
	} else {
		sourceType = cfg.DetermineSourceType()

		if err := tile.ValidateCoordinates(z, x, y); err != nil {
			return fmt.Errorf("invalid tile coordinates: %w", err)
		}

		switch sourceType {
		case internal.SourceTypeHTTP:
			if cfg.Server.BaseURL == "" {
				return fmt.Errorf("base URL is required for HTTP source with coordinates")
			}
			tileRequest = tile.NewTileRequest(z, x, y, cfg.Server.BaseURL)
		case internal.SourceTypeLocal:
			if cfg.Local.BasePath == "" {
				return fmt.Errorf("base path is required for local source with coordinates")
			}
			tileRequest = &tile.TileRequest{Z: z, X: x, Y: y}
		default:
			return fmt.Errorf("unable to determine source type from configuration")
		}
	}

	if err := factory.ValidateConfiguration(sourceType); err != nil {
		return fmt.Errorf("source configuration validation failed: %w", err)
	}

	fetcher, err := factory.CreateFetcherForType(sourceType)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	processor := tile.NewMVTProcessor()

	if viper.GetBool("logging.verbose") {
		if sourceType == internal.SourceTypeHTTP {
			fmt.Fprintf(os.Stderr, "Fetching tile from URL: %s\n", tileRequest.URL)
		} else if filePath != "" {
			fmt.Fprintf(os.Stderr, "Reading tile from file: %s\n", filePath)
		} else {
			tilePath := cfg.GetTilePath(z, x, y)
			fmt.Fprintf(os.Stderr, "Reading tile from: %s\n", tilePath)
		}
	}

	response, err := fetcher.FetchWithRetry(tileRequest)
	if err != nil {
		return fmt.Errorf("failed to fetch tile: %w", err)
	}

	if viper.GetBool("logging.verbose") {
		fmt.Fprintf(os.Stderr, "Decoding tile data (%d bytes)\n", len(response.Data))
	}

	processedTile, err := processor.Process(response)
	if err != nil {
		return fmt.Errorf("failed to decode tile: %w", err)
	}

	format := output.FormatGeoJSON
	if output.Format(cfg.Output.Format).IsValid() {
		format = output.Format(cfg.Output.Format)
	}
	writerConfig := &output.WriterConfig{
		Format:      format,
		Pretty:      cfg.Output.Pretty,
		Compression: viper.GetBool("output.compression"),
		Metadata:    metadata,
	}

	var writer output.Writer
	if outputPath == "" || outputPath == "-" {
		writer, err = output.NewStdoutWriter(writerConfig.Format, writerConfig.Pretty)
	} else {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		writer, err = output.NewFileWriter(writerConfig, outputPath)
	}
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	defer writer.Close()

	if err := writer.Write(processedTile); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if viper.GetBool("logging.verbose") {
		if outputPath == "" || outputPath == "-" {
			fmt.Fprintf(os.Stderr, "Tile decoded successfully to stdout\n")
		} else {
			fmt.Fprintf(os.Stderr, "Tile decoded successfully to: %s\n", outputPath)
		}

		if processedTile.Metadata != nil {
			fmt.Fprintf(os.Stderr, "Features: %d, Layers: %v, Size: %d bytes\n",
				processedTile.Metadata.FeatureCount,
				processedTile.Metadata.Layers,
				processedTile.Metadata.Size)
		}

		fmt.Fprintf(os.Stderr, "Source: %s\n", sourceType)
	}

	return nil
}
