// cmd/composite.go - Composite operation command
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/vtedit/internal/config"
	"github.com/valpere/vtedit/internal/output"
	"github.com/valpere/vtedit/internal/tile"
	"github.com/valpere/vtedit/pkg/vtedit"
)

// compositeCmd represents the composite command
var compositeCmd = &cobra.Command{
	Use:   "composite",
	Short: "Merge one or more source tiles into a single target tile",
	Long: `Merge one or more Mapbox Vector Tiles, possibly from a coarser zoom
level, into a single target tile. Source tiles at a coarser zoom are
overzoomed: their geometry is scaled and clipped into the target's
coordinate space. Layers are deduplicated first-writer-wins across all
source tiles.

Examples:
  # Composite two local tiles into a z13 target
  vtedit composite --base-path /data/tiles --source 12/2048/1363 --source 13/4096/2726 --target 13/4096/2726 --output out.mvt

  # Composite a single tile fetched from a remote server (no-op shallow copy)
  vtedit composite --base-url https://example.com/tiles --source 10/512/340 --target 10/512/340 --output out.mvt`,
	RunE: runComposite,
}

func init() {
	rootCmd.AddCommand(compositeCmd)

	compositeCmd.Flags().StringArray("source", nil, "source tile coordinate as z/x/y (repeatable)")
	compositeCmd.Flags().String("target", "", "target tile coordinate as z/x/y")
	compositeCmd.Flags().StringArray("layers", nil, "restrict every source tile to these layers (optional; omit to keep all)")
	compositeCmd.Flags().Int("buffer-size", 0, "overzoom clip buffer in tile-local units")
	compositeCmd.Flags().Bool("compress", false, "gzip-compress the output tile")
	compositeCmd.Flags().StringP("output", "o", "", "output file path (default: stdout)")

	compositeCmd.MarkFlagRequired("source")
	compositeCmd.MarkFlagRequired("target")
}

func runComposite(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	sources, _ := cmd.Flags().GetStringArray("source")
	targetStr, _ := cmd.Flags().GetString("target")
	layers, _ := cmd.Flags().GetStringArray("layers")
	if len(layers) == 0 {
		layers = nil
	}
	bufferSize, _ := cmd.Flags().GetInt("buffer-size")
	compress, _ := cmd.Flags().GetBool("compress")
	outputPath, _ := cmd.Flags().GetString("output")

	target, err := tile.ParseZXY(targetStr)
	if err != nil {
		return fmt.Errorf("invalid --target: %w", err)
	}

	factory := tile.NewFetcherFactory(cfg)
	fetcher, err := factory.CreateOptimalFetcher()
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	tiles := make([]vtedit.SourceTileRequest, 0, len(sources))
	for _, s := range sources {
		coord, err := tile.ParseZXY(s)
		if err != nil {
			return fmt.Errorf("invalid --source %q: %w", s, err)
		}

		var req *tile.TileRequest
		if cfg.DetermineSourceType() == "http" {
			req = tile.NewTileRequest(coord.Z, coord.X, coord.Y, cfg.Server.BaseURL)
		} else {
			req = &tile.TileRequest{Z: coord.Z, X: coord.X, Y: coord.Y}
		}

		if viper.GetBool("logging.verbose") {
			fmt.Fprintf(os.Stderr, "Fetching source tile %s\n", s)
		}

		resp, err := fetcher.FetchWithRetry(req)
		if err != nil {
			return fmt.Errorf("failed to fetch source tile %s: %w", s, err)
		}

		tiles = append(tiles, vtedit.SourceTileRequest{
			Z:      uint32(coord.Z),
			X:      uint32(coord.X),
			Y:      uint32(coord.Y),
			Buffer: resp.Data,
			Layers: layers,
		})
	}

	out, err := vtedit.Composite(vtedit.CompositeRequest{
		Tiles:  tiles,
		Target: vtedit.TargetRequest{Z: uint32(target.Z), X: uint32(target.X), Y: uint32(target.Y)},
		Options: vtedit.CompositeOptions{
			BufferSize: bufferSize,
			Compress:   compress,
		},
	})
	if err != nil {
		return fmt.Errorf("composite failed: %w", err)
	}

	n, err := output.WriteRawTile(out, outputPath)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if viper.GetBool("logging.verbose") {
		fmt.Fprintf(os.Stderr, "Wrote %d bytes to %s\n", n, destinationLabel(outputPath))
	}

	return nil
}

func destinationLabel(path string) string {
	if path == "" || path == "-" {
		return "stdout"
	}
	return path
}
