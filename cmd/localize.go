// cmd/localize.go - Localize operation command
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

// localizeCmd represents the localize command
var localizeCmd = &cobra.Command{
	Use:   "localize",
	Short: "Rewrite a tile's properties per a language/worldview policy",
	Long: `Localize a single Mapbox Vector Tile's feature properties for a
requested set of languages and worldviews. Features are classified by
worldview compatibility, promoted hidden-prefixed shadow properties are
folded into the localized class and language values, and any remaining
hidden-prefixed property is dropped.

Examples:
  # Localize a local tile for French and a US worldview
  vtedit localize --base-path /data/tiles --tile 14/8362/5956 --languages fr --worldviews US --output out.mvt

  # Pass through with hidden-properties stripped, no language or worldview filtering
  vtedit localize --base-path /data/tiles --tile 14/8362/5956 --output out.mvt`,
	RunE: runLocalize,
}

func init() {
	rootCmd.AddCommand(localizeCmd)

	localizeCmd.Flags().String("tile", "", "tile coordinate as z/x/y")
	localizeCmd.Flags().StringArray("languages", nil, "requested languages in precedence order, or \"all\"")
	localizeCmd.Flags().StringArray("worldviews", nil, "requested worldviews, or \"ALL\"")
	localizeCmd.Flags().String("hidden-prefix", "_mbx_", "prefix marking shadow properties")
	localizeCmd.Flags().StringArray("omit-scripts", nil, "scripts to omit from the _local language variant")
	localizeCmd.Flags().String("language-property", "name", "base property name carrying the display language")
	localizeCmd.Flags().String("worldview-property", "worldview", "property name carrying the worldview tag")
	localizeCmd.Flags().String("worldview-default", "US", "worldview emitted when a feature carries no worldview key")
	localizeCmd.Flags().String("class-property", "class", "property name carrying the feature class")
	localizeCmd.Flags().Bool("compress", false, "gzip-compress the output tile")
	localizeCmd.Flags().StringP("output", "o", "", "output file path (default: stdout)")

	localizeCmd.MarkFlagRequired("tile")
}

func runLocalize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	tileStr, _ := cmd.Flags().GetString("tile")
	languages, _ := cmd.Flags().GetStringArray("languages")
	worldviews, _ := cmd.Flags().GetStringArray("worldviews")
	if len(languages) == 0 {
		languages = nil
	}
	if len(worldviews) == 0 {
		worldviews = nil
	}
	hiddenPrefix, _ := cmd.Flags().GetString("hidden-prefix")
	omitScripts, _ := cmd.Flags().GetStringArray("omit-scripts")
	languageProperty, _ := cmd.Flags().GetString("language-property")
	worldviewProperty, _ := cmd.Flags().GetString("worldview-property")
	worldviewDefault, _ := cmd.Flags().GetString("worldview-default")
	classProperty, _ := cmd.Flags().GetString("class-property")
	compress, _ := cmd.Flags().GetBool("compress")
	outputPath, _ := cmd.Flags().GetString("output")

	coord, err := tile.ParseZXY(tileStr)
	if err != nil {
		return fmt.Errorf("invalid --tile: %w", err)
	}

	factory := tile.NewFetcherFactory(cfg)
	fetcher, err := factory.CreateOptimalFetcher()
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	var req *tile.TileRequest
	if cfg.DetermineSourceType() == "http" {
		req = tile.NewTileRequest(coord.Z, coord.X, coord.Y, cfg.Server.BaseURL)
	} else {
		req = &tile.TileRequest{Z: coord.Z, X: coord.X, Y: coord.Y}
	}

	if viper.GetBool("logging.verbose") {
		fmt.Fprintf(os.Stderr, "Fetching tile %s\n", tileStr)
	}

	resp, err := fetcher.FetchWithRetry(req)
	if err != nil {
		return fmt.Errorf("failed to fetch tile %s: %w", tileStr, err)
	}

	out, err := vtedit.Localize(vtedit.LocalizeRequest{
		Buffer:            resp.Data,
		HiddenPrefix:      hiddenPrefix,
		OmitScripts:       omitScripts,
		Languages:         languages,
		LanguageProperty:  languageProperty,
		Worldviews:        worldviews,
		WorldviewProperty: worldviewProperty,
		WorldviewDefault:  worldviewDefault,
		ClassProperty:     classProperty,
		Compress:          compress,
	})
	if err != nil {
		return fmt.Errorf("localize failed: %w", err)
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
