// cmd/root.go - Root command implementation
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vtedit",
	Short: "Composite and localize Mapbox Vector Tiles",
	Long: `vtedit is a command-line tool and HTTP service for two server-side
Mapbox Vector Tile operations: compositing multiple source tiles (possibly
from coarser zoom levels) into a single target tile, and localizing a
tile's properties per a language/worldview policy.

Data Sources:
- Remote tile servers via HTTP/HTTPS
- Local tile files and directories
- A single PMTiles archive

Features:
- Composite N source tiles into one target tile, with overzoom when the
  source zoom is coarser than the target
- Localize a tile's properties by language and worldview, with hidden
  shadow-property promotion
- Batch process tile ranges, with resumable job tracking
- Serve both operations over HTTP
- Configurable compression and output destinations

Examples:
  # Composite two source tiles into a target tile
  vtedit composite --source 12/2048/1363 --source 13/4096/2726 --target 13/4096/2726 --output out.mvt

  # Localize a tile for French, US worldview
  vtedit localize --tile 14/8362/5956 --languages fr --worldviews US --output out.mvt

  # Batch composite a zoom range out of a PMTiles archive
  vtedit batch composite --pmtiles-archive tiles.pmtiles --min-zoom 10 --max-zoom 12 --bbox "-74.0,40.7,-73.9,40.8"

  # Serve composite/localize over HTTP
  vtedit serve --listen-addr :8080

  # Use configuration file
  vtedit composite --config config.yaml --source 14/8362/5956 --target 14/8362/5956`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vtedit.yaml)")

	// Source configuration flags
	rootCmd.PersistentFlags().String("source-type", "auto", "data source type (auto, http, local, pmtiles)")
	rootCmd.PersistentFlags().String("base-url", "", "base URL for tile server (HTTP source)")
	rootCmd.PersistentFlags().String("base-path", "", "base path for local tiles (local source)")
	rootCmd.PersistentFlags().String("pmtiles-archive", "", "path to a PMTiles archive (pmtiles source)")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (HTTP source)")

	// Output flags
	rootCmd.PersistentFlags().StringP("format", "f", "mvt", "output format (mvt, geojson)")
	rootCmd.PersistentFlags().Bool("pretty", true, "pretty print GeoJSON output")
	rootCmd.PersistentFlags().Bool("compression", false, "gzip-compress output tiles")

	// Processing flags
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose output")
	rootCmd.PersistentFlags().Int("concurrency", 10, "number of concurrent requests")
	rootCmd.PersistentFlags().Duration("timeout", 30*1000000000, "request timeout (HTTP source)")
	rootCmd.PersistentFlags().Int("retries", 3, "number of retry attempts")

	// Bind flags to viper
	viper.BindPFlag("source.type", rootCmd.PersistentFlags().Lookup("source-type"))
	viper.BindPFlag("server.base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	viper.BindPFlag("local.base_path", rootCmd.PersistentFlags().Lookup("base-path"))
	viper.BindPFlag("pmtiles.archive_path", rootCmd.PersistentFlags().Lookup("pmtiles-archive"))
	viper.BindPFlag("server.api_key", rootCmd.PersistentFlags().Lookup("api-key"))
	viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("format"))
	viper.BindPFlag("output.pretty", rootCmd.PersistentFlags().Lookup("pretty"))
	viper.BindPFlag("output.compression", rootCmd.PersistentFlags().Lookup("compression"))
	viper.BindPFlag("logging.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("batch.concurrency", rootCmd.PersistentFlags().Lookup("concurrency"))
	viper.BindPFlag("server.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("server.max_retries", rootCmd.PersistentFlags().Lookup("retries"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".vtedit" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".vtedit")
	}

	// Environment variables
	viper.SetEnvPrefix("VTEDIT")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("logging.verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
