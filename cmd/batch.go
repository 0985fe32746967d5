// cmd/batch.go - Batch processing command
package cmd

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/vtedit/internal/batch"
	"github.com/valpere/vtedit/internal/config"
	"github.com/valpere/vtedit/internal/tile"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Composite or localize multiple tiles across a zoom range or tile list",
	Long: `Batch process multiple Mapbox Vector Tiles across a zoom range and
bounding box, or an explicit tile list, via one of the two subcommands:

  batch localize  - localize each tile's properties per a language/worldview policy
  batch composite - re-package each tile through the composite encoder, useful for
                     bulk layer filtering/compression normalization across a zoom range
                     (each tile is its own same-zoom source, so buffer size has no effect)

Every tile is fetched, run through the chosen operation, and written as a
raw tile under --output-dir/{z}/{x}/{y}.mvt.`,
}

var batchLocalizeCmd = &cobra.Command{
	Use:   "localize",
	Short: "Localize multiple tiles across a zoom range or tile list",
	Long: `Examples:
  # Localize a zoom range within a bounding box for French, US worldview
  vtedit batch localize --min-zoom 10 --max-zoom 12 --bbox "-74.0,40.7,-73.9,40.8" --languages fr --worldviews US --output-dir ./tiles/

  # Localize a specific tile list
  vtedit batch localize --tiles "14/8362/5956,14/8363/5956" --output-dir ./tiles/`,
	RunE: runBatchLocalize,
}

var batchCompositeCmd = &cobra.Command{
	Use:   "composite",
	Short: "Re-package multiple tiles through the composite encoder",
	Long: `Examples:
  # Normalize compression across a zoom range out of a PMTiles archive
  vtedit batch composite --pmtiles-archive tiles.pmtiles --min-zoom 10 --max-zoom 12 --bbox "-74.0,40.7,-73.9,40.8" --compress --output-dir ./tiles/`,
	RunE: runBatchComposite,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.AddCommand(batchLocalizeCmd)
	batchCmd.AddCommand(batchCompositeCmd)

	for _, c := range []*cobra.Command{batchLocalizeCmd, batchCompositeCmd} {
		c.Flags().Int("zoom", 0, "single zoom level to process")
		c.Flags().Int("min-zoom", 0, "minimum zoom level")
		c.Flags().Int("max-zoom", 0, "maximum zoom level")
		c.Flags().String("bbox", "", "bounding box: 'min_lon,min_lat,max_lon,max_lat'")
		c.Flags().String("tiles", "", "specific tiles list: 'z/x/y,z/x/y,...'")

		c.Flags().String("output-dir", "./output", "output directory for processed tiles")

		c.Flags().Int("chunk-size", 100, "number of tiles per processing chunk")
		c.Flags().Bool("fail-on-error", false, "stop processing on first error")
		c.Flags().Bool("progress", true, "show progress indicator")

		c.MarkFlagsMutuallyExclusive("zoom", "min-zoom")
		c.MarkFlagsMutuallyExclusive("zoom", "max-zoom")
	}

	batchLocalizeCmd.Flags().StringArray("languages", nil, "requested languages in precedence order, or \"all\"")
	batchLocalizeCmd.Flags().StringArray("worldviews", nil, "requested worldviews, or \"ALL\"")
	batchLocalizeCmd.Flags().String("hidden-prefix", "_mbx_", "prefix marking shadow properties")
	batchLocalizeCmd.Flags().String("language-property", "name", "base property name carrying the display language")
	batchLocalizeCmd.Flags().String("worldview-property", "worldview", "property name carrying the worldview tag")
	batchLocalizeCmd.Flags().String("worldview-default", "US", "worldview emitted when a feature carries no worldview key")
	batchLocalizeCmd.Flags().String("class-property", "class", "property name carrying the feature class")

	batchCompositeCmd.Flags().StringArray("layers", nil, "layers to keep; omit to keep all")
	batchCompositeCmd.Flags().Int("buffer-size", 0, "clip buffer in tile units; has no effect here, since each tile is copied at its own zoom without clipping")
	batchCompositeCmd.Flags().Bool("compress", false, "gzip-compress each output tile")
}

// resolveTileRanges parses either --tiles or the zoom/bbox flags into tile ranges.
func resolveTileRanges(cmd *cobra.Command) ([]*tile.TileRange, error) {
	zoom, _ := cmd.Flags().GetInt("zoom")
	minZoom, _ := cmd.Flags().GetInt("min-zoom")
	maxZoom, _ := cmd.Flags().GetInt("max-zoom")
	bboxStr, _ := cmd.Flags().GetString("bbox")
	tilesStr, _ := cmd.Flags().GetString("tiles")

	if tilesStr != "" {
		return parseTilesList(tilesStr)
	}

	if zoom > 0 {
		minZoom = zoom
		maxZoom = zoom
	}

	if minZoom == 0 && maxZoom == 0 {
		return nil, fmt.Errorf("zoom level(s) must be specified")
	}

	if maxZoom == 0 {
		maxZoom = minZoom
	}

	var bbox *BoundingBox
	if bboxStr != "" {
		var err error
		bbox, err = parseBoundingBox(bboxStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse bounding box: %w", err)
		}
	}

	return generateTileRanges(minZoom, maxZoom, bbox)
}

// runBatchJob creates the fetcher and processor, runs jobConfig against
// tileRanges, and prints the summary common to both batch subcommands.
func runBatchJob(cfg *config.Config, label string, tileRanges []*tile.TileRange, jobConfig *batch.JobConfig, showProgress bool) error {
	if len(tileRanges) == 0 {
		return fmt.Errorf("no tiles to process")
	}

	var totalTiles int64
	for _, tr := range tileRanges {
		totalTiles += tr.Count()
	}

	if viper.GetBool("logging.verbose") {
		fmt.Fprintf(os.Stderr, "%s %d tiles across %d ranges\n", label, totalTiles, len(tileRanges))
	}

	factory := tile.NewFetcherFactory(cfg)
	fetcher, err := factory.CreateOptimalFetcher()
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	var reporter batch.ProgressReporter
	if showProgress {
		reporter = NewConsoleProgressReporter()
	}

	batchProcessor := batch.NewBatchProcessor(fetcher, cfg, reporter)

	job := batch.NewJob(generateJobID(), tileRanges, jobConfig)

	ctx, cancel := context.WithTimeout(context.Background(), jobConfig.Timeout)
	defer cancel()

	if viper.GetBool("logging.verbose") {
		fmt.Fprintf(os.Stderr, "Starting batch job: %s\n", job.ID)
	}

	if err := batchProcessor.Process(ctx, job); err != nil {
		return fmt.Errorf("batch processing failed: %w", err)
	}

	if viper.GetBool("logging.verbose") || showProgress {
		elapsed := time.Since(job.Progress.StartTime)
		fmt.Fprintf(os.Stderr, "\nBatch job completed successfully!\n")
		fmt.Fprintf(os.Stderr, "Processed: %d tiles\n", job.Progress.ProcessedTiles)
		fmt.Fprintf(os.Stderr, "Success: %d, Failed: %d\n", job.Progress.SuccessTiles, job.Progress.FailedTiles)
		fmt.Fprintf(os.Stderr, "Duration: %v\n", elapsed)
		fmt.Fprintf(os.Stderr, "Throughput: %.2f tiles/second\n", job.Progress.Throughput)
	}

	return nil
}

func runBatchLocalize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	tileRanges, err := resolveTileRanges(cmd)
	if err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString("output-dir")
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")
	failOnError, _ := cmd.Flags().GetBool("fail-on-error")
	showProgress, _ := cmd.Flags().GetBool("progress")

	languages, _ := cmd.Flags().GetStringArray("languages")
	worldviews, _ := cmd.Flags().GetStringArray("worldviews")
	if len(languages) == 0 {
		languages = nil
	}
	if len(worldviews) == 0 {
		worldviews = nil
	}
	hiddenPrefix, _ := cmd.Flags().GetString("hidden-prefix")
	languageProperty, _ := cmd.Flags().GetString("language-property")
	worldviewProperty, _ := cmd.Flags().GetString("worldview-property")
	worldviewDefault, _ := cmd.Flags().GetString("worldview-default")
	classProperty, _ := cmd.Flags().GetString("class-property")

	jobConfig := &batch.JobConfig{
		Operation:   batch.JobOperationLocalize,
		Concurrency: cfg.Batch.Concurrency,
		ChunkSize:   chunkSize,
		Timeout:     cfg.Batch.Timeout,
		FailOnError: failOnError,
		Compression: viper.GetBool("output.compression"),
		OutputPath:  outputDir,
		Localize: &batch.LocalizePolicy{
			HiddenPrefix:      hiddenPrefix,
			Languages:         languages,
			LanguageProperty:  languageProperty,
			Worldviews:        worldviews,
			WorldviewProperty: worldviewProperty,
			WorldviewDefault:  worldviewDefault,
			ClassProperty:     classProperty,
		},
	}

	return runBatchJob(cfg, "Localizing", tileRanges, jobConfig, showProgress)
}

func runBatchComposite(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	tileRanges, err := resolveTileRanges(cmd)
	if err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString("output-dir")
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")
	failOnError, _ := cmd.Flags().GetBool("fail-on-error")
	showProgress, _ := cmd.Flags().GetBool("progress")

	layers, _ := cmd.Flags().GetStringArray("layers")
	if len(layers) == 0 {
		layers = nil
	}
	bufferSize, _ := cmd.Flags().GetInt("buffer-size")
	compress, _ := cmd.Flags().GetBool("compress")

	jobConfig := &batch.JobConfig{
		Operation:   batch.JobOperationComposite,
		Concurrency: cfg.Batch.Concurrency,
		ChunkSize:   chunkSize,
		Timeout:     cfg.Batch.Timeout,
		FailOnError: failOnError,
		Compression: compress,
		OutputPath:  outputDir,
		Composite: &batch.CompositePolicy{
			Layers:     layers,
			BufferSize: bufferSize,
			Compress:   compress,
		},
	}

	return runBatchJob(cfg, "Compositing", tileRanges, jobConfig, showProgress)
}

// BoundingBox represents a geographic bounding box
type BoundingBox struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// parseBoundingBox parses a bounding box string
func parseBoundingBox(bbox string) (*BoundingBox, error) {
	parts := strings.Split(bbox, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bounding box must have 4 values: min_lon,min_lat,max_lon,max_lat")
	}

	coords := make([]float64, 4)
	for i, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate value: %s", part)
		}
		coords[i] = val
	}

	return &BoundingBox{
		MinLon: coords[0],
		MinLat: coords[1],
		MaxLon: coords[2],
		MaxLat: coords[3],
	}, nil
}

// parseTilesList parses a comma-separated list of tile coordinates
func parseTilesList(tiles string) ([]*tile.TileRange, error) {
	parts := strings.Split(tiles, ",")
	var ranges []*tile.TileRange

	for _, part := range parts {
		coord, err := tile.ParseZXY(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, tile.NewTileRange(coord.Z, coord.Z, coord.X, coord.X, coord.Y, coord.Y))
	}

	return ranges, nil
}

// generateTileRanges creates tile ranges from zoom levels and optional bounding box
func generateTileRanges(minZoom, maxZoom int, bbox *BoundingBox) ([]*tile.TileRange, error) {
	var ranges []*tile.TileRange

	for z := minZoom; z <= maxZoom; z++ {
		var minX, maxX, minY, maxY int

		if bbox != nil {
			minX, minY = deg2tile(bbox.MinLon, bbox.MaxLat, z)
			maxX, maxY = deg2tile(bbox.MaxLon, bbox.MinLat, z)
		} else {
			maxTile := (1 << uint(z)) - 1
			minX, minY = 0, 0
			maxX, maxY = maxTile, maxTile
		}

		ranges = append(ranges, tile.NewTileRange(z, z, minX, maxX, minY, maxY))
	}

	return ranges, nil
}

// deg2tile converts geographic coordinates to tile coordinates
func deg2tile(lon, lat float64, z int) (int, int) {
	n := 1 << uint(z)
	x := int((lon + 180.0) / 360.0 * float64(n))
	latRad := lat * math.Pi / 180.0
	y := int((1.0 - math.Asinh(math.Tan(latRad))/math.Pi) / 2.0 * float64(n))
	return x, y
}

// generateJobID creates a unique job ID
func generateJobID() string {
	return uuid.NewString()
}

// ConsoleProgressReporter implements progress reporting to console
type ConsoleProgressReporter struct {
	lastUpdate time.Time
}

// NewConsoleProgressReporter creates a new console progress reporter
func NewConsoleProgressReporter() *ConsoleProgressReporter {
	return &ConsoleProgressReporter{}
}

// ReportProgress reports job progress to console
func (r *ConsoleProgressReporter) ReportProgress(job *batch.Job) error {
	if time.Since(r.lastUpdate) < time.Second {
		return nil
	}

	progress := job.Progress.CalculateProgress()
	fmt.Fprintf(os.Stderr, "\rProgress: %.1f%% (%d/%d tiles, %.2f tiles/sec)",
		progress, job.Progress.ProcessedTiles, job.Progress.TotalTiles, job.Progress.Throughput)

	r.lastUpdate = time.Now()
	return nil
}

// ReportChunkComplete reports chunk completion
func (r *ConsoleProgressReporter) ReportChunkComplete(job *batch.Job, chunk *batch.ChunkResult) error {
	return r.ReportProgress(job)
}

// ReportJobComplete reports job completion
func (r *ConsoleProgressReporter) ReportJobComplete(job *batch.Job) error {
	fmt.Fprintf(os.Stderr, "\rCompleted: 100%% (%d tiles processed)\n", job.Progress.ProcessedTiles)
	return nil
}

// ReportJobFailed reports job failure
func (r *ConsoleProgressReporter) ReportJobFailed(job *batch.Job, err error) error {
	fmt.Fprintf(os.Stderr, "\rFailed: %s\n", err.Error())
	return nil
}
