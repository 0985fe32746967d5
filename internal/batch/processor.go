// internal/batch/processor.go - Batch processing implementation
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/valpere/vtedit/internal/config"
	"github.com/valpere/vtedit/internal/tile"
	"github.com/valpere/vtedit/pkg/vtedit"
)

// BatchProcessor implements the Processor interface for composite/localize
// batch jobs: every tile in the job's ranges is fetched, run through the
// operation named by JobConfig.Operation, and written as a raw tile under
// OutputPath/{z}/{x}/{y}.mvt.
type BatchProcessor struct {
	fetcher  tile.Fetcher
	cfg      *config.Config
	reporter ProgressReporter
	mutex    sync.RWMutex
}

// NewBatchProcessor creates a new batch processor with the specified components
func NewBatchProcessor(fetcher tile.Fetcher, cfg *config.Config, reporter ProgressReporter) *BatchProcessor {
	return &BatchProcessor{
		fetcher:  fetcher,
		cfg:      cfg,
		reporter: reporter,
	}
}

// Process executes a complete batch processing job
func (bp *BatchProcessor) Process(ctx context.Context, job *Job) error {
	bp.mutex.Lock()
	job.Status = JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	job.Progress.StartTime = now
	bp.mutex.Unlock()

	if bp.reporter != nil {
		bp.reporter.ReportProgress(job)
	}

	workItems, err := bp.generateWorkItems(job.TileRanges)
	if err != nil {
		bp.completeJobWithError(job, fmt.Errorf("failed to generate work items: %w", err))
		return err
	}

	bp.mutex.Lock()
	job.Progress.TotalTiles = int64(len(workItems))
	job.Progress.TotalChunks = (len(workItems) + job.Config.ChunkSize - 1) / job.Config.ChunkSize
	bp.mutex.Unlock()

	chunkResults := make([]*ChunkResult, 0, job.Progress.TotalChunks)

	for chunkStart := 0; chunkStart < len(workItems); chunkStart += job.Config.ChunkSize {
		select {
		case <-ctx.Done():
			bp.completeJobWithError(job, ctx.Err())
			return ctx.Err()
		default:
		}

		chunkEnd := chunkStart + job.Config.ChunkSize
		if chunkEnd > len(workItems) {
			chunkEnd = len(workItems)
		}

		chunk := workItems[chunkStart:chunkEnd]
		chunkID := len(chunkResults)

		bp.mutex.Lock()
		job.Progress.CurrentChunk = chunkID + 1
		bp.mutex.Unlock()

		chunkResult, err := bp.ProcessChunk(ctx, chunk, job.Config)
		if err != nil {
			if job.Config.FailOnError {
				bp.completeJobWithError(job, fmt.Errorf("chunk %d failed: %w", chunkID, err))
				return err
			}
		}

		chunkResults = append(chunkResults, chunkResult)
		bp.updateJobProgress(job, chunkResult)

		if bp.reporter != nil {
			bp.reporter.ReportChunkComplete(job, chunkResult)
		}
	}

	bp.completeJobSuccessfully(job)

	if bp.reporter != nil {
		bp.reporter.ReportJobComplete(job)
	}

	return nil
}

// ProcessChunk processes a chunk of work items concurrently
func (bp *BatchProcessor) ProcessChunk(ctx context.Context, workItems []*WorkItem, cfg *JobConfig) (*ChunkResult, error) {
	start := time.Now()

	workChan := make(chan *WorkItem, len(workItems))
	resultChan := make(chan *WorkResult, len(workItems))

	for _, item := range workItems {
		workChan <- item
	}
	close(workChan)

	var wg sync.WaitGroup
	concurrency := min(len(workItems), cfg.Concurrency)
	if concurrency < 1 {
		concurrency = 1
	}

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bp.worker(ctx, workChan, resultChan, cfg)
		}()
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var results []*WorkResult
	successCount := 0
	failureCount := 0

	for result := range resultChan {
		results = append(results, result)
		if result.Error != nil {
			failureCount++
			continue
		}
		successCount++

		if err := bp.writeTile(cfg.OutputPath, result.Item.Request, result.RawTile); err != nil {
			failureCount++
			successCount--
			result.Error = fmt.Errorf("write failed: %w", err)
		}
	}

	return &ChunkResult{
		ChunkID:      workItems[0].ChunkID,
		Results:      results,
		Duration:     time.Since(start),
		SuccessCount: successCount,
		FailureCount: failureCount,
	}, nil
}

// worker processes individual work items
func (bp *BatchProcessor) worker(ctx context.Context, workChan <-chan *WorkItem, resultChan chan<- *WorkResult, cfg *JobConfig) {
	for workItem := range workChan {
		select {
		case <-ctx.Done():
			resultChan <- &WorkResult{Item: workItem, Error: ctx.Err(), Attempts: 1}
			return
		default:
		}

		resultChan <- bp.processWorkItem(workItem, cfg)
	}
}

// processWorkItem fetches a single tile and runs it through the job's
// operation (composite or localize), with retry.
func (bp *BatchProcessor) processWorkItem(workItem *WorkItem, cfg *JobConfig) *WorkResult {
	start := time.Now()
	var lastErr error
	maxAttempts := cfg.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * time.Second)
		}

		response, err := bp.fetcher.Fetch(workItem.Request)
		if err != nil {
			lastErr = fmt.Errorf("fetch failed: %w", err)
			continue
		}

		var raw []byte
		if cfg.Operation == JobOperationComposite {
			raw, err = bp.runComposite(workItem, response.Data, cfg)
		} else {
			raw, err = bp.runLocalize(response.Data, cfg)
		}
		if err != nil {
			lastErr = err
			continue
		}

		return &WorkResult{
			Item:     workItem,
			RawTile:  raw,
			Duration: time.Since(start),
			Attempts: attempt + 1,
		}
	}

	return &WorkResult{
		Item:     workItem,
		Error:    lastErr,
		Duration: time.Since(start),
		Attempts: maxAttempts,
	}
}

// runLocalize applies the job's language/worldview policy to one tile.
func (bp *BatchProcessor) runLocalize(data []byte, cfg *JobConfig) ([]byte, error) {
	policy := cfg.Localize
	if policy == nil {
		policy = &LocalizePolicy{
			HiddenPrefix:      "_mbx_",
			LanguageProperty:  "name",
			WorldviewProperty: "worldview",
			WorldviewDefault:  "US",
			ClassProperty:     "class",
		}
	}

	raw, err := vtedit.Localize(vtedit.LocalizeRequest{
		Buffer:            data,
		HiddenPrefix:      policy.HiddenPrefix,
		OmitScripts:       policy.OmitScripts,
		Languages:         policy.Languages,
		LanguageProperty:  policy.LanguageProperty,
		Worldviews:        policy.Worldviews,
		WorldviewProperty: policy.WorldviewProperty,
		WorldviewDefault:  policy.WorldviewDefault,
		ClassProperty:     policy.ClassProperty,
		Compress:          cfg.Compression,
	})
	if err != nil {
		return nil, fmt.Errorf("localize failed: %w", err)
	}
	return raw, nil
}

// runComposite re-packages one tile through vtedit.Composite, using the
// fetched tile as its own sole source composited onto itself at the same
// coordinate. This applies the policy's layer filter and compression across
// a whole batch job's tile range; since source and target zoom are equal,
// layers are copied without clipping and the buffer size has no effect.
func (bp *BatchProcessor) runComposite(workItem *WorkItem, data []byte, cfg *JobConfig) ([]byte, error) {
	policy := cfg.Composite
	if policy == nil {
		policy = &CompositePolicy{}
	}

	z := uint32(workItem.Request.Z)
	x := uint32(workItem.Request.X)
	y := uint32(workItem.Request.Y)

	raw, err := vtedit.Composite(vtedit.CompositeRequest{
		Tiles: []vtedit.SourceTileRequest{
			{Z: z, X: x, Y: y, Buffer: data, Layers: policy.Layers},
		},
		Target: vtedit.TargetRequest{Z: z, X: x, Y: y},
		Options: vtedit.CompositeOptions{
			BufferSize: policy.BufferSize,
			Compress:   policy.Compress || cfg.Compression,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("composite failed: %w", err)
	}
	return raw, nil
}

// writeTile writes a raw tile under baseDir/{z}/{x}/{y}.mvt
func (bp *BatchProcessor) writeTile(baseDir string, req *tile.TileRequest, data []byte) error {
	path := filepath.Join(baseDir, fmt.Sprintf("%d", req.Z), fmt.Sprintf("%d", req.X), fmt.Sprintf("%d.mvt", req.Y))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// generateWorkItems creates work items from tile ranges
func (bp *BatchProcessor) generateWorkItems(tileRanges []*tile.TileRange) ([]*WorkItem, error) {
	var workItems []*WorkItem
	itemID := 0

	for _, tileRange := range tileRanges {
		for z := tileRange.MinZ; z <= tileRange.MaxZ; z++ {
			for x := tileRange.MinX; x <= tileRange.MaxX; x++ {
				for y := tileRange.MinY; y <= tileRange.MaxY; y++ {
					if err := tile.ValidateCoordinates(z, x, y); err != nil {
						return nil, fmt.Errorf("invalid tile coordinates %d/%d/%d: %w", z, x, y, err)
					}

					var request *tile.TileRequest
					if bp.cfg != nil && bp.cfg.DetermineSourceType() == "http" {
						request = tile.NewTileRequest(z, x, y, bp.cfg.Server.BaseURL)
					} else {
						request = &tile.TileRequest{Z: z, X: x, Y: y}
					}
					workItems = append(workItems, NewWorkItem(request, 0, itemID))
					itemID++
				}
			}
		}
	}

	return workItems, nil
}

// updateJobProgress updates job progress based on chunk results
func (bp *BatchProcessor) updateJobProgress(job *Job, chunkResult *ChunkResult) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	job.Progress.ProcessedTiles += int64(len(chunkResult.Results))
	job.Progress.SuccessTiles += int64(chunkResult.SuccessCount)
	job.Progress.FailedTiles += int64(chunkResult.FailureCount)
	job.Progress.UpdateThroughput()

	estimatedEnd := job.Progress.EstimateCompletion()
	job.Progress.EstimatedEnd = &estimatedEnd
}

// completeJobSuccessfully marks the job as completed
func (bp *BatchProcessor) completeJobSuccessfully(job *Job) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	job.Status = JobStatusCompleted
	now := time.Now()
	job.CompletedAt = &now
}

// completeJobWithError marks the job as failed
func (bp *BatchProcessor) completeJobWithError(job *Job, err error) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	job.Status = JobStatusFailed
	job.Error = err
	now := time.Now()
	job.CompletedAt = &now

	if bp.reporter != nil {
		bp.reporter.ReportJobFailed(job, err)
	}
}

// min returns the minimum of two integers
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
