package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/valpere/vtedit/internal/batch"
	"github.com/valpere/vtedit/internal/tile"
)

// JobHandler exposes batch job submission and status over HTTP, backed by
// a batch.Coordinator (and whatever batch.JobStore it was built with).
type JobHandler struct {
	coordinator batch.Coordinator
}

// NewJobHandler creates a new batch job handler.
func NewJobHandler(coordinator batch.Coordinator) *JobHandler {
	return &JobHandler{coordinator: coordinator}
}

// RegisterRoutes registers the batch job routes with Huma.
func (h *JobHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "submit-batch-job",
		Method:      http.MethodPost,
		Path:        "/v1/batch/jobs",
		Summary:     "Submit a batch composite or localize job over a tile range",
		Tags:        []string{"batch"},
	}, h.SubmitJob)

	huma.Register(api, huma.Operation{
		OperationID: "get-batch-job",
		Method:      http.MethodGet,
		Path:        "/v1/batch/jobs/{id}",
		Summary:     "Get batch job status and progress",
		Tags:        []string{"batch"},
	}, h.GetJob)

	huma.Register(api, huma.Operation{
		OperationID: "list-batch-jobs",
		Method:      http.MethodGet,
		Path:        "/v1/batch/jobs",
		Summary:     "List all batch jobs",
		Tags:        []string{"batch"},
	}, h.ListJobs)

	huma.Register(api, huma.Operation{
		OperationID: "cancel-batch-job",
		Method:      http.MethodPost,
		Path:        "/v1/batch/jobs/{id}/cancel",
		Summary:     "Cancel a running or pending batch job",
		Tags:        []string{"batch"},
	}, h.CancelJob)
}

// TileRangeBody is one z/x/y range within a batch job submission.
type TileRangeBody struct {
	MinZ int `json:"min_z"`
	MaxZ int `json:"max_z"`
	MinX int `json:"min_x"`
	MaxX int `json:"max_x"`
	MinY int `json:"min_y"`
	MaxY int `json:"max_y"`
}

// SubmitJobInput is the request body for POST /v1/batch/jobs.
type SubmitJobInput struct {
	Body struct {
		Operation  string                 `json:"operation" required:"true" enum:"composite,localize" doc:"Which operation every tile in range runs through"`
		TileRanges []TileRangeBody        `json:"tile_ranges" required:"true"`
		OutputPath string                 `json:"output_path" required:"true" doc:"Directory raw tiles are written under"`
		Localize   *batch.LocalizePolicy  `json:"localize,omitempty"`
		Composite  *batch.CompositePolicy `json:"composite,omitempty"`
	}
}

// JobBody is the job status shape returned by the batch endpoints.
type JobBody struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Progress *batch.JobProgress `json:"progress,omitempty"`
}

// SubmitJobOutput is the response body for POST /v1/batch/jobs.
type SubmitJobOutput struct {
	Body JobBody
}

// SubmitJob creates and starts a new batch job from the request's tile ranges.
func (h *JobHandler) SubmitJob(ctx context.Context, input *SubmitJobInput) (*SubmitJobOutput, error) {
	operation := batch.JobOperation(input.Body.Operation)
	if operation != batch.JobOperationComposite && operation != batch.JobOperationLocalize {
		return nil, huma.Error400BadRequest("operation must be \"composite\" or \"localize\"")
	}

	ranges := tileRangesFromBody(input.Body.TileRanges)
	if len(ranges) == 0 {
		return nil, huma.Error400BadRequest("tile_ranges must be non-empty")
	}

	jobConfig := batch.NewJobConfig()
	jobConfig.Operation = operation
	jobConfig.OutputPath = input.Body.OutputPath
	jobConfig.Localize = input.Body.Localize
	jobConfig.Composite = input.Body.Composite

	job := batch.NewJob(uuid.NewString(), ranges, jobConfig)
	if err := h.coordinator.SubmitJob(job); err != nil {
		return nil, huma.Error500InternalServerError("failed to submit job", err)
	}

	resp := &SubmitJobOutput{}
	resp.Body = JobBody{ID: job.ID, Status: job.Status.String(), Progress: job.Progress}
	return resp, nil
}

// GetJobInput identifies a job by path parameter.
type GetJobInput struct {
	ID string `path:"id"`
}

// GetJobOutput is the response body for GET /v1/batch/jobs/{id}.
type GetJobOutput struct {
	Body JobBody
}

// GetJob returns a single job's current status and progress.
func (h *JobHandler) GetJob(ctx context.Context, input *GetJobInput) (*GetJobOutput, error) {
	job, err := h.coordinator.GetJob(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}

	resp := &GetJobOutput{}
	resp.Body = JobBody{ID: job.ID, Status: job.Status.String(), Progress: job.Progress}
	return resp, nil
}

// ListJobsOutput is the response body for GET /v1/batch/jobs.
type ListJobsOutput struct {
	Body struct {
		Jobs []JobBody `json:"jobs"`
	}
}

// ListJobs returns the status of every job the coordinator is tracking.
func (h *JobHandler) ListJobs(ctx context.Context, input *struct{}) (*ListJobsOutput, error) {
	jobs, err := h.coordinator.ListJobs()
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list jobs", err)
	}

	resp := &ListJobsOutput{}
	resp.Body.Jobs = make([]JobBody, len(jobs))
	for i, job := range jobs {
		resp.Body.Jobs[i] = JobBody{ID: job.ID, Status: job.Status.String(), Progress: job.Progress}
	}
	return resp, nil
}

// CancelJobOutput is the response body for POST /v1/batch/jobs/{id}/cancel.
type CancelJobOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

// CancelJob cancels a running or pending job.
func (h *JobHandler) CancelJob(ctx context.Context, input *GetJobInput) (*CancelJobOutput, error) {
	if err := h.coordinator.CancelJob(input.ID); err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	resp := &CancelJobOutput{}
	resp.Body.Message = "job canceled"
	return resp, nil
}

func tileRangesFromBody(body []TileRangeBody) []*tile.TileRange {
	ranges := make([]*tile.TileRange, len(body))
	for i, b := range body {
		ranges[i] = tile.NewTileRange(b.MinZ, b.MaxZ, b.MinX, b.MaxX, b.MinY, b.MaxY)
	}
	return ranges
}
