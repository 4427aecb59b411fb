package handler

import (
	"errors"
	"net/http"

	"github.com/pavelplus/vetis-tools/internal/apierror"
	"github.com/pavelplus/vetis-tools/internal/dto"
	"github.com/pavelplus/vetis-tools/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SyncHandler enqueues workflow jobs and reports their progress.
type SyncHandler struct {
	dispatcher *worker.Dispatcher
}

func NewSyncHandler(dispatcher *worker.Dispatcher) *SyncHandler {
	return &SyncHandler{dispatcher: dispatcher}
}

// Trigger handles POST /v1/sync/:task. The workflow itself runs on the
// worker pool; the response carries the job id to poll.
func (h *SyncHandler) Trigger(c *gin.Context) {
	task := c.Param("task")
	if !worker.KnownTask(task) {
		c.JSON(http.StatusNotFound, apierror.New("unknown sync task: "+task))
		return
	}

	var req dto.TriggerSyncRequest
	if !bindAndValidate(c, &req) {
		return
	}

	payload := worker.SyncJobPayload{
		Task:             task,
		CredentialsID:    req.CredentialsID,
		InitiatorLogin:   req.InitiatorLogin,
		BusinessEntityID: req.BusinessEntityID,
		EnterpriseID:     req.EnterpriseID,
	}
	if req.StockEntryGUID != nil {
		guid, err := uuid.Parse(*req.StockEntryGUID)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid stock_entry_guid"))
			return
		}
		payload.StockEntryGUID = &guid
	}

	jobID, err := h.dispatcher.EnqueueSync(c.Request.Context(), payload)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, dto.SyncJobResponse{
		JobID: jobID,
		Task:  task,
		State: worker.JobStateQueued,
	})
}

// JobStatus handles GET /v1/sync/jobs/:id.
func (h *SyncHandler) JobStatus(c *gin.Context) {
	st, err := h.dispatcher.Status().Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, redis.Nil) {
		c.JSON(http.StatusNotFound, apierror.New("job not found or expired"))
		return
	}
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, st)
}
