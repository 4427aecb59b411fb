package worker

// sync_worker.go
// Processes registry sync jobs from QueueSync. Each job runs one named
// workflow of the sync service as a single unit of work; invocations for the
// same site or ledger record are serialized by queue order, the engine
// itself takes no locks.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pavelplus/vetis-tools/internal/infra"
	"github.com/pavelplus/vetis-tools/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Workflow task names accepted on the sync queue.
const (
	TaskReloadEnterprises  = "reload_enterprises"
	TaskReloadProducts     = "reload_products"
	TaskReloadProductItems = "reload_product_items"
	TaskSyncStock          = "sync_stock"
	TaskLoadStockVersions  = "load_stock_versions"
	TaskPopulateMains      = "populate_mains"
)

// KnownTask reports whether name is one of the dispatchable workflows.
func KnownTask(name string) bool {
	switch name {
	case TaskReloadEnterprises, TaskReloadProducts, TaskReloadProductItems,
		TaskSyncStock, TaskLoadStockVersions, TaskPopulateMains:
		return true
	}
	return false
}

// SyncJobPayload is the job envelope sent to QueueSync. Which ids are
// required depends on the task.
type SyncJobPayload struct {
	JobID            string     `json:"job_id"`
	Task             string     `json:"task"`
	CredentialsID    uint       `json:"credentials_id"`
	InitiatorLogin   string     `json:"initiator_login"`
	BusinessEntityID uint       `json:"business_entity_id,omitempty"`
	EnterpriseID     uint       `json:"enterprise_id,omitempty"`
	StockEntryGUID   *uuid.UUID `json:"stock_entry_guid,omitempty"`
}

// SyncWorker runs sync workflows pulled off the queue, tracking their status
// in Redis. The circuit breaker guards the registry: while it is open, jobs
// fail fast and land in the DLQ instead of hammering a downed remote.
type SyncWorker struct {
	svc        service.SyncService
	rdb        *redis.Client
	status     *StatusStore
	cb         *infra.CircuitBreaker
	dispatcher *Dispatcher
	alertEmail string
}

func NewSyncWorker(
	svc service.SyncService,
	rdb *redis.Client,
	cb *infra.CircuitBreaker,
	dispatcher *Dispatcher,
	alertEmail string,
) *SyncWorker {
	return &SyncWorker{
		svc:        svc,
		rdb:        rdb,
		status:     NewStatusStore(rdb),
		cb:         cb,
		dispatcher: dispatcher,
		alertEmail: alertEmail,
	}
}

// Process handles a single sync job: mark running, run the workflow through
// the circuit breaker, record the outcome. A fatal workflow error moves the
// job to the DLQ and raises an alert email.
func (w *SyncWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload SyncJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("sync_worker: invalid payload")
		return
	}
	if !KnownTask(payload.Task) {
		log.Error().Str("task", payload.Task).Msg("sync_worker: unknown task")
		return
	}

	if err := w.status.MarkRunning(ctx, payload.JobID); err != nil {
		log.Warn().Err(err).Str("job_id", payload.JobID).Msg("sync_worker: status update failed")
	}

	var summary string
	err := w.cb.Execute(func() error {
		var runErr error
		summary, runErr = w.run(ctx, payload)
		return runErr
	})
	if err != nil {
		w.fail(ctx, payload, raw, err)
		return
	}

	if err := w.status.MarkSucceeded(ctx, payload.JobID, summary); err != nil {
		log.Warn().Err(err).Str("job_id", payload.JobID).Msg("sync_worker: status update failed")
	}
	log.Info().Str("task", payload.Task).Str("job_id", payload.JobID).Str("summary", summary).
		Msg("sync_worker: workflow finished")
}

func (w *SyncWorker) run(ctx context.Context, p SyncJobPayload) (string, error) {
	switch p.Task {
	case TaskReloadEnterprises:
		return w.svc.ReloadEnterprises(ctx, p.CredentialsID, p.InitiatorLogin, p.BusinessEntityID)
	case TaskReloadProducts:
		return w.svc.ReloadProductsSubProducts(ctx, p.CredentialsID, p.InitiatorLogin)
	case TaskReloadProductItems:
		return w.svc.ReloadProductItems(ctx, p.CredentialsID, p.InitiatorLogin, p.BusinessEntityID)
	case TaskSyncStock:
		return w.svc.UpdateStockEntries(ctx, p.CredentialsID, p.InitiatorLogin, p.EnterpriseID)
	case TaskLoadStockVersions:
		if p.StockEntryGUID == nil {
			return "", fmt.Errorf("task %s requires a stock entry guid", p.Task)
		}
		return w.svc.LoadStockEntryVersions(ctx, p.CredentialsID, p.InitiatorLogin, p.EnterpriseID, *p.StockEntryGUID)
	case TaskPopulateMains:
		return w.svc.PopulateStockEntryMains(ctx, p.CredentialsID, p.InitiatorLogin, p.EnterpriseID)
	default:
		return "", fmt.Errorf("unknown task %q", p.Task)
	}
}

func (w *SyncWorker) fail(ctx context.Context, p SyncJobPayload, raw json.RawMessage, err error) {
	log.Error().Err(err).Str("task", p.Task).Str("job_id", p.JobID).
		Msg("sync_worker: workflow failed")

	if serr := w.status.MarkFailed(ctx, p.JobID, err.Error()); serr != nil {
		log.Warn().Err(serr).Str("job_id", p.JobID).Msg("sync_worker: status update failed")
	}
	SendToDLQ(ctx, w.rdb, QueueSync, p.Task, raw, err.Error(), 1)

	if w.alertEmail != "" {
		mail := EmailJobPayload{
			ToEmail: w.alertEmail,
			Subject: fmt.Sprintf("Registry sync failed: %s", p.Task),
			Body: fmt.Sprintf("Job %s (%s) failed:\n\n%v\n\nThe job was moved to the dead letter queue.",
				p.JobID, p.Task, err),
		}
		if merr := w.dispatcher.EnqueueEmail(ctx, mail); merr != nil {
			log.Warn().Err(merr).Msg("sync_worker: failed to enqueue alert email")
		}
	}
}
