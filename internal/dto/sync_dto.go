package dto

// TriggerSyncRequest is the body of POST /v1/sync/:task. Which ids are
// required depends on the task; the worker validates the combination.
type TriggerSyncRequest struct {
	CredentialsID    uint    `json:"credentials_id" validate:"required"`
	InitiatorLogin   string  `json:"initiator_login" validate:"required"`
	BusinessEntityID uint    `json:"business_entity_id"`
	EnterpriseID     uint    `json:"enterprise_id"`
	StockEntryGUID   *string `json:"stock_entry_guid"`
}

// SyncJobResponse acknowledges an enqueued workflow.
type SyncJobResponse struct {
	JobID string `json:"job_id"`
	Task  string `json:"task"`
	State string `json:"state"`
}
