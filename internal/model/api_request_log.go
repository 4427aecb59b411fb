package model

import "time"

// APIRequestLog is one recorded registry exchange. StatusCode -1 marks an
// attempt that never connected.
type APIRequestLog struct {
	ID           uint      `gorm:"primaryKey"`
	CreatedAt    time.Time `gorm:"index"`
	SOAPAction   string    `gorm:"column:soap_action;type:varchar(30)"`
	RequestBody  string
	StatusCode   int
	ResponseBody string
	Comment      string `gorm:"type:varchar(255)"`
}
