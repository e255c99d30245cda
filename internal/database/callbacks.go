package database

import (
	"time"

	"gorm.io/gorm"
)

// MetricsRecorder is the subset of the metrics surface the database layer
// needs, so this package does not import the metrics package directly
type MetricsRecorder interface {
	RecordDBQuery(operation, table string, duration time.Duration, err error)
}

func recordAfter(recorder MetricsRecorder, operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		start, ok := db.InstanceGet("query_start_time")
		if !ok {
			return
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		recorder.RecordDBQuery(operation, table, time.Since(start.(time.Time)), db.Error)
	}
}

func markStart(db *gorm.DB) {
	db.InstanceSet("query_start_time", time.Now())
}

// RegisterMetricsCallbacks hooks query timing into GORM for every operation
// kind the snapshot store uses
func RegisterMetricsCallbacks(db *gorm.DB, recorder MetricsRecorder) {
	_ = db.Callback().Query().Before("gorm:query").Register("metrics:select_before", markStart)
	_ = db.Callback().Query().After("gorm:query").Register("metrics:select_after", recordAfter(recorder, "select"))

	_ = db.Callback().Create().Before("gorm:create").Register("metrics:insert_before", markStart)
	_ = db.Callback().Create().After("gorm:create").Register("metrics:insert_after", recordAfter(recorder, "insert"))

	_ = db.Callback().Update().Before("gorm:update").Register("metrics:update_before", markStart)
	_ = db.Callback().Update().After("gorm:update").Register("metrics:update_after", recordAfter(recorder, "update"))

	_ = db.Callback().Delete().Before("gorm:delete").Register("metrics:delete_before", markStart)
	_ = db.Callback().Delete().After("gorm:delete").Register("metrics:delete_after", recordAfter(recorder, "delete"))
}
