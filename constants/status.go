package constants

// InvoiceStatus is the lifecycle state of an invoice row.
type InvoiceStatus string

// Stable values (store these exact strings in DB).
const (
	StatusProcessing InvoiceStatus = "processing"
	StatusCompleted  InvoiceStatus = "completed" // terminal
	StatusFailed     InvoiceStatus = "failed"    // terminal
)

// InvoiceStatuses lists every status, used for enum columns.
var InvoiceStatuses = []string{
	string(StatusProcessing),
	string(StatusCompleted),
	string(StatusFailed),
}

// LogType classifies a processing log entry.
type LogType string

const (
	LogInfo    LogType = "info"
	LogSuccess LogType = "success"
	LogWarning LogType = "warning"
	LogError   LogType = "error"
)

var LogTypes = []string{
	string(LogInfo),
	string(LogSuccess),
	string(LogWarning),
	string(LogError),
}
