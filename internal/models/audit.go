package models

import "time"

// AuditAction constants form the fixed action vocabulary of the audit trail.
const (
	AuditActionLogin         = "login"
	AuditActionLogout        = "logout"
	AuditActionAdd           = "add"
	AuditActionUpdate        = "update"
	AuditActionDelete        = "delete"
	AuditActionUndoDelete    = "undo_delete"
	AuditActionUndoInsert    = "undo_insert"
	AuditActionUndoUpdate    = "undo_update"
	AuditActionImport        = "import"
	AuditActionExportCSV     = "export_csv"
	AuditActionExportExcel   = "export_excel"
	AuditActionExportPDF     = "export_pdf"
	AuditActionBackup        = "backup"
	AuditActionRestore       = "restore"
	AuditActionRefreshCharts = "refresh_charts"
)

// AuditEntry is one append-only audit trail record. Entries are never
// mutated or deleted by the application.
type AuditEntry struct {
	ID      int64     `db:"id" json:"id"`
	TS      time.Time `db:"ts" json:"ts"`
	User    string    `db:"user" json:"user"`
	Role    string    `db:"role" json:"role"`
	Action  string    `db:"action" json:"action"`
	Details string    `db:"details" json:"details"`
}
