package config

type WorkerKeyStruct struct {
	AuditLogQueue string
}

var WorkerKey = &WorkerKeyStruct{
	AuditLogQueue: "audit_log_queue",
}
