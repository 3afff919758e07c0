package jobs

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportSnapshot rebuilds one campaign's report snapshot.
	TaskReportSnapshot = "reports:snapshot"
	// TaskProvisionSync re-runs catalog provisioning so new deployments pick
	// up freshly registered permissions without a manual seed.
	TaskProvisionSync = "authz:provision_sync"
)
