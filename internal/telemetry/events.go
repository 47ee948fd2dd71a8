package telemetry

// TrackCLICommandExecuted records a CLI command run.
func (c *posthogClient) TrackCLICommandExecuted(commandName string, hasFlags bool, durationMs int64) {
	c.Track("cli_command_executed", map[string]interface{}{
		"command_name": commandName,
		"has_flags":    hasFlags,
		"duration_ms":  durationMs,
	})
}

// TrackCLIError records a CLI command failure by error type.
func (c *posthogClient) TrackCLIError(commandName, errorType string) {
	c.Track("cli_error", map[string]interface{}{
		"command_name": commandName,
		"error_type":   errorType,
	})
}

// TrackDatasetSynced records one dataset's fetch-flatten-load cycle.
func (c *posthogClient) TrackDatasetSynced(integration, dataset string, rowCount int64, durationMs int64) {
	c.Track("dataset_synced", map[string]interface{}{
		"integration": integration,
		"dataset":     dataset,
		"row_count":   rowCount,
		"duration_ms": durationMs,
	})
}

// TrackSyncCompleted records a full sync run for one integration.
func (c *posthogClient) TrackSyncCompleted(integration string, datasets int, failed int) {
	c.Track("sync_completed", map[string]interface{}{
		"integration": integration,
		"datasets":    datasets,
		"failed":      failed,
	})
}

// TrackQueryExecuted records an async query's terminal state.
func (c *posthogClient) TrackQueryExecuted(queryName, state string, durationMs int64) {
	c.Track("query_executed", map[string]interface{}{
		"query_name":  queryName,
		"state":       state,
		"duration_ms": durationMs,
	})
}

// TrackActionExecuted records an automation action outcome.
func (c *posthogClient) TrackActionExecuted(actionName string, success bool, affected int) {
	c.Track("action_executed", map[string]interface{}{
		"action_name": actionName,
		"success":     success,
		"affected":    affected,
	})
}

func (c *noopClient) TrackCLICommandExecuted(commandName string, hasFlags bool, durationMs int64) {}
func (c *noopClient) TrackCLIError(commandName, errorType string)                                {}
func (c *noopClient) TrackDatasetSynced(integration, dataset string, rowCount, durationMs int64) {}
func (c *noopClient) TrackSyncCompleted(integration string, datasets int, failed int)            {}
func (c *noopClient) TrackQueryExecuted(queryName, state string, durationMs int64)               {}
func (c *noopClient) TrackActionExecuted(actionName string, success bool, affected int)          {}
