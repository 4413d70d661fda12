package types

const (
	ActionRabbitMQConnected       = "rabbitmq_connected"
	ActionRabbitConnectionClosed  = "rabbitmq_connection_closed"
	ActionRabbitConnectionClosing = "rabbitmq_connection_closing"
	ActionRabbitReconnected       = "rabbitmq_reconnection_success"
	ActionEventPublishFailed      = "event_publish_failed"

	ActionDatabaseTransactionFailed = "database_transaction_failed"
	ActionExternalServiceFailed     = "external_service_failed"

	ActionRideCreated       = "ride_created"
	ActionDriverConfirmed   = "driver_confirmed"
	ActionRideStarted       = "ride_started"
	ActionRideFinished      = "ride_finished"
	ActionRideCancelled     = "ride_cancelled"
	ActionRideAutoCompleted = "ride_auto_completed"
	ActionLocationUpdated   = "location_updated"

	ActionLedgerCredited   = "ledger_credited"
	ActionPayoutRequested  = "payout_requested"
	ActionPayoutFinalized  = "payout_finalized"
	ActionReceiptGenerated = "receipt_generated"
	ActionReceiptCollision = "receipt_number_collision"
	ActionSettingsUpdated  = "settings_updated"
)
