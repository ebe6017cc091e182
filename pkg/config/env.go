package config

// EnvPrefix is passed to envconfig; every variable below carries it.
const EnvPrefix = "BLOBETL"

const (
	EnvLogLevel                  = "BLOBETL_LOG_LEVEL"
	EnvLogFormat                 = "BLOBETL_LOG_FORMAT"
	EnvRunDate                   = "BLOBETL_RUN_DATE"
	EnvContractPath              = "BLOBETL_CONTRACT_PATH"
	EnvStoreBackend              = "BLOBETL_STORE_BACKEND"
	EnvStoreContainer            = "BLOBETL_STORE_CONTAINER"
	EnvStoreConnectionString     = "BLOBETL_STORE_CONNECTION_STRING"
	EnvStoreConnectionStringFile = "BLOBETL_STORE_CONNECTION_STRING_FILE"
	EnvQuarantineDeleteSource    = "BLOBETL_QUARANTINE_DELETE_SOURCE"
	EnvLockRedisURL              = "BLOBETL_LOCK_REDIS_URL"
	EnvMetricsPushURL            = "BLOBETL_METRICS_PUSH_URL"
	EnvLayoutDelimiter           = "BLOBETL_LAYOUT_DELIMITER"
)
