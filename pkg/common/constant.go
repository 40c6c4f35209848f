package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeyDBType      string = "DB_TYPE"
	EnvKeyDBPath      string = "DB_PATH"
	EnvKeyPostgresDSN string = "POSTGRES_DSN"

	EnvKeyHttpHostPort string = "HTTP_HOST_PORT"
	EnvKeyGrpcHostPort string = "GRPC_HOST_PORT"

	EnvKeyAuthRate  string = "AUTH_RATE"
	EnvKeyAuthBurst string = "AUTH_BURST"

	EnvKeyJWTSecret string = "JWT_SECRET"

	EnvKeyLogDir   string = "LOG_DIR"
	EnvKeyLogLevel string = "LOG_LEVEL"

	EnvKeyGlucoseLowThreshold  string = "GLUCOSE_LOW_THRESHOLD"
	EnvKeyGlucoseHighThreshold string = "GLUCOSE_HIGH_THRESHOLD"

	EnvKeyStreamMaxSubscribers string = "STREAM_MAX_SUBSCRIBERS"
	EnvKeyStreamBuffer         string = "STREAM_BUFFER"
	EnvKeyStreamKeepAlive      string = "STREAM_KEEPALIVE"

	EnvKeyCGMBaseURL      string = "CGM_BASE_URL"
	EnvKeyCGMClientID     string = "CGM_CLIENT_ID"
	EnvKeyCGMClientSecret string = "CGM_CLIENT_SECRET"
	EnvKeyCGMRedirectURL  string = "CGM_REDIRECT_URL"
	EnvKeyCGMPollInterval string = "CGM_POLL_INTERVAL"
	EnvKeyCGMBackfill     string = "CGM_BACKFILL"

	EnvKeyRedisAddr     string = "REDIS_ADDR"
	EnvKeyRedisPassword string = "REDIS_PASSWORD"

	EnvKeyTelegramToken   string = "TELEGRAM_BOT_TOKEN"
	EnvKeyTelegramChatIDs string = "TELEGRAM_CHAT_IDS"
	EnvKeyTelegramMaxAge  string = "TELEGRAM_MAX_ALERT_AGE"

	LoggerNameMonitor       string = "monitor"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameGrpcServer    string = "grpc_server"
	LoggerNameCGMWorker     string = "cgm_worker"
	LoggerNameEventBus      string = "event_bus"
	LoggerNameNotifier      string = "notifier"
	LoggerNameDB            string = "db"

	LoggerFieldCategory string = "category"

	LoggerCategoryReading string = "reading"
	LoggerCategoryStatus  string = "status"
	LoggerCategoryMessage string = "message"
	LoggerCategoryUser    string = "user"
	LoggerCategoryToken   string = "token"
	LoggerCategoryCycle   string = "cycle"
	LoggerCategoryStream  string = "stream"
)
