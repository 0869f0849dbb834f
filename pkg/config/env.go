package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvPort            = "STOREFRONT_APP_PORT"
	EnvBackendBaseURL  = "STOREFRONT_BACKEND_BASE_URL"
	EnvBackendImageURL = "STOREFRONT_BACKEND_IMAGE_BASE_URL"
	EnvBackendTimeout  = "STOREFRONT_BACKEND_TIMEOUT"
	EnvRedisURL        = "STOREFRONT_REDIS_URL"
	EnvSessionTTL      = "STOREFRONT_SESSION_TTL"

	EnvAllowedOrigins         = "STOREFRONT_HTTP_ALLOWED_ORIGINS"
	EnvShoppersSweepInterval  = "STOREFRONT_SHOPPERS_SWEEP_INTERVAL"
	EnvShoppersMaxIdle        = "STOREFRONT_SHOPPERS_MAX_IDLE"
	EnvAuthRateLimitLoginMail = "STOREFRONT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT"
)
