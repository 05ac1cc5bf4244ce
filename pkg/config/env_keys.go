package config

const (
	EnvPrefix = "lumapos"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "LUMAPOS_APP_ENV"
	EnvPort   = "LUMAPOS_APP_PORT"

	EnvDBDSN  = "LUMAPOS_DB_DSN"
	EnvDBHost = "LUMAPOS_DB_HOST"
	EnvDBUser = "LUMAPOS_DB_USER"
	EnvDBName = "LUMAPOS_DB_NAME"

	EnvShopifyShopDomain  = "LUMAPOS_SHOPIFY_SHOP_DOMAIN"
	EnvShopifyAccessToken = "LUMAPOS_SHOPIFY_ACCESS_TOKEN"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
