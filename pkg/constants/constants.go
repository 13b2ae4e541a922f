package constants

const (
	ConfigName   = "config"
	ConfigFormat = "yaml"

	// EnvPrefix is prepended to every environment override,
	// e.g. HEALTHALYZE_DATABASE_DRIVER overrides database.driver.
	EnvPrefix = "HEALTHALYZE"

	ServiceName = "healthalyze_backend"
)
