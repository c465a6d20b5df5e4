package configkeys

const (
	delimiter = "."

	ConfigPrefix = "config"

	ConfigEffectPrefix = ConfigPrefix + delimiter + "effect"

	ConfigEffectPlayerPrefix     = ConfigEffectPrefix + delimiter + "player"
	ConfigEffectPlayerRotation   = ConfigEffectPlayerPrefix + delimiter + "rotation"
	ConfigEffectPlayerStartDelay = ConfigEffectPlayerPrefix + delimiter + "start_delay"

	ConfigEffectLogPrefix = ConfigEffectPrefix + delimiter + "log"

	ConfigEffectLogHandlerPrefix     = ConfigEffectLogPrefix + delimiter + "handler"
	ConfigEffectLogHandlerBufferSize = ConfigEffectLogHandlerPrefix + delimiter + "buffer_size"

	ConfigEffectConcurrencyPrefix = ConfigEffectPrefix + delimiter + "concurrency"

	ConfigEffectConcurrencyHandlerPrefix     = ConfigEffectConcurrencyPrefix + delimiter + "handler"
	ConfigEffectConcurrencyHandlerBufferSize = ConfigEffectConcurrencyHandlerPrefix + delimiter + "buffer_size"
)
