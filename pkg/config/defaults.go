package config

// Translate defaults.
const (
	DefaultTranslateRuntime = false
	DefaultTranslateWrap    = false
	DefaultTranslateGlobal  = ""
)

// Bundle defaults.
const (
	DefaultBundleRuntime            = false
	DefaultBundleMaxConcurrentReads = 0
)

// Resolve defaults.
const (
	DefaultResolveExtension = ".js"
	DefaultResolveIndexFile = "index.js"
)

// DefaultLegacySchemes lists the schemes stripped from __load specifiers.
var DefaultLegacySchemes = []string{"node"}

// Logging defaults.
const (
	DefaultLogLevel = "warn"
	DefaultLogJSON  = false
)

// Telemetry defaults.
const (
	DefaultTelemetryEndpoint    = ""
	DefaultTelemetryInsecure    = false
	DefaultTelemetrySampleRatio = 1.0
)

const (
	configName      = ".esdown"
	configType      = "yaml"
	envPrefix       = "ESDOWN"
	envKeySeparator = "_"
)
