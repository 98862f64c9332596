package global

var (
	Version        = "0.0.1"
	BuildTime      = "none"
	Commit         = "unknown"
	Verbose        = false
	ConfigFilename = "kiln.yaml"
)
