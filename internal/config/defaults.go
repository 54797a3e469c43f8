package config

const (
	defaultWorkspaceDir         = "~/.local/share/sipforge/workspace"
	defaultSIPOutputDir         = "~/.local/share/sipforge/sips"
	defaultLogDir               = "~/.local/share/sipforge/logs"
	defaultSeriesRequestTimeout = 30
	defaultEDepotPort           = 21
	defaultPackagingMinFreeGiB  = 1
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			SIPOutputDir: defaultSIPOutputDir,
			LogDir:       defaultLogDir,
		},
		Series: Series{
			RequestTimeout: defaultSeriesRequestTimeout,
		},
		EDepot: EDepot{
			Port: defaultEDepotPort,
		},
		Packaging: Packaging{
			MinFreeGiB: defaultPackagingMinFreeGiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
