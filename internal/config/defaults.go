package config

const (
	defaultConfigPath       = "~/.config/paperscan/config.toml"
	defaultScannerBinary    = "scanimage"
	defaultScanMode         = "color"
	defaultScanFormat       = "pdf"
	defaultScanSource       = "Adf-duplex"
	defaultScanResolution   = "300"
	defaultBlankPageSkip    = "yes"
	defaultWorkDir          = "."
	defaultScanInterval     = 15
	defaultHealthBind       = "0.0.0.0:5000"
	defaultMetricsBind      = "0.0.0.0:8000"
	defaultLogDir           = "~/.local/share/paperscan"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Scanner: Scanner{
			Binary:        defaultScannerBinary,
			Mode:          defaultScanMode,
			Format:        defaultScanFormat,
			Source:        defaultScanSource,
			Resolution:    defaultScanResolution,
			BlankPageSkip: defaultBlankPageSkip,
			WorkDir:       defaultWorkDir,
		},
		Workflow: Workflow{
			ScanInterval: defaultScanInterval,
		},
		Server: Server{
			HealthBind:  defaultHealthBind,
			MetricsBind: defaultMetricsBind,
		},
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
