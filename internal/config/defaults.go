package config

const (
	defaultDataDir = "~/.local/share/phonogram"
	defaultLogDir  = "~/.local/share/phonogram/logs"

	defaultContributionPercent = 100

	defaultGatewayBaseURL        = "https://gateway.phonogram.dev/ipfs"
	defaultStorageRequestTimeout = 120

	defaultVerifyPollAttempts   = 10
	defaultVerifyPollInterval   = 1
	defaultVerifyRequestTimeout = 30

	defaultLedgerChain          = "story-aeneid"
	defaultLedgerRequestTimeout = 180
	defaultExplorerBase         = "https://explorer.story.foundation"

	// Commercial-remix template parameters for the standard flow. A
	// one-time-use registration zeroes both.
	defaultMintingFee         = 1
	defaultCommercialRevShare = 5

	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 120

	defaultLogFormat = "auto"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Creator: Creator{
			ContributionPercent: defaultContributionPercent,
		},
		StorageGateway: StorageGateway{
			GatewayBaseURL: defaultGatewayBaseURL,
			RequestTimeout: defaultStorageRequestTimeout,
		},
		Verification: Verification{
			PollAttempts:   defaultVerifyPollAttempts,
			PollInterval:   defaultVerifyPollInterval,
			RequestTimeout: defaultVerifyRequestTimeout,
		},
		Ledger: Ledger{
			Chain:          defaultLedgerChain,
			ExplorerBase:   defaultExplorerBase,
			RequestTimeout: defaultLedgerRequestTimeout,
		},
		Licensing: Licensing{
			DefaultMintingFee:  defaultMintingFee,
			CommercialRevShare: defaultCommercialRevShare,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
