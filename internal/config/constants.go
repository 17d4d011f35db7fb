package config

import "time"

// Application constants
const (
	AppName   = "Nation Analytics Contracts Flow"
	EnvPrefix = "NATION"

	DefaultBaseURL        = "https://nationanalytics.com/"
	DefaultReportName     = "YOY Comparisons"
	DefaultFrameTitle     = "Data Visualization"
	DefaultAgencyFacet    = "Funding Agency"
	DefaultSupplierFacet  = "Supplier"
	DefaultPeriodView     = "Month"
	DefaultUITimeout      = 30 * time.Second
	DefaultUIPollInterval = 250 * time.Millisecond
	DefaultSessionTimeout = 6 * time.Hour

	// Export artifact
	DefaultExportFile    = "contracts-flow.xlsx"
	DefaultExportPrefix  = "contracts-flow"
	DefaultPartialSuffix = ".crdownload"
	DefaultOutputFile    = "Nation_Analytics_Funding_Data.csv"

	// Traversal
	DefaultMaxAttempts     = 8
	DefaultPollInterval    = 2 * time.Second
	DefaultDownloadTimeout = 60 * time.Second
	DefaultActionInterval  = 500 * time.Millisecond
	DefaultField           = "Federal Obligations PIT"
	DefaultHeaderRow       = 1

	StrategyDynamic  = "dynamic"
	StrategySnapshot = "snapshot"
	StrategyStatic   = "static"

	TimeoutPolicySkip  = "skip"
	TimeoutPolicyRetry = "retry"
)

// DefaultSentinels are facet options that are not real data
var DefaultSentinels = []string{"(All)", "Null"}
