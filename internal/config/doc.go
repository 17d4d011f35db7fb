// Package config provides configuration loading for the contracts-flow crawler.
//
// # Configuration Sources
//
// Configuration is assembled from, in increasing order of precedence:
//
//	1. Default() values
//	2. A YAML file (--config, config.yaml or configs/config.yaml)
//	3. Environment variables prefixed with NATION_
//
// # Environment Variables
//
// Nested sections map to underscore-joined names:
//
//	NATION_AUTH_EMAIL=analyst@example.com
//	NATION_AUTH_PASSWORD=...
//	NATION_CRAWLER_STRATEGY=snapshot
//	NATION_CRAWLER_TIMEOUT_POLICY=retry
//	NATION_PATHS_DOWNLOAD_DIR=/tmp/downloads
//	NATION_COMPANIES="Leidos - LDOS,CACI - CACI"
//
// Credentials are never compiled in. The crawler refuses to log in when
// NATION_AUTH_EMAIL or NATION_AUTH_PASSWORD is empty.
//
// # Validation
//
// Load validates the result with go-playground/validator struct tags plus a
// few cross-field checks (static strategy needs agencies, company entries
// must parse as "Name - TICKER").
package config
