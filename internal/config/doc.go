// Package config provides configuration management for the price ingestion
// tools. It loads settings from several sources, validates them and exposes
// the output file layout through the Paths type.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file (config.yaml or configs/config.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern AGRO_* for namespacing:
//
//	AGRO_PATHS_OUTPUT_DIR=/srv/precios
//	AGRO_LOGGING_LEVEL=debug
//	AGRO_LOGGING_OUTPUT=both
//	AGRO_TELEMETRY_TRACE_EXPORTER=stdout
//	AGRO_TELEMETRY_METRICS_FILE=/var/lib/node_exporter/agroprices.prom
//
// # Path Management
//
// Paths is built from an explicit output directory, never from a global:
//
//	paths := config.NewPaths(cfg.Paths.OutputDir)
//	wholesale := paths.WholesaleWorkbook(2024) // precios_mayoristas_2024.xlsx
//	registry := paths.RegistryFile             // registro_procesados.json
//
// # Testing
//
// Tests build a Paths from t.TempDir() so every case runs in isolation.
package config
