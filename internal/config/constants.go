package config

import "agroprices/pkg/contracts"

// Application constants
const (
	// Application Info
	AppName    = "Agro Prices"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable (AGRO_*)
	EnvPrefix = "AGRO"

	// Output files. Names match the workbooks produced by the earlier tooling.
	WholesaleWorkbookPattern = "precios_mayoristas_%d.xlsx"
	RetailWorkbookPattern    = "precios_minoristas_%d.xlsx"
	RegistryFileName         = "registro_procesados.json"

	// Defaults
	DefaultOutputDir = "datos"
	DefaultLogFile   = "logs/ingest.log"

	// Permissions
	DirPermissions  = 0o755
	FilePermissions = 0o644

	// RegistryTimestampLayout renders checkpoint times as YYYY-MM-DD HH:MM:SS
	RegistryTimestampLayout = "2006-01-02 15:04:05"
)
