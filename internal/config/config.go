package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	// TerminalID seeds the snowflake node that numbers reconciliation sessions.
	TerminalID int64

	DataDir            string
	OrdersFile         string
	CatalogFile        string
	ClientsFile        string
	InvoicesFile       string
	PaymentsFile       string
	PaymentDetailsFile string

	PosConfigPath string

	OTLPEndpoint       string
	MetricsTextfile    string
	WatchCatalog       bool
	PaymentDetailAudit bool
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	dataDir := getenv("POS_DATA_DIR", "data")

	return Config{
		AppName:            getenv("APP_SERVICE", "possettle"),
		AppVersion:         getenv("APP_VERSION", "0.1.0"),
		Environment:        getenv("ENVIRONMENT", "development"),
		TerminalID:         getenvInt64("POS_TERMINAL_ID", 1),
		DataDir:            dataDir,
		OrdersFile:         getenv("POS_ORDERS_FILE", "pedidos.txt"),
		CatalogFile:        getenv("POS_CATALOG_FILE", "productos.txt"),
		ClientsFile:        getenv("POS_CLIENTS_FILE", "clientes.txt"),
		InvoicesFile:       getenv("POS_INVOICES_FILE", "facturas.txt"),
		PaymentsFile:       getenv("POS_PAYMENTS_FILE", "pagos.txt"),
		PaymentDetailsFile: getenv("POS_PAYMENT_DETAILS_FILE", "pagos_detalle.txt"),
		PosConfigPath:      strings.TrimSpace(getenv("POS_CONFIG", "")),
		OTLPEndpoint:       getenv("OTLP_ENDPOINT", "localhost:4317"),
		MetricsTextfile:    strings.TrimSpace(getenv("POS_METRICS_TEXTFILE", "")),
		WatchCatalog:       getenvBool("POS_WATCH_CATALOG", true),
		PaymentDetailAudit: getenvBool("POS_PAYMENT_DETAIL_AUDIT", true),
	}
}

// Path resolves a store file name against DataDir. Absolute names are kept.
func (c Config) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

var Module = fx.Module("config",
	fx.Provide(
		Load,
		NewPosConfigHolder,
	),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
