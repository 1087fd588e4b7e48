package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// PosConfig is the operator-tunable part of the configuration, read from
// pos.yml and reloaded when the file changes.
type PosConfig struct {
	TaxRate               float64
	CurrencySymbol        string
	InvoiceNumberTemplate string
	ReceiptDir            string
	DateLayout            string
	TimeLayout            string
}

func DefaultPosConfig() PosConfig {
	return PosConfig{
		TaxRate:               0.13,
		CurrencySymbol:        "₡",
		InvoiceNumberTemplate: "FAC-{SEQ6}",
		DateLayout:            "2006-01-02",
		TimeLayout:            "15:04:05",
	}
}

// flag name -> viper key
var posFlagKeys = map[string]string{
	"tax-rate":    "pos.taxRate",
	"receipt-dir": "pos.receiptDir",
}

type PosConfigHolder struct {
	current atomic.Value // holds PosConfig
}

type PosParams struct {
	fx.In

	Config Config
	Log    *zap.Logger
	Flags  *pflag.FlagSet `optional:"true"`
}

// NewStaticPosConfigHolder returns a holder that never reloads.
func NewStaticPosConfigHolder(cfg PosConfig) *PosConfigHolder {
	holder := &PosConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewPosConfigHolder(p PosParams) (*PosConfigHolder, error) {
	log := p.Log.Named("config.pos")
	v := viper.New()

	if p.Config.PosConfigPath != "" {
		v.SetConfigFile(p.Config.PosConfigPath)
	} else {
		v.SetConfigName("pos")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/possettle")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("POSSETTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPosConfig()
	v.SetDefault("pos.taxRate", defaults.TaxRate)
	v.SetDefault("pos.currencySymbol", defaults.CurrencySymbol)
	v.SetDefault("pos.invoiceNumberTemplate", defaults.InvoiceNumberTemplate)
	v.SetDefault("pos.receiptDir", defaults.ReceiptDir)
	v.SetDefault("pos.dateLayout", defaults.DateLayout)
	v.SetDefault("pos.timeLayout", defaults.TimeLayout)

	if p.Flags != nil {
		for name, key := range posFlagKeys {
			if flag := p.Flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, err
				}
			}
		}
	}

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
		log.Info("pos config file not found, using defaults")
	}

	cfg := readPosConfig(v)
	if err := ValidatePosConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticPosConfigHolder(cfg)

	if fileLoaded {
		v.OnConfigChange(func(e fsnotify.Event) {
			updated := readPosConfig(v)
			if err := ValidatePosConfig(updated); err != nil {
				log.Warn("invalid pos config ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("pos config reloaded", zap.String("file", e.Name), zap.Float64("tax_rate", updated.TaxRate))
		})
		v.WatchConfig()
	}

	return holder, nil
}

// readPosConfig resolves key by key so flags and env override single values
// of the pos section.
func readPosConfig(v *viper.Viper) PosConfig {
	return PosConfig{
		TaxRate:               v.GetFloat64("pos.taxRate"),
		CurrencySymbol:        v.GetString("pos.currencySymbol"),
		InvoiceNumberTemplate: v.GetString("pos.invoiceNumberTemplate"),
		ReceiptDir:            v.GetString("pos.receiptDir"),
		DateLayout:            v.GetString("pos.dateLayout"),
		TimeLayout:            v.GetString("pos.timeLayout"),
	}
}

func (h *PosConfigHolder) Get() PosConfig {
	return h.current.Load().(PosConfig)
}

func ValidatePosConfig(cfg PosConfig) error {
	if cfg.TaxRate < 0 || cfg.TaxRate >= 1 {
		return errors.New("pos.taxRate must be in [0, 1)")
	}
	if strings.TrimSpace(cfg.InvoiceNumberTemplate) == "" {
		return errors.New("pos.invoiceNumberTemplate cannot be empty")
	}
	if strings.TrimSpace(cfg.DateLayout) == "" || strings.TrimSpace(cfg.TimeLayout) == "" {
		return errors.New("pos.dateLayout and pos.timeLayout cannot be empty")
	}
	return nil
}
