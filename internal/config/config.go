package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/local.yaml"

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"prod"`
	LogDir     string `yaml:"log_dir" env-default:"logs"`
	HTTPServer `yaml:"http_server"`
	DBUser     string `yaml:"db_user" env:"DB_USER" env-required:"true"`
	DBPassword string `yaml:"db_password" env:"DB_PASSWORD"`
	DBHost     string `yaml:"db_host" env:"DB_HOST" env-default:"localhost"`
	DBPort     int    `yaml:"db_port" env:"DB_PORT" env-default:"3306"`
	DBName     string `yaml:"db_name" env:"DB_NAME" env-required:"true"`
	ParseTime  bool   `yaml:"parse_time" env-default:"true"`
	// Migrate applies pending schema migrations at startup.
	Migrate bool `yaml:"migrate" env:"MIGRATE" env-default:"false"`

	AdminLogin string `yaml:"admin_login" env:"ADMIN_LOGIN"`
	AdminPass  string `yaml:"admin_pass" env:"ADMIN_PASS"`

	Pricing       Pricing       `yaml:"pricing"`
	FallbackCosts FallbackCosts `yaml:"fallback_costs"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	CORSOrigins []string      `yaml:"cors_origins" env-default:"http://localhost:5173"`
}

type Pricing struct {
	LaborRatio        float64            `yaml:"labor_ratio" env-default:"0.15"`
	IndirectRatio     float64            `yaml:"indirect_ratio" env-default:"0.05"`
	InstallationRatio float64            `yaml:"installation_ratio" env-default:"0.05"`
	MarginRate        float64            `yaml:"margin_rate" env-default:"0.30"`
	CommissionRate    float64            `yaml:"commission_rate" env-default:"0.03"`
	TaxRates          map[string]float64 `yaml:"tax_rates"`
	DefaultTaxRate    float64            `yaml:"default_tax_rate" env-default:"0.10"`
}

// FallbackCosts are unit costs for parts the catalog cannot price.
type FallbackCosts struct {
	ByCategory map[string]float64 `yaml:"by_category"`
	Default    float64            `yaml:"default" env-default:"0"`
}

func MustConfig() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
