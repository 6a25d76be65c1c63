package config

import "fmt"

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// BillingConfig carries the global default traffic price. Agents may
// override it per agent.
type BillingConfig struct {
	DefaultPrice     float64 `mapstructure:"default_price"`
	DefaultPriceUnit string  `mapstructure:"default_price_unit"`
}

// ForwardConfig carries tunables for forward provisioning and the ledger.
type ForwardConfig struct {
	ProvisionTimeoutMinutes int `mapstructure:"provision_timeout_minutes"`
	TeardownTimeoutMinutes  int `mapstructure:"teardown_timeout_minutes"`
	PingTimeoutSeconds      int `mapstructure:"ping_timeout_seconds"`
}

type WorkerConfig struct {
	TrafficDrainSeconds int `mapstructure:"traffic_drain_seconds"`
	StatusDrainSeconds  int `mapstructure:"status_drain_seconds"`
	LivenessSeconds     int `mapstructure:"liveness_seconds"`
}
