package app

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the application specific configuration.
// It is passed to the App.Init function, and is optional.
type Config map[string]interface{}

// BaseConfig contains the base configuration for services, as well as the
// application itself.
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	ListenAddress       string `mapstructure:"listen_address"`
	HealthListenAddress string `mapstructure:"health_listen_address"`
	DebugListenAddress  string `mapstructure:"debug_listen_address"`

	// TLSCertificate is an optional URL to a TLS certificate served by the
	// HTTP server. If no scheme is specified, file is used.
	TLSCertificate string `mapstructure:"tls_certificate"`
	// TLSKey is an optional URL to the TLS private key matching
	// TLSCertificate. If no scheme is specified, file is used.
	TLSKey string `mapstructure:"tls_private_key"`

	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`

	EnablePprof  bool `mapstructure:"enable_pprof"`
	EnableExpvar bool `mapstructure:"enable_expvar"`

	// Ballast for improving Go GC performance. Note that capacity will be
	// limited to 50% of the total memory.
	// https://blog.twitch.tv/en/2019/04/10/go-memory-ballast-how-i-learnt-to-stop-worrying-and-love-the-heap/
	EnableBallast   bool    `mapstructure:"enable_ballast"`
	BallastCapacity float32 `mapstructure:"ballast_capacity"`

	// Periodically terminate the application when there's a memory leak
	EnableMemoryLeakCron   bool   `mapstructure:"enable_memory_leak_cron"`
	MemoryLeakCronSchedule string `mapstructure:"memory_leak_cron_schedule"`

	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	// Arbitrary configuration that the service can define / implement.
	//
	// Users should use mapstructure.Decode for AppConfig.
	AppConfig Config `mapstructure:"app"`
}

var defaultConfig = BaseConfig{
	LogLevel: "info",

	ListenAddress:       ":8080",
	HealthListenAddress: "localhost:8086",
	DebugListenAddress:  ":8123",

	ShutdownGracePeriod: 30 * time.Second,

	EnablePprof:  true,
	EnableExpvar: true,

	EnableBallast:   false,
	BallastCapacity: 0.333,

	EnableMemoryLeakCron:   false,
	MemoryLeakCronSchedule: "0 5 * * *",
}

func init() {
	bindEnv(viper.GetViper())
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	_ = v.BindEnv("app_name", "APP_NAME")

	_ = v.BindEnv("listen_address", "LISTEN_ADDRESS")
	_ = v.BindEnv("health_listen_address", "HEALTH_LISTEN_ADDRESS")
	_ = v.BindEnv("debug_listen_address", "DEBUG_LISTEN_ADDRESS")

	_ = v.BindEnv("tls_certificate", "TLS_CERTIFICATE")
	_ = v.BindEnv("tls_private_key", "TLS_PRIVATE_KEY")

	_ = v.BindEnv("shutdown_grace_period", "SHUTDOWN_GRACE_PERIOD")

	_ = v.BindEnv("enable_pprof", "ENABLE_PPROF")
	_ = v.BindEnv("enable_expvar", "ENABLE_EXPVAR")

	_ = v.BindEnv("enable_ballast", "ENABLE_BALLAST")
	_ = v.BindEnv("ballast_capacity", "BALLAST_CAPACITY")

	_ = v.BindEnv("enable_memory_leak_cron", "ENABLE_MEMORY_LEAK_CRON")
	_ = v.BindEnv("memory_leak_cron_schedule", "MEMORY_LEAK_CRON_SCHEDULE")

	_ = v.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")
}

// loadConfig reads the config file at path, if it exists, layered under any
// bound environment variables and over defaultConfig.
func loadConfig(v *viper.Viper, path string) (BaseConfig, error) {
	if len(path) > 0 {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return BaseConfig{}, err
		}
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return BaseConfig{}, err
	}
	return config, nil
}
