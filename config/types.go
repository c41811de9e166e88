package config

// ServerConfig contains the HTTP API configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0"`
}

// APIConfig contains the Metlink Open Data API configuration
type APIConfig struct {
	BaseURL          string `yaml:"baseURL" validate:"omitempty,url"`
	Key              string `yaml:"key"`
	RequestTimeoutMS int    `yaml:"requestTimeoutMS" validate:"gte=0"`
}

// RefreshConfig controls the polling loop
type RefreshConfig struct {
	IntervalSeconds int `yaml:"intervalSeconds" validate:"gte=0"`
}

// LoggingConfig controls console and rotating file output
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Console    bool   `yaml:"console"`
	FilePath   string `yaml:"filePath"`
	MaxSizeMB  int    `yaml:"maxSizeMB" validate:"gte=0"`
	MaxBackups int    `yaml:"maxBackups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"maxAgeDays" validate:"gte=0"`
}

// Watch identifies one route+direction combination to keep a timeline for
type Watch struct {
	RouteID     string `yaml:"routeID" validate:"required"`
	DirectionID int    `yaml:"directionID" validate:"gte=0,lte=1"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server  ServerConfig  `yaml:"server" validate:"required"`
	API     APIConfig     `yaml:"api"`
	Refresh RefreshConfig `yaml:"refresh"`
	Logging LoggingConfig `yaml:"logging"`
	Watches []Watch       `yaml:"watches"`
}
