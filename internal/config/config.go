// Package config loads and hot-reloads the gateway's operator-facing
// configuration: a primary config.yaml (accounts,
// bind address, mapping-table overlay, the image_thinking_mode flag), an
// optional .env secrets overlay, and an optional JSONC mapping-table
// override file. Grounded on the teacher's own dependency set
// (gopkg.in/yaml.v3, github.com/joho/godotenv, github.com/tailscale/hujson,
// github.com/fsnotify/fsnotify all already in go.mod unused) and on
// win30221-genesis's pkg/config/watcher.go for the debounced fsnotify
// reload idiom.
package config

// Config is the config.yaml shape.
type Config struct {
	ServerAddr        string            `yaml:"server_addr"`
	Accounts          []AccountEntry    `yaml:"accounts"`
	CustomMapping     map[string]string `yaml:"custom_mapping"`
	MappingFile       string            `yaml:"mapping_file"`
	ImageThinkingMode string            `yaml:"image_thinking_mode"`
	RequestLogPath    string            `yaml:"request_log_path"`
	Debug             bool              `yaml:"debug"`
}

// AccountEntry is one pool account as configured by the operator. Refresh
// itself is an external collaborator's job ("OAuth
// device-flow acquisition of refresh tokens"); this struct only carries
// whatever token material the operator already has on hand.
type AccountEntry struct {
	Email        string `yaml:"email"`
	ProjectID    string `yaml:"project_id"`
	RefreshToken string `yaml:"refresh_token"`
	AccessToken  string `yaml:"access_token"`
}

// defaults returns a Config with every operator-optional field populated,
// so a missing config.yaml (or one that only sets accounts) still produces
// a runnable gateway.
func defaults() *Config {
	return &Config{
		ServerAddr:        ":8080",
		ImageThinkingMode: "enabled",
		RequestLogPath:    "llm-gw.log",
	}
}
