package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_HUB_URL targets a running hub, an in-process hub is started when empty
	HubURL string `envconfig:"E2E_HUB_URL"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_TYPING_DEBOUNCE shortens the typing timeout of the test sessions
	TypingDebounce time.Duration `envconfig:"E2E_TYPING_DEBOUNCE" default:"300ms"`
	Timeout        time.Duration `envconfig:"E2E_TIMEOUT" default:"5s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
