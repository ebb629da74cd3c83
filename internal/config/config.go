/**
 * Configuration for the ARK Log Watchdog
 *
 * One immutable typed structure, loaded once at startup from config.yaml and
 * threaded through every stage. Environment variables (optionally via a .env
 * file) override the secrets and machine-local paths so the YAML file stays
 * shareable.
 */

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// ROI is the captured rectangle, anchored at the virtual-screen origin.
type ROI struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// Trigger is one configured notification rule. Order is significant: the
// first trigger whose pattern matches an entry wins.
type Trigger struct {
	Name string `yaml:"name"`
	// Type is "keyword" or "regex"; empty means keyword.
	Type  string `yaml:"type"`
	Match string `yaml:"match"`
	// MentionMode is "none", "@here", "@everyone" or "custom".
	MentionMode   string `yaml:"mention_mode"`
	MentionCustom string `yaml:"mention_custom"`
	Prefix        string `yaml:"prefix"`
	Suffix        string `yaml:"suffix"`
}

// AllowedMentions mirrors the Discord allowed_mentions policy.
type AllowedMentions struct {
	Everyone bool     `yaml:"everyone"`
	Roles    bool     `yaml:"roles"`
	Users    bool     `yaml:"users"`
	RoleIDs  []string `yaml:"role_ids"`
	UserIDs  []string `yaml:"user_ids"`
}

// License configures the activation gate.
type License struct {
	// Disabled skips the gate entirely (development builds).
	Disabled bool   `yaml:"disabled"`
	APIBase  string `yaml:"api_base"`
	AppID    string `yaml:"app_id"`
	// PublicKeyPEM is the license server's RSA public key.
	PublicKeyPEM string `yaml:"public_key_pem"`
}

// Config holds the full watchdog configuration.
type Config struct {
	ROI               ROI `yaml:"roi"`
	CaptureIntervalMs int `yaml:"capture_interval_ms"`
	// SendOnlyNewest restricts each frame to its topmost entry. This assumes
	// the log view renders newest entries at the top; with a different sort
	// order "newest" is not guaranteed.
	SendOnlyNewest *bool `yaml:"send_only_newest"`

	OCRScale           float64 `yaml:"ocr_scale"`
	PSMLines           int     `yaml:"psm_lines"`
	ReocrPSM           int     `yaml:"reocr_psm"`
	MinWordConf        int     `yaml:"min_word_conf"`
	TesseractWhitelist string  `yaml:"tesseract_whitelist"`
	TessdataPrefix     string  `yaml:"tesseract_cmd"`

	TightenColumns   *bool  `yaml:"tighten_columns"`
	EntryBboxPadLR   int    `yaml:"entry_bbox_pad_lr"`
	EntryBboxPadV    int    `yaml:"entry_bbox_pad_v"`
	EntryMaxHeightPx int    `yaml:"entry_max_height_px"`
	EntryHeaderRegex string `yaml:"entry_header_regex"`

	Triggers []Trigger `yaml:"triggers"`
	// Legacy matching surface, consulted only when no trigger matches.
	Keywords     []string `yaml:"keywords"`
	Regex        []string `yaml:"regex"`
	KeywordsFile string   `yaml:"keywords_file"`

	DiscordWebhookURL      string          `yaml:"discord_webhook_url"`
	DiscordAllowedMentions AllowedMentions `yaml:"discord_allowed_mentions"`

	CaptureDir  string `yaml:"capture_dir"`
	DatabaseURL string `yaml:"database_url"`

	LegacyTTLSeconds int `yaml:"legacy_ttl_seconds"`
	LegacyMaxEntries int `yaml:"legacy_max_entries"`

	License License `yaml:"license"`
}

// Load reads path, applies defaults, then environment overrides. Validation
// is the caller's decision: the calibration tool loads configs that do not
// validate yet.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// Save writes the configuration back to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return os.Rename(tmp, path)
}

func (c *Config) applyDefaults() {
	if c.CaptureIntervalMs == 0 {
		c.CaptureIntervalMs = 750
	}
	if c.SendOnlyNewest == nil {
		c.SendOnlyNewest = boolPtr(true)
	}
	if c.OCRScale == 0 {
		c.OCRScale = 2.0
	}
	if c.PSMLines == 0 {
		c.PSMLines = 6
	}
	if c.ReocrPSM == 0 {
		c.ReocrPSM = 6
	}
	if c.TightenColumns == nil {
		c.TightenColumns = boolPtr(true)
	}
	if c.EntryBboxPadLR == 0 {
		c.EntryBboxPadLR = 4
	}
	if c.EntryMaxHeightPx == 0 {
		c.EntryMaxHeightPx = 360
	}
	if c.CaptureDir == "" {
		c.CaptureDir = "captures"
	}
	if c.LegacyTTLSeconds == 0 {
		c.LegacyTTLSeconds = 60
	}
	if c.LegacyMaxEntries == 0 {
		c.LegacyMaxEntries = 512
	}
	if c.License.APIBase == "" {
		c.License.APIBase = "https://api.license-arkwatchdog.com"
	}
	if c.License.AppID == "" {
		c.License.AppID = "ark-watchdog"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		c.DiscordWebhookURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("TESSERACT_PATH"); v != "" {
		c.TessdataPrefix = v
	}
}

// Validate checks for conditions that must abort a watch run.
func (c *Config) Validate() error {
	if c.ROI.W < 5 || c.ROI.H < 5 {
		return fmt.Errorf("ROI not set or too small (%dx%d): run the calibrate tool first", c.ROI.W, c.ROI.H)
	}
	if c.CaptureIntervalMs < 0 {
		return fmt.Errorf("capture_interval_ms must not be negative, got %d", c.CaptureIntervalMs)
	}
	if c.OCRScale <= 0 {
		return fmt.Errorf("ocr_scale must be positive, got %v", c.OCRScale)
	}
	if strings.TrimSpace(c.DiscordWebhookURL) == "" {
		return fmt.Errorf("discord webhook URL not set (config or DISCORD_WEBHOOK_URL)")
	}
	return nil
}

// LoadKeywords returns the legacy keyword list: the configured keywords plus
// unique non-empty lines of keywords_file when the file exists.
func (c *Config) LoadKeywords() []string {
	kws := make([]string, 0, len(c.Keywords))
	seen := make(map[string]struct{})
	for _, k := range c.Keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		kws = append(kws, k)
	}
	if c.KeywordsFile != "" {
		if data, err := os.ReadFile(c.KeywordsFile); err == nil {
			for _, line := range strings.Split(string(data), "\n") {
				s := strings.TrimSpace(line)
				if s == "" {
					continue
				}
				if _, ok := seen[s]; ok {
					continue
				}
				seen[s] = struct{}{}
				kws = append(kws, s)
			}
		}
	}
	return kws
}

func boolPtr(b bool) *bool { return &b }
