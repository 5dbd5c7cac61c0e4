package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultRemote        = "origin"
	defaultBranch        = "main"
	defaultGitBinary     = "git"
	defaultBlogFile      = "ghost-blog.html"
	defaultGalleryFile   = "ghost-gallery.html"
	defaultDashboardFile = "index.html"
	defaultAnchor        = `<div class="status-line">`
	defaultGitHubTimeout = 30 * time.Second
)

type Config struct {
	Site   SiteConfig   `yaml:"site"`
	Git    GitConfig    `yaml:"git"`
	GitHub GitHubConfig `yaml:"github"`
}

type SiteConfig struct {
	RootDir       string `yaml:"root_dir"`
	BlogFile      string `yaml:"blog_file"`
	GalleryFile   string `yaml:"gallery_file"`
	DashboardFile string `yaml:"dashboard_file"`
	Anchor        string `yaml:"anchor"`
}

type GitConfig struct {
	Binary string `yaml:"binary"`
	Remote string `yaml:"remote"`
	Branch string `yaml:"branch"`
}

// GitHubConfig enables the optional read-back of the deploy branch from GitHub
type GitHubConfig struct {
	Token       string          `yaml:"token"`
	Repository  string          `yaml:"repository"` // owner/name; inferred from the git remote when empty
	Timeout     time.Duration   `yaml:"timeout"`
	ConfirmPush bool            `yaml:"confirm_push"`
	App         GitHubAppConfig `yaml:"app"`
}

type GitHubAppConfig struct {
	AppID          int64  `yaml:"app_id"`
	InstallationID int64  `yaml:"installation_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
	PrivateKey     string `yaml:"private_key"`
}

// Load reads configPath if it exists, otherwise builds the configuration from the
// environment alone. Relative paths in the file resolve against the file's directory.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		var config Config
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		config.loadFromEnv()
		config.applyDefaults()
		if err := config.resolvePaths(filepath.Dir(configPath)); err != nil {
			return nil, err
		}
		return &config, nil
	}

	config := loadFromEnv()
	config.applyDefaults()
	return config, nil
}

func (c *Config) loadFromEnv() {
	if root := os.Getenv("GHOSTSITE_ROOT"); root != "" {
		c.Site.RootDir = root
	}
	if remote := os.Getenv("GHOSTSITE_REMOTE"); remote != "" {
		c.Git.Remote = remote
	}
	if branch := os.Getenv("GHOSTSITE_BRANCH"); branch != "" {
		c.Git.Branch = branch
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		c.GitHub.Token = token
	}
	if repo := os.Getenv("GITHUB_REPOSITORY"); repo != "" {
		c.GitHub.Repository = repo
	}
	if appID := os.Getenv("GITHUB_APP_ID"); appID != "" {
		if id, err := strconv.ParseInt(appID, 10, 64); err == nil {
			c.GitHub.App.AppID = id
		}
	}
	if installationID := os.Getenv("GITHUB_APP_INSTALLATION_ID"); installationID != "" {
		if id, err := strconv.ParseInt(installationID, 10, 64); err == nil {
			c.GitHub.App.InstallationID = id
		}
	}
	if keyPath := os.Getenv("GITHUB_APP_PRIVATE_KEY_PATH"); keyPath != "" {
		c.GitHub.App.PrivateKeyPath = keyPath
	}
	if key := os.Getenv("GITHUB_APP_PRIVATE_KEY"); key != "" {
		c.GitHub.App.PrivateKey = key
	}
	if confirm := os.Getenv("GHOSTSITE_CONFIRM_PUSH"); confirm != "" {
		if b, err := strconv.ParseBool(confirm); err == nil {
			c.GitHub.ConfirmPush = b
		}
	}
}

func loadFromEnv() *Config {
	config := &Config{
		Site: SiteConfig{
			RootDir: getEnvOrDefault("GHOSTSITE_ROOT", "."),
		},
	}
	config.loadFromEnv()
	return config
}

func (c *Config) applyDefaults() {
	if c.Site.RootDir == "" {
		c.Site.RootDir = "."
	}
	if c.Site.BlogFile == "" {
		c.Site.BlogFile = defaultBlogFile
	}
	if c.Site.GalleryFile == "" {
		c.Site.GalleryFile = defaultGalleryFile
	}
	if c.Site.DashboardFile == "" {
		c.Site.DashboardFile = defaultDashboardFile
	}
	if c.Site.Anchor == "" {
		c.Site.Anchor = defaultAnchor
	}
	if c.Git.Binary == "" {
		c.Git.Binary = defaultGitBinary
	}
	if c.Git.Remote == "" {
		c.Git.Remote = defaultRemote
	}
	if c.Git.Branch == "" {
		c.Git.Branch = defaultBranch
	}
	if c.GitHub.Timeout <= 0 {
		c.GitHub.Timeout = defaultGitHubTimeout
	}
}

// resolvePaths makes relative paths absolute against baseDir
func (c *Config) resolvePaths(baseDir string) error {
	resolve := func(path string) (string, error) {
		if path == "" || filepath.IsAbs(path) {
			return path, nil
		}
		abs, err := filepath.Abs(filepath.Join(baseDir, path))
		if err != nil {
			return "", fmt.Errorf("failed to resolve path %s: %w", path, err)
		}
		return abs, nil
	}

	var err error
	if c.Site.RootDir, err = resolve(c.Site.RootDir); err != nil {
		return err
	}
	if c.GitHub.App.PrivateKeyPath, err = resolve(c.GitHub.App.PrivateKeyPath); err != nil {
		return err
	}
	return nil
}

// Validate checks the fields every command relies on
func (c *Config) Validate() error {
	var errs []error
	if c.Site.RootDir == "" {
		errs = append(errs, errors.New("site.root_dir is required"))
	}
	required := []struct{ name, value string }{
		{"site.blog_file", c.Site.BlogFile},
		{"site.gallery_file", c.Site.GalleryFile},
		{"site.dashboard_file", c.Site.DashboardFile},
		{"site.anchor", c.Site.Anchor},
		{"git.remote", c.Git.Remote},
		{"git.branch", c.Git.Branch},
	}
	for _, field := range required {
		if field.value == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", field.name))
		}
	}
	if c.GitHub.ConfirmPush && !c.IsGitHubConfigured() {
		errs = append(errs, errors.New("github.confirm_push requires a token or GitHub App credentials"))
	}
	if c.GitHub.App.AppID != 0 && c.GitHub.App.InstallationID == 0 {
		errs = append(errs, errors.New("github.app.installation_id is required when app_id is set"))
	}
	return errors.Join(errs...)
}

// IsGitHubTokenConfigured reports whether a personal access token is available
func (c *Config) IsGitHubTokenConfigured() bool {
	return c.GitHub.Token != ""
}

// IsGitHubAppConfigured reports whether GitHub App credentials are complete
func (c *Config) IsGitHubAppConfigured() bool {
	app := c.GitHub.App
	return app.AppID != 0 && app.InstallationID != 0 &&
		(app.PrivateKeyPath != "" || app.PrivateKey != "")
}

// IsGitHubConfigured reports whether any GitHub credentials are available
func (c *Config) IsGitHubConfigured() bool {
	return c.IsGitHubTokenConfigured() || c.IsGitHubAppConfigured()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
