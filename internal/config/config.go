// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the mailout CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration.
type Config struct {
	Provider string         `yaml:"provider"`
	From     FromConfig     `yaml:"from"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	SendGrid SendGridConfig `yaml:"sendgrid"`
	MailGun  MailGunConfig  `yaml:"mailgun"`
	SES      SESConfig      `yaml:"ses"`
	Resend   ResendConfig   `yaml:"resend"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// FromConfig holds the fallback sender applied to messages that carry no
// explicit sender of their own.
type FromConfig struct {
	Email string `yaml:"email"`
	Name  string `yaml:"name"`
}

// SMTPConfig holds SMTP relay configuration.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SendGridConfig holds SendGrid API configuration.
type SendGridConfig struct {
	APIKey string `yaml:"api_key"`
}

// MailGunConfig holds MailGun API configuration.
type MailGunConfig struct {
	APIKey string `yaml:"api_key"`
	Domain string `yaml:"domain"`
}

// SESConfig holds AWS SES configuration.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// ResendConfig holds Resend API configuration.
type ResendConfig struct {
	APIKey string `yaml:"api_key"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// SMTPConfigured returns true if an SMTP relay host is set.
func (c *Config) SMTPConfigured() bool {
	return c.SMTP.Host != ""
}

// SendGridConfigured returns true if a SendGrid API key is set.
func (c *Config) SendGridConfigured() bool {
	return c.SendGrid.APIKey != ""
}

// MailGunConfigured returns true if both MailGun credentials are set.
func (c *Config) MailGunConfigured() bool {
	return c.MailGun.APIKey != "" && c.MailGun.Domain != ""
}

// SESConfigured returns true if an SES region is set.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != ""
}

// ResendConfigured returns true if a Resend API key is set.
func (c *Config) ResendConfigured() bool {
	return c.Resend.APIKey != ""
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Provider = "stdout"
	c.SMTP.Port = 587
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("MAILOUT_PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("FROM_EMAIL"); v != "" {
		c.From.Email = v
	}
	if v := os.Getenv("FROM_NAME"); v != "" {
		c.From.Name = v
	}

	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}

	if v := os.Getenv("SENDGRID_API_KEY"); v != "" {
		c.SendGrid.APIKey = v
	}

	if v := os.Getenv("MAILGUN_API_KEY"); v != "" {
		c.MailGun.APIKey = v
	}
	if v := os.Getenv("MAILGUN_DOMAIN"); v != "" {
		c.MailGun.Domain = v
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}

	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		c.Resend.APIKey = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
