package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the presence controller needs at startup.
type Config struct {
	// Server configures the inbound trigger listeners.
	Server ServerConfig `yaml:"server"`
	// Timezone is the IANA zone used for time-of-day gates. Empty means the host zone.
	Timezone string `yaml:"timezone"`
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
	// Timeout bounds every outbound call (SwitchBot API, SMTP dial, gRPC client calls).
	Timeout time.Duration `yaml:"timeout"`
	// SwitchBot holds the credentials of the scene/device API.
	SwitchBot SwitchBotConfig `yaml:"switchbot"`
	// Scenes names the remote scenes bound to the household transitions.
	Scenes ScenesConfig `yaml:"scenes"`
	// Cleaning configures the robot vacuum debounce.
	Cleaning CleaningConfig `yaml:"cleaning"`
	// Mail configures failure notifications.
	Mail MailConfig `yaml:"mail"`
	// MQTT configures the optional presence event publisher.
	MQTT MQTTConfig `yaml:"mqtt"`
	// Members is the fixed household roster.
	Members []MemberConfig `yaml:"members"`

	// location is resolved from Timezone by Validate.
	location *time.Location
}

// ServerConfig holds listen addresses of the trigger endpoints.
type ServerConfig struct {
	// HTTPAddress is the listen address of the geofencing trigger routes.
	HTTPAddress string `yaml:"http_addr"`
	// GRPCAddress is the listen address of the gRPC trigger service. Empty disables it.
	GRPCAddress string `yaml:"grpc_addr"`
	// TriggerToken is the shared secret HTTP callers must present. Empty disables the check.
	TriggerToken string `yaml:"trigger_token"`
}

// SwitchBotConfig holds the API credentials and the cleaning interval.
type SwitchBotConfig struct {
	// BaseURL is the API root, e.g. https://api.switch-bot.com/v1.1.
	BaseURL string `yaml:"base_url"`
	// Token is the open token issued by the SwitchBot app.
	Token string `yaml:"token"`
	// Secret is the HMAC key issued together with the token.
	Secret string `yaml:"secret"`
	// Nonce is the static nonce mixed into every signature.
	Nonce string `yaml:"nonce"`
	// CleaningIntervalMs is the minimum gap between two cleaning runs in milliseconds.
	CleaningIntervalMs int64 `yaml:"cleaning_interval_ms"`
}

// CleaningInterval returns CleaningIntervalMs as a duration.
func (c SwitchBotConfig) CleaningInterval() time.Duration {
	return time.Duration(c.CleaningIntervalMs) * time.Millisecond
}

// ScenesConfig names the scenes run on household transitions.
type ScenesConfig struct {
	// LivingRoomOn runs first on FirstArrival.
	LivingRoomOn string `yaml:"living_room_on"`
	// EndCleaning runs second on FirstArrival.
	EndCleaning string `yaml:"end_cleaning"`
	// ShutdownAppliances runs on LastDeparture.
	ShutdownAppliances string `yaml:"shutdown_appliances"`
	// StartCleaning is executed by the cleaning scheduler.
	StartCleaning string `yaml:"start_cleaning"`
}

// CleaningConfig configures the cleaning robot.
type CleaningConfig struct {
	// Device is the catalog name of the robot checked for online status.
	Device string `yaml:"device"`
	// StateFile persists the last cleaning run. Empty keeps it in memory only.
	StateFile string `yaml:"state_file"`
}

// MailConfig configures the SMTP transport of failure notifications.
type MailConfig struct {
	// SMTPHost is the submission server host.
	SMTPHost string `yaml:"smtp_host"`
	// SMTPPort is the submission server port.
	SMTPPort int `yaml:"smtp_port"`
	// From is the sender address, also used as the SMTP username.
	From string `yaml:"from"`
	// Password is the SMTP password (an app password for Gmail).
	Password string `yaml:"password"`
	// Recipients receive every failure notification.
	Recipients []string `yaml:"recipients"`
}

// MQTTConfig configures the presence event publisher.
type MQTTConfig struct {
	// Enabled turns the publisher on.
	Enabled bool `yaml:"enabled"`
	// Broker is the broker URL, e.g. tcp://127.0.0.1:1883.
	Broker string `yaml:"broker"`
	// ClientID identifies this process at the broker.
	ClientID string `yaml:"client_id"`
	// Username is optional.
	Username string `yaml:"username"`
	// Password is optional.
	Password string `yaml:"password"`
	// TopicPrefix is prepended to every topic.
	TopicPrefix string `yaml:"topic_prefix"`
	// QoS is the publish quality of service (0, 1 or 2).
	QoS int `yaml:"qos"`
}

// MemberConfig describes one household member and the member's own hooks.
type MemberConfig struct {
	// Name is the stable identifier used by triggers.
	Name string `yaml:"name"`
	// DisplayName is used in logs and notifications.
	DisplayName string `yaml:"display_name"`
	// InitialState is "home" (default) or "away".
	InitialState string `yaml:"initial_state"`
	// ArrivalScene runs before this member's arrival is applied.
	ArrivalScene string `yaml:"arrival_scene"`
	// DepartureScene runs before this member's departure is applied.
	DepartureScene string `yaml:"departure_scene"`
	// WorkplaceExit is run when the member leaves the workplace.
	WorkplaceExit *WorkplaceExitConfig `yaml:"workplace_exit"`
}

// WorkplaceExitConfig describes the workplace-exit hook of a member.
type WorkplaceExitConfig struct {
	// Scene is executed when set.
	Scene string `yaml:"scene"`
	// Message is mailed to the recipients when set.
	Message string `yaml:"message"`
	// NotBefore is an "HH:MM" local-time cutoff; earlier exits are ignored.
	NotBefore string `yaml:"not_before"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "homeiot-settings.yaml"

	// DefaultStateFilename is the default filename for the cleaning schedule state.
	DefaultStateFilename = "homeiot-state.json"

	// DefaultBaseURL is the SwitchBot API v1.1 root.
	DefaultBaseURL = "https://api.switch-bot.com/v1.1"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 10 * time.Second

	// DefaultSMTPHost and DefaultSMTPPort point at Gmail submission.
	DefaultSMTPHost = "smtp.gmail.com"
	// DefaultSMTPPort is the STARTTLS submission port.
	DefaultSMTPPort = 587

	// DefaultMQTTClientID identifies the controller at the broker.
	DefaultMQTTClientID = "homeiot-server"
	// DefaultTopicPrefix is the root of published topics.
	DefaultTopicPrefix = "homeiot"

	// DefaultFilePermissions is the default file permission for config and state files.
	DefaultFilePermissions = 0o600

	// StateHome and StateAway are the accepted InitialState values.
	StateHome = "home"
	// StateAway marks a member initially away.
	StateAway = "away"
)

// ErrInvalid is matched by every configuration error.
var ErrInvalid = errors.New("config: invalid")

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// Error lists every problem found in a configuration. It is fatal at startup.
type Error struct {
	// Problems are human-readable descriptions of each violation.
	Problems []string
	// Err is the underlying cause when the file could not be read or decoded.
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString("config: invalid configuration")

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	for _, p := range e.Problems {
		b.WriteString("\n  - ")
		b.WriteString(p)
	}

	return b.String()
}

// Unwrap exposes ErrInvalid and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalid}
	}

	return []error{ErrInvalid, e.Err}
}

// Location returns the zone resolved from Timezone, or time.Local before Validate ran.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}

	return c.location
}

// ClientConfig is the part of the settings file the trigger client reads.
type ClientConfig struct {
	// GRPCAddress is the server's gRPC listen address.
	GRPCAddress string
	// TriggerToken is sent with every call when set.
	TriggerToken string
	// Timeout bounds a single client call.
	Timeout time.Duration
}

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadClient reads only the server address, trigger token and timeout from the provided path.
// The server-only sections may be absent or incomplete.
func LoadClient(path string) (*ClientConfig, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if cfg.Server.GRPCAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.Server.GRPCAddress); err != nil {
			return nil, &Error{Problems: []string{fmt.Sprintf("invalid server.grpc_addr: %v", err)}}
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &ClientConfig{
		GRPCAddress:  cfg.Server.GRPCAddress,
		TriggerToken: cfg.Server.TriggerToken,
		Timeout:      timeout,
	}, nil
}

// read decodes the settings file without validating it.
func read(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, &Error{Problems: []string{"read settings " + path}, Err: err}
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, &Error{Problems: []string{"unmarshal settings"}, Err: err}
	}

	return &cfg, nil
}

// Save writes cfg to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Settings contain API secrets.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields, fills defaults and resolves the timezone.
// All problems are collected into a single *Error.
//
//nolint:cyclop,funlen // A flat list of checks reads better than helpers per section.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	var problems []string

	missing := func(section, field string) {
		problems = append(problems, fmt.Sprintf("'%s' is missing property: %s", section, field))
	}

	// Server.
	if cfg.Server.HTTPAddress == "" {
		missing("server", "http_addr")
	} else if _, err := net.ResolveTCPAddr("tcp", cfg.Server.HTTPAddress); err != nil {
		problems = append(problems, fmt.Sprintf("invalid server.http_addr: %v", err))
	}

	if cfg.Server.GRPCAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.Server.GRPCAddress); err != nil {
			problems = append(problems, fmt.Sprintf("invalid server.grpc_addr: %v", err))
		}
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	// SwitchBot.
	if cfg.SwitchBot.BaseURL == "" {
		cfg.SwitchBot.BaseURL = DefaultBaseURL
	} else if _, err := url.ParseRequestURI(cfg.SwitchBot.BaseURL); err != nil {
		problems = append(problems, fmt.Sprintf("invalid switchbot.base_url: %v", err))
	}

	if cfg.SwitchBot.Token == "" {
		missing("switchbot", "token")
	}

	if cfg.SwitchBot.Secret == "" {
		missing("switchbot", "secret")
	}

	if cfg.SwitchBot.Nonce == "" {
		missing("switchbot", "nonce")
	}

	if cfg.SwitchBot.CleaningIntervalMs <= 0 {
		missing("switchbot", "cleaning_interval_ms")
	}

	// Scene and device names.
	for _, scene := range []struct{ field, value string }{
		{"living_room_on", cfg.Scenes.LivingRoomOn},
		{"end_cleaning", cfg.Scenes.EndCleaning},
		{"shutdown_appliances", cfg.Scenes.ShutdownAppliances},
		{"start_cleaning", cfg.Scenes.StartCleaning},
	} {
		if scene.value == "" {
			missing("scenes", scene.field)
		}
	}

	if cfg.Cleaning.Device == "" {
		missing("cleaning", "device")
	}

	// Mail.
	if cfg.Mail.SMTPHost == "" {
		cfg.Mail.SMTPHost = DefaultSMTPHost
	}

	if cfg.Mail.SMTPPort == 0 {
		cfg.Mail.SMTPPort = DefaultSMTPPort
	}

	if len(cfg.Mail.Recipients) == 0 {
		missing("mail", "recipients")
	}

	if cfg.Mail.From == "" {
		missing("mail", "from")
	}

	if cfg.Mail.Password == "" {
		missing("mail", "password")
	}

	// MQTT.
	if cfg.MQTT.Enabled {
		if cfg.MQTT.Broker == "" {
			missing("mqtt", "broker")
		} else if _, err := url.Parse(cfg.MQTT.Broker); err != nil {
			problems = append(problems, fmt.Sprintf("invalid mqtt.broker: %v", err))
		}
	}

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = DefaultMQTTClientID
	}

	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = DefaultTopicPrefix
	}

	if cfg.MQTT.QoS < 0 || cfg.MQTT.QoS > 2 {
		problems = append(problems, fmt.Sprintf("invalid mqtt.qos %d: must be 0, 1 or 2", cfg.MQTT.QoS))
	}

	// Members.
	problems = append(problems, validateMembers(cfg.Members)...)

	// Timezone. LoadLocation maps "" to UTC, the host zone is wanted instead.
	if cfg.Timezone == "" {
		cfg.location = time.Local
	} else if location, err := time.LoadLocation(cfg.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("invalid timezone %q: %v", cfg.Timezone, err))
	} else {
		cfg.location = location
	}

	if len(problems) > 0 {
		return &Error{Problems: problems}
	}

	return nil
}

// validateMembers checks the roster and fills member defaults.
func validateMembers(members []MemberConfig) []string {
	if len(members) == 0 {
		return []string{"'members' must list at least one member"}
	}

	var (
		problems []string
		seen     = make(map[string]struct{}, len(members))
	)

	for i := range members {
		member := &members[i]

		if member.Name == "" {
			problems = append(problems, fmt.Sprintf("members[%d] is missing property: name", i))
			continue
		}

		if _, dup := seen[member.Name]; dup {
			problems = append(problems, fmt.Sprintf("members[%d]: duplicate name %q", i, member.Name))
		}

		seen[member.Name] = struct{}{}

		if member.DisplayName == "" {
			member.DisplayName = member.Name
		}

		switch member.InitialState {
		case "":
			member.InitialState = StateHome
		case StateHome, StateAway:
		default:
			problems = append(problems,
				fmt.Sprintf("members[%d]: initial_state %q must be %q or %q", i, member.InitialState, StateHome, StateAway))
		}

		exit := member.WorkplaceExit
		if exit == nil {
			continue
		}

		if exit.Scene == "" && exit.Message == "" {
			problems = append(problems, fmt.Sprintf("members[%d].workplace_exit needs a scene or a message", i))
		}

		if exit.NotBefore != "" {
			if _, err := time.Parse("15:04", exit.NotBefore); err != nil {
				problems = append(problems,
					fmt.Sprintf("members[%d].workplace_exit.not_before %q must be HH:MM", i, exit.NotBefore))
			}
		}
	}

	return problems
}
