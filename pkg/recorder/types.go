package recorder

import (
	"fmt"
	"strings"
	"time"
)

// ConnectionConfig holds the database pool configuration.
// It is resolved once at startup and treated as immutable afterwards.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// MaxConns is the maximum number of connections checked out at once. Must be >= 1.
	MaxConns int

	// QueueLimit caps the number of callers waiting for a connection.
	// Zero means callers may queue without limit.
	QueueLimit int

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWSRegion is used when AuthMethod is AuthMethodAWSIAM.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance)
	// used when AuthMethod is AuthMethodGoogleIAM.
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Validate checks the invariants of the configuration.
func (c *ConnectionConfig) Validate() error {
	if c.Host == "" && c.AuthMethod != AuthMethodGoogleIAM {
		return fmt.Errorf("%w: database host is empty", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: database port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.Database == "" {
		return fmt.Errorf("%w: database name is empty (set DB_NAME)", ErrMissingCredential)
	}
	if c.Username == "" {
		return fmt.Errorf("%w: database user is empty (set DB_USER)", ErrMissingCredential)
	}
	if c.MaxConns < 1 {
		return fmt.Errorf("%w: max connections must be at least 1, got %d", ErrInvalidConfig, c.MaxConns)
	}
	if c.QueueLimit < 0 {
		return fmt.Errorf("%w: queue limit must not be negative, got %d", ErrInvalidConfig, c.QueueLimit)
	}
	if !c.AuthMethod.IsValid() {
		return fmt.Errorf("%w: %v", ErrUnsupportedAuthMethod, c.AuthMethod)
	}

	switch c.AuthMethod {
	case AuthMethodStandard:
		if c.Password == "" {
			return fmt.Errorf("%w: database password is empty (set DB_PASS)", ErrMissingCredential)
		}
	case AuthMethodAWSIAM:
		if c.AWSRegion == "" {
			return fmt.Errorf("%w: AWS IAM auth requires a region (set AWS_REGION)", ErrInvalidConfig)
		}
	case AuthMethodGoogleIAM:
		if c.GoogleInstance == "" {
			return fmt.Errorf("%w: Google Cloud SQL IAM auth requires an instance (set DB_GOOGLE_INSTANCE)", ErrInvalidConfig)
		}
	}
	return nil
}

// String describes the connection target without any secret material.
func (c *ConnectionConfig) String() string {
	return fmt.Sprintf("host=%s port=%d database=%s user=%s auth=%s",
		c.Host, c.Port, c.Database, c.Username, c.AuthMethod)
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod maps a configuration keyword to an AuthMethod.
// The empty string selects standard password authentication.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws-iam":
		return AuthMethodAWSIAM, nil
	case "google", "gcp", "google-iam":
		return AuthMethodGoogleIAM, nil
	case "azure", "entra", "azure-entra-id":
		return AuthMethodAzureEntraID, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedAuthMethod, s)
	}
}

// Row is a single result row keyed by column name.
type Row map[string]any

// WriteResult summarises a data-modifying statement.
type WriteResult struct {
	AffectedRows int64 `json:"affectedRows"`

	// InsertID is set when the statement returned a generated key
	// (for example INSERT ... RETURNING id).
	InsertID *int64 `json:"insertId,omitempty"`
}

// PoolStats is a point-in-time snapshot of pool usage.
type PoolStats struct {
	MaxConns   int `json:"maxConns"`
	QueueLimit int `json:"queueLimit"`
	InUse      int `json:"inUse"`
	Waiting    int `json:"waiting"`
}
