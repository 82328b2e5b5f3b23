package schema

// Table is one idempotent unit of schema: a CREATE TABLE IF NOT EXISTS
// statement plus the indexes that belong to it.
type Table struct {
	Name    string
	DDL     string
	Indexes []string
}

// Statements returns the table DDL followed by its index DDL.
func (t Table) Statements() []string {
	return append([]string{t.DDL}, t.Indexes...)
}

// Tables returns the dashboard schema in dependency order. Referenced
// tables come before the tables whose foreign keys point at them.
func Tables() []Table {
	tables := make([]Table, len(dashboardTables))
	copy(tables, dashboardTables)
	return tables
}

var dashboardTables = []Table{
	{
		Name: "branches",
		DDL: `CREATE TABLE IF NOT EXISTS branches (
    id             VARCHAR(36)  PRIMARY KEY,
    branch_code    VARCHAR(50)  NOT NULL UNIQUE,
    branch_name    VARCHAR(255) NOT NULL,
    branch_city    VARCHAR(100),
    branch_address TEXT,
    region         VARCHAR(100),
    contact_phone  VARCHAR(50),
    contact_email  VARCHAR(255),
    is_active      BOOLEAN      NOT NULL DEFAULT TRUE,
    created_on     TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    updated_on     TIMESTAMPTZ  NOT NULL DEFAULT NOW()
)`,
		Indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_branches_city ON branches (branch_city)`,
		},
	},
	{
		Name: "devices",
		DDL: `CREATE TABLE IF NOT EXISTS devices (
    id            VARCHAR(36)  PRIMARY KEY,
    device_name   VARCHAR(255) NOT NULL,
    device_mac    VARCHAR(50)  UNIQUE,
    ip_address    VARCHAR(45),
    device_type   VARCHAR(50)  NOT NULL DEFAULT 'recorder',
    device_status VARCHAR(20)  NOT NULL DEFAULT 'inactive'
                  CHECK (device_status IN ('active', 'inactive', 'maintenance')),
    branch_id     VARCHAR(36)  REFERENCES branches (id) ON DELETE SET NULL,
    notes         TEXT,
    created_on    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    updated_on    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
)`,
		Indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_devices_branch ON devices (branch_id)`,
		},
	},
	{
		Name: "heartbeat",
		DDL: `CREATE TABLE IF NOT EXISTS heartbeat (
    id          BIGSERIAL   PRIMARY KEY,
    uuid        VARCHAR(36) NOT NULL UNIQUE,
    ip_address  VARCHAR(45) NOT NULL,
    mac_address VARCHAR(50),
    created_on  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		Indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_heartbeat_mac_created ON heartbeat (mac_address, created_on DESC)`,
		},
	},
	{
		Name: "recordings",
		DDL: `CREATE TABLE IF NOT EXISTS recordings (
    id         BIGSERIAL    PRIMARY KEY,
    device_id  VARCHAR(36)  REFERENCES devices (id) ON DELETE SET NULL,
    file_name  VARCHAR(255) NOT NULL,
    duration   INTEGER,
    status     VARCHAR(20)  NOT NULL DEFAULT 'completed',
    start_time TIMESTAMPTZ,
    end_time   TIMESTAMPTZ,
    ip_address VARCHAR(45),
    cnic       VARCHAR(20),
    created_on TIMESTAMPTZ  NOT NULL DEFAULT NOW()
)`,
		Indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_recordings_device ON recordings (device_id)`,
			`CREATE INDEX IF NOT EXISTS idx_recordings_start ON recordings (start_time DESC)`,
		},
	},
	{
		Name: "users",
		DDL: `CREATE TABLE IF NOT EXISTS users (
    id            VARCHAR(36)  PRIMARY KEY,
    username      VARCHAR(100) NOT NULL UNIQUE,
    email         VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(255) NOT NULL,
    full_name     VARCHAR(255),
    role          VARCHAR(20)  NOT NULL DEFAULT 'user'
                  CHECK (role IN ('admin', 'manager', 'user')),
    branch_id     VARCHAR(36)  REFERENCES branches (id) ON DELETE SET NULL,
    is_active     BOOLEAN      NOT NULL DEFAULT TRUE,
    last_login    TIMESTAMPTZ,
    created_on    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    updated_on    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
)`,
	},
	{
		Name: "deployments",
		DDL: `CREATE TABLE IF NOT EXISTS deployments (
    id          VARCHAR(36) PRIMARY KEY,
    device_id   VARCHAR(36) NOT NULL REFERENCES devices (id) ON DELETE CASCADE,
    branch_id   VARCHAR(36) NOT NULL REFERENCES branches (id) ON DELETE CASCADE,
    deployed_by VARCHAR(36) REFERENCES users (id) ON DELETE SET NULL,
    status      VARCHAR(20) NOT NULL DEFAULT 'active',
    notes       TEXT,
    deployed_on TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_on  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (device_id, branch_id)
)`,
	},
	{
		Name: "complaints",
		DDL: `CREATE TABLE IF NOT EXISTS complaints (
    id            BIGSERIAL    PRIMARY KEY,
    branch_id     VARCHAR(36)  REFERENCES branches (id) ON DELETE SET NULL,
    device_id     VARCHAR(36)  REFERENCES devices (id) ON DELETE SET NULL,
    customer_name VARCHAR(255),
    customer_cnic VARCHAR(20),
    description   TEXT         NOT NULL,
    status        VARCHAR(20)  NOT NULL DEFAULT 'open'
                  CHECK (status IN ('open', 'in_progress', 'resolved', 'closed')),
    priority      VARCHAR(20)  NOT NULL DEFAULT 'medium'
                  CHECK (priority IN ('low', 'medium', 'high', 'urgent')),
    created_by    VARCHAR(36)  REFERENCES users (id) ON DELETE SET NULL,
    created_on    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    updated_on    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
)`,
		Indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_complaints_status ON complaints (status)`,
		},
	},
	{
		Name: "password_reset_tokens",
		DDL: `CREATE TABLE IF NOT EXISTS password_reset_tokens (
    id         BIGSERIAL    PRIMARY KEY,
    user_id    VARCHAR(36)  NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    token      VARCHAR(255) NOT NULL UNIQUE,
    expires_at TIMESTAMPTZ  NOT NULL,
    used       BOOLEAN      NOT NULL DEFAULT FALSE,
    created_on TIMESTAMPTZ  NOT NULL DEFAULT NOW()
)`,
		Indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_password_reset_tokens_expires ON password_reset_tokens (expires_at)`,
		},
	},
}
