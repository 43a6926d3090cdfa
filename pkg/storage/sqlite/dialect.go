package sqlite

import (
	_ "github.com/mattn/go-sqlite3"

	"github.com/oaflow/oaflow/pkg/storage"
	"github.com/oaflow/oaflow/pkg/storage/sqldb"
)

// SQLiteDialect SQLite方言实现（对外导出）
type SQLiteDialect struct{}

// NewSQLiteDialect 创建SQLite方言实例
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

// Name 返回方言名称
func (d *SQLiteDialect) Name() string {
	return "sqlite"
}

// DriverName 返回sql驱动名
func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

// ConfigureSQL 返回SQLite配置SQL
func (d *SQLiteDialect) ConfigureSQL() []string {
	return []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=30000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
}

// ForUpdate SQLite单写者模型，事务本身即串行化写入，不需要行锁后缀
func (d *SQLiteDialect) ForUpdate() string {
	return ""
}

// SupportsLastInsertID SQLite驱动支持LastInsertId
func (d *SQLiteDialect) SupportsLastInsertID() bool {
	return true
}

// Schema 返回建表DDL
func (d *SQLiteDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS workflow_definition (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			workflow_key  TEXT NOT NULL,
			workflow_name TEXT NOT NULL,
			workflow_desc TEXT NOT NULL DEFAULT '',
			category      TEXT NOT NULL DEFAULT '',
			version       INTEGER NOT NULL DEFAULT 1,
			status        INTEGER NOT NULL DEFAULT 0,
			form_id       INTEGER,
			icon          TEXT NOT NULL DEFAULT '',
			sort_order    INTEGER NOT NULL DEFAULT 0,
			create_by     TEXT NOT NULL DEFAULT '',
			create_time   DATETIME NOT NULL,
			update_by     TEXT NOT NULL DEFAULT '',
			update_time   DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_definition_key ON workflow_definition(workflow_key)`,
		`CREATE INDEX IF NOT EXISTS idx_definition_status ON workflow_definition(status)`,

		`CREATE TABLE IF NOT EXISTS workflow_node (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			workflow_id INTEGER NOT NULL,
			node_key    TEXT NOT NULL,
			node_name   TEXT NOT NULL,
			node_type   TEXT NOT NULL,
			position_x  INTEGER NOT NULL DEFAULT 0,
			position_y  INTEGER NOT NULL DEFAULT 0,
			config      TEXT NOT NULL DEFAULT '',
			create_time DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_node_workflow ON workflow_node(workflow_id)`,

		`CREATE TABLE IF NOT EXISTS workflow_edge (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			workflow_id     INTEGER NOT NULL,
			source_node_id  INTEGER NOT NULL,
			target_node_id  INTEGER NOT NULL,
			source_node_key TEXT NOT NULL DEFAULT '',
			target_node_key TEXT NOT NULL DEFAULT '',
			condition_expr  TEXT NOT NULL DEFAULT '',
			priority        INTEGER NOT NULL DEFAULT 0,
			create_time     DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_edge_workflow ON workflow_edge(workflow_id)`,
		`CREATE INDEX IF NOT EXISTS idx_edge_source ON workflow_edge(source_node_id)`,

		`CREATE TABLE IF NOT EXISTS workflow_approver (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			node_id        INTEGER NOT NULL,
			approver_type  TEXT NOT NULL,
			approver_value TEXT NOT NULL DEFAULT '',
			approve_mode   TEXT NOT NULL DEFAULT 'OR',
			nobody_handler TEXT NOT NULL DEFAULT '',
			create_time    DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_approver_node ON workflow_approver(node_id)`,

		`CREATE TABLE IF NOT EXISTS workflow_form (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			form_key    TEXT NOT NULL,
			form_name   TEXT NOT NULL,
			form_desc   TEXT NOT NULL DEFAULT '',
			form_config TEXT NOT NULL DEFAULT '',
			status      INTEGER NOT NULL DEFAULT 0,
			create_time DATETIME NOT NULL,
			update_time DATETIME
		)`,

		`CREATE TABLE IF NOT EXISTS workflow_instance (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			instance_no     TEXT NOT NULL,
			workflow_id     INTEGER NOT NULL,
			workflow_key    TEXT NOT NULL,
			workflow_name   TEXT NOT NULL,
			form_id         INTEGER,
			form_data       TEXT NOT NULL DEFAULT '',
			status          TEXT NOT NULL,
			current_node_id INTEGER NOT NULL DEFAULT 0,
			start_user_id   TEXT NOT NULL,
			start_user_name TEXT NOT NULL DEFAULT '',
			title           TEXT NOT NULL DEFAULT '',
			priority        INTEGER NOT NULL DEFAULT 0,
			business_key    TEXT NOT NULL DEFAULT '',
			start_time      DATETIME NOT NULL,
			end_time        DATETIME,
			duration_ms     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_instance_workflow ON workflow_instance(workflow_id)`,
		`CREATE INDEX IF NOT EXISTS idx_instance_user ON workflow_instance(start_user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_instance_status ON workflow_instance(status)`,

		`CREATE TABLE IF NOT EXISTS workflow_task (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			instance_id   INTEGER NOT NULL,
			instance_no   TEXT NOT NULL DEFAULT '',
			node_id       INTEGER NOT NULL,
			node_key      TEXT NOT NULL DEFAULT '',
			node_name     TEXT NOT NULL DEFAULT '',
			node_type     TEXT NOT NULL DEFAULT 'APPROVE',
			assignee_id   TEXT NOT NULL,
			assignee_name TEXT NOT NULL DEFAULT '',
			status        TEXT NOT NULL,
			comment       TEXT NOT NULL DEFAULT '',
			attachments   TEXT NOT NULL DEFAULT '',
			priority      INTEGER NOT NULL DEFAULT 0,
			create_time   DATETIME NOT NULL,
			complete_time DATETIME,
			due_time      DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_task_instance ON workflow_task(instance_id)`,
		`CREATE INDEX IF NOT EXISTS idx_task_assignee ON workflow_task(assignee_id, status)`,

		`CREATE TABLE IF NOT EXISTS workflow_cc (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			instance_id  INTEGER NOT NULL,
			instance_no  TEXT NOT NULL DEFAULT '',
			node_id      INTEGER NOT NULL,
			node_name    TEXT NOT NULL DEFAULT '',
			cc_user_id   TEXT NOT NULL,
			cc_user_name TEXT NOT NULL DEFAULT '',
			status       INTEGER NOT NULL DEFAULT 0,
			read_time    DATETIME,
			create_time  DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cc_user ON workflow_cc(cc_user_id)`,

		`CREATE TABLE IF NOT EXISTS workflow_history (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			instance_id   INTEGER NOT NULL,
			task_id       INTEGER,
			node_id       INTEGER NOT NULL,
			node_name     TEXT NOT NULL DEFAULT '',
			action        TEXT NOT NULL,
			operator_id   TEXT NOT NULL,
			operator_name TEXT NOT NULL DEFAULT '',
			comment       TEXT NOT NULL DEFAULT '',
			attachments   TEXT NOT NULL DEFAULT '',
			operate_time  DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_instance ON workflow_history(instance_id)`,

		`CREATE TABLE IF NOT EXISTS sys_user (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			username  TEXT NOT NULL,
			real_name TEXT NOT NULL DEFAULT '',
			dept_id   INTEGER,
			status    INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS sys_dept (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			dept_code      TEXT NOT NULL,
			dept_name      TEXT NOT NULL,
			leader_user_id INTEGER,
			parent_id      INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS sys_role (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			role_code TEXT NOT NULL,
			role_name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS sys_user_role (
			user_id INTEGER NOT NULL,
			role_id INTEGER NOT NULL,
			PRIMARY KEY (user_id, role_id)
		)`,
	}
}

// Open 打开SQLite数据库并初始化表结构
func Open(dsn string) (*sqldb.Store, error) {
	return sqldb.Open(dsn, NewSQLiteDialect())
}

// 确保实现接口
var _ storage.Dialect = (*SQLiteDialect)(nil)
