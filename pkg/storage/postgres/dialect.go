package postgres

import (
	_ "github.com/lib/pq"

	"github.com/oaflow/oaflow/pkg/storage"
	"github.com/oaflow/oaflow/pkg/storage/sqldb"
)

// PostgresDialect PostgreSQL方言实现（对外导出）
type PostgresDialect struct{}

// NewPostgresDialect 创建PostgreSQL方言实例
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

// Name 返回方言名称
func (d *PostgresDialect) Name() string {
	return "postgres"
}

// DriverName 返回sql驱动名
func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

// ConfigureSQL PostgreSQL无需额外连接配置
func (d *PostgresDialect) ConfigureSQL() []string {
	return nil
}

// ForUpdate 返回行锁后缀
func (d *PostgresDialect) ForUpdate() string {
	return " FOR UPDATE"
}

// SupportsLastInsertID lib/pq不支持LastInsertId，INSERT走 RETURNING id
func (d *PostgresDialect) SupportsLastInsertID() bool {
	return false
}

// Schema 返回建表DDL
func (d *PostgresDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS workflow_definition (
			id            BIGSERIAL PRIMARY KEY,
			workflow_key  TEXT NOT NULL,
			workflow_name TEXT NOT NULL,
			workflow_desc TEXT NOT NULL DEFAULT '',
			category      TEXT NOT NULL DEFAULT '',
			version       INTEGER NOT NULL DEFAULT 1,
			status        INTEGER NOT NULL DEFAULT 0,
			form_id       BIGINT,
			icon          TEXT NOT NULL DEFAULT '',
			sort_order    INTEGER NOT NULL DEFAULT 0,
			create_by     TEXT NOT NULL DEFAULT '',
			create_time   TIMESTAMPTZ NOT NULL,
			update_by     TEXT NOT NULL DEFAULT '',
			update_time   TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_definition_key ON workflow_definition(workflow_key)`,
		`CREATE INDEX IF NOT EXISTS idx_definition_status ON workflow_definition(status)`,

		`CREATE TABLE IF NOT EXISTS workflow_node (
			id          BIGSERIAL PRIMARY KEY,
			workflow_id BIGINT NOT NULL,
			node_key    TEXT NOT NULL,
			node_name   TEXT NOT NULL,
			node_type   TEXT NOT NULL,
			position_x  INTEGER NOT NULL DEFAULT 0,
			position_y  INTEGER NOT NULL DEFAULT 0,
			config      TEXT NOT NULL DEFAULT '',
			create_time TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_node_workflow ON workflow_node(workflow_id)`,

		`CREATE TABLE IF NOT EXISTS workflow_edge (
			id              BIGSERIAL PRIMARY KEY,
			workflow_id     BIGINT NOT NULL,
			source_node_id  BIGINT NOT NULL,
			target_node_id  BIGINT NOT NULL,
			source_node_key TEXT NOT NULL DEFAULT '',
			target_node_key TEXT NOT NULL DEFAULT '',
			condition_expr  TEXT NOT NULL DEFAULT '',
			priority        INTEGER NOT NULL DEFAULT 0,
			create_time     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_edge_workflow ON workflow_edge(workflow_id)`,
		`CREATE INDEX IF NOT EXISTS idx_edge_source ON workflow_edge(source_node_id)`,

		`CREATE TABLE IF NOT EXISTS workflow_approver (
			id             BIGSERIAL PRIMARY KEY,
			node_id        BIGINT NOT NULL,
			approver_type  TEXT NOT NULL,
			approver_value TEXT NOT NULL DEFAULT '',
			approve_mode   TEXT NOT NULL DEFAULT 'OR',
			nobody_handler TEXT NOT NULL DEFAULT '',
			create_time    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_approver_node ON workflow_approver(node_id)`,

		`CREATE TABLE IF NOT EXISTS workflow_form (
			id          BIGSERIAL PRIMARY KEY,
			form_key    TEXT NOT NULL,
			form_name   TEXT NOT NULL,
			form_desc   TEXT NOT NULL DEFAULT '',
			form_config TEXT NOT NULL DEFAULT '',
			status      INTEGER NOT NULL DEFAULT 0,
			create_time TIMESTAMPTZ NOT NULL,
			update_time TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS workflow_instance (
			id              BIGSERIAL PRIMARY KEY,
			instance_no     TEXT NOT NULL,
			workflow_id     BIGINT NOT NULL,
			workflow_key    TEXT NOT NULL,
			workflow_name   TEXT NOT NULL,
			form_id         BIGINT,
			form_data       TEXT NOT NULL DEFAULT '',
			status          TEXT NOT NULL,
			current_node_id BIGINT NOT NULL DEFAULT 0,
			start_user_id   TEXT NOT NULL,
			start_user_name TEXT NOT NULL DEFAULT '',
			title           TEXT NOT NULL DEFAULT '',
			priority        INTEGER NOT NULL DEFAULT 0,
			business_key    TEXT NOT NULL DEFAULT '',
			start_time      TIMESTAMPTZ NOT NULL,
			end_time        TIMESTAMPTZ,
			duration_ms     BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_instance_workflow ON workflow_instance(workflow_id)`,
		`CREATE INDEX IF NOT EXISTS idx_instance_user ON workflow_instance(start_user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_instance_status ON workflow_instance(status)`,

		`CREATE TABLE IF NOT EXISTS workflow_task (
			id            BIGSERIAL PRIMARY KEY,
			instance_id   BIGINT NOT NULL,
			instance_no   TEXT NOT NULL DEFAULT '',
			node_id       BIGINT NOT NULL,
			node_key      TEXT NOT NULL DEFAULT '',
			node_name     TEXT NOT NULL DEFAULT '',
			node_type     TEXT NOT NULL DEFAULT 'APPROVE',
			assignee_id   TEXT NOT NULL,
			assignee_name TEXT NOT NULL DEFAULT '',
			status        TEXT NOT NULL,
			comment       TEXT NOT NULL DEFAULT '',
			attachments   TEXT NOT NULL DEFAULT '',
			priority      INTEGER NOT NULL DEFAULT 0,
			create_time   TIMESTAMPTZ NOT NULL,
			complete_time TIMESTAMPTZ,
			due_time      TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_task_instance ON workflow_task(instance_id)`,
		`CREATE INDEX IF NOT EXISTS idx_task_assignee ON workflow_task(assignee_id, status)`,

		`CREATE TABLE IF NOT EXISTS workflow_cc (
			id           BIGSERIAL PRIMARY KEY,
			instance_id  BIGINT NOT NULL,
			instance_no  TEXT NOT NULL DEFAULT '',
			node_id      BIGINT NOT NULL,
			node_name    TEXT NOT NULL DEFAULT '',
			cc_user_id   TEXT NOT NULL,
			cc_user_name TEXT NOT NULL DEFAULT '',
			status       INTEGER NOT NULL DEFAULT 0,
			read_time    TIMESTAMPTZ,
			create_time  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cc_user ON workflow_cc(cc_user_id)`,

		`CREATE TABLE IF NOT EXISTS workflow_history (
			id            BIGSERIAL PRIMARY KEY,
			instance_id   BIGINT NOT NULL,
			task_id       BIGINT,
			node_id       BIGINT NOT NULL,
			node_name     TEXT NOT NULL DEFAULT '',
			action        TEXT NOT NULL,
			operator_id   TEXT NOT NULL,
			operator_name TEXT NOT NULL DEFAULT '',
			comment       TEXT NOT NULL DEFAULT '',
			attachments   TEXT NOT NULL DEFAULT '',
			operate_time  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_instance ON workflow_history(instance_id)`,

		`CREATE TABLE IF NOT EXISTS sys_user (
			id        BIGSERIAL PRIMARY KEY,
			username  TEXT NOT NULL,
			real_name TEXT NOT NULL DEFAULT '',
			dept_id   BIGINT,
			status    INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS sys_dept (
			id             BIGSERIAL PRIMARY KEY,
			dept_code      TEXT NOT NULL,
			dept_name      TEXT NOT NULL,
			leader_user_id BIGINT,
			parent_id      BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS sys_role (
			id        BIGSERIAL PRIMARY KEY,
			role_code TEXT NOT NULL,
			role_name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS sys_user_role (
			user_id BIGINT NOT NULL,
			role_id BIGINT NOT NULL,
			PRIMARY KEY (user_id, role_id)
		)`,
	}
}

// Open 打开PostgreSQL数据库并初始化表结构
func Open(dsn string) (*sqldb.Store, error) {
	return sqldb.Open(dsn, NewPostgresDialect())
}

// 确保实现接口
var _ storage.Dialect = (*PostgresDialect)(nil)
