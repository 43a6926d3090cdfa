package mysql

import (
	_ "github.com/go-sql-driver/mysql"

	"github.com/oaflow/oaflow/pkg/storage"
	"github.com/oaflow/oaflow/pkg/storage/sqldb"
)

// MySQLDialect MySQL方言实现（对外导出）
type MySQLDialect struct{}

// NewMySQLDialect 创建MySQL方言实例
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

// Name 返回方言名称
func (d *MySQLDialect) Name() string {
	return "mysql"
}

// DriverName 返回sql驱动名
func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// ConfigureSQL MySQL无需额外连接配置
// 注意：DSN需要带 parseTime=true，否则DATETIME无法扫描到time.Time
func (d *MySQLDialect) ConfigureSQL() []string {
	return nil
}

// ForUpdate 返回行锁后缀
func (d *MySQLDialect) ForUpdate() string {
	return " FOR UPDATE"
}

// SupportsLastInsertID MySQL驱动支持LastInsertId
func (d *MySQLDialect) SupportsLastInsertID() bool {
	return true
}

// Schema 返回建表DDL
// MySQL不支持 CREATE INDEX IF NOT EXISTS，索引内联在建表语句中
func (d *MySQLDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS workflow_definition (
			id            BIGINT AUTO_INCREMENT PRIMARY KEY,
			workflow_key  VARCHAR(64) NOT NULL,
			workflow_name VARCHAR(128) NOT NULL,
			workflow_desc VARCHAR(512) NOT NULL DEFAULT '',
			category      VARCHAR(64) NOT NULL DEFAULT '',
			version       INT NOT NULL DEFAULT 1,
			status        INT NOT NULL DEFAULT 0,
			form_id       BIGINT,
			icon          VARCHAR(256) NOT NULL DEFAULT '',
			sort_order    INT NOT NULL DEFAULT 0,
			create_by     VARCHAR(64) NOT NULL DEFAULT '',
			create_time   DATETIME NOT NULL,
			update_by     VARCHAR(64) NOT NULL DEFAULT '',
			update_time   DATETIME,
			KEY idx_definition_key (workflow_key),
			KEY idx_definition_status (status)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS workflow_node (
			id          BIGINT AUTO_INCREMENT PRIMARY KEY,
			workflow_id BIGINT NOT NULL,
			node_key    VARCHAR(64) NOT NULL,
			node_name   VARCHAR(128) NOT NULL,
			node_type   VARCHAR(16) NOT NULL,
			position_x  INT NOT NULL DEFAULT 0,
			position_y  INT NOT NULL DEFAULT 0,
			config      TEXT,
			create_time DATETIME NOT NULL,
			KEY idx_node_workflow (workflow_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS workflow_edge (
			id              BIGINT AUTO_INCREMENT PRIMARY KEY,
			workflow_id     BIGINT NOT NULL,
			source_node_id  BIGINT NOT NULL,
			target_node_id  BIGINT NOT NULL,
			source_node_key VARCHAR(64) NOT NULL DEFAULT '',
			target_node_key VARCHAR(64) NOT NULL DEFAULT '',
			condition_expr  VARCHAR(512) NOT NULL DEFAULT '',
			priority        INT NOT NULL DEFAULT 0,
			create_time     DATETIME NOT NULL,
			KEY idx_edge_workflow (workflow_id),
			KEY idx_edge_source (source_node_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS workflow_approver (
			id             BIGINT AUTO_INCREMENT PRIMARY KEY,
			node_id        BIGINT NOT NULL,
			approver_type  VARCHAR(16) NOT NULL,
			approver_value VARCHAR(512) NOT NULL DEFAULT '',
			approve_mode   VARCHAR(16) NOT NULL DEFAULT 'OR',
			nobody_handler VARCHAR(16) NOT NULL DEFAULT '',
			create_time    DATETIME NOT NULL,
			KEY idx_approver_node (node_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS workflow_form (
			id          BIGINT AUTO_INCREMENT PRIMARY KEY,
			form_key    VARCHAR(64) NOT NULL,
			form_name   VARCHAR(128) NOT NULL,
			form_desc   VARCHAR(512) NOT NULL DEFAULT '',
			form_config TEXT,
			status      INT NOT NULL DEFAULT 0,
			create_time DATETIME NOT NULL,
			update_time DATETIME
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS workflow_instance (
			id              BIGINT AUTO_INCREMENT PRIMARY KEY,
			instance_no     VARCHAR(64) NOT NULL,
			workflow_id     BIGINT NOT NULL,
			workflow_key    VARCHAR(64) NOT NULL,
			workflow_name   VARCHAR(128) NOT NULL,
			form_id         BIGINT,
			form_data       TEXT,
			status          VARCHAR(16) NOT NULL,
			current_node_id BIGINT NOT NULL DEFAULT 0,
			start_user_id   VARCHAR(64) NOT NULL,
			start_user_name VARCHAR(64) NOT NULL DEFAULT '',
			title           VARCHAR(256) NOT NULL DEFAULT '',
			priority        INT NOT NULL DEFAULT 0,
			business_key    VARCHAR(128) NOT NULL DEFAULT '',
			start_time      DATETIME NOT NULL,
			end_time        DATETIME,
			duration_ms     BIGINT,
			KEY idx_instance_workflow (workflow_id),
			KEY idx_instance_user (start_user_id),
			KEY idx_instance_status (status)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS workflow_task (
			id            BIGINT AUTO_INCREMENT PRIMARY KEY,
			instance_id   BIGINT NOT NULL,
			instance_no   VARCHAR(64) NOT NULL DEFAULT '',
			node_id       BIGINT NOT NULL,
			node_key      VARCHAR(64) NOT NULL DEFAULT '',
			node_name     VARCHAR(128) NOT NULL DEFAULT '',
			node_type     VARCHAR(16) NOT NULL DEFAULT 'APPROVE',
			assignee_id   VARCHAR(64) NOT NULL,
			assignee_name VARCHAR(64) NOT NULL DEFAULT '',
			status        VARCHAR(16) NOT NULL,
			comment       VARCHAR(1024) NOT NULL DEFAULT '',
			attachments   TEXT,
			priority      INT NOT NULL DEFAULT 0,
			create_time   DATETIME NOT NULL,
			complete_time DATETIME,
			due_time      DATETIME,
			KEY idx_task_instance (instance_id),
			KEY idx_task_assignee (assignee_id, status)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS workflow_cc (
			id           BIGINT AUTO_INCREMENT PRIMARY KEY,
			instance_id  BIGINT NOT NULL,
			instance_no  VARCHAR(64) NOT NULL DEFAULT '',
			node_id      BIGINT NOT NULL,
			node_name    VARCHAR(128) NOT NULL DEFAULT '',
			cc_user_id   VARCHAR(64) NOT NULL,
			cc_user_name VARCHAR(64) NOT NULL DEFAULT '',
			status       INT NOT NULL DEFAULT 0,
			read_time    DATETIME,
			create_time  DATETIME NOT NULL,
			KEY idx_cc_user (cc_user_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS workflow_history (
			id            BIGINT AUTO_INCREMENT PRIMARY KEY,
			instance_id   BIGINT NOT NULL,
			task_id       BIGINT,
			node_id       BIGINT NOT NULL,
			node_name     VARCHAR(128) NOT NULL DEFAULT '',
			action        VARCHAR(16) NOT NULL,
			operator_id   VARCHAR(64) NOT NULL,
			operator_name VARCHAR(64) NOT NULL DEFAULT '',
			comment       VARCHAR(1024) NOT NULL DEFAULT '',
			attachments   TEXT,
			operate_time  DATETIME NOT NULL,
			KEY idx_history_instance (instance_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS sys_user (
			id        BIGINT AUTO_INCREMENT PRIMARY KEY,
			username  VARCHAR(64) NOT NULL,
			real_name VARCHAR(64) NOT NULL DEFAULT '',
			dept_id   BIGINT,
			status    INT NOT NULL DEFAULT 0
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS sys_dept (
			id             BIGINT AUTO_INCREMENT PRIMARY KEY,
			dept_code      VARCHAR(64) NOT NULL,
			dept_name      VARCHAR(128) NOT NULL,
			leader_user_id BIGINT,
			parent_id      BIGINT
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS sys_role (
			id        BIGINT AUTO_INCREMENT PRIMARY KEY,
			role_code VARCHAR(64) NOT NULL,
			role_name VARCHAR(128) NOT NULL DEFAULT ''
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS sys_user_role (
			user_id BIGINT NOT NULL,
			role_id BIGINT NOT NULL,
			PRIMARY KEY (user_id, role_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
}

// Open 打开MySQL数据库并初始化表结构
func Open(dsn string) (*sqldb.Store, error) {
	return sqldb.Open(dsn, NewMySQLDialect())
}

// 确保实现接口
var _ storage.Dialect = (*MySQLDialect)(nil)
