package storage

// Dialect 数据库方言接口
// sqldb的通用实现通过方言获取各数据库差异化的DDL、行锁与自增主键行为，
// 查询占位符差异由sqlx的Rebind按驱动自动处理
type Dialect interface {
	// Name 方言名称（sqlite/mysql/postgres）
	Name() string
	// DriverName sql驱动名
	DriverName() string
	// Schema 建表DDL语句列表
	Schema() []string
	// ConfigureSQL 连接建立后执行的配置语句
	ConfigureSQL() []string
	// ForUpdate 行锁后缀（不支持时返回空串）
	ForUpdate() string
	// SupportsLastInsertID 驱动是否支持LastInsertId；不支持时走 RETURNING id
	SupportsLastInsertID() bool
}
