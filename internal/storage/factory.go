package storage

import (
	"fmt"
	"time"

	"github.com/oaflow/oaflow/pkg/storage"
	"github.com/oaflow/oaflow/pkg/storage/mysql"
	"github.com/oaflow/oaflow/pkg/storage/postgres"
	"github.com/oaflow/oaflow/pkg/storage/sqldb"
	pkgsqlite "github.com/oaflow/oaflow/pkg/storage/sqlite"
)

// Options 数据库连接池参数
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewStore 按数据库类型创建Store（内部方法）
// dbType: 数据库类型（sqlite/mysql/postgres）
// dsn: 数据库连接字符串
// opts: 连接池参数，nil时使用驱动默认值
func NewStore(dbType, dsn string, opts *Options) (storage.Store, func() error, error) {
	var (
		s   *sqldb.Store
		err error
	)
	switch dbType {
	case "sqlite":
		s, err = pkgsqlite.Open(dsn)
	case "mysql":
		s, err = mysql.Open(dsn)
	case "postgres", "postgresql":
		s, err = postgres.Open(dsn)
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create %s store failed: %w", dbType, err)
	}
	if opts != nil {
		db := s.DB()
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
		if opts.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}
	return s, s.Close, nil
}
