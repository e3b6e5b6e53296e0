// Package dbcore 管理全局唯一的 *gorm.DB 实例
package dbcore

import (
	"fmt"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	applog "github.com/blitzstudios/code-push-server/utils/log"
)

var (
	instance *gorm.DB
	once     sync.Once
	initErr  error
)

// Init 按 driver/dsn 打开数据库连接，只会真正执行一次
func Init(driver, dsn string) error {
	once.Do(func() {
		var dialector gorm.Dialector
		switch driver {
		case "mysql":
			dialector = mysql.Open(dsn)
		case "sqlite", "":
			dialector = sqlite.Open(dsn)
		default:
			initErr = fmt.Errorf("unsupported db driver %q", driver)
			return
		}

		db, err := gorm.Open(dialector, &gorm.Config{
			Logger: gormlogger.Default.LogMode(applog.GormLogLevel()),
		})
		if err != nil {
			initErr = err
			return
		}
		instance = db
	})
	return initErr
}

// GetDBInstance 返回全局 *gorm.DB 实例，调用前必须已 Init 成功
func GetDBInstance() *gorm.DB {
	return instance
}
