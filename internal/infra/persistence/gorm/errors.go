package gormpersistence

import (
	"errors"

	"github.com/go-sql-driver/mysql"

	"scrum-and-tell/internal/repository"
)

// mapDuplicateEntry 检查是否是 MySQL 唯一约束错误 (1062)，
// 是则映射为仓库层的 ErrDuplicateEntry，否则原样返回。
func mapDuplicateEntry(err error) error {
	if err == nil {
		return nil
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return repository.ErrDuplicateEntry
	}
	return err
}
