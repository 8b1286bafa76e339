package recordstore

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateKey      = errors.New("主键已存在")
	ErrUnknownCollection = errors.New("未知的集合")
	ErrUnknownIndex      = errors.New("未知的索引")
	ErrInvalidRecord     = errors.New("无效的记录")
	ErrClosed            = errors.New("存储已关闭")
)

// StorageError 存储操作失败
type StorageError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StorageError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("%s失败: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s失败: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func wrap(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Collection: collection, Err: err}
}
