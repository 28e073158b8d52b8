package dedup

import "github.com/datner/renu-sub001/xerrors"

// 错误定义
var (
	// ErrConnectorNil 连接器为空
	ErrConnectorNil = xerrors.New("dedup: connector is nil")

	// ErrKeyEmpty 去重键为空
	ErrKeyEmpty = xerrors.New("dedup: key is empty")
)
