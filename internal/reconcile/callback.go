package reconcile

import (
	"encoding/json"

	"github.com/datner/renu-sub001/xerrors"
)

// StatusApproved 清算供应商回调中的交易成功状态码
const StatusApproved = "000"

// 错误定义
var (
	// ErrMalformedCallback 回调报文非法
	ErrMalformedCallback = xerrors.New("reconcile: malformed callback")
)

// Callback 清算供应商支付回调报文
type Callback struct {
	Transaction CallbackTransaction `json:"transaction"`
}

// CallbackTransaction 回调中的交易块
// more_info 携带下单时写入的订单号，是回调与订单的唯一关联。
type CallbackTransaction struct {
	StatusCode string  `json:"status_code"`
	UID        string  `json:"uid"`
	MoreInfo   string  `json:"more_info"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
}

// Approved 判断交易是否成功
func (t *CallbackTransaction) Approved() bool {
	return t.StatusCode == StatusApproved
}

// OrderID 返回回调关联的订单号
func (t *CallbackTransaction) OrderID() string {
	return t.MoreInfo
}

// ParseCallback 解析并校验回调报文
//
// JSON 非法或必填字段（status_code、uid、more_info）缺失
// 都归入 ErrMalformedCallback：供应商重试同样报文不会有不同结果，
// 应当拒绝并告警，而不是进入管道。
func ParseCallback(raw []byte) (*Callback, error) {
	var cb Callback
	if err := json.Unmarshal(raw, &cb); err != nil {
		return nil, xerrors.Wrap(ErrMalformedCallback, err.Error())
	}

	t := &cb.Transaction
	if t.StatusCode == "" {
		return nil, xerrors.Wrap(ErrMalformedCallback, "missing transaction.status_code")
	}
	if t.UID == "" {
		return nil, xerrors.Wrap(ErrMalformedCallback, "missing transaction.uid")
	}
	if t.MoreInfo == "" {
		return nil, xerrors.Wrap(ErrMalformedCallback, "missing transaction.more_info")
	}
	return &cb, nil
}
