package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datner/renu-sub001/clog"
	"github.com/datner/renu-sub001/internal/reconcile"
)

// handlePayPlusCallback 处理 PayPlus 支付回调
//
// 状态码契约：
//   - 200 处理完成 / 重复回调 / 支付失败已告警（供应商停止重试）
//   - 400 报文非法（重试同样报文没有意义）
//   - 500 处理失败（供应商稍后重试）
func (s *Server) handlePayPlusCallback(c *gin.Context) {
	integrationID := c.Param("integrationID")
	if integrationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		s.logger.Warn("failed to read callback body", clog.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	outcome := s.deps.Pipeline.Process(c.Request.Context(), integrationID, raw)
	switch outcome {
	case reconcile.OutcomeProcessed, reconcile.OutcomeReplay, reconcile.OutcomePaymentFailed:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case reconcile.OutcomeMalformed:
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
	}
}

// handleHealthz 健康检查
// 附带每个供应商的熔断器状态，探活方可据此观测降级面。
func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"breakers": s.deps.Registry.BreakerStates(),
	})
}
