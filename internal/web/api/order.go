package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/botview/internal/core/order"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
)

// OrderAPI 为 http 提供业务方法
type OrderAPI struct {
	orderCore order.Core
}

func NewOrderAPI(core order.Core) OrderAPI {
	return OrderAPI{orderCore: core}
}

func RegisterOrder(g gin.IRouter, api OrderAPI, handler ...gin.HandlerFunc) {
	{
		// 预烘焙快照，前端列表与详情页的主数据源
		group := g.Group("/api/v1/orders", handler...)
		group.GET("", web.WrapH(api.findOrders))
		group.GET("/:id", web.WrapH(api.getOrder))
	}
	{
		// 现场重算，按机器与订单 uid 直接扫日志
		group := g.Group("/api/v1/machines/:id/orders", handler...)
		group.GET("/:uid", web.WrapH(api.getLiveOrder))
	}
}

// findOrders 分页查询快照列表
func (a OrderAPI) findOrders(c *gin.Context, in *order.FindSnapshotInput) (any, error) {
	items, total, err := a.orderCore.FindSnapshots(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

// getOrder 返回单个订单的完整遥测快照
func (a OrderAPI) getOrder(c *gin.Context, _ *struct{}) (*order.OrderTelemetry, error) {
	return a.orderCore.GetSnapshotTelemetry(c.Request.Context(), c.Param("id"))
}

// getLiveOrder 绕过快照现场重算，数据未及时烘焙时的兜底入口
func (a OrderAPI) getLiveOrder(c *gin.Context, _ *struct{}) (*order.OrderTelemetry, error) {
	uid, err := strconv.ParseFloat(c.Param("uid"), 64)
	if err != nil {
		return nil, reason.ErrBadRequest.SetMsg("uid 必须是数字时间戳")
	}
	return a.orderCore.BuildOrderTelemetry(c.Request.Context(), &order.BuildTelemetryInput{
		MachineID: c.Param("id"),
		UID:       uid,
	})
}
