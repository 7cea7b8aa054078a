package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/botview/internal/conf"
	"github.com/gowvp/botview/internal/core/order"
	"github.com/gowvp/botview/internal/core/video"
)

// VideoAPI 为 http 提供业务方法
type VideoAPI struct {
	videoCore video.Core
	orderCore order.Core
	conf      *conf.Bootstrap
}

func NewVideoAPI(videoCore video.Core, orderCore order.Core, conf *conf.Bootstrap) VideoAPI {
	return VideoAPI{videoCore: videoCore, orderCore: orderCore, conf: conf}
}

func RegisterVideo(g gin.IRouter, api VideoAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/api/v1/machines/:id/orders/:uid", handler...)
	// HLS 播放列表，播放器直接拉这个地址
	group.GET("/playlist.m3u8", api.orderPlaylist)

	// 视频文件服务，带令牌校验
	// 路径格式: /static/videos/{machine}/videos/xxx.mp4?expires=xxx&token=xxx
	// c.File 支持 HTTP Range 请求，实现边下载边播放
	g.GET("/static/videos/*path", api.serveVideo)
}

// orderPlaylist 为订单视频生成单片段 VOD 播放列表
func (a VideoAPI) orderPlaylist(c *gin.Context) {
	uid, err := strconv.ParseFloat(c.Param("uid"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "msg": "uid 必须是数字时间戳"})
		return
	}
	machineID := c.Param("id")

	o, err := a.orderCore.FetchOrderBounds(machineID, uid)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 1, "msg": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "msg": err.Error()})
		return
	}

	uri, err := a.videoCore.FindForOrder(c.Request.Context(), machineID, o.StartTime)
	if err != nil {
		if errors.Is(err, video.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 1, "msg": "no video for order"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "msg": err.Error()})
		return
	}

	content, err := a.videoCore.Playlist(uri, o.EndTime.Sub(o.StartTime).Seconds())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "msg": err.Error()})
		return
	}
	c.Header("Content-Type", "application/vnd.apple.mpegurl")
	c.Header("Cache-Control", "no-cache")
	c.String(http.StatusOK, content)
}

// serveVideo 校验令牌后吐视频文件
func (a VideoAPI) serveVideo(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("path"), "/")
	expires, _ := strconv.ParseInt(c.Query("expires"), 10, 64)
	token := c.Query("token")

	if !video.VerifyToken(a.conf.Telemetry.VideoTokenSecret, key, token, expires, time.Now()) {
		c.JSON(http.StatusForbidden, gin.H{"code": 1, "msg": "invalid or expired token"})
		return
	}

	// 令牌绑定了 key，路径穿越的 key 签不出合法令牌，这里只做兜底
	clean := filepath.Clean("/" + key)
	c.File(filepath.Join(a.conf.Telemetry.DataDir, clean))
}
