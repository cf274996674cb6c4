package handler

import (
	"net/http"

	"github.com/collidersite/internal/content"
	"github.com/collidersite/internal/db"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Login 校验管理员账号并写入会话，支持 JSON 与表单提交
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil || req.Username == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "请输入用户名和密码")
		return
	}

	user, err := db.Authenticate(a.db, req.Username, req.Password)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Set("username", user.Username)
	if err := session.Save(); err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "登录成功", "username": user.Username})
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		c.Error(err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "已退出登录"})
}

// AuthRequired 是一个简单的认证中间件
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get("user_id") == nil {
			respondError(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetMenu 返回后台菜单分组及可创建的页面类型
func (a *API) GetMenu(c *gin.Context) {
	types := make([]gin.H, 0)
	for _, name := range content.Types() {
		info, _ := content.Lookup(name)
		types = append(types, gin.H{
			"name":         info.Name,
			"label":        info.Label,
			"parentTypes":  info.ParentTypes,
			"subpageTypes": info.SubpageTypes,
			"isIndex":      info.IsIndex(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"groups": content.Menu(), "pageTypes": types})
}
