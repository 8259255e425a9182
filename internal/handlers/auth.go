package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/logger"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/xerr"
	"github.com/pedrhcorreia/cloudshare/internal/services/admin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService admin.AuthService
}

func NewAuthHandler(authService admin.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type SignupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup handles user registration.
// @Summary 用户注册
// @Description 使用用户名和密码注册新账号
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body SignupRequest true "注册信息"
// @Success 200 {object} xerr.Response "注册成功"
// @Failure 400 {object} xerr.Response "请求参数无效"
// @Failure 409 {object} xerr.Response "用户名已存在"
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	user, err := h.authService.Signup(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, xerr.ErrUserAlreadyExists) {
			xerr.Error(c, http.StatusConflict, xerr.UserAlreadyExistsCode, err.Error())
		} else {
			logger.Error("Signup: 用户注册失败", zap.String("username", req.Username), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "注册失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "注册成功", gin.H{
		"user_id":  user.ID,
		"username": user.Username,
	})
}

// Login handles user login and issues a session token.
// @Summary 用户登录
// @Description 校验用户名密码，返回会话 Token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} xerr.Response "登录成功"
// @Failure 401 {object} xerr.Response "用户名或密码错误"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, xerr.ErrUserNotFound) || errors.Is(err, xerr.ErrInvalidCredentials) {
			// 不区分用户不存在和密码错误，避免暴露账号枚举信息
			xerr.Error(c, http.StatusUnauthorized, xerr.InvalidCredentialsCode, xerr.ErrInvalidCredentials.Error())
		} else {
			logger.Error("Login: 用户登录失败", zap.String("username", req.Username), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "登录失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "登录成功", gin.H{
		"token": token,
	})
}
