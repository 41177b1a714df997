package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/qa-forum/frontend/internal/model/account"
	"github.com/zhouzirui/qa-forum/frontend/internal/model/forum"
	accountService "github.com/zhouzirui/qa-forum/frontend/internal/service/account"
	"github.com/zhouzirui/qa-forum/frontend/pkg/utils"
)

// Handler 登录/注册页面的HTTP处理器
type Handler struct {
	accounts *accountService.Service
}

// New 创建账户处理器
func New(accounts *accountService.Service) *Handler {
	return &Handler{accounts: accounts}
}

// RegisterRoutes 注册账户相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)
	r.Get("/session", h.handleSession)
}

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form account.LoginForm
	if !utils.DecodeJSON(w, r, &form) {
		return
	}

	user, err := h.accounts.Login(r.Context(), form)
	if err != nil {
		respondFailure(w, err, account.MsgLoginFailed)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"user": user, "message": "Login successful!"})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload registerRequest
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	user, err := h.accounts.Register(r.Context(), account.RegisterForm{
		Username:        payload.Username,
		Email:           payload.Email,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
	})
	if err != nil {
		respondFailure(w, err, account.MsgRegisterFailed)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"user": user, "message": "Registration successful!"})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Logout(r.Context()); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Current(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"user": user})
}

func respondFailure(w http.ResponseWriter, err error, fallback string) {
	status := http.StatusInternalServerError
	switch forum.KindOf(err) {
	case forum.KindValidation:
		status = http.StatusBadRequest
	case forum.KindServer:
		status = http.StatusUnprocessableEntity
	case forum.KindTransport:
		status = http.StatusBadGateway
	}
	utils.RespondError(w, status, forum.UserMessage(err, fallback))
}
