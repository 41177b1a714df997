package forum

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/qa-forum/frontend/internal/logger"
	"github.com/zhouzirui/qa-forum/frontend/internal/model/account"
	"github.com/zhouzirui/qa-forum/frontend/internal/model/forum"
	accountService "github.com/zhouzirui/qa-forum/frontend/internal/service/account"
	forumService "github.com/zhouzirui/qa-forum/frontend/internal/service/forum"
	"github.com/zhouzirui/qa-forum/frontend/pkg/utils"
)

// Handler 论坛页面的HTTP处理器
type Handler struct {
	sync      *forumService.Synchronizer
	accounts  *accountService.Service
	keepAlive time.Duration
	log       zerolog.Logger
}

// New 创建论坛处理器
func New(sync *forumService.Synchronizer, accounts *accountService.Service) *Handler {
	return &Handler{
		sync:      sync,
		accounts:  accounts,
		keepAlive: 15 * time.Second,
		log:       logger.Component("http"),
	}
}

// RegisterRoutes 注册论坛相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/questions", h.handleView)
	r.Post("/questions", h.handleSubmitQuestion)
	r.Post("/questions/{questionID}/replies", h.handleSubmitReply)
	r.Put("/questions/{questionID}/draft", h.handleSetDraft)
	r.Put("/questions/{questionID}/status", h.handleSetStatus)
	r.Delete("/error", h.handleDismissError)
	r.Get("/stream", h.handleStream)
}

// Page is the forum page state sent to the browser.
type Page struct {
	forumService.View
	User   *account.User       `json:"user"`
	Drafts map[forum.ID]string `json:"drafts,omitempty"`
}

type messageRequest struct {
	Message string `json:"message"`
}

func (h *Handler) page(ctx context.Context, draftIDs ...forum.ID) Page {
	p := Page{View: h.sync.View()}
	if user, err := h.accounts.Current(ctx); err != nil {
		h.log.Warn().Err(err).Msg("session unreadable")
	} else {
		p.User = user
	}
	for _, id := range draftIDs {
		if draft := h.sync.ReplyDraft(id); draft != "" {
			if p.Drafts == nil {
				p.Drafts = make(map[forum.ID]string)
			}
			p.Drafts[id] = draft
		}
	}
	return p
}

// handleView 返回当前问题列表
func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.page(r.Context()))
}

// handleSubmitQuestion 提交新问题; 失败信息写入页面的错误栏
func (h *Handler) handleSubmitQuestion(w http.ResponseWriter, r *http.Request) {
	var payload messageRequest
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	_, _ = h.sync.SubmitQuestion(r.Context(), payload.Message)
	utils.RespondJSON(w, http.StatusOK, h.page(r.Context()))
}

// handleSubmitReply 提交回复; 请求体为空时使用已保存的草稿
func (h *Handler) handleSubmitReply(w http.ResponseWriter, r *http.Request) {
	id := forum.ID(chi.URLParam(r, "questionID"))

	var payload messageRequest
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	if payload.Message == "" {
		_ = h.sync.SubmitReplyDraft(r.Context(), id)
	} else {
		_ = h.sync.SubmitReply(r.Context(), id, payload.Message)
	}
	utils.RespondJSON(w, http.StatusOK, h.page(r.Context(), id))
}

// handleSetDraft 保存某个问题的回复草稿
func (h *Handler) handleSetDraft(w http.ResponseWriter, r *http.Request) {
	id := forum.ID(chi.URLParam(r, "questionID"))

	var payload messageRequest
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	h.sync.SetReplyDraft(id, payload.Message)
	utils.RespondJSON(w, http.StatusOK, h.page(r.Context(), id))
}

// handleSetStatus 修改问题状态; 访客调用时静默忽略
func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id := forum.ID(chi.URLParam(r, "questionID"))
	status := forum.Status(r.URL.Query().Get("status"))

	_ = h.sync.SetStatus(r.Context(), id, status)
	utils.RespondJSON(w, http.StatusOK, h.page(r.Context()))
}

// handleDismissError 清除错误栏
func (h *Handler) handleDismissError(w http.ResponseWriter, r *http.Request) {
	h.sync.DismissError()
	utils.RespondJSON(w, http.StatusOK, h.page(r.Context()))
}

// handleStream 以SSE推送页面状态, 每次变化发送一次
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	changes, cancel := h.sync.Subscribe()
	defer cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	h.log.Debug().Msg("opening view stream")

	if err := utils.SendSSEEvent(w, flusher, "view", h.page(ctx)); err != nil {
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug().Msg("closing view stream")
			return
		case <-changes:
			if err := utils.SendSSEEvent(w, flusher, "view", h.page(ctx)); err != nil {
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				return
			}
		}
	}
}
