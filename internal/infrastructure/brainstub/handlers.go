package brainstub

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"fundbridge/internal/domain/entity"
	apperrors "fundbridge/pkg/errors"
	"fundbridge/pkg/response"
	"fundbridge/pkg/utils"
)

type Handler struct {
	store     *Store
	jwtSecret string
	jwtExpiry int64
	maxUpload int64
}

func NewHandler(store *Store, jwtSecret string, jwtExpiry, maxUpload int64) *Handler {
	return &Handler{
		store:     store,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
		maxUpload: maxUpload,
	}
}

type sendMessageRequest struct {
	ReceiverID   string `json:"receiver_id" validate:"required"`
	Content      string `json:"content"`
	AttachmentID string `json:"attachment_id,omitempty"`
	ParentID     string `json:"parent_id,omitempty"`
	ThreadTitle  string `json:"thread_title,omitempty"`
}

func (h *Handler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}
	if strings.TrimSpace(req.Content) == "" && req.AttachmentID == "" {
		return response.Error(c, apperrors.BadRequest("message requires content or an attachment", nil))
	}
	if req.AttachmentID != "" {
		if _, ok := h.store.Attachment(req.AttachmentID); !ok {
			return response.Error(c, apperrors.NotFound("attachment", nil))
		}
	}

	senderID := c.Get("uid").(string)
	msg := h.store.AppendMessage(senderID, req.ReceiverID, req.Content, req.AttachmentID, req.ParentID, req.ThreadTitle)
	return response.Created(c, msg)
}

func (h *Handler) GetMessages(c echo.Context) error {
	otherUserID := c.QueryParam("other_user_id")
	if otherUserID == "" {
		return response.Error(c, apperrors.BadRequest("other_user_id is required", nil))
	}

	params := utils.GetPaginationParams(c)
	userID := c.Get("uid").(string)
	items, total := h.store.MessagesBetween(userID, otherUserID, params.Page, params.PageSize)
	if items == nil {
		items = []entity.Message{}
	}
	return response.Paginated(c, items, total, params.Page, params.PageSize)
}

func (h *Handler) GetThreads(c echo.Context) error {
	userID := c.Get("uid").(string)
	threads := h.store.ThreadsFor(userID)
	return response.Paginated(c, threads, int64(len(threads)), 1, len(threads)+1)
}

type markReadRequest struct {
	IsRead bool `json:"is_read"`
}

func (h *Handler) MarkThreadRead(c echo.Context) error {
	var req markReadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}

	userID := c.Get("uid").(string)
	threadID := c.Param("id")
	// Clients address threads by peer id or by canonical key; accept both.
	if !strings.Contains(threadID, ":") {
		threadID = ThreadKey(userID, threadID)
	}
	if !h.store.MarkThreadRead(threadID, userID, req.IsRead) {
		return response.Error(c, apperrors.NotFound("thread", nil))
	}
	return response.Success(c, map[string]bool{"updated": true})
}

type typingUpdateRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	IsTyping   bool   `json:"is_typing"`
}

func (h *Handler) UpdateTyping(c echo.Context) error {
	var req typingUpdateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	h.store.SetTyping(userID, req.ReceiverID, req.IsTyping)
	return response.Success(c, map[string]bool{"updated": true})
}

func (h *Handler) GetTyping(c echo.Context) error {
	userID := c.Get("uid").(string)
	peerID := c.Param("other_user_id")
	return response.Success(c, h.store.TypingFor(userID, peerID))
}

func (h *Handler) UploadAttachment(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, apperrors.BadRequest("file field is required", err))
	}

	contentType := c.FormValue("content_type")
	if contentType == "" {
		contentType = fileHeader.Header.Get("Content-Type")
	}
	if !entity.IsAllowedAttachmentType(contentType) {
		return response.Error(c, apperrors.New("UNSUPPORTED_FILE_TYPE", "unsupported file type: "+contentType, http.StatusUnprocessableEntity, nil))
	}
	if fileHeader.Size > h.maxUpload {
		return response.Error(c, apperrors.BadRequest("file exceeds the upload limit", nil))
	}

	userID := c.Get("uid").(string)
	att := h.store.SaveAttachment(userID, fileHeader.Filename, contentType, fileHeader.Size)
	return response.Created(c, att)
}

func (h *Handler) GetAnalytics(c echo.Context) error {
	role, _ := c.Get("role").(string)
	if role != entity.RoleAdmin {
		return response.Error(c, apperrors.Forbidden("analytics require the admin role", nil))
	}
	return response.Success(c, h.store.Analytics())
}

func (h *Handler) GetFeatureAccess(c echo.Context) error {
	userID := c.Param("user_id")
	feature := c.Param("feature")
	grant := entity.FeatureGrant{
		UserID:    userID,
		Feature:   feature,
		Allowed:   h.store.Grant(userID, feature),
		CheckedAt: h.store.clock.Now(),
	}
	return response.Success(c, grant)
}

type devTokenRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"omitempty,oneof=fund_manager limited_partner capital_raiser admin"`
}

// DevToken mints a local session token so the CLI can talk to the stub
// without real auth infrastructure.
func (h *Handler) DevToken(c echo.Context) error {
	var req devTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}
	if req.Role == "" {
		req.Role = entity.RoleFundManager
	}

	h.store.PutUser(&entity.User{
		ID:        req.UserID,
		Role:      req.Role,
		CreatedAt: h.store.clock.Now(),
	})

	now := h.store.clock.Now()
	claims := jwt.MapClaims{
		"sub":  req.UserID,
		"role": req.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(time.Duration(h.jwtExpiry) * time.Second).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
	if err != nil {
		return response.Error(c, apperrors.Internal("failed to sign token", err))
	}
	return response.Success(c, map[string]string{"token": token})
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
