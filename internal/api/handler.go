package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
	apperrors "github.com/kurihiro0119/github-repo-finder/internal/errors"
	"github.com/kurihiro0119/github-repo-finder/internal/localstore"
	"github.com/kurihiro0119/github-repo-finder/internal/search"
	"github.com/kurihiro0119/github-repo-finder/internal/viewmodel"
)

// Handler handles API requests
type Handler struct {
	searcher    search.Searcher
	store       localstore.Store
	home        *viewmodel.Home
	defaultLang language.Tag
	logger      *slog.Logger
}

// HandlerOptions configures a Handler
type HandlerOptions struct {
	// DefaultLanguage is used for error messages when a request carries no
	// Accept-Language header
	DefaultLanguage string
	Logger          *slog.Logger
}

// NewHandler creates a new API handler. home is the session shared by the
// /api/v1/home routes.
func NewHandler(searcher search.Searcher, store localstore.Store, home *viewmodel.Home, opts HandlerOptions) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		searcher:    searcher,
		store:       store,
		home:        home,
		defaultLang: apperrors.MatchLanguage(opts.DefaultLanguage),
		logger:      logger.With("component", "api"),
	}
}

// HomeSnapshot is the current state of the home session
type HomeSnapshot struct {
	Keyword     string                                `json:"keyword"`
	Search      domain.Response[[]*domain.Repository] `json:"search"`
	PreviewSave domain.Response[bool]                 `json:"preview_save"`
	SaveToggle  domain.Response[bool]                 `json:"save_toggle"`
}

type keywordRequest struct {
	Keyword string `json:"keyword"`
}

// HealthCheck returns the health status of the API
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Search runs a stateless annotated search
// GET /api/v1/search?q=
func (h *Handler) Search(c *gin.Context) {
	result := viewmodel.AnnotatedSearch(c.Request.Context(), h.searcher, h.store, c.Query("q"))
	respond(h, c, http.StatusOK, result)
}

// GetSavedList returns the saved list
// GET /api/v1/saved
func (h *Handler) GetSavedList(c *gin.Context) {
	result := domain.Await(h.store.GetSavedList(c.Request.Context()))
	respond(h, c, http.StatusOK, result)
}

// AddSaved adds the posted repository to the saved list
// POST /api/v1/saved
func (h *Handler) AddSaved(c *gin.Context) {
	var repo domain.Repository
	if err := c.ShouldBindJSON(&repo); err != nil || repo.ID == 0 {
		h.respondCode(c, apperrors.ErrCodeInvalidRequest)
		return
	}

	saved := repo.ToSaved()
	result := domain.Await(h.store.AddToSaved(c.Request.Context(), saved))
	if result.IsSuccess() {
		h.home.RefreshSavedFlags()
	}
	respond(h, c, http.StatusCreated, domain.Map(result, func(bool) *domain.SavedRepository {
		return saved
	}))
}

// RemoveSaved removes a repository from the saved list; absent ids succeed
// DELETE /api/v1/saved/:id
func (h *Handler) RemoveSaved(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respondCode(c, apperrors.ErrCodeInvalidRequest)
		return
	}

	saved := &domain.SavedRepository{Repository: domain.Repository{ID: id}}
	result := domain.Await(h.store.RemoveFromSaved(c.Request.Context(), saved))
	if result.IsSuccess() {
		h.home.RefreshSavedFlags()
	}
	respond(h, c, http.StatusOK, result)
}

// GetPreviewed returns the previewed repository, or null when none is set
// GET /api/v1/preview
func (h *Handler) GetPreviewed(c *gin.Context) {
	result := domain.Await(h.store.GetPreviewed(c.Request.Context()))
	respond(h, c, http.StatusOK, result)
}

// SetPreviewed replaces the previewed repository
// PUT /api/v1/preview
func (h *Handler) SetPreviewed(c *gin.Context) {
	var repo domain.Repository
	if err := c.ShouldBindJSON(&repo); err != nil || repo.ID == 0 {
		h.respondCode(c, apperrors.ErrCodeInvalidRequest)
		return
	}

	result := domain.Await(h.store.SetPreviewed(c.Request.Context(), &repo))
	respond(h, c, http.StatusOK, result)
}

// GetHome returns the home session state
// GET /api/v1/home
func (h *Handler) GetHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": h.snapshot(),
	})
}

// UpdateKeyword sets the session keyword
// PUT /api/v1/home/keyword
func (h *Handler) UpdateKeyword(c *gin.Context) {
	var req keywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondCode(c, apperrors.ErrCodeInvalidRequest)
		return
	}

	h.home.UpdateKeyword(req.Keyword)
	h.GetHome(c)
}

// ClearKeyword resets the session keyword and results
// DELETE /api/v1/home/keyword
func (h *Handler) ClearKeyword(c *gin.Context) {
	h.home.ClearKeyword()
	h.GetHome(c)
}

// HomeSearch starts a search for the session keyword. With ?wait=true the
// response is sent once the search has finished.
// POST /api/v1/home/search
func (h *Handler) HomeSearch(c *gin.Context) {
	h.home.Search()
	h.accepted(c)
}

// RefreshSavedFlags re-annotates the session results
// POST /api/v1/home/refresh
func (h *Handler) RefreshSavedFlags(c *gin.Context) {
	h.home.RefreshSavedFlags()
	h.accepted(c)
}

// SelectRepository stores the posted repository as previewed
// POST /api/v1/home/select
func (h *Handler) SelectRepository(c *gin.Context) {
	var repo domain.Repository
	if err := c.ShouldBindJSON(&repo); err != nil || repo.ID == 0 {
		h.respondCode(c, apperrors.ErrCodeInvalidRequest)
		return
	}

	h.home.SelectRepository(&repo)
	h.accepted(c)
}

// ToggleSaved flips the saved flag of the posted repository
// POST /api/v1/home/toggle
func (h *Handler) ToggleSaved(c *gin.Context) {
	var repo domain.Repository
	if err := c.ShouldBindJSON(&repo); err != nil || repo.ID == 0 {
		h.respondCode(c, apperrors.ErrCodeInvalidRequest)
		return
	}

	h.home.ToggleSaved(&repo)
	h.accepted(c)
}

// HomeEvents streams session state changes as server-sent events
// GET /api/v1/home/events
func (h *Handler) HomeEvents(c *gin.Context) {
	keywordCh, cancelKeyword := h.home.SubscribeKeyword(0)
	defer cancelKeyword()
	searchCh, cancelSearch := h.home.SubscribeSearchState(0)
	defer cancelSearch()
	previewCh, cancelPreview := h.home.SubscribePreviewSaveState(0)
	defer cancelPreview()
	toggleCh, cancelToggle := h.home.SubscribeSaveToggleState(0)
	defer cancelToggle()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("snapshot", h.snapshot())
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-keywordCh:
			if !ok {
				return
			}
			c.SSEvent("keyword", keywordRequest{Keyword: v})
		case v, ok := <-searchCh:
			if !ok {
				return
			}
			c.SSEvent("search", v)
		case v, ok := <-previewCh:
			if !ok {
				return
			}
			c.SSEvent("preview_save", v)
		case v, ok := <-toggleCh:
			if !ok {
				return
			}
			c.SSEvent("save_toggle", v)
		}
		c.Writer.Flush()
	}
}

func (h *Handler) snapshot() HomeSnapshot {
	return HomeSnapshot{
		Keyword:     h.home.Keyword(),
		Search:      h.home.SearchState(),
		PreviewSave: h.home.PreviewSaveState(),
		SaveToggle:  h.home.SaveToggleState(),
	}
}

func (h *Handler) accepted(c *gin.Context) {
	status := http.StatusAccepted
	if c.Query("wait") == "true" {
		h.home.Wait()
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"data": h.snapshot(),
	})
}

func (h *Handler) language(c *gin.Context) language.Tag {
	if header := c.GetHeader("Accept-Language"); header != "" {
		return apperrors.MatchLanguage(header)
	}
	return h.defaultLang
}

// respond sends the terminal response r, or an error envelope for its code
func respond[T any](h *Handler, c *gin.Context, status int, r domain.Response[T]) {
	domain.Match(r,
		func() struct{} {
			h.respondCode(c, apperrors.ErrCodeGeneric)
			return struct{}{}
		},
		func(data T) struct{} {
			c.JSON(status, gin.H{
				"data": data,
			})
			return struct{}{}
		},
		func(code apperrors.ErrCode) struct{} {
			h.respondCode(c, code)
			return struct{}{}
		},
	)
}

// respondCode sends an error response with a localized message
func (h *Handler) respondCode(c *gin.Context, code apperrors.ErrCode) {
	c.JSON(apperrors.HTTPStatus(code), gin.H{
		"error": gin.H{
			"code":      code,
			"message":   apperrors.Message(code, h.language(c)),
			"retryable": apperrors.Retryable(code),
		},
	})
}
