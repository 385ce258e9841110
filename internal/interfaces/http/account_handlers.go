package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateTemplate handles POST /api/templates
func (h *Handlers) CreateTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	tpl, err := h.deps.Templates.Create(c.Request.Context(), currentUser(c), req.toEntity())
	if err != nil {
		abortWithError(c, err)
		return
	}
	ok(c, http.StatusCreated, tpl)
}

// ListTemplates handles GET /api/templates
func (h *Handlers) ListTemplates(c *gin.Context) {
	templates, err := h.deps.Templates.List(c.Request.Context(), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	ok(c, http.StatusOK, templates)
}

// GetTemplate handles GET /api/templates/:id
func (h *Handlers) GetTemplate(c *gin.Context) {
	tpl, err := h.deps.Templates.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	ok(c, http.StatusOK, tpl)
}

// UpdateTemplate handles PUT /api/templates/:id
func (h *Handlers) UpdateTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	tpl, err := h.deps.Templates.Update(c.Request.Context(), currentUser(c), c.Param("id"), req.toEntity())
	if err != nil {
		abortWithError(c, err)
		return
	}
	ok(c, http.StatusOK, tpl)
}

// DeleteTemplate handles DELETE /api/templates/:id
func (h *Handlers) DeleteTemplate(c *gin.Context) {
	if err := h.deps.Templates.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetProfile handles GET /api/profile
func (h *Handlers) GetProfile(c *gin.Context) {
	profile, err := h.deps.Accounts.GetProfile(c.Request.Context(), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	ok(c, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	profile, err := h.deps.Accounts.UpdateProfile(c.Request.Context(), currentUser(c), req.Name, req.Email)
	if err != nil {
		abortWithError(c, err)
		return
	}
	ok(c, http.StatusOK, profile)
}

// ListWallets handles GET /api/wallet
func (h *Handlers) ListWallets(c *gin.Context) {
	wallets, err := h.deps.Accounts.Wallets(c.Request.Context(), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	ok(c, http.StatusOK, wallets)
}
