package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrashed98/blueprint-cms/internal/core/content"
	"github.com/mrashed98/blueprint-cms/internal/core/locale"
	"github.com/mrashed98/blueprint-cms/internal/core/render"
	"github.com/mrashed98/blueprint-cms/internal/core/template"
)

type ContentHandler struct {
	contentService *content.Service
	templates      *template.Catalogue
	preview        *render.Renderer
	public         *render.Renderer
}

// NewContentHandler serves authoring routes with preview and the site
// routes with public. They differ in whether raw HTML in rich text survives.
func NewContentHandler(contentService *content.Service, templates *template.Catalogue, preview, public *render.Renderer) *ContentHandler {
	return &ContentHandler{contentService: contentService, templates: templates, preview: preview, public: public}
}

func (h *ContentHandler) Create(c *gin.Context) {
	var req content.CreateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	doc, err := h.contentService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// List accepts optional ?type= and ?status= filters.
func (h *ContentHandler) List(c *gin.Context) {
	filter := content.ListFilter{
		Type:   content.Type(c.Query("type")),
		Status: content.Status(c.Query("status")),
	}

	resp, err := h.contentService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ContentHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	doc, err := h.contentService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Update saves metadata and the complete ordered section list at once.
func (h *ContentHandler) Update(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req content.UpdateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	doc, err := h.contentService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *ContentHandler) Delete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.contentService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ContentHandler) AddSection(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req content.AddSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	section, err := h.contentService.AddSection(c.Request.Context(), id, req.BlueprintID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, section)
}

func (h *ContentHandler) DuplicateSection(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	sectionID, ok := paramUUID(c, "sectionId")
	if !ok {
		return
	}

	section, err := h.contentService.DuplicateSection(c.Request.Context(), id, sectionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, section)
}

// Render previews a document in one locale regardless of its status.
func (h *ContentHandler) Render(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	loc, err := requestLocale(c)
	if err != nil {
		respondError(c, err)
		return
	}

	doc, err := h.contentService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.writePage(c, h.preview, doc, loc)
}

// PublicBySlug serves published documents to the site.
func (h *ContentHandler) PublicBySlug(c *gin.Context) {
	loc, err := requestLocale(c)
	if err != nil {
		respondError(c, err)
		return
	}

	doc, err := h.contentService.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.writePage(c, h.public, doc, loc)
}

func (h *ContentHandler) writePage(c *gin.Context, r *render.Renderer, doc *content.Content, loc locale.Locale) {
	page, err := r.Render(doc, loc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Language", string(loc))
	c.JSON(http.StatusOK, page)
}

// Templates lists the content templates a document can start from,
// optionally narrowed by ?type=.
func (h *ContentHandler) Templates(c *gin.Context) {
	var list []template.Template
	if t := c.Query("type"); t != "" {
		list = h.templates.ByType(t)
	} else {
		list = h.templates.All()
	}

	c.JSON(http.StatusOK, gin.H{"templates": list, "total": len(list)})
}

// requestLocale reads ?locale=, falling back to Accept-Language.
func requestLocale(c *gin.Context) (locale.Locale, error) {
	if raw := c.Query("locale"); raw != "" {
		return locale.Parse(raw)
	}
	return locale.FromAcceptLanguage(c.GetHeader("Accept-Language")), nil
}
