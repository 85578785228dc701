package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/youruser/memberids/internal/batch"
	imagepkg "github.com/youruser/memberids/internal/image"
	"github.com/youruser/memberids/internal/layout"
	"github.com/youruser/memberids/internal/logger"
	"github.com/youruser/memberids/internal/members"
	"github.com/youruser/memberids/internal/metrics"
	"github.com/youruser/memberids/internal/render"
)

// Deps are the collaborators shared by every request.
type Deps struct {
	Directory members.Directory
	Fetcher   imagepkg.Fetcher
	Profiles  layout.Profiles
	// Profile is used when a request does not name one.
	Profile  string
	Branding layout.Branding
	Options  batch.Options
	Preview  *render.Preview
	Metrics  *metrics.Metrics
	Log      *logger.Logger
}

type Handler struct {
	d   Deps
	log *logger.Logger
}

func NewHandler(d Deps) *Handler {
	return &Handler{d: d, log: d.Log.With("component", "API")}
}

// health
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "profiles": h.d.Profiles.Names()})
}

// batchRequest narrows or replaces the directory listing. An empty body
// renders the whole directory with the default profile.
type batchRequest struct {
	Profile string `json:"profile"`
	Limit   *int   `json:"limit"`
	members.SelectOptions
	// Members, when set, are rendered instead of the directory listing.
	// Entries are decoded one by one so a bad entry only drops itself.
	Members []json.RawMessage `json:"members"`
}

func bindOptional(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *Handler) engine(name string) (*layout.Engine, error) {
	if name == "" {
		name = h.d.Profile
	}
	p, err := h.d.Profiles.Get(name)
	if err != nil {
		return nil, err
	}
	return layout.NewEngine(p, h.d.Branding)
}

func (h *Handler) downloadHandler(c *gin.Context) {
	var req batchRequest
	if c.Request.Method == http.MethodPost {
		if err := bindOptional(c, &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	} else {
		req.Profile = c.Query("profile")
	}

	engine, err := h.engine(req.Profile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var ms []members.Member
	if len(req.Members) > 0 {
		var skipped []members.RecordError
		ms, skipped = members.DecodeRecords(req.Members)
		members.LogSkipped(h.log, skipped)
	} else {
		ms, err = h.d.Directory.List(ctx)
		if err != nil {
			h.log.Error("directory unavailable", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "member directory unavailable"})
			return
		}
	}
	ms = members.Select(ms, req.SelectOptions)

	opts := h.d.Options
	if req.Limit != nil {
		opts.Limit = *req.Limit
	}
	comp := batch.New(h.d.Fetcher, engine, render.NewPDF(opts.ArtifactName, h.d.Log), opts, h.d.Log, h.d.Metrics)

	var buf bytes.Buffer
	doc, err := comp.GenerateTo(ctx, ms, &buf)
	switch {
	case errors.Is(err, batch.ErrEmptyInput):
		c.Status(http.StatusNoContent)
		return
	case errors.Is(err, batch.ErrEmptyDocument):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.log.Warn("download abandoned", "error", err)
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	case err != nil:
		h.log.Error("download failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	c.Header("X-Batch-ID", doc.ID.String())
	c.Header("X-Card-Pages", strconv.Itoa(doc.PageCount()))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// previewHandler renders one side of one member's card as PNG.
func (h *Handler) previewHandler(c *gin.Context) {
	if h.d.Preview == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "preview disabled"})
		return
	}
	side, err := layout.ParseSide(c.DefaultQuery("side", "front"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	engine, err := h.engine(c.Query("profile"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var m members.Member
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := h.d.Options
	opts.Limit = 1
	comp := batch.New(h.d.Fetcher, engine, nil, opts, h.d.Log, nil)
	doc, err := comp.Generate(c.Request.Context(), []members.Member{m})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	card, ok := doc.Card(0)
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "member could not be laid out"})
		return
	}
	pg := card.Front
	if side == layout.Back {
		pg = card.Back
	}

	buf := new(bytes.Buffer)
	if err := h.d.Preview.RenderPNG(buf, pg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// qr endpoint returns a PNG of a QR for "text" query param
func qrHandler(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	size := 256
	if sizeStr := c.Query("size"); sizeStr != "" {
		if v, err := strconv.Atoi(sizeStr); err == nil && v > 0 && v <= 2048 {
			size = v
		}
	}
	b, err := imagepkg.GenerateQRPNG(text, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}
