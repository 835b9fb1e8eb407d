package controllers

import (
	"context"
	"errors"
	"net/http"

	"sysmon/internal/models"
	"sysmon/internal/ui"

	"github.com/gin-gonic/gin"
)

// PanelController exposes the widget stack over HTTP. Every access to the
// widgets goes through the UI loop.
type PanelController struct {
	loop  *ui.Loop
	stack *ui.Stack
}

func NewPanelController(loop *ui.Loop, stack *ui.Stack) *PanelController {
	return &PanelController{loop: loop, stack: stack}
}

// ListPanels returns the titled pages
func (pc *PanelController) ListPanels(c *gin.Context) {
	var pages []models.PageInfo
	err := pc.loop.Query(c.Request.Context(), func() {
		pages = pc.stack.Pages()
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": pages})
}

// GetPanel returns the rendered widget tree of one page
func (pc *PanelController) GetPanel(c *gin.Context) {
	name := c.Param("name")

	var node ui.Node
	var renderErr error
	err := pc.loop.Query(c.Request.Context(), func() {
		node, renderErr = pc.stack.RenderPage(name)
	})
	if err == nil {
		err = renderErr
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "root": node})
}

// ClickButton clicks a button and returns the page as rendered afterwards
func (pc *PanelController) ClickButton(c *gin.Context) {
	node, err := pc.Click(c.Request.Context(), c.Param("name"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": c.Param("name"), "root": node})
}

// Click runs a button's handlers on the UI loop and renders its page
func (pc *PanelController) Click(ctx context.Context, page, buttonID string) (ui.Node, error) {
	var node ui.Node
	var clickErr error
	err := pc.loop.Invoke(ctx, func() {
		button, err := pc.stack.FindButton(page, buttonID)
		if err != nil {
			clickErr = err
			return
		}
		button.Click()
		node, clickErr = pc.stack.RenderPage(page)
	})
	if err != nil {
		return ui.Node{}, err
	}
	return node, clickErr
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ui.ErrUnknownPage), errors.Is(err, ui.ErrUnknownButton):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ui.ErrLoopStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
