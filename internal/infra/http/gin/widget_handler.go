package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"bookingrule/internal/app/commands"
	"bookingrule/internal/app/dto"
	widgetapp "bookingrule/internal/app/handlers/widget"
	"bookingrule/internal/app/queries"
)

type WidgetHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type selectorRequest struct {
	SelectorID string `json:"selector_id"`
}

type valueRequest struct {
	Value string `json:"value"`
}

func (h WidgetHandler) Open(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req selectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := commands.Dispatch[widgetapp.OpenSessionCommand, *dto.SessionView](c.Request.Context(), h.Commands, widgetapp.OpenSessionCommand{SelectorID: req.SelectorID})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h WidgetHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	view, err := queries.Ask[widgetapp.GetSessionQuery, dto.SessionView](c.Request.Context(), h.Queries, widgetapp.GetSessionQuery{SessionID: c.Param("id")})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h WidgetHandler) ChangeInventory(c *gin.Context) {
	var req selectorRequest
	if !h.bind(c, &req) {
		return
	}
	cmd := widgetapp.ChangeInventoryCommand{SessionID: c.Param("id"), SelectorID: req.SelectorID}
	h.respond(c, func() (*dto.SessionView, error) {
		return commands.Dispatch[widgetapp.ChangeInventoryCommand, *dto.SessionView](c.Request.Context(), h.Commands, cmd)
	})
}

func (h WidgetHandler) SelectPickup(c *gin.Context) {
	var req valueRequest
	if !h.bind(c, &req) {
		return
	}
	cmd := widgetapp.SelectPickupCommand{SessionID: c.Param("id"), Value: req.Value}
	h.respond(c, func() (*dto.SessionView, error) {
		return commands.Dispatch[widgetapp.SelectPickupCommand, *dto.SessionView](c.Request.Context(), h.Commands, cmd)
	})
}

func (h WidgetHandler) EditDropoff(c *gin.Context) {
	var req valueRequest
	if !h.bind(c, &req) {
		return
	}
	cmd := widgetapp.EditDropoffCommand{SessionID: c.Param("id"), Value: req.Value}
	h.respond(c, func() (*dto.SessionView, error) {
		return commands.Dispatch[widgetapp.EditDropoffCommand, *dto.SessionView](c.Request.Context(), h.Commands, cmd)
	})
}

func (h WidgetHandler) bind(c *gin.Context, req any) bool {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return false
	}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (h WidgetHandler) respond(c *gin.Context, dispatch func() (*dto.SessionView, error)) {
	view, err := dispatch()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

var _ WidgetHTTP = WidgetHandler{}
