package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"bookingrule/internal/app/commands"
	"bookingrule/internal/app/dto"
	availabilityapp "bookingrule/internal/app/handlers/availability"
	rulesapp "bookingrule/internal/app/handlers/rules"
	"bookingrule/internal/app/queries"
	"bookingrule/internal/domain/availability"
	"bookingrule/internal/domain/shared/daterange"
)

type InventoryHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Format   daterange.Format
}

type blockRequest struct {
	From      string `json:"from" binding:"required"`
	To        string `json:"to" binding:"required"`
	Reason    string `json:"reason"`
	Reference string `json:"reference"`
}

func (h InventoryHandler) Rule(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	view, err := queries.Ask[rulesapp.ResolveRuleQuery, dto.RuleView](c.Request.Context(), h.Queries, rulesapp.ResolveRuleQuery{SelectorID: c.Param("id")})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Calendar accepts optional from/to query parameters in the configured date format.
func (h InventoryHandler) Calendar(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := availabilityapp.GetCalendarQuery{InventoryID: c.Param("id"), From: c.Query("from"), To: c.Query("to")}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h InventoryHandler) Block(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	from, err := h.Format.Parse(req.From)
	if err != nil {
		writeError(c, err)
		return
	}
	to, err := h.Format.Parse(req.To)
	if err != nil {
		writeError(c, err)
		return
	}
	r, err := daterange.NewRange(from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	cmd := availabilityapp.BlockDatesCommand{
		InventoryID: c.Param("id"),
		Range:       r,
		Reason:      availability.BlockReason(req.Reason),
		Reference:   req.Reference,
	}
	if _, err := commands.Dispatch[availabilityapp.BlockDatesCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h InventoryHandler) Release(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := availabilityapp.ReleaseDatesCommand{InventoryID: c.Param("id"), Reference: c.Param("reference")}
	if _, err := commands.Dispatch[availabilityapp.ReleaseDatesCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ InventoryHTTP = InventoryHandler{}
