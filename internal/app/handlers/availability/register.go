package availability

import (
	"bookingrule/internal/app/commands"
	"bookingrule/internal/app/dto"
	"bookingrule/internal/app/queries"
	"bookingrule/internal/domain/shared/daterange"
)

func Register(cmds *commands.InMemoryBus, qs *queries.InMemoryBus, deps CalendarDeps, format daterange.Format) {
	commands.Register[BlockDatesCommand, struct{}](cmds, &BlockDatesHandler{deps})
	commands.Register[ReleaseDatesCommand, struct{}](cmds, &ReleaseDatesHandler{deps})
	queries.Register[GetCalendarQuery, dto.Calendar](qs, &GetCalendarHandler{Calendars: deps.Calendars, Format: format})
}
