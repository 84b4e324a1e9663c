package widget

const (
	openSessionKey     = "widget.open"
	changeInventoryKey = "widget.inventory"
	selectPickupKey    = "widget.pickup"
	editDropoffKey     = "widget.dropoff"
	getSessionKey      = "widget.session"
)

// OpenSessionCommand starts a widget session and applies the preselected inventory.
type OpenSessionCommand struct {
	SelectorID string `validate:"max=128"`
}

func (c OpenSessionCommand) Key() string { return openSessionKey }

type ChangeInventoryCommand struct {
	SessionID  string `validate:"required,max=64"`
	SelectorID string `validate:"max=128"`
}

func (c ChangeInventoryCommand) Key() string { return changeInventoryKey }

type SelectPickupCommand struct {
	SessionID string `validate:"required,max=64"`
	Value     string `validate:"max=32"`
}

func (c SelectPickupCommand) Key() string { return selectPickupKey }

type EditDropoffCommand struct {
	SessionID string `validate:"required,max=64"`
	Value     string `validate:"max=32"`
}

func (c EditDropoffCommand) Key() string { return editDropoffKey }

type GetSessionQuery struct {
	SessionID string `validate:"required,max=64"`
}

func (q GetSessionQuery) Key() string { return getSessionKey }
