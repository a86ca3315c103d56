package commands

// Command describes an entry of the bot command menu.
type Command struct {
	Description string
	// Hidden commands are routed but not shown in the menu.
	Hidden  bool
	Aliases []string
}
