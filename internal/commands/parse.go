package commands

import "strings"

// Command is a parsed command message.
type Command struct {
	Name string // lower-cased, without the leading slash
	// Addressee is the bot username after '@', or "" when the command is not addressed.
	Addressee string
	Args      []string
}

// AddressedTo reports whether the command may be handled by the bot called username.
// Unaddressed commands are meant for every bot in the chat.
func (c Command) AddressedTo(username string) bool {
	return c.Addressee == "" || strings.EqualFold(c.Addressee, username)
}

// Parse splits a message such as "/settime@QuoteBot 14:30" into its command name,
// addressee and arguments. ok is false when text is not a command.
func Parse(text string) (cmd Command, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, false
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		cmd.Addressee = name[at+1:]
		name = name[:at]
	}
	if name == "" {
		return Command{}, false
	}
	cmd.Name = strings.ToLower(name)
	cmd.Args = fields[1:]
	return cmd, true
}
