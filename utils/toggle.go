package utils

// ToggleCommand is the literal toggle command.
const ToggleCommand = "TOGGLE"

// IsToggleCommand reports whether msg asks an actuator to toggle. Besides the
// literal TOGGLE this accepts the ISO 8601 timestamps that buttons publish on
// a press, with or without a zone offset:
//
//	2021-10-24T16:23:41.500792
//	2022-02-27T17:58:45.165491+0100
func IsToggleCommand(msg string) bool {
	if msg == ToggleCommand {
		return true
	}
	return (len(msg) == 26 || len(msg) == 31) && msg[10] == 'T'
}
