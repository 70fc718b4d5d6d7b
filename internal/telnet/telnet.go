package telnet

import "fmt"

// Cmd is a telnet command byte, valid after an IAC escape.
type Cmd byte

// IAC introduces an in-band command sequence.
const IAC = 0xFF

// Commands from RFC 854. Values below SE are not commands.
const (
	SE   Cmd = 240 // subnegotiation end
	NOP  Cmd = 241
	DM   Cmd = 242 // data mark
	BRK  Cmd = 243
	IP   Cmd = 244 // interrupt process
	AO   Cmd = 245 // abort output
	AYT  Cmd = 246 // are you there
	EC   Cmd = 247 // erase character
	EL   Cmd = 248 // erase line
	GA   Cmd = 249 // go ahead
	SB   Cmd = 250 // subnegotiation begin
	WILL Cmd = 251
	WONT Cmd = 252
	DO   Cmd = 253
	DONT Cmd = 254
)

var cmdNames = map[Cmd]string{
	SE: "SE", NOP: "NOP", DM: "DM", BRK: "BRK", IP: "IP", AO: "AO",
	AYT: "AYT", EC: "EC", EL: "EL", GA: "GA", SB: "SB",
	WILL: "WILL", WONT: "WONT", DO: "DO", DONT: "DONT",
}

// IsOptionCode reports whether c opens a three-byte option sequence
// (IAC <c> <option>) rather than a two-byte command.
func IsOptionCode(c Cmd) bool {
	return c >= WILL && c <= DONT
}

// String renders a command byte for diagnostics.
func (c Cmd) String() string {
	if name, ok := cmdNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CMD(%d)", byte(c))
}
