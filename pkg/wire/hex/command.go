package hex

// Command is the ASCII nibble that follows ':' in a hex frame.
type Command byte

const (
	CmdEnterBoot  Command = '0'
	CmdPing       Command = '1'
	CmdAppVersion Command = '3'
	CmdProductID  Command = '4'
	CmdRestart    Command = '6'
	CmdGet        Command = '7'
	CmdSet        Command = '8'
	CmdAsync      Command = 'A'
)

// Response codes that only appear in frames sent by the device.
const (
	RespDone    Command = '1'
	RespUnknown Command = '3'
	RespError   Command = '4'
	RespPing    Command = '5'
)

// Status bytes carried by Get, Set and Async payloads.
const (
	StatusOK          = "00"
	StatusUnknownID   = "01"
	StatusNotWritable = "02"
	StatusTooLarge    = "04"
)

// ChecksumErrorPayload is sent with RespError when an inbound frame fails its checksum.
const ChecksumErrorPayload = "AAAA"

func (c Command) String() string {
	switch c {
	case CmdEnterBoot:
		return "enter-boot"
	case CmdPing:
		return "ping"
	case CmdAppVersion:
		return "app-version"
	case CmdProductID:
		return "product-id"
	case CmdRestart:
		return "restart"
	case CmdGet:
		return "get"
	case CmdSet:
		return "set"
	case CmdAsync:
		return "async"
	}
	return "unknown"
}
