package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Command layer.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrNoMoney    = "E_NO_MONEY"
	ErrMaxLevel   = "E_MAX_LEVEL"
	ErrLocked     = "E_LOCKED"
	ErrNoBeer     = "E_NO_BEER"
	ErrBarFull    = "E_BAR_FULL"
	ErrBarClosed  = "E_BAR_CLOSED"
	ErrNoPatron   = "E_NO_PATRON"
	ErrNoChoice   = "E_NO_CHOICE"
	ErrBusy       = "E_BUSY"
	ErrThreshold  = "E_THRESHOLD"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrNoMoney:         {},
	ErrMaxLevel:        {},
	ErrLocked:          {},
	ErrNoBeer:          {},
	ErrBarFull:         {},
	ErrBarClosed:       {},
	ErrNoPatron:        {},
	ErrNoChoice:        {},
	ErrBusy:            {},
	ErrThreshold:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
