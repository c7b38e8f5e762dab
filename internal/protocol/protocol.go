package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeCatalog = "CATALOG"
	TypeState   = "STATE"
	TypeCmd     = "CMD"
	TypeAck     = "ACK"
)

// Command names carried by CMD messages.
const (
	CmdBuyUpgrade   = "BUY_UPGRADE"
	CmdTap          = "TAP"
	CmdSell         = "SELL"
	CmdToggleBar    = "TOGGLE_BAR"
	CmdSetDrink     = "SET_DRINK"
	CmdSpawnPatron  = "SPAWN_PATRON"
	CmdClickPatron  = "CLICK_PATRON"
	CmdQuestChoice  = "QUEST_CHOICE"
	CmdQuestDismiss = "QUEST_DISMISS"
	CmdMoralChoice  = "MORAL_CHOICE"
	CmdPrestige     = "PRESTIGE"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

var knownCommands = map[string]struct{}{
	CmdBuyUpgrade:   {},
	CmdTap:          {},
	CmdSell:         {},
	CmdToggleBar:    {},
	CmdSetDrink:     {},
	CmdSpawnPatron:  {},
	CmdClickPatron:  {},
	CmdQuestChoice:  {},
	CmdQuestDismiss: {},
	CmdMoralChoice:  {},
	CmdPrestige:     {},
}

func IsKnownCommand(cmd string) bool {
	_, ok := knownCommands[cmd]
	return ok
}
