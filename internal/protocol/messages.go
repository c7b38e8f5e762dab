package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	WantCatalogs    bool   `json:"want_catalogs,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	BarParams       BarParams      `json:"bar_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
	OfflineReport   *OfflineReport `json:"offline_report,omitempty"`
}

type BarParams struct {
	TickRateHz int   `json:"tick_rate_hz"`
	Seed       int64 `json:"seed"`
	Stools     int   `json:"stools"`
}

// OfflineReport describes beer credited for time the bar sat unattended.
type OfflineReport struct {
	Minutes      float64 `json:"minutes"`
	BeerCredited float64 `json:"beer_credited"`
	Capped       bool    `json:"capped,omitempty"`
}

type CatalogDigests struct {
	UpgradesDigest     string `json:"upgrades_digest"`
	DrinksDigest       string `json:"drinks_digest"`
	PatronsDigest      string `json:"patrons_digest"`
	MoralEventsDigest  string `json:"moral_events_digest"`
	PunishmentsDigest  string `json:"punishments_digest"`
	QuestsDigest       string `json:"quests_digest"`
	AchievementsDigest string `json:"achievements_digest"`
	CommentaryDigest   string `json:"commentary_digest"`
}

// CATALOG (server -> client): one catalog sent as a single part.
type CatalogMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Name            string      `json:"name"`
	Digest          string      `json:"digest"` // sha256 hex
	Data            interface{} `json:"data"`
}

// CMD (client -> server)
type CmdMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	Cmd             string `json:"cmd"`

	UpgradeID string `json:"upgrade_id,omitempty"`
	DrinkID   string `json:"drink_id,omitempty"`
	PatronID  string `json:"patron_id,omitempty"`
	Choice    int    `json:"choice,omitempty"`
	Force     bool   `json:"force,omitempty"`
}

// ACK (server -> client)
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
}
