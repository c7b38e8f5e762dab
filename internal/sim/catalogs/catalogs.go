package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Catalogs struct {
	Upgrades     UpgradeCatalog
	Drinks       DrinkCatalog
	Patrons      PatronCatalog
	MoralEvents  MoralEventCatalog
	Punishments  PunishmentCatalog
	Quests       QuestCatalog
	Achievements AchievementCatalog
	Commentary   CommentaryCatalog
}

type UpgradeCatalog struct {
	Order  []string
	ByID   map[string]UpgradeDef
	Digest string
}

type UpgradeDef struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	BaseCost       float64 `json:"base_cost"`
	CostMultiplier float64 `json:"cost_multiplier"`
	MaxLevel       int     `json:"max_level,omitempty"` // 0 = unlimited
	Category       string  `json:"category"`            // "BUSINESS","GOOD","EVIL"
	UnlocksDrink   string  `json:"unlocks_drink,omitempty"`
}

type DrinkCatalog struct {
	Order  []string
	ByID   map[string]DrinkDef
	Digest string
}

type DrinkDef struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	BasePrice        float64 `json:"base_price"`
	ProductionTimeMs float64 `json:"production_time_ms"`
	Capacity         float64 `json:"capacity"`
	Unlocked         bool    `json:"unlocked"`
}

type PatronCatalog struct {
	Order  []string
	ByID   map[string]PatronDef
	Digest string
}

type PatronDef struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	PreferredStool int      `json:"preferred_stool"`
	Friendliness   float64  `json:"friendliness"`
	Generosity     float64  `json:"generosity"`
	Patience       float64  `json:"patience"`
	Style          string   `json:"style"`
	Catchphrases   []string `json:"catchphrases"`
}

type MoralEventCatalog struct {
	Order  []string
	ByID   map[string]MoralEventDef
	Digest string
}

type MoralEventDef struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Kind        string           `json:"kind"`
	Choices     []MoralChoiceDef `json:"choices"`
}

type MoralChoiceDef struct {
	Text        string  `json:"text"`
	Moral       float64 `json:"moral"`
	Money       float64 `json:"money,omitempty"`
	Beer        float64 `json:"beer,omitempty"`
	Consequence string  `json:"consequence"`
}

type PunishmentCatalog struct {
	Moderate []PunishmentDef `json:"moderate"`
	Severe   []PunishmentDef `json:"severe"`
	Digest   string          `json:"-"`
}

type PunishmentDef struct {
	Title    string  `json:"title"`
	Message  string  `json:"message"`
	MoneyPct float64 `json:"money_pct,omitempty"`
	BeerPct  float64 `json:"beer_pct,omitempty"`
	Moral    float64 `json:"moral"`
}

type QuestCatalog struct {
	ByKind map[string][]QuestTemplate
	Digest string
}

type QuestTemplate struct {
	Title        string           `json:"title"`
	Prompt       string           `json:"prompt"`
	StyledPrompt bool             `json:"styled_prompt,omitempty"`
	Choices      []QuestChoiceDef `json:"choices"`
}

// QuestChoiceDef resolves against the asking patron: money scales off the
// order value, MoralWarm adds floor(c*friendliness) and MoralCold subtracts
// floor(c*(1-friendliness)) with friendliness in [0,1].
type QuestChoiceDef struct {
	Text               string  `json:"text"`
	MoneyFactor        float64 `json:"money_factor"`
	BeerCapacityFactor float64 `json:"beer_capacity_factor,omitempty"`
	Moral              float64 `json:"moral,omitempty"`
	MoralWarm          float64 `json:"moral_warm,omitempty"`
	MoralCold          float64 `json:"moral_cold,omitempty"`
	Consequence        string  `json:"consequence"`
	Styled             bool    `json:"styled,omitempty"`
}

type AchievementCatalog struct {
	Defs   []AchievementDef
	ByID   map[string]AchievementDef
	Digest string
}

// AchievementDef matches one tracked stat against gte/lte bounds. When both
// are set the stat must fall inside the closed interval.
type AchievementDef struct {
	ID      string   `json:"id"`
	Stat    string   `json:"stat"`
	Gte     *float64 `json:"gte,omitempty"`
	Lte     *float64 `json:"lte,omitempty"`
	Message string   `json:"message"`
}

type CommentaryCatalog struct {
	Lines  map[string][]string
	Digest string
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadUpgrades(filepath.Join(configDir, "upgrades.json"), &c.Upgrades); err != nil {
		return nil, err
	}
	if err := loadDrinks(filepath.Join(configDir, "drinks.json"), &c.Drinks); err != nil {
		return nil, err
	}
	if err := loadPatrons(filepath.Join(configDir, "patrons.json"), &c.Patrons); err != nil {
		return nil, err
	}
	if err := loadMoralEvents(filepath.Join(configDir, "moral_events.json"), &c.MoralEvents); err != nil {
		return nil, err
	}
	if err := loadPunishments(filepath.Join(configDir, "punishments.json"), &c.Punishments); err != nil {
		return nil, err
	}
	if err := loadQuests(filepath.Join(configDir, "quests.json"), &c.Quests); err != nil {
		return nil, err
	}
	if err := loadAchievements(filepath.Join(configDir, "achievements.json"), &c.Achievements); err != nil {
		return nil, err
	}
	if err := loadCommentary(filepath.Join(configDir, "commentary.json"), &c.Commentary); err != nil {
		return nil, err
	}

	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadUpgrades(path string, out *UpgradeCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []UpgradeDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("upgrades.json: %w", err)
	}
	out.ByID = map[string]UpgradeDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("upgrades.json: empty id")
		}
		if d.CostMultiplier <= 1 {
			return fmt.Errorf("upgrades.json: %s: cost_multiplier must be > 1", d.ID)
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("upgrades.json: duplicate id %s", d.ID)
		}
		out.ByID[d.ID] = d
		out.Order = append(out.Order, d.ID)
	}
	return nil
}

func loadDrinks(path string, out *DrinkCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []DrinkDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("drinks.json: %w", err)
	}
	out.ByID = map[string]DrinkDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("drinks.json: empty id")
		}
		if d.Capacity <= 0 {
			return fmt.Errorf("drinks.json: %s: capacity must be positive", d.ID)
		}
		out.ByID[d.ID] = d
		out.Order = append(out.Order, d.ID)
	}
	if len(out.Order) == 0 {
		return fmt.Errorf("drinks.json: no drinks")
	}
	if !out.ByID[out.Order[0]].Unlocked {
		return fmt.Errorf("drinks.json: first drink must start unlocked")
	}
	return nil
}

func loadPatrons(path string, out *PatronCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []PatronDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("patrons.json: %w", err)
	}
	out.ByID = map[string]PatronDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("patrons.json: empty id")
		}
		out.ByID[d.ID] = d
		out.Order = append(out.Order, d.ID)
	}
	return nil
}

func loadMoralEvents(path string, out *MoralEventCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []MoralEventDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("moral_events.json: %w", err)
	}
	out.ByID = map[string]MoralEventDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("moral_events.json: empty id")
		}
		if len(d.Choices) != 2 {
			return fmt.Errorf("moral_events.json: %s: want 2 choices, got %d", d.ID, len(d.Choices))
		}
		out.ByID[d.ID] = d
		out.Order = append(out.Order, d.ID)
	}
	return nil
}

func loadPunishments(path string, out *PunishmentCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("punishments.json: %w", err)
	}
	out.Digest = sha256Hex(raw)
	if len(out.Moderate) == 0 || len(out.Severe) == 0 {
		return fmt.Errorf("punishments.json: both severities need at least one entry")
	}
	return nil
}

func loadQuests(path string, out *QuestCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	if err := json.Unmarshal(raw, &out.ByKind); err != nil {
		return fmt.Errorf("quests.json: %w", err)
	}
	for kind, templates := range out.ByKind {
		if len(templates) == 0 {
			return fmt.Errorf("quests.json: %s: no templates", kind)
		}
		for i, t := range templates {
			if len(t.Choices) != 3 {
				return fmt.Errorf("quests.json: %s[%d]: want 3 choices, got %d", kind, i, len(t.Choices))
			}
		}
	}
	return nil
}

func loadAchievements(path string, out *AchievementCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	if err := json.Unmarshal(raw, &out.Defs); err != nil {
		return fmt.Errorf("achievements.json: %w", err)
	}
	out.ByID = map[string]AchievementDef{}
	for _, d := range out.Defs {
		if d.ID == "" {
			return fmt.Errorf("achievements.json: empty id")
		}
		if d.Gte == nil && d.Lte == nil {
			return fmt.Errorf("achievements.json: %s: needs gte or lte", d.ID)
		}
		out.ByID[d.ID] = d
	}
	return nil
}

func loadCommentary(path string, out *CommentaryCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	if err := json.Unmarshal(raw, &out.Lines); err != nil {
		return fmt.Errorf("commentary.json: %w", err)
	}
	return nil
}
