package data

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tilerealm/engine/internal/behavior"
	"github.com/tilerealm/engine/internal/component"
	"github.com/tilerealm/engine/internal/geom"
	"github.com/tilerealm/engine/internal/gridmap"
	"github.com/tilerealm/engine/internal/physics"
	"github.com/tilerealm/engine/internal/world"
)

// AbilityTemplate is an ability as written in YAML.
type AbilityTemplate struct {
	ID       string  `yaml:"id"`
	Range    float64 `yaml:"range"`
	Damage   float64 `yaml:"damage"`
	Cooldown int     `yaml:"cooldown"` // ticks
	Noise    string  `yaml:"noise"`    // none, silent, moderate, loud, extreme; loud when empty
}

// ItemTemplate holds static data for a carryable item.
type ItemTemplate struct {
	ID      string           `yaml:"id"`
	Name    string           `yaml:"name"`
	Kind    string           `yaml:"kind"` // misc, one_handed_weapon, two_handed_weapon, body_armor, consumable
	Weight  float64          `yaml:"weight"`
	Ability *AbilityTemplate `yaml:"ability,omitempty"`
}

// Attributes are the base stats a template starts with.
type Attributes struct {
	Strength     int `yaml:"strength"`
	Dexterity    int `yaml:"dexterity"`
	Constitution int `yaml:"constitution"`
	Intelligence int `yaml:"intelligence"`
	Willpower    int `yaml:"willpower"`
	Perception   int `yaml:"perception"`
	Charisma     int `yaml:"charisma"`
}

// ColliderTemplate is either {shape: circle, radius} or {shape: rect, width, height}.
// Rectangles are centered on the agent.
type ColliderTemplate struct {
	Shape  string  `yaml:"shape"`
	Radius float64 `yaml:"radius"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// AgentTemplate holds static data for an agent type loaded from YAML.
type AgentTemplate struct {
	ID         string           `yaml:"id"`
	Name       string           `yaml:"name"`
	Factions   []string         `yaml:"factions"`
	Behavior   string           `yaml:"behavior"`   // behavior set id, default_humanoid when empty
	Aggression string           `yaml:"aggression"` // neutral, passive, aggressive
	Stationary bool             `yaml:"stationary"`
	OnGuard    bool             `yaml:"on_guard"`
	Player     bool             `yaml:"player"`
	Attributes Attributes       `yaml:"attributes"`
	Collider   ColliderTemplate `yaml:"collider"`
	Primary    *AbilityTemplate `yaml:"primary,omitempty"`
	Secondary  *AbilityTemplate `yaml:"secondary,omitempty"`
	Items      []string         `yaml:"items"`
	Equipped   string           `yaml:"equipped"`
}

// SpawnEntry defines where and how many agents to spawn.
type SpawnEntry struct {
	Template string  `yaml:"template"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Count    int     `yaml:"count"`
	RandomX  float64 `yaml:"randomx"` // world units either side of X
	RandomY  float64 `yaml:"randomy"`
	Home     bool    `yaml:"home"` // remember the spawn point as home
}

type agentFile struct {
	Items     []ItemTemplate  `yaml:"items"`
	Templates []AgentTemplate `yaml:"templates"`
	Spawns    []SpawnEntry    `yaml:"spawns"`
}

// AgentTable holds item and agent templates indexed by id, plus the spawn list.
type AgentTable struct {
	items     map[string]component.Item
	templates map[string]*AgentTemplate
	spawns    []SpawnEntry
}

// LoadAgentTable loads items, agent templates and spawns from a YAML file.
func LoadAgentTable(path string) (*AgentTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agents: %w", err)
	}
	return ParseAgentTable(raw)
}

// ParseAgentTable builds a table from YAML and checks every cross reference.
func ParseAgentTable(raw []byte) (*AgentTable, error) {
	var f agentFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse agents: %w", err)
	}
	t := &AgentTable{
		items:     make(map[string]component.Item, len(f.Items)),
		templates: make(map[string]*AgentTemplate, len(f.Templates)),
		spawns:    f.Spawns,
	}
	for _, it := range f.Items {
		item, err := it.build()
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", it.ID, err)
		}
		if _, dup := t.items[it.ID]; dup {
			return nil, fmt.Errorf("item %q: duplicate id", it.ID)
		}
		t.items[it.ID] = item
	}
	for i := range f.Templates {
		tpl := &f.Templates[i]
		if _, dup := t.templates[tpl.ID]; dup {
			return nil, fmt.Errorf("template %q: duplicate id", tpl.ID)
		}
		if err := t.check(tpl); err != nil {
			return nil, fmt.Errorf("template %q: %w", tpl.ID, err)
		}
		t.templates[tpl.ID] = tpl
	}
	for i, sp := range f.Spawns {
		if _, ok := t.templates[sp.Template]; !ok {
			return nil, fmt.Errorf("spawn %d: unknown template %q", i, sp.Template)
		}
	}
	return t, nil
}

func (t *AgentTable) check(tpl *AgentTemplate) error {
	if _, err := component.ParseAggression(tpl.Aggression); err != nil {
		return err
	}
	if _, err := buildCollider(tpl.Collider); err != nil {
		return err
	}
	for _, a := range []*AbilityTemplate{tpl.Primary, tpl.Secondary} {
		if _, err := a.build(); err != nil {
			return err
		}
	}
	for _, id := range tpl.Items {
		if _, ok := t.items[id]; !ok {
			return fmt.Errorf("unknown item %q", id)
		}
	}
	if tpl.Equipped != "" {
		it, ok := t.items[tpl.Equipped]
		if !ok {
			return fmt.Errorf("unknown equipped item %q", tpl.Equipped)
		}
		if it.Ability == nil {
			return fmt.Errorf("equipped item %q has no ability", tpl.Equipped)
		}
	}
	return nil
}

// Get returns an agent template by id, or nil if not found.
func (t *AgentTable) Get(id string) *AgentTemplate {
	return t.templates[id]
}

// Item returns an item by id.
func (t *AgentTable) Item(id string) (component.Item, bool) {
	it, ok := t.items[id]
	return it, ok
}

// Count returns the number of loaded templates.
func (t *AgentTable) Count() int {
	return len(t.templates)
}

// Spawns returns the spawn list from the YAML file.
func (t *AgentTable) Spawns() []SpawnEntry {
	return t.spawns
}

// MapSpawns turns spawn-point objects carrying a "template" string property
// into spawn entries. The player spawn is skipped. Objects may set "count"
// (int) and "home" (bool).
func MapSpawns(m *gridmap.GridMap) []SpawnEntry {
	var out []SpawnEntry
	for _, obj := range m.ObjectsOfKind(gridmap.ObjectsSpawnPoints) {
		tpl, ok := obj.Properties["template"]
		if obj.Name == "player" || !ok || tpl.Type != gridmap.PropString {
			continue
		}
		sp := SpawnEntry{Template: tpl.String, X: obj.Position.X, Y: obj.Position.Y, Count: 1}
		if c, ok := obj.Properties["count"]; ok && c.Type == gridmap.PropInt {
			sp.Count = int(c.Int)
		}
		if h, ok := obj.Properties["home"]; ok && h.Type == gridmap.PropBool {
			sp.Home = h.Bool
		}
		out = append(out, sp)
	}
	return out
}

// Instantiate builds a world spawn from a template. A non-nil home becomes
// the agent's home point.
func (t *AgentTable) Instantiate(id string, pos geom.Vec2, home *geom.Vec2) (world.Spawn, error) {
	tpl := t.templates[id]
	if tpl == nil {
		return world.Spawn{}, fmt.Errorf("unknown template %q", id)
	}
	aggression, _ := component.ParseAggression(tpl.Aggression)
	collider, _ := buildCollider(tpl.Collider)

	stats := component.Stats{
		Strength:     tpl.Attributes.Strength,
		Dexterity:    tpl.Attributes.Dexterity,
		Constitution: tpl.Attributes.Constitution,
		Intelligence: tpl.Attributes.Intelligence,
		Willpower:    tpl.Attributes.Willpower,
		Perception:   tpl.Attributes.Perception,
		Charisma:     tpl.Attributes.Charisma,
	}
	stats.Recalculate()
	stats.FillVitals()

	var inv component.Inventory
	for _, itemID := range tpl.Items {
		inv.Items = append(inv.Items, t.items[itemID])
	}
	var combat component.Combat
	combat.Primary, _ = tpl.Primary.build()
	combat.Secondary, _ = tpl.Secondary.build()
	if tpl.Equipped != "" {
		inv.EquippedWeapon = tpl.Equipped
		combat.Primary = t.items[tpl.Equipped].Ability
	}

	sp := world.Spawn{
		Agent:     component.Agent{Name: tpl.Name, TemplateID: tpl.ID, Factions: tpl.Factions, Player: tpl.Player},
		Position:  pos,
		Collider:  collider,
		Stats:     stats,
		Inventory: inv,
		Combat:    combat,
	}
	if !tpl.Player {
		setID := tpl.Behavior
		if setID == "" {
			setID = behavior.DefaultHumanoidID
		}
		sp.Brain = &behavior.Brain{
			SetID: setID,
			Mode:  behavior.IdleMode(),
			Params: behavior.Params{
				Aggression: aggression,
				Home:       home,
				Stationary: tpl.Stationary,
				OnGuard:    tpl.OnGuard,
			},
		}
	}
	return sp, nil
}

// Positions expands a spawn entry into Count positions jittered by
// RandomX/RandomY.
func (sp SpawnEntry) Positions(rng *rand.Rand) []geom.Vec2 {
	n := max(sp.Count, 1)
	out := make([]geom.Vec2, 0, n)
	for range n {
		p := geom.V(sp.X, sp.Y)
		if sp.RandomX > 0 {
			p.X += (rng.Float64()*2 - 1) * sp.RandomX
		}
		if sp.RandomY > 0 {
			p.Y += (rng.Float64()*2 - 1) * sp.RandomY
		}
		out = append(out, p)
	}
	return out
}

func (it ItemTemplate) build() (component.Item, error) {
	kind, err := component.ParseItemKind(it.Kind)
	if err != nil {
		return component.Item{}, err
	}
	ab, err := it.Ability.build()
	if err != nil {
		return component.Item{}, err
	}
	return component.Item{ID: it.ID, Name: it.Name, Kind: kind, Weight: it.Weight, Ability: ab}, nil
}

func (a *AbilityTemplate) build() (*component.Ability, error) {
	if a == nil {
		return nil, nil
	}
	noise := component.NoiseLoud
	if a.Noise != "" {
		n, err := component.ParseNoiseLevel(a.Noise)
		if err != nil {
			return nil, fmt.Errorf("ability %q: %w", a.ID, err)
		}
		noise = n
	}
	if a.Range <= 0 {
		return nil, fmt.Errorf("ability %q: range must be positive", a.ID)
	}
	return &component.Ability{ID: a.ID, Range: a.Range, Damage: a.Damage, Cooldown: a.Cooldown, Noise: noise}, nil
}

func buildCollider(c ColliderTemplate) (physics.Collider, error) {
	switch c.Shape {
	case "", "circle":
		r := c.Radius
		if r <= 0 {
			r = 6
		}
		return physics.CircleCollider(0, 0, r), nil
	case "rect":
		if c.Width <= 0 || c.Height <= 0 {
			return physics.Collider{}, fmt.Errorf("rect collider needs width and height")
		}
		return physics.RectCollider(-c.Width/2, -c.Height/2, c.Width, c.Height), nil
	}
	return physics.Collider{}, fmt.Errorf("unknown collider shape %q", c.Shape)
}
