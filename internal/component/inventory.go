package component

import (
	"fmt"
	"slices"

	"github.com/tilerealm/engine/internal/core/ecs"
)

type ItemKind uint8

const (
	ItemMisc ItemKind = iota
	ItemOneHandedWeapon
	ItemTwoHandedWeapon
	ItemBodyArmor
	ItemConsumable
)

var itemKindNames = [...]string{"misc", "one_handed_weapon", "two_handed_weapon", "body_armor", "consumable"}

func (k ItemKind) String() string {
	if int(k) < len(itemKindNames) {
		return itemKindNames[k]
	}
	return fmt.Sprintf("item(%d)", uint8(k))
}

func ParseItemKind(s string) (ItemKind, error) {
	for i, n := range itemKindNames {
		if n == s {
			return ItemKind(i), nil
		}
	}
	return ItemMisc, fmt.Errorf("unknown item kind %q", s)
}

// Ability is something an agent can use in combat, usually granted by an
// equipped weapon.
type Ability struct {
	ID       string
	Range    float64
	Damage   float64
	Cooldown int // ticks
	Noise    NoiseLevel
}

type Item struct {
	ID      string
	Name    string
	Kind    ItemKind
	Weight  float64
	Ability *Ability // weapons only
}

// Inventory is the items an agent carries and what it has equipped.
type Inventory struct {
	Items          []Item
	EquippedWeapon string
}

// WeaponsOfKind returns carried items whose kind is one of kinds, in carry
// order.
func (inv *Inventory) WeaponsOfKind(kinds ...ItemKind) []Item {
	var out []Item
	for _, it := range inv.Items {
		if slices.Contains(kinds, it.Kind) {
			out = append(out, it)
		}
	}
	return out
}

// Find returns the item with the given id.
func (inv *Inventory) Find(id string) (Item, bool) {
	i := slices.IndexFunc(inv.Items, func(it Item) bool { return it.ID == id })
	if i < 0 {
		return Item{}, false
	}
	return inv.Items[i], true
}

// Weight returns the summed weight of carried items.
func (inv *Inventory) Weight() float64 {
	var w float64
	for _, it := range inv.Items {
		w += it.Weight
	}
	return w
}

// Combat holds an agent's abilities and who has attacked it.
type Combat struct {
	Primary   *Ability
	Secondary *Ability
	Cooldowns map[string]int
	// Attackers in the order they first struck. Entries are weak handles
	// and may no longer resolve.
	Attackers []ecs.EntityID
}

// RecordAttacker appends id unless it is already recorded.
func (c *Combat) RecordAttacker(id ecs.EntityID) {
	if !slices.Contains(c.Attackers, id) {
		c.Attackers = append(c.Attackers, id)
	}
}
