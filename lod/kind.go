package lod

import "fmt"

// Kind is the resource category stored next to each directory record.
//
// For DEF entries it mirrors the type field in the DEF header.
type Kind uint32

const (
	KindSpell       Kind = 0x40
	KindSprite      Kind = 0x41
	KindCreature    Kind = 0x42
	KindMapObject   Kind = 0x43
	KindMapHero     Kind = 0x44
	KindTerrain     Kind = 0x45
	KindCursor      Kind = 0x46
	KindInterface   Kind = 0x47
	KindSpriteFrame Kind = 0x48
	KindBattleHero  Kind = 0x49
)

var kindNames = map[Kind]string{
	KindSpell:       "spell",
	KindSprite:      "sprite",
	KindCreature:    "creature",
	KindMapObject:   "map-object",
	KindMapHero:     "map-hero",
	KindTerrain:     "terrain",
	KindCursor:      "cursor",
	KindInterface:   "interface",
	KindSpriteFrame: "sprite-frame",
	KindBattleHero:  "battle-hero",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("other(0x%02x)", uint32(k))
}

// IsDef reports whether the kind is one of the DEF animation kinds.
func (k Kind) IsDef() bool {
	_, ok := kindNames[k]
	return ok
}
