package bar

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
)

// stateDigest folds every piece of simulation state into a sha256 hex string.
// Two bars with the same seed fed the same inputs must agree tick for tick.
func (b *Bar) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestU64(h, &tmp, nowTick)
	digestBool(h, b.open)
	digestF64(h, &tmp, b.beer)
	digestF64(h, &tmp, b.money)
	digestF64(h, &tmp, b.moral)
	digestF64(h, &tmp, b.totalEarned)
	digestU64(h, &tmp, uint64(b.glassesSold))
	digestU64(h, &tmp, uint64(b.patronsServed))
	digestU64(h, &tmp, uint64(b.moralChoices))
	digestU64(h, &tmp, uint64(b.prestigePoints))
	digestU64(h, &tmp, uint64(b.prestigeLevel))
	digestStr(h, &tmp, b.activeDrink)
	digestBool(h, b.goldenActive)
	digestI64(h, &tmp, b.goldenUntil)

	for _, id := range b.cats.Upgrades.Order {
		digestStr(h, &tmp, id)
		digestU64(h, &tmp, uint64(b.upgrades[id]))
	}
	for _, id := range b.cats.Drinks.Order {
		digestStr(h, &tmp, id)
		digestBool(h, b.drinks[id].Unlocked)
		digestU64(h, &tmp, uint64(b.drinks[id].Level))
	}
	for _, id := range b.cats.Patrons.Order {
		digestI64(h, &tmp, b.lastServed[id])
	}

	for _, id := range b.patronOrder {
		p := b.patrons[id]
		if p == nil {
			continue
		}
		digestStr(h, &tmp, p.ID)
		digestStr(h, &tmp, p.Personality)
		digestI64(h, &tmp, int64(p.Seat))
		digestBool(h, p.Leaving)
		digestBool(h, p.Returning)
		digestStr(h, &tmp, p.Opportunity)
		digestF64(h, &tmp, p.Patience)
		digestF64(h, &tmp, p.OrderValue)
		digestU64(h, &tmp, uint64(p.TimesOrdered))
	}

	if b.quest != nil {
		digestStr(h, &tmp, b.quest.PatronID)
		digestStr(h, &tmp, b.quest.Kind)
		digestStr(h, &tmp, b.quest.Title)
	}
	if b.moralEvent != nil {
		digestStr(h, &tmp, b.moralEvent.EventID)
		digestI64(h, &tmp, b.moralEvent.ShownMs)
	}

	for _, id := range b.achievementLog {
		digestStr(h, &tmp, id)
	}
	for _, line := range b.feed {
		digestStr(h, &tmp, line)
	}
	digestStr(h, &tmp, b.commentary)

	return hex.EncodeToString(h.Sum(nil))
}

func digestU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestI64(h hash.Hash, tmp *[8]byte, v int64) {
	digestU64(h, tmp, uint64(v))
}

func digestF64(h hash.Hash, tmp *[8]byte, v float64) {
	digestU64(h, tmp, math.Float64bits(v))
}

func digestStr(h hash.Hash, tmp *[8]byte, s string) {
	digestU64(h, tmp, uint64(len(s)))
	h.Write([]byte(s))
}

func digestBool(h hash.Hash, v bool) {
	if v {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
}
