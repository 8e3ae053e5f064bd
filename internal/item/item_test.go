package item

import "testing"

func TestParseRarity(t *testing.T) {
	cases := map[string]Rarity{
		"Normal":  RarityNormal,
		" magic ": RarityMagic,
		"RARE":    RarityRare,
		"Unique":  RarityUnique,
		"Gem":     RarityUnknown,
	}
	for in, expected := range cases {
		if got := ParseRarity(in); got != expected {
			t.Errorf("ParseRarity(%q) = %s, expected %s", in, got, expected)
		}
	}
}

func TestCraftable(t *testing.T) {
	if !(Item{Eligible: true}).Craftable() {
		t.Error("eligible uncorrupted item should be craftable")
	}
	if (Item{Eligible: true, Corrupted: true}).Craftable() {
		t.Error("corrupted item should not be craftable")
	}
	if (Item{}).Craftable() {
		t.Error("item outside the crafted category should not be craftable")
	}
}
