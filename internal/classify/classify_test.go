package classify

import "testing"

func TestClassifyRules(t *testing.T) {
	cases := []struct {
		query   string
		segment Segment
		store   string
	}{
		{"pulse and cocktail", SegBrandPure, ""},
		{"Pulse And Cocktail  ", SegBrandPure, ""},
		{"pulse and cocktail leeds", SegBrandLocation, "Leeds"},
		{"sex shop leeds", SegStoreLocal, "Leeds"},
		{"pulse gym near me", SegNoise, ""},
		{"pulse and cocktail pulse gym", SegBrandPure, ""},
		{"sex shop near me", SegNearMe, ""},
		{"best online sex shop uk", SegOnlineNational, ""},
		{"sex shop", SegGenericShop, ""},
		{"adult store", SegGenericShop, ""},
		{"red lingerie", SegOther, ""},
		{"pulse radio", SegNoise, ""},
		{"a63 services", SegStoreLocal, "A63 / Hull Brough"},
		{"sex shop wolverhampton", SegStoreLocal, "Wolverhampton"},
		{"adult shop solihull", SegStoreLocal, "Solihull (Closed)"},
	}
	for _, tc := range cases {
		seg, store := Classify(tc.query, nil)
		if seg != tc.segment || store != tc.store {
			t.Fatalf("Classify(%q) = (%s, %q), want (%s, %q)", tc.query, seg, store, tc.segment, tc.store)
		}
	}
}

func TestClassifyExclusions(t *testing.T) {
	// "hull" is a substring of "solihull": must never resolve to the Hull store.
	seg, store := Classify("sex shop solihull", nil)
	if store == "Hull" {
		t.Fatalf("solihull query resolved to Hull store")
	}
	if seg != SegStoreLocal || store != "Solihull (Closed)" {
		t.Fatalf("got (%s, %q), want (%s, %q)", seg, store, SegStoreLocal, "Solihull (Closed)")
	}

	// "brough" is a substring of "middlesbrough": A63 must not fire.
	_, store = Classify("sex shop middlesbrough", nil)
	if store == "A63 / Hull Brough" {
		t.Fatalf("middlesbrough query resolved to A63 / Hull Brough")
	}
}

func TestClassifyOverridePrecedence(t *testing.T) {
	overrides := map[string]Override{
		"widget xyz":               {Segment: SegProduct},
		"pulse and cocktail leeds": {Segment: SegNotRelevant},
	}

	// Overrides apply even for segments no rule table can produce.
	seg, store := Classify("widget xyz", overrides)
	if seg != SegProduct || store != "" {
		t.Fatalf("override ignored: got (%s, %q)", seg, store)
	}

	// Overrides beat a query the rules would classify confidently.
	seg, _ = Classify("pulse and cocktail leeds", overrides)
	if seg != SegNotRelevant {
		t.Fatalf("override ignored for rule-matched query: got %s", seg)
	}

	// Override keys are exact, original casing; a different casing falls
	// through to the rules.
	seg, _ = Classify("Widget XYZ", overrides)
	if seg != SegOther {
		t.Fatalf("cased variant should fall through to rules, got %s", seg)
	}
}

func TestClassifyNoiseRequiresNoBrand(t *testing.T) {
	seg, _ := Classify("pulse fitness opening hours", nil)
	if seg != SegNoise {
		t.Fatalf("want Noise, got %s", seg)
	}
	// Brand term present: noise must not win.
	seg, _ = Classify("pulse and cocktail pulse fitness", nil)
	if seg == SegNoise {
		t.Fatalf("brand query classified as Noise")
	}
}

func TestClassifyStoreInvariant(t *testing.T) {
	queries := []string{
		"pulse and cocktail", "pulse and cocktail leeds", "sex shop bradford",
		"sex shop near me", "best online sex shop uk", "sex shop", "anything else",
		"pulse gym", "a38 adult store", "kettering sex shop",
	}
	for _, q := range queries {
		seg, store := Classify(q, nil)
		bound := seg == SegStoreLocal || seg == SegBrandLocation
		if bound && store == "" {
			t.Fatalf("Classify(%q): location segment %s without store", q, seg)
		}
		if !bound && store != "" {
			t.Fatalf("Classify(%q): store %q on non-location segment %s", q, store, seg)
		}
	}
}

func TestClassifyIdempotent(t *testing.T) {
	overrides := map[string]Override{"widget xyz": {Segment: SegProduct}}
	for _, q := range []string{"pulse and cocktail leeds", "widget xyz", "sex shop near me"} {
		s1, st1 := Classify(q, overrides)
		s2, st2 := Classify(q, overrides)
		if s1 != s2 || st1 != st2 {
			t.Fatalf("Classify(%q) not deterministic: (%s,%q) vs (%s,%q)", q, s1, st1, s2, st2)
		}
	}
}

func TestSegmentHelpers(t *testing.T) {
	if !Excluded(SegNoise) || !Excluded(SegNotRelevant) {
		t.Fatalf("Noise and Not Relevant must be excluded from reporting")
	}
	if Excluded(SegOther) {
		t.Fatalf("Other must not be hard-excluded")
	}
	if !Valid(SegNoise) || !Valid(SegProduct) {
		t.Fatalf("known segments reported invalid")
	}
	if Valid(Segment("Bogus")) {
		t.Fatalf("unknown segment reported valid")
	}
	labels := StoreLabels()
	if len(labels) != len(StoreLocations) || labels[0] != "A1 North (Pontefract/Wentbridge)" {
		t.Fatalf("unexpected store labels: %v", labels)
	}
}
