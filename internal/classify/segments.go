package classify

// Segment is the business category assigned to a search query.
type Segment string

const (
	SegBrandPure      Segment = "Brand (Pure)"
	SegBrandLocation  Segment = "Brand + Location"
	SegStoreLocal     Segment = "Store & Local"
	SegNearMe         Segment = "Store Intent (Near Me)"
	SegOnlineNational Segment = "Online / National"
	SegGenericShop    Segment = "Generic Sex Shop"
	SegProduct        Segment = "Product"
	SegCategory       Segment = "Category"
	SegOther          Segment = "Other"
	SegNotRelevant    Segment = "Not Relevant"
	SegNoise          Segment = "Noise"
)

// AllSegments lists the assignable segments in display order. Noise is not
// offered in admin dropdowns; it only ever comes out of the rule engine.
var AllSegments = []Segment{
	SegBrandPure,
	SegBrandLocation,
	SegStoreLocal,
	SegNearMe,
	SegOnlineNational,
	SegGenericShop,
	SegProduct,
	SegCategory,
	SegOther,
	SegNotRelevant,
}

// Excluded reports whether a segment is dropped from all reporting,
// regardless of the user's filter selection.
func Excluded(s Segment) bool {
	return s == SegNoise || s == SegNotRelevant
}

// Valid reports whether s is one of the known segment labels.
func Valid(s Segment) bool {
	if s == SegNoise {
		return true
	}
	for _, seg := range AllSegments {
		if s == seg {
			return true
		}
	}
	return false
}

var brandPureTerms = []string{
	"pulse and cocktail", "pulse & cocktail", "pulseandcocktail",
	"pulses and cocktail", "cocktails and pulse", "cocktail and pulse",
	"pulse n cocktail", "pulse snd cocktail", "pulse amd cocktail",
	"pulse and coctail", "pulse and cocktsil", "pulse and coxktail",
	"pulse and cicktail", "pulse and coktail", "pulse and.cocktail",
	"pulse and cocktsils", "pulse and covktail", "pulse and cocktaiks",
	"pulse and cocktials", "pulse andcocktail", "pulseandcocktails",
	"pulse snd", "pulse and cock",
}

// noiseTerms are homographs of the brand name that belong to unrelated
// businesses or concepts. They only win when no brand term co-occurs.
var noiseTerms = []string{
	"pulse gym", "pulse radio", "pulse rate", "pulse yoga", "pulse pilates",
	"pulse clinic", "pulse coaching", "pulse leisure", "pulse fitness",
	"pulse hotel", "pulse agency", "pulse care", "pulse sanctuary",
	"pulse bar", "pulse theatre", "pulse outlet", "pulse warehouse",
	"pulse rx", "mediterranean", "pulse centre", "pulse high heels",
	"pulse trainers", "pulse solo", "pulse ring", "electric pulse",
	"air pulse", "pulse pantees", "pulse butt", "pulse dick",
	"pulse stroker", "pulse vagina", "clitoris pulse", "butt pulse",
	"pulse bookin", "pulse mark", "pulse closing", "pulse open now",
	"pulse77", "pulse sanctuary care", "pulse pulsefitness",
}

// StoreLocation maps a store label to the query substrings that identify it.
// Excludes lists place names that contain a term as a false-positive
// substring ("solihull" contains "hull"); if one is present the store is
// skipped and scanning continues.
type StoreLocation struct {
	Label    string
	Terms    []string
	Excludes []string
}

// StoreLocations is scanned in order; the first unexcluded term match wins.
// Solihull (Closed) is a retired location kept for historical comparison.
var StoreLocations = []StoreLocation{
	{Label: "A1 North (Pontefract/Wentbridge)", Terms: []string{"pontefract", "wentbridge", "a1 north", "a1 northbound"}},
	{Label: "A1 South (Grantham)", Terms: []string{"grantham", "sandy", "a1m", "a1 south"}},
	{Label: "A1 (General)", Terms: []string{"a1 sex shop", "sex shop a1", "sex shop on a1", "sex shops on a1", "a1 sex shops"}},
	{Label: "A12 / Essex (Rivenhall)", Terms: []string{"a12", "rivenhall", "witham", "essex", "colchester", "chelmsford"}},
	{Label: "A38 / Lichfield", Terms: []string{"a38", "lichfield"}},
	{Label: "A63 / Hull Brough", Terms: []string{"a63", "brough"}, Excludes: []string{"middlesbrough"}},
	{Label: "Bradford", Terms: []string{"bradford"}},
	{Label: "Cheltenham", Terms: []string{"cheltenham", "gloucester"}},
	{Label: "Gateshead / Newcastle", Terms: []string{"gateshead", "newcastle", "blaydon", "north east"}},
	{Label: "Hull", Terms: []string{"hull"}, Excludes: []string{"solihull"}},
	{Label: "Ipswich", Terms: []string{"ipswich"}},
	{Label: "Kettering", Terms: []string{"kettering"}},
	{Label: "Leeds", Terms: []string{"leeds"}},
	{Label: "Lincoln / Saxilby", Terms: []string{"lincoln", "saxilby"}},
	{Label: "Rotherham", Terms: []string{"rotherham"}},
	{Label: "Scunthorpe", Terms: []string{"scunthorpe"}},
	{Label: "Sheffield", Terms: []string{"sheffield"}},
	{Label: "Wolverhampton", Terms: []string{"wolverhampton", "west midlands"}},
	{Label: "Solihull (Closed)", Terms: []string{"solihull"}},
}

// StoreLabels returns the store labels in table order.
func StoreLabels() []string {
	labels := make([]string, 0, len(StoreLocations))
	for _, s := range StoreLocations {
		labels = append(labels, s.Label)
	}
	return labels
}

var nearMeTerms = []string{
	"near me", "nearby", "nearest", "closest", "close to me",
	"local", "near by", "nwar me", "nesr me", "nere me", "mear me",
	"next to me", "around me", "near.me", "nearme", "near mr",
	"near ms", "near mw", "nea rme",
}

var onlineTerms = []string{
	"online", " uk", "delivery", "next day", "same day",
	"website", "on line", "on-line", "internet",
}

var genericShopTerms = []string{
	"sex shop", "sex shops", "adult shop", "adult store",
}
