package layer

// Pos is the NAF tag and class of a Universal Dependencies tag.
type Pos struct {
	Tag   string
	Class string
}

const (
	ClassOpen  = "open"
	ClassClose = "close"

	// UnknownTag is written for tags missing from PosMap.
	UnknownTag = "UNKNOWN"
)

// PosMap maps Universal Dependencies POS tags to the NAF tag set.
var PosMap = map[string]Pos{
	"ADJ":   {"ADJ", ClassOpen},
	"ADP":   {"PREP", ClassClose},
	"ADV":   {"ADV", ClassOpen},
	"AUX":   {"VERB", ClassClose},
	"CCONJ": {"CONJ", ClassClose},
	"CONJ":  {"CONJ", ClassClose},
	"DET":   {"DET", ClassClose},
	"INTJ":  {"O", ClassOpen},
	"NOUN":  {"NOUN", ClassOpen},
	"NUM":   {"O", ClassClose},
	"PART":  {"O", ClassClose},
	"PRON":  {"PRON", ClassClose},
	"PROPN": {"NOUN", ClassOpen},
	"PUNCT": {"O", ClassClose},
	"SCONJ": {"CONJ", ClassClose},
	"SYM":   {"O", ClassOpen},
	"VERB":  {"VERB", ClassOpen},
	"X":     {"O", ClassOpen},
	"SPACE": {"O", ClassOpen},
}

// MapPos returns the NAF tag and class of tag. Unknown tags yield
// UnknownTag and the open class, with ok false.
func MapPos(tag string) (Pos, bool) {
	p, ok := PosMap[tag]
	if !ok {
		return Pos{UnknownTag, ClassOpen}, false
	}
	return p, true
}
