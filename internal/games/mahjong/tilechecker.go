package mahjong

// parseTile parses one tile token: a number suit as "<1-9><m|p|s>" (with
// "0" standing in for a red five, e.g. "0s"), or an honor by its single
// Chinese name (东南西北中发白). msgcheck.Reader's token cursor is private to
// that package, so tile parsing happens here against the raw string an
// msgcheck.AnyArg checker already consumed, rather than through a custom
// Checker implementation.
func parseTile(tok string) (Tile, bool) {
	if num, ok := honorNames[tok]; ok {
		return Tile{Suit: Honor, Num: num}, true
	}
	if len(tok) != 2 {
		return Tile{}, false
	}
	digit := tok[0]
	if digit < '0' || digit > '9' {
		return Tile{}, false
	}
	var suit Suit
	switch tok[1] {
	case 'm':
		suit = Man
	case 'p':
		suit = Pin
	case 's':
		suit = Sou
	default:
		return Tile{}, false
	}
	num := int(digit - '0')
	if num == 0 {
		return Tile{Suit: suit, Num: 5, Red: true}, true
	}
	if num < 1 || num > 9 {
		return Tile{}, false
	}
	return Tile{Suit: suit, Num: num}, true
}

var honorNames = map[string]int{
	"东": East, "南": South, "西": West, "北": North,
	"白": White, "发": Green, "中": Red,
}
