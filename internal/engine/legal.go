package engine

// IsValidPlay reports whether card may be played on top given the active
// color. A card is legal if it is any wild variant, matches the active
// color, matches the top card's number, or shares a non-number type with
// the top card (skip on skip, reverse on reverse, draw_two on draw_two).
func IsValidPlay(card, top Card, currentColor Color) bool {
	if card.IsWild() {
		return true
	}
	if card.Color == currentColor {
		return true
	}
	if card.Type == TypeNumber && top.Type == TypeNumber && card.Value == top.Value {
		return true
	}
	if card.Type != TypeNumber && card.Type == top.Type {
		return true
	}
	return false
}
