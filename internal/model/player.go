package model

// Customization holds optional display preferences attached to a player.
// Absent until the first customization call.
type Customization struct {
	Nickname   string  `json:"nickname"`
	Hue        int     `json:"hue"`        // 0..360
	Saturation float64 `json:"saturation"` // 0..1
	Value      float64 `json:"value"`      // 0..1
}

// Player is an account plus optional customization. Player identity is the
// account alone; customization never affects equality.
type Player struct {
	Account   Account        `json:"account"`
	Customize *Customization `json:"customize,omitempty"`
}

// Register creates a player from raw credentials with no customization.
func Register(id, password string) Player {
	return Player{Account: NewAccount(id, password)}
}

// PlayerFromAccount wraps an existing account as a plain player.
func PlayerFromAccount(account Account) Player {
	return Player{Account: account}
}

// Same reports whether two players are the same entity (account equality).
func (p Player) Same(other Player) bool {
	return p.Account == other.Account
}

func (p Player) String() string {
	return p.Account.String()
}

// SetNickname sets the display name, allocating customization on first use.
func (p *Player) SetNickname(name string) *Player {
	p.customize().Nickname = name
	return p
}

// SetHue sets the display color hue, clamped to [0, 360].
func (p *Player) SetHue(hue int) *Player {
	p.customize().Hue = clampInt(hue, 0, 360)
	return p
}

// SetHSV sets the full display color, clamping each channel to its range.
func (p *Player) SetHSV(hue int, saturation, value float64) *Player {
	c := p.customize()
	c.Hue = clampInt(hue, 0, 360)
	c.Saturation = clampFloat(saturation, 0, 1)
	c.Value = clampFloat(value, 0, 1)
	return p
}

func (p *Player) customize() *Customization {
	if p.Customize == nil {
		p.Customize = &Customization{}
	}
	return p.Customize
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
